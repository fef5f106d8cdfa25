package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"

	AuthStatic = "static"
	AuthJWT    = "jwt"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"finance-tracker"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Server struct {
		Timeout         time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
		AllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	}

	Storage struct {
		Driver string `envconfig:"STORAGE_DRIVER" default:"postgres"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"finance_tracker"`
		SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	}

	Mongo struct {
		URI        string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
		Database   string `envconfig:"MONGO_DATABASE" default:"finance_tracker"`
		Collection string `envconfig:"MONGO_COLLECTION" default:"transactions"`
	}

	Auth struct {
		Mode        string `envconfig:"AUTH_MODE" default:"static"`
		StaticOwner string `envconfig:"AUTH_STATIC_OWNER" default:"user123"`
		JWTSecret   string `envconfig:"JWT_SECRET"`
		JWTIssuer   string `envconfig:"JWT_ISSUER" default:"finance-tracker"`
	}

	Transactions struct {
		AmountPolicy transaction.AmountPolicy `envconfig:"AMOUNT_POLICY" default:"positive"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"text"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

// LogLevel maps LOG_LEVEL onto a slog level. Validate rejects unknown names.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.Log.Level))

	return level
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER %q must be one of postgres, mongo, memory", c.Storage.Driver))
	}

	switch c.Auth.Mode {
	case AuthStatic:
		if strings.TrimSpace(c.Auth.StaticOwner) == "" {
			errs = append(errs, errors.New("AUTH_STATIC_OWNER is required when AUTH_MODE=static"))
		}
	case AuthJWT:
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required when AUTH_MODE=jwt"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_MODE %q must be one of static, jwt", c.Auth.Mode))
	}

	if !c.Transactions.AmountPolicy.Valid() {
		errs = append(errs, fmt.Errorf("AMOUNT_POLICY %q must be one of positive, non_negative", c.Transactions.AmountPolicy))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Log.Level))
	}

	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q must be one of text, json", c.Log.Format))
	}

	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.App.Port))
	}

	return errors.Join(errs...)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
