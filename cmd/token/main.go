// Command token mints a bearer token for local use against an API running
// with AUTH_MODE=jwt.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ARIHANT218/Finance-Tracker/internal/auth"
	"github.com/ARIHANT218/Finance-Tracker/internal/config"
)

func main() {
	_ = godotenv.Load()

	owner := flag.String("owner", "", "owner id placed in the sub claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Auth.JWTSecret == "" {
		slog.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := auth.IssueToken(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, *owner, *ttl)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
