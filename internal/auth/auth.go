// Package auth resolves the owner of a request. Every transaction operation
// is scoped to the identifier returned here.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
)

// ErrUnauthenticated is the transaction package's sentinel, so resolver
// failures and service checks map to the same 401.
var ErrUnauthenticated = transaction.ErrUnauthenticated

// Resolver extracts the owner identifier from a request.
type Resolver interface {
	Resolve(r *http.Request) (string, error)
}

// StaticResolver attributes every request to one fixed owner. It stands in
// for a real identity provider during local development.
type StaticResolver struct {
	Owner string
}

func (s StaticResolver) Resolve(_ *http.Request) (string, error) {
	if s.Owner == "" {
		return "", ErrUnauthenticated
	}

	return s.Owner, nil
}

// JWTResolver reads an HS256 bearer token and uses its subject as the owner.
type JWTResolver struct {
	secret []byte
	issuer string
}

func NewJWTResolver(secret, issuer string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret), issuer: issuer}
}

func (j *JWTResolver) Resolve(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrUnauthenticated
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(parts[1], &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrUnauthenticated
	}

	return claims.Subject, nil
}

// IssueToken signs a token for owner that JWTResolver accepts until ttl elapses.
func IssueToken(secret, issuer, owner string, ttl time.Duration) (string, error) {
	if owner == "" {
		return "", errors.New("owner is required")
	}

	now := time.Now()

	claims := jwt.RegisteredClaims{
		Subject:   owner,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}

type ownerKey struct{}

// WithOwner returns a copy of ctx carrying owner.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext returns the owner stored by Middleware, or "".
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}
