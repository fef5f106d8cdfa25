package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ARIHANT218/Finance-Tracker/internal/auth"
	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
)

const secret = "test-secret"

func bearer(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	return r
}

func TestStaticResolver(t *testing.T) {
	owner, err := auth.StaticResolver{Owner: "user123"}.Resolve(bearer(""))
	require.NoError(t, err)
	assert.Equal(t, "user123", owner)

	_, err = auth.StaticResolver{}.Resolve(bearer(""))
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestJWTResolver(t *testing.T) {
	valid, err := auth.IssueToken(secret, "finance-tracker", "alice", time.Hour)
	require.NoError(t, err)

	expired, err := auth.IssueToken(secret, "finance-tracker", "alice", -time.Minute)
	require.NoError(t, err)

	otherIssuer, err := auth.IssueToken(secret, "someone-else", "alice", time.Hour)
	require.NoError(t, err)

	wrongKey, err := auth.IssueToken("other-secret", "finance-tracker", "alice", time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "alice",
		Issuer:  "finance-tracker",
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	type testCase struct {
		name      string
		req       *http.Request
		wantOwner string
		wantErr   bool
	}

	schemeless := bearer("")
	schemeless.Header.Set("Authorization", valid)

	tests := []testCase{
		{name: "Valid", req: bearer(valid), wantOwner: "alice"},
		{name: "Missing header", req: bearer(""), wantErr: true},
		{name: "Missing scheme", req: schemeless, wantErr: true},
		{name: "Garbage", req: bearer("not.a.jwt"), wantErr: true},
		{name: "Expired", req: bearer(expired), wantErr: true},
		{name: "Wrong issuer", req: bearer(otherIssuer), wantErr: true},
		{name: "Wrong key", req: bearer(wrongKey), wantErr: true},
		{name: "No expiry", req: bearer(noExpiry), wantErr: true},
	}

	resolver := auth.NewJWTResolver(secret, "finance-tracker")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, err := resolver.Resolve(tt.req)
			if tt.wantErr {
				assert.ErrorIs(t, err, auth.ErrUnauthenticated)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
		})
	}
}

func TestIssueToken_RequiresOwner(t *testing.T) {
	_, err := auth.IssueToken(secret, "", "", time.Hour)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	var seen string

	handler := auth.Middleware(auth.StaticResolver{Owner: "user123"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.OwnerFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, bearer(""))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user123", seen)
}

func TestMiddleware_Rejects(t *testing.T) {
	called := false

	handler := auth.Middleware(auth.NewJWTResolver(secret, ""))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, bearer(""))

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.JSONEq(t, `{"error":"unauthenticated"}`, rec.Body.String())
}

type resolverFunc func(r *http.Request) (string, error)

func (f resolverFunc) Resolve(r *http.Request) (string, error) { return f(r) }

func TestMiddleware_AnyResolverFailureIsUnauthenticated(t *testing.T) {
	require.ErrorIs(t, auth.ErrUnauthenticated, transaction.ErrUnauthenticated)

	resolvers := map[string]auth.Resolver{
		"foreign error": resolverFunc(func(*http.Request) (string, error) { return "", errors.New("idp down") }),
		"empty owner":   resolverFunc(func(*http.Request) (string, error) { return "", nil }),
		"static empty":  auth.StaticResolver{},
	}

	for name, resolver := range resolvers {
		t.Run(name, func(t *testing.T) {
			handler := auth.Middleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, bearer(""))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			assert.JSONEq(t, `{"error":"unauthenticated"}`, rec.Body.String())
		})
	}
}
