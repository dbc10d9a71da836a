package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/identity"
)

var testSecret = []byte("test-identity-secret")

// Helper to create a signed session token for testing
func createTestToken(t *testing.T, secret []byte, method jwt.SigningMethod, claims identity.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)
	return signed
}

func validClaims(sub string) identity.Claims {
	now := time.Now()
	return identity.Claims{
		Email:       sub + "@acme.test",
		CompanyID:   "acme",
		RoleID:      "acme-clerk",
		SessionID:   "sess-1",
		DeviceID:    "dev-1",
		MFAVerified: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func trustLoopback(ip string) bool {
	return authz.IPInAnyRange(ip, []string{"10.0.0.0/8"})
}

func rejectingHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})
}

func TestNewJWTAuthenticator(t *testing.T) {
	auth := NewJWTAuthenticator(testSecret, nil)
	require.NotNil(t, auth)
	assert.False(t, auth.trusted("10.0.0.1"))
}

func TestMiddleware_MissingAuthorization(t *testing.T) {
	auth := NewJWTAuthenticator(testSecret, nil)
	handler := auth.Middleware(rejectingHandler(t))

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authorization missing", rec.Body.String())
}

func TestMiddleware_MalformedAuthorizationHeader(t *testing.T) {
	auth := NewJWTAuthenticator(testSecret, nil)
	handler := auth.Middleware(rejectingHandler(t))

	tests := []struct {
		name   string
		header string
	}{
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"random string", "something"},
		{"empty bearer", "Bearer "},
		{"token scheme", `Token token="abc"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Malformed authorization header", rec.Body.String())
		})
	}
}

func TestMiddleware_InvalidTokens(t *testing.T) {
	auth := NewJWTAuthenticator(testSecret, nil)
	handler := auth.Middleware(rejectingHandler(t))

	noSubject := validClaims("")
	noExpiry := validClaims("alice")
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", createTestToken(t, []byte("other"), jwt.SigningMethodHS256, validClaims("alice"))},
		{"wrong algorithm", createTestToken(t, testSecret, jwt.SigningMethodHS384, validClaims("alice"))},
		{"missing subject", createTestToken(t, testSecret, jwt.SigningMethodHS256, noSubject)},
		{"missing expiry", createTestToken(t, testSecret, jwt.SigningMethodHS256, noExpiry)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Invalid session token", rec.Body.String())
		})
	}
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	auth := NewJWTAuthenticator(testSecret, nil)
	handler := auth.Middleware(rejectingHandler(t))

	claims := validClaims("alice")
	claims.IssuedAt = jwt.NewNumericDate(time.Now().Add(-2 * time.Hour))
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+createTestToken(t, testSecret, jwt.SigningMethodHS256, claims))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token expired", rec.Body.String())
}

func TestMiddleware_UnconfiguredSecret(t *testing.T) {
	auth := NewJWTAuthenticator(nil, nil)
	handler := auth.Middleware(rejectingHandler(t))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+createTestToken(t, testSecret, jwt.SigningMethodHS256, validClaims("alice")))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_IdentityFromContext(t *testing.T) {
	auth := NewJWTAuthenticator(testSecret, trustLoopback)

	var got *identity.Identity
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		require.True(t, ok)
		got = id
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "203.0.113.7:5123"
	req.Header.Set("Authorization", "Bearer "+createTestToken(t, testSecret, jwt.SigningMethodHS256, validClaims("alice")))
	req.Header.Set("User-Agent", "fincore-web/1.0")
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	req.Header.Set(CountryHeader, "ng")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, "acme", got.CompanyID)
	assert.Equal(t, "acme-clerk", got.RoleID)
	assert.True(t, got.MFAVerified)
	assert.Equal(t, "fincore-web/1.0", got.UserAgent)
	// untrusted peer: forwarding and country headers are ignored
	assert.Equal(t, "203.0.113.7", got.RemoteIP.String())
	assert.Empty(t, got.Country)
}

func TestMiddleware_TrustedProxy(t *testing.T) {
	auth := NewJWTAuthenticator(testSecret, trustLoopback)

	var got *identity.Identity
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = identity.Get(r.Context())
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "10.0.0.5:44321"
	req.Header.Set("Authorization", "Bearer "+createTestToken(t, testSecret, jwt.SigningMethodHS256, validClaims("alice")))
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 203.0.113.9, 10.0.0.2")
	req.Header.Set(CountryHeader, "ng")

	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, "203.0.113.9", got.RemoteIP.String())
	assert.Equal(t, "NG", got.Country)
}

func TestClientIP(t *testing.T) {
	auth := NewJWTAuthenticator(testSecret, trustLoopback)

	tests := []struct {
		name      string
		peer      string
		forwarded string
		expected  string
	}{
		{"no header", "203.0.113.7", "", "203.0.113.7"},
		{"untrusted peer", "203.0.113.7", "198.51.100.1", "203.0.113.7"},
		{"single hop", "10.0.0.5", "198.51.100.1", "198.51.100.1"},
		{"skips trusted hops", "10.0.0.5", "198.51.100.1, 10.1.1.1", "198.51.100.1"},
		{"all trusted", "10.0.0.5", "10.1.1.1, 10.2.2.2", "10.1.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.clientIP(tt.peer, tt.forwarded))
		})
	}
}

type fakeLimiter struct {
	allow bool
	seen  []string
}

func (f *fakeLimiter) Allow(actorID string) bool {
	f.seen = append(f.seen, actorID)
	return f.allow
}

func TestThrottle(t *testing.T) {
	t.Run("allows", func(t *testing.T) {
		lim := &fakeLimiter{allow: true}
		handler := Throttle(lim)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		req := httptest.NewRequest("POST", "/authorize", nil)
		req = req.WithContext(identity.Set(req.Context(), &identity.Identity{UserID: "alice"}))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, []string{"alice"}, lim.seen)
	})

	t.Run("rejects", func(t *testing.T) {
		handler := Throttle(&fakeLimiter{})(rejectingHandler(t))
		req := httptest.NewRequest("POST", "/authorize", nil)
		req = req.WithContext(identity.Set(req.Context(), &identity.Identity{UserID: "mallory"}))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	})

	t.Run("requires identity", func(t *testing.T) {
		handler := Throttle(&fakeLimiter{allow: true})(rejectingHandler(t))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest("POST", "/authorize", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
