package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/fincore-authz/pkg/identity"
)

// CountryHeader carries the country code set by the edge proxy. It is only
// honoured when the request comes through a trusted proxy.
const CountryHeader = "X-Client-Country"

var errInvalidToken = errors.New("invalid session token")

// JWTAuthenticator is middleware that turns the identity service's signed
// session token into an Identity on the request context.
type JWTAuthenticator struct {
	secret  []byte
	trusted func(ip string) bool
	now     func() time.Time
}

// NewJWTAuthenticator creates a new JWT authenticator middleware. trusted
// decides which peers may set X-Forwarded-For; nil trusts nobody.
func NewJWTAuthenticator(secret []byte, trusted func(ip string) bool) *JWTAuthenticator {
	if trusted == nil {
		trusted = func(string) bool { return false }
	}
	return &JWTAuthenticator{secret: secret, trusted: trusted, now: time.Now}
}

// Parse verifies an HS256 session token and returns its claims.
func (j *JWTAuthenticator) Parse(token string) (*identity.Claims, error) {
	if len(j.secret) == 0 {
		return nil, errors.New("identity secret is not configured")
	}
	claims := &identity.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(j.now),
		jwt.WithLeeway(5*time.Second),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, jwt.ErrTokenExpired
		}
		return nil, errInvalidToken
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

// Middleware returns an HTTP middleware that validates session tokens
func (j *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if len(authHeader) == 0 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Authorization missing"))
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Malformed authorization header"))
			return
		}

		claims, err := j.Parse(strings.TrimSpace(token))
		if errors.Is(err, jwt.ErrTokenExpired) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Token expired"))
			return
		}
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Invalid session token"))
			return
		}

		peer := peerIP(r.RemoteAddr)
		id := identity.FromClaims(claims).
			WithRemoteIP(net.ParseIP(j.clientIP(peer, r.Header.Get("X-Forwarded-For")))).
			WithUserAgent(r.UserAgent())
		if j.trusted(peer) {
			id.WithCountry(strings.ToUpper(strings.TrimSpace(r.Header.Get(CountryHeader))))
		}

		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	})
}

// clientIP walks X-Forwarded-For from the nearest hop and returns the first
// address that is not a trusted proxy. Forwarding headers from untrusted
// peers are ignored.
func (j *JWTAuthenticator) clientIP(peer, forwarded string) string {
	if forwarded == "" || !j.trusted(peer) {
		return peer
	}
	hops := strings.Split(forwarded, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !j.trusted(hop) {
			return hop
		}
	}
	return strings.TrimSpace(hops[0])
}

func peerIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
