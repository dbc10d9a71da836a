package identity

import (
	"context"
	"net"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

// Claims is the session token issued by the identity service.
type Claims struct {
	Email       string   `json:"email,omitempty"`
	CompanyID   string   `json:"company_id,omitempty"`
	RoleID      string   `json:"role_id,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	SessionID   string   `json:"sid,omitempty"`
	DeviceID    string   `json:"device_id,omitempty"`
	MFAVerified bool     `json:"mfa,omitempty"`
	jwt.RegisteredClaims
}

// Identity represents the authenticated principal for a request.
// It combines token claims with request-specific context.
type Identity struct {
	// Token claims
	UserID      string
	Email       string
	CompanyID   string
	RoleID      string
	Roles       []string
	SessionID   string
	DeviceID    string
	MFAVerified bool
	IssuedAt    time.Time
	ExpiresAt   time.Time

	// Request context
	RemoteIP  net.IP
	UserAgent string
	Country   string
}

// FromClaims creates an Identity from verified session claims.
func FromClaims(c *Claims) *Identity {
	id := &Identity{
		UserID:      c.Subject,
		Email:       c.Email,
		CompanyID:   c.CompanyID,
		RoleID:      c.RoleID,
		Roles:       c.Roles,
		SessionID:   c.SessionID,
		DeviceID:    c.DeviceID,
		MFAVerified: c.MFAVerified,
	}
	if c.IssuedAt != nil {
		id.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}

// WithRemoteIP sets the remote IP address.
func (i *Identity) WithRemoteIP(ip net.IP) *Identity {
	i.RemoteIP = ip
	return i
}

// WithUserAgent sets the client user agent.
func (i *Identity) WithUserAgent(ua string) *Identity {
	i.UserAgent = ua
	return i
}

// WithCountry sets the country reported by the edge proxy.
func (i *Identity) WithCountry(country string) *Identity {
	i.Country = country
	return i
}

// Actor is the principal decisions are made for.
func (i *Identity) Actor() authz.Actor {
	return authz.Actor{
		ID:              i.UserID,
		CompanyID:       i.CompanyID,
		RoleID:          i.RoleID,
		Roles:           i.Roles,
		Email:           i.Email,
		AuthenticatedAt: i.IssuedAt,
	}
}

// Environment is the request scoped part of the evaluation context.
func (i *Identity) Environment(method, path string) authz.Environment {
	env := authz.Environment{
		Company: authz.CompanyInfo{ID: i.CompanyID},
		Request: authz.RequestInfo{
			UserAgent: i.UserAgent,
			Method:    method,
			Path:      path,
		},
		Session: authz.SessionInfo{
			ID:          i.SessionID,
			DeviceID:    i.DeviceID,
			MFAVerified: i.MFAVerified,
			CreatedAt:   i.IssuedAt,
		},
		Location: authz.LocationInfo{Country: i.Country},
	}
	if i.RemoteIP != nil {
		env.Request.IPAddress = i.RemoteIP.String()
	}
	return env
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}
