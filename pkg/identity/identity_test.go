package identity

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromClaims(t *testing.T) {
	issued := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	claims := &Claims{
		Email:       "clerk@acme.test",
		CompanyID:   "acme",
		RoleID:      "role-clerk",
		Roles:       []string{"clerk"},
		SessionID:   "sess-1",
		MFAVerified: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		},
	}

	id := FromClaims(claims)

	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, "acme", id.CompanyID)
	assert.Equal(t, issued, id.IssuedAt)
	assert.Equal(t, issued.Add(time.Hour), id.ExpiresAt)

	actor := id.Actor()
	assert.Equal(t, "user-1", actor.ID)
	assert.Equal(t, "role-clerk", actor.RoleID)
	assert.True(t, actor.HasRole("clerk"))
}

func TestFromClaims_NoTimes(t *testing.T) {
	id := FromClaims(&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "svc"}})
	assert.True(t, id.IssuedAt.IsZero())
	assert.True(t, id.ExpiresAt.IsZero())
}

func TestIdentity_Environment(t *testing.T) {
	id := (&Identity{UserID: "u", CompanyID: "acme", SessionID: "s", MFAVerified: true}).
		WithRemoteIP(net.ParseIP("192.0.2.10")).
		WithUserAgent("curl/8").
		WithCountry("GB")

	env := id.Environment("POST", "/authorize")

	assert.Equal(t, "192.0.2.10", env.Request.IPAddress)
	assert.Equal(t, "curl/8", env.Request.UserAgent)
	assert.Equal(t, "POST", env.Request.Method)
	assert.Equal(t, "acme", env.Company.ID)
	assert.Equal(t, "s", env.Session.ID)
	assert.True(t, env.Session.MFAVerified)
	assert.Equal(t, "GB", env.Location.Country)
}

func TestIdentity_EnvironmentWithoutIP(t *testing.T) {
	env := (&Identity{UserID: "u"}).Environment("GET", "/")
	assert.Empty(t, env.Request.IPAddress)
}

func TestContextGetSet(t *testing.T) {
	_, ok := Get(context.Background())
	assert.False(t, ok)

	id := &Identity{UserID: "user-1"}
	ctx := Set(context.Background(), id)

	got, ok := Get(ctx)
	require.True(t, ok)
	assert.Same(t, id, got)
}
