// Package identity turns the identity service's session token into the
// principal the authorization engine decides for.
//
// Authentication itself happens elsewhere. This package only trusts a
// verified token and combines its claims (user, company, role, session)
// with request facts (client IP, user agent, country).
//
// # Basic Usage
//
//	id := identity.FromClaims(claims).
//	    WithRemoteIP(clientIP).
//	    WithUserAgent(r.UserAgent())
//
//	ctx = identity.Set(ctx, id)
//
//	// later, in a handler
//	id, ok := identity.Get(ctx)
//	decision, err := engine.Authorize(ctx, id.Actor(), check, id.Environment(r.Method, r.URL.Path))
package identity
