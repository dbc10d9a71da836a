package integration

import (
	"context"
	"time"

	"github.com/cucumber/godog"
	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/fincore-authz/pkg/identity"
)

func (s *StepsContext) registerIdentitySteps(sc *godog.ScenarioContext) {
	sc.Step(`^I am "([^"]*)"$`, func(userID string) error { return s.iAm(userID, false) })
	sc.Step(`^I am "([^"]*)" with MFA$`, func(userID string) error { return s.iAm(userID, true) })
	sc.Step(`^I am "([^"]*)" with an expired session$`, s.iAmWithAnExpiredSession)
	sc.Step(`^I am "([^"]*)" with a forged session$`, s.iAmWithAForgedSession)
	sc.Step(`^I am anonymous$`, s.iAmAnonymous)
}

// sessionClaims builds session claims for a stored user. Token validity
// is checked against the wall clock, not the scenario clock.
func (s *StepsContext) sessionClaims(userID string, issuedAt time.Time, ttl time.Duration) (identity.Claims, error) {
	u, err := s.instance.Rules.GetUser(context.Background(), userID)
	if err != nil {
		return identity.Claims{}, err
	}
	return identity.Claims{
		Email:     u.Email,
		CompanyID: u.CompanyID,
		RoleID:    u.RoleID,
		SessionID: "sess-" + u.ID,
		DeviceID:  "device-" + u.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}, nil
}

func sign(claims identity.Claims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (s *StepsContext) iAm(userID string, mfa bool) error {
	claims, err := s.sessionClaims(userID, time.Now(), time.Hour)
	if err != nil {
		return err
	}
	claims.MFAVerified = mfa
	s.authToken, err = sign(claims, identitySecret)
	return err
}

func (s *StepsContext) iAmWithAnExpiredSession(userID string) error {
	claims, err := s.sessionClaims(userID, time.Now().Add(-2*time.Hour), time.Hour)
	if err != nil {
		return err
	}
	s.authToken, err = sign(claims, identitySecret)
	return err
}

func (s *StepsContext) iAmWithAForgedSession(userID string) error {
	claims, err := s.sessionClaims(userID, time.Now(), time.Hour)
	if err != nil {
		return err
	}
	s.authToken, err = sign(claims, "not-the-identity-secret")
	return err
}

func (s *StepsContext) iAmAnonymous() error {
	s.authToken = ""
	return nil
}
