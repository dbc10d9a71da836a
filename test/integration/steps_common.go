package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	instance     *ServerInstance
	response     *http.Response
	responseBody []byte
	authToken    string
	lastGrantID  string
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{tc: tc}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		instance, err := StartServer(ctx, s.tc)
		if err != nil {
			return ctx, err
		}
		s.instance = instance
		return ctx, nil
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if s.instance != nil {
			s.instance.Stop()
		}
		return ctx, nil
	})

	// Setup steps
	sc.Step(`^the rule bundle:$`, s.theRuleBundle)
	sc.Step(`^the time is "([^"]*)"$`, s.theTimeIs)

	// Identity steps
	s.registerIdentitySteps(sc)

	// Decision steps
	sc.Step(`^I ask to "([^"]*)" "([^"]*)"$`, s.iAskTo)
	sc.Step(`^I ask for the batch:$`, s.iAskForTheBatch)
	sc.Step(`^the decision should be (allowed|denied) with risk (\d+)$`, s.theDecisionShouldBe)
	sc.Step(`^the reason should contain "([^"]*)"$`, s.theReasonShouldContain)
	sc.Step(`^the batch result "([^"]*)" should be (allowed|denied)$`, s.theBatchResultShouldBe)

	// Administration steps
	sc.Step(`^I grant "([^"]*)" the right to "([^"]*)" "([^"]*)" for "([^"]*)"$`, s.iGrantTheRightTo)
	sc.Step(`^I revoke the last grant$`, s.iRevokeTheLastGrant)
	sc.Step(`^I assign role "([^"]*)" to "([^"]*)"$`, s.iAssignRoleTo)
	sc.Step(`^I request the effective permissions of "([^"]*)"$`, s.iRequestTheEffectivePermissionsOf)
	sc.Step(`^the permissions should include "([^"]*)"$`, s.thePermissionsShouldInclude)
	sc.Step(`^the permissions should not include "([^"]*)"$`, s.thePermissionsShouldNotInclude)
	sc.Step(`^I request the (user|company) analytics of "([^"]*)"$`, s.iRequestTheAnalyticsOf)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, s.theResponseFieldShouldBe)

	// Audit steps
	sc.Step(`^the audit log should have (\d+) "([^"]*)" entr(?:y|ies) by "([^"]*)"$`, s.theAuditLogShouldHave)
}

// Setup steps

func (s *StepsContext) theRuleBundle(doc *godog.DocString) error {
	_, err := s.instance.LoadBundle(context.Background(), doc.Content)
	return err
}

func (s *StepsContext) theTimeIs(value string) error {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return fmt.Errorf("%q is not a timestamp: %w", value, err)
	}
	s.instance.Clock.Set(t)
	return nil
}

// HTTP helpers

func (s *StepsContext) do(method, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.instance.ServerURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	resp, err := s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	s.response = resp
	s.responseBody, err = io.ReadAll(resp.Body)
	return err
}

func (s *StepsContext) decodeBody(dst interface{}) error {
	if err := json.Unmarshal(s.responseBody, dst); err != nil {
		return fmt.Errorf("response is not JSON (%v): %s", err, s.responseBody)
	}
	return nil
}

// Decision steps

func (s *StepsContext) iAskTo(action, resource string) error {
	return s.do(http.MethodPost, "/authorize", map[string]string{"resource": resource, "action": action})
}

func (s *StepsContext) iAskForTheBatch(table *godog.Table) error {
	var checks []map[string]string
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		checks = append(checks, map[string]string{
			"resource": row.Cells[0].Value,
			"action":   row.Cells[1].Value,
		})
	}
	return s.do(http.MethodPost, "/authorize/batch", map[string]interface{}{"checks": checks})
}

func (s *StepsContext) decision() (authz.Decision, error) {
	var resp struct {
		Decision authz.Decision `json:"decision"`
	}
	if err := s.decodeBody(&resp); err != nil {
		return authz.Decision{}, err
	}
	return resp.Decision, nil
}

func (s *StepsContext) theDecisionShouldBe(outcome string, risk int) error {
	d, err := s.decision()
	if err != nil {
		return err
	}
	if want := outcome == "allowed"; d.Allowed != want {
		return fmt.Errorf("expected decision %s, got allowed=%t (%s)", outcome, d.Allowed, d.Reason)
	}
	if d.RiskScore != risk {
		return fmt.Errorf("expected risk %d, got %d", risk, d.RiskScore)
	}
	return nil
}

func (s *StepsContext) theReasonShouldContain(text string) error {
	d, err := s.decision()
	if err != nil {
		return err
	}
	if !strings.Contains(d.Reason, text) {
		return fmt.Errorf("expected reason to contain %q, got %q", text, d.Reason)
	}
	return nil
}

func (s *StepsContext) theBatchResultShouldBe(key, outcome string) error {
	var resp struct {
		Results map[string]authz.Decision `json:"results"`
	}
	if err := s.decodeBody(&resp); err != nil {
		return err
	}
	d, ok := resp.Results[key]
	if !ok {
		return fmt.Errorf("no batch result for %q in %s", key, s.responseBody)
	}
	if want := outcome == "allowed"; d.Allowed != want {
		return fmt.Errorf("expected %s to be %s, got allowed=%t", key, outcome, d.Allowed)
	}
	return nil
}

// Administration steps

func (s *StepsContext) iGrantTheRightTo(userID, action, resource, duration string) error {
	err := s.do(http.MethodPost, "/admin/permissions", map[string]string{
		"user_id":  userID,
		"resource": resource,
		"action":   action,
		"duration": duration,
		"reason":   "integration",
	})
	if err != nil {
		return err
	}
	if s.response.StatusCode == http.StatusCreated {
		var up authz.UserPermission
		if err := s.decodeBody(&up); err != nil {
			return err
		}
		s.lastGrantID = up.ID
	}
	return nil
}

func (s *StepsContext) iRevokeTheLastGrant() error {
	if s.lastGrantID == "" {
		return fmt.Errorf("no grant was made in this scenario")
	}
	return s.do(http.MethodDelete, "/admin/permissions/"+s.lastGrantID+"?reason=done", nil)
}

func (s *StepsContext) iAssignRoleTo(roleID, userID string) error {
	return s.do(http.MethodPost, "/admin/roles/"+roleID+"/assign", map[string]string{"user_id": userID})
}

func (s *StepsContext) iRequestTheEffectivePermissionsOf(userID string) error {
	return s.do(http.MethodGet, "/users/"+userID+"/permissions", nil)
}

func (s *StepsContext) permissionStrings() ([]string, error) {
	var eff authz.EffectivePermissions
	if err := s.decodeBody(&eff); err != nil {
		return nil, err
	}
	return eff.AllPermissionStrings, nil
}

func (s *StepsContext) thePermissionsShouldInclude(key string) error {
	perms, err := s.permissionStrings()
	if err != nil {
		return err
	}
	for _, p := range perms {
		if p == key {
			return nil
		}
	}
	return fmt.Errorf("expected %q in %v", key, perms)
}

func (s *StepsContext) thePermissionsShouldNotInclude(key string) error {
	perms, err := s.permissionStrings()
	if err != nil {
		return err
	}
	for _, p := range perms {
		if p == key {
			return fmt.Errorf("did not expect %q in %v", key, perms)
		}
	}
	return nil
}

func (s *StepsContext) iRequestTheAnalyticsOf(targetType, targetID string) error {
	return s.do(http.MethodGet, fmt.Sprintf("/analytics/%s/%s?days=7", targetType, targetID), nil)
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(status int) error {
	if s.response == nil {
		return fmt.Errorf("no response received")
	}
	if s.response.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, s.response.StatusCode, s.responseBody)
	}
	return nil
}

func (s *StepsContext) theResponseFieldShouldBe(field, want string) error {
	var body map[string]interface{}
	if err := s.decodeBody(&body); err != nil {
		return err
	}
	got, ok := body[field]
	if !ok {
		return fmt.Errorf("response has no field %q: %s", field, s.responseBody)
	}
	if fmt.Sprint(got) != want {
		return fmt.Errorf("expected %s to be %q, got %q", field, want, fmt.Sprint(got))
	}
	return nil
}

// Audit steps

func (s *StepsContext) theAuditLogShouldHave(count int, category, actorID string) error {
	cat, err := audit.CategoryString(category)
	if err != nil {
		return err
	}
	entries, err := s.instance.Audit.List(context.Background(), audit.Filter{ActorID: actorID, Category: &cat})
	if err != nil {
		return err
	}
	if len(entries) != count {
		return fmt.Errorf("expected %d %s entries by %s, got %d", count, category, actorID, len(entries))
	}
	return nil
}
