package audit

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func fixedLogger(buf *bytes.Buffer) *Logger {
	logger := NewLogger(buf)
	logger.hostname = "authz-1"
	logger.pid = 4242
	logger.now = func() time.Time { return time.Date(2026, 6, 2, 10, 0, 0, 0, time.UTC) }
	return logger
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := fixedLogger(&buf)

	logger.Log(Entry{
		ID:        "01J0000000000000000000000",
		Category:  CategoryAccessAttempt,
		ActorID:   "carol",
		CompanyID: "acme",
		Resource:  "transactions",
		Action:    "approve",
		Effect:    "ALLOW",
		Success:   true,
		RiskScore: 15,
		Level:     SeverityInfo,
		Context:   map[string]any{"ip_address": "203.0.113.10"},
	})

	output := buf.String()

	// facility authpriv (10) * 8 + info (6)
	if !strings.HasPrefix(output, "<86>1 2026-06-02T10:00:00.000Z authz-1 fincore-authz 4242 access_attempt ") {
		t.Errorf("unexpected header: %q", output)
	}
	if !strings.Contains(output, `[action@32473 effect="ALLOW" id="01J0000000000000000000000" operation="access_attempt" result="success"]`) {
		t.Error("Expected action structured data in output")
	}
	if !strings.Contains(output, `[auth@32473 company="acme" user="carol"]`) {
		t.Error("Expected auth structured data in output")
	}
	if !strings.Contains(output, `[client@32473 ip="203.0.113.10"]`) {
		t.Error("Expected client structured data in output")
	}
	if !strings.Contains(output, `[risk@32473 score="15"]`) {
		t.Error("Expected risk structured data in output")
	}
	if !strings.HasSuffix(output, "access_attempt: approve transactions succeeded for carol\n") {
		t.Errorf("unexpected message: %q", output)
	}
}

func TestLoggerFailureMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := fixedLogger(&buf)

	e := NewAdminEntry(CategoryPrivilegeEscalation, "mallory", false)
	e.TargetUserID = "alice"
	e.Description = "assign super-admin to alice"
	logger.Log(e)

	output := buf.String()
	// authpriv * 8 + alert (1)
	if !strings.HasPrefix(output, "<81>1 ") {
		t.Errorf("Expected PRI 81, got %q", output)
	}
	if !strings.Contains(output, `result="failure"`) {
		t.Error("Expected failure result in output")
	}
	if !strings.Contains(output, `[subject@32473 user="alice"]`) {
		t.Error("Expected target user in subject structured data")
	}
	if !strings.HasSuffix(output, " assign super-admin to alice\n") {
		t.Errorf("Expected description as message, got %q", output)
	}
}

func TestEscapeSDValue(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{`with"quote`, `"with\"quote"`},
		{`with\backslash`, `"with\\backslash"`},
		{`with]bracket`, `"with\]bracket"`},
	}

	for _, tt := range tests {
		result := escapeSDValue(tt.input)
		if result != tt.expected {
			t.Errorf("escapeSDValue(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestNewAdminEntry(t *testing.T) {
	tests := []struct {
		category Category
		success  bool
		level    Severity
		risk     int
	}{
		{CategoryPolicyCreated, true, SeverityInfo, 40},
		{CategoryPolicyDeleted, true, SeverityNotice, 45},
		{CategoryRoleRemoved, true, SeverityNotice, 20},
		{CategoryRoleAssigned, false, SeverityWarning, 50},
		{CategoryPrivilegeEscalation, false, SeverityAlert, 100},
	}

	for _, tt := range tests {
		e := NewAdminEntry(tt.category, "alice", tt.success)
		if e.Level != tt.level {
			t.Errorf("%s success=%v: level %d, want %d", tt.category, tt.success, e.Level, tt.level)
		}
		if e.RiskScore != tt.risk {
			t.Errorf("%s success=%v: risk %d, want %d", tt.category, tt.success, e.RiskScore, tt.risk)
		}
	}
}

func TestClamp(t *testing.T) {
	for in, want := range map[int]int{-5: 0, 0: 0, 55: 55, 100: 100, 140: 100} {
		if got := Clamp(in); got != want {
			t.Errorf("Clamp(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestCategoryIsAdministrative(t *testing.T) {
	if CategoryAccessAttempt.IsAdministrative() {
		t.Error("access attempts are decisions")
	}
	if !CategoryPolicyUpdated.IsAdministrative() {
		t.Error("policy updates are administrative")
	}
}

func TestSealer(t *testing.T) {
	sealer, err := NewSealer(bytes.Repeat([]byte{1}, KeySize))
	if err != nil {
		t.Fatal(err)
	}

	e := NewAdminEntry(CategoryRoleAssigned, "alice", true)
	e.ID = "entry-1"
	e.TargetUserID = "carol"
	e.CreatedAt = time.Date(2026, 6, 2, 10, 0, 0, 0, time.UTC)
	e.Seal, err = sealer.Seal(e)
	if err != nil {
		t.Fatal(err)
	}

	if !sealer.Verify(e) {
		t.Fatal("Expected freshly sealed entry to verify")
	}

	tampered := e
	tampered.RiskScore = 0
	if sealer.Verify(tampered) {
		t.Error("Expected edited entry to fail verification")
	}

	unsealed := e
	unsealed.Seal = ""
	if sealer.Verify(unsealed) {
		t.Error("Expected unsealed entry to fail verification")
	}

	other, _ := NewSealer(bytes.Repeat([]byte{2}, KeySize))
	if other.Verify(e) {
		t.Error("Expected a different key to reject the seal")
	}
}

func TestSealerKeys(t *testing.T) {
	if _, err := NewSealer([]byte("short")); err == nil {
		t.Error("Expected short key to be rejected")
	}
	if _, err := NewSealerFromHex("not-hex"); err == nil {
		t.Error("Expected invalid hex to be rejected")
	}
	if _, err := NewSealerFromHex(strings.Repeat("ab", KeySize)); err != nil {
		t.Errorf("Expected valid hex key, got %v", err)
	}
}
