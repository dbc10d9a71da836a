package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
)

// Ledger is the audit side the engine writes to and reports from.
type Ledger interface {
	Record(ctx context.Context, e audit.Entry) (audit.Entry, error)
	Analytics(ctx context.Context, targetID string, targetType audit.TargetType, days int) (audit.SecurityAnalytics, error)
}

// DefaultLookupTimeout bounds the suspicious network lookup.
const DefaultLookupTimeout = 200 * time.Millisecond

// Engine merges role permissions, user overrides and policies into
// decisions and writes one audit entry per decision.
type Engine struct {
	store     Store
	ledger    Ledger
	clock     Clock
	inspector NetworkInspector
	attempts  AttemptRecorder
	observers []DecisionObserver
	log       logrus.FieldLogger

	hours         BusinessHours
	riskCap       int
	lookupTimeout time.Duration
	newID         func() string
}

type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithNetworkInspector(n NetworkInspector) Option {
	return func(e *Engine) { e.inspector = n }
}

func WithAttemptRecorder(a AttemptRecorder) Option {
	return func(e *Engine) { e.attempts = a }
}

func WithObserver(o DecisionObserver) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = log }
}

func WithBusinessHours(h BusinessHours) Option {
	return func(e *Engine) { e.hours = h }
}

func WithRiskCap(limit int) Option {
	return func(e *Engine) { e.riskCap = limit }
}

func WithLookupTimeout(d time.Duration) Option {
	return func(e *Engine) { e.lookupTimeout = d }
}

// WithIDGenerator replaces the generator used for new rule ids.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func NewEngine(store Store, ledger Ledger, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		ledger:        ledger,
		clock:         SystemClock{},
		log:           logrus.StandardLogger(),
		hours:         DefaultBusinessHours(),
		riskCap:       DefaultRiskCap,
		lookupTimeout: DefaultLookupTimeout,
		newID:         newUUID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Authorize decides a single check. Missing users or roles return a
// NotFound error together with a denied decision. Role cycles and
// malformed conditions deny with Failure set and no error. Either way
// exactly one audit entry is written.
func (e *Engine) Authorize(ctx context.Context, actor Actor, check Check, env Environment) (Decision, error) {
	now := e.clock.Now()
	d, evalCtx, err := e.decide(ctx, actor, check, env, now)

	level := audit.SeverityInfo
	switch {
	case errors.Is(err, ErrInvalidState):
		d.Allowed = false
		d.Failure = CategoryOf(err)
		d.Reason = "evaluation failed: " + ReasonOf(err)
		level = audit.SeverityWarning
		e.log.WithFields(logrus.Fields{
			"actor":    evalCtx.Actor.ID,
			"check":    d.Check,
			"category": d.Failure,
		}).Warn(d.Reason)
		err = nil
	case err != nil:
		d.Allowed = false
		d.Failure = CategoryOf(err)
		d.Reason = ReasonOf(err)
		level = audit.SeverityWarning
	case !d.Allowed:
		level = audit.SeverityNotice
	}
	d.RiskScore = clampRisk(d.RiskScore, e.riskCap)

	e.recordDecision(ctx, evalCtx, check, &d, level)
	if e.attempts != nil {
		e.attempts.RecordDecision(evalCtx.Actor.ID, d.Allowed)
	}
	for _, o := range e.observers {
		o.ObserveDecision(d)
	}
	return d, err
}

// AuthorizeBatch decides every check, keyed by Check.Key. Each check
// writes its own audit entry. The first error is returned alongside the
// complete result map. A batch naming the same key twice is rejected
// before anything is decided.
func (e *Engine) AuthorizeBatch(ctx context.Context, actor Actor, checks []Check, env Environment) (map[string]Decision, error) {
	seen := make(map[string]struct{}, len(checks))
	for _, c := range checks {
		key := c.Key()
		if _, dup := seen[key]; dup {
			err := InvalidInput("batch names check %q more than once", key)
			e.RecordRejected(ctx, actor, env, c.Resource.String(), c.Action.String(), err)
			return nil, err
		}
		seen[key] = struct{}{}
	}

	results := make(map[string]Decision, len(checks))
	var firstErr error
	for _, c := range checks {
		d, err := e.Authorize(ctx, actor, c, env)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		results[c.Key()] = d
	}
	return results, firstErr
}

func (e *Engine) decide(ctx context.Context, actor Actor, check Check, env Environment, now time.Time) (Decision, *EvalContext, error) {
	d := Decision{Check: check.Key(), Reason: ReasonNoMatch, EvaluatedAt: now}
	evalCtx := NewEvalContext(actor, check.Target, env, now)

	user, err := e.store.GetUser(ctx, actor.ID)
	if err != nil {
		return d, evalCtx, err
	}
	actor = resolveActor(actor, user)
	evalCtx.Actor = actor
	if evalCtx.Company.ID == "" {
		evalCtx.Company.ID = actor.CompanyID
	}
	if !user.IsActive {
		d.Reason = ReasonInactiveUser
		return d, evalCtx, nil
	}

	resourceID := check.resourceID()

	// Role baseline.
	if actor.RoleID != "" {
		graph, err := LoadRoleGraph(ctx, e.store, actor.RoleID)
		if err != nil {
			return d, evalCtx, err
		}
		if role, ok := graph.Role(actor.RoleID); ok && role.Name != "" && !actor.HasRole(role.Name) {
			actor.Roles = append(actor.Roles, role.Name)
			evalCtx.Actor = actor
		}
		perms, err := graph.EffectivePermissions(actor.RoleID, actor.CompanyID)
		if err != nil {
			return d, evalCtx, err
		}
		for _, p := range perms {
			if !p.Matches(check.Resource, check.Action, check.Scope) || !p.AllowsAccess(resourceID) {
				continue
			}
			if p.Scope == ScopePersonal && check.Target.OwnerID != "" && check.Target.OwnerID != actor.ID {
				continue
			}
			ok, err := p.ConditionsSatisfied(evalCtx)
			if err != nil {
				return d, evalCtx, err
			}
			if !ok {
				continue
			}
			d.Allowed = true
			d.Reason = ReasonRolePermission
			d.add(StageRole, "permission "+p.Key(), EffectAllow, RiskRolePermission)
		}
	}

	// User overrides. A matching denial wins over every allow.
	overrides, err := e.store.ListUserPermissions(ctx, actor.ID)
	if err != nil {
		return d, evalCtx, err
	}
	denied := false
	for _, up := range overrides {
		if !up.Matches(check.Resource, check.Action, check.Scope, now) || !up.AllowsAccessToResource(resourceID, now) {
			continue
		}
		rule := "user permission " + up.ID
		if !up.Effect.Allows() {
			denied = true
			d.Allowed = false
			d.Reason = ReasonUserOverride
			d.add(StageOverride, rule, EffectDeny, RiskOverrideDeny)
			continue
		}
		risk := RiskPermanentOverride
		if up.IsTemporary {
			risk = RiskTemporaryGrant
		}
		d.add(StageOverride, rule, EffectAllow, risk)
		if !denied {
			d.Allowed = true
			d.Reason = ReasonUserPermission
		}
	}

	// Policies, lowest priority first so the highest has the final word.
	policies, err := e.store.ListPolicies(ctx, PolicyFilter{
		CompanyID: actor.CompanyID,
		Resource:  &check.Resource,
		Action:    &check.Action,
	})
	if err != nil {
		return d, evalCtx, err
	}
	applicable := policies[:0:0]
	for _, p := range policies {
		if p.Targets(check.Resource, check.Action) && p.AppliesTo(actor) && p.InForce(now) {
			applicable = append(applicable, p)
		}
	}
	SortPolicies(applicable)
	for _, p := range applicable {
		res, err := p.Evaluate(evalCtx)
		if err != nil {
			return d, evalCtx, fmt.Errorf("policy %q: %w", p.Name, err)
		}
		d.Allowed = res.Allowed
		d.Reason = fmt.Sprintf("policy %q (%s)", p.Name, res.Effect)
		risk := RiskPolicyDeny
		if res.Effect.Allows() {
			risk = RiskPolicyAllow
		}
		d.add(StagePolicy, "policy "+p.Name, res.Effect, risk)
	}

	if !d.matched() {
		d.Allowed = false
		d.Reason = ReasonNoMatch
		d.RiskScore = 0
		return d, evalCtx, nil
	}

	// Contextual adjustments change only the score.
	effect := EffectDeny
	if d.Allowed {
		effect = EffectAllow
	}
	if e.suspicious(ctx, evalCtx) {
		d.add(StageContext, "suspicious network", effect, RiskSuspiciousNetwork)
	}
	if !e.hours.Contains(now) {
		d.add(StageContext, "outside business hours", effect, RiskOutsideBusinessHours)
	}
	return d, evalCtx, nil
}

// resolveActor replaces the declared role with the stored one, even when
// the user no longer has a role. Declared role lists are dropped so a
// stale session cannot satisfy HAS_ROLE.
func resolveActor(actor Actor, user User) Actor {
	if user.CompanyID != "" {
		actor.CompanyID = user.CompanyID
	}
	actor.RoleID = user.RoleID
	actor.Roles = nil
	if actor.Email == "" {
		actor.Email = user.Email
	}
	if actor.RoleID != "" {
		actor.Roles = []string{actor.RoleID}
	}
	return actor
}

// suspicious combines the collaborator supplied location flag with a
// bounded lookup. A slow or failing lookup counts as not suspicious.
func (e *Engine) suspicious(ctx context.Context, evalCtx *EvalContext) bool {
	if evalCtx.Location.Suspicious {
		return true
	}
	ip := evalCtx.Request.IPAddress
	if e.inspector == nil || ip == "" {
		return false
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	type result struct {
		suspicious bool
		err        error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := e.inspector.IsSuspicious(lookupCtx, ip)
		ch <- result{s, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			e.log.WithError(r.err).WithField("ip", ip).Debug("network lookup failed, treating as not suspicious")
			return false
		}
		return r.suspicious
	case <-lookupCtx.Done():
		e.log.WithField("ip", ip).Debug("network lookup timed out, treating as not suspicious")
		return false
	}
}

// RecordRejected audits a request refused before any check could be
// decided, such as a malformed body or an unknown resource. resource and
// action are what the caller sent and may be empty.
func (e *Engine) RecordRejected(ctx context.Context, actor Actor, env Environment, resource, action string, cause error) {
	evalCtx := NewEvalContext(actor, ResourceSnapshot{}, env, e.clock.Now())
	snapshot := evalCtx.Snapshot()
	snapshot["failure"] = CategoryOf(cause)
	entry := audit.Entry{
		Category:    audit.CategoryAccessAttempt,
		ActorID:     actor.ID,
		CompanyID:   actor.CompanyID,
		Resource:    resource,
		Action:      action,
		Effect:      EffectDeny.String(),
		Description: "request rejected: " + ReasonOf(cause),
		Context:     snapshot,
		Level:       audit.SeverityWarning,
	}
	if _, err := e.ledger.Record(context.WithoutCancel(ctx), entry); err != nil {
		e.log.WithError(err).WithField("actor", actor.ID).Debug("rejected request not yet audited")
	}
}

func (e *Engine) recordDecision(ctx context.Context, evalCtx *EvalContext, check Check, d *Decision, level audit.Severity) {
	effect := EffectDeny
	if d.Allowed {
		effect = EffectAllow
	}
	snapshot := evalCtx.Snapshot()
	if check.Scope != nil {
		snapshot["scope"] = check.Scope.String()
	}
	if d.Failure != "" {
		snapshot["failure"] = d.Failure
	}
	entry := audit.Entry{
		Category:    audit.CategoryAccessAttempt,
		ActorID:     evalCtx.Actor.ID,
		CompanyID:   evalCtx.Actor.CompanyID,
		Resource:    check.Resource.String(),
		Action:      check.Action.String(),
		Effect:      effect.String(),
		ResourceID:  check.resourceID(),
		Description: d.Reason,
		Context:     snapshot,
		Success:     d.Allowed,
		RiskScore:   d.RiskScore,
		Level:       level,
	}
	// the decision stands even if the caller has gone away
	saved, err := e.ledger.Record(context.WithoutCancel(ctx), entry)
	if err != nil {
		d.AuditFailed = true
		return
	}
	d.AuditID = saved.ID
}
