package authz

import (
	"strings"
)

// Condition is one clause of a policy. Value is the operand the context
// value is compared against.
type Condition struct {
	Field       string      `json:"field" yaml:"field"`
	Operator    Operator    `json:"operator" yaml:"operator"`
	Value       Value       `json:"value" yaml:"value"`
	ContextType ContextType `json:"context_type" yaml:"context_type"`
}

// Evaluate tests the condition against ctx. Operator mismatches such as a
// non-list IN operand or an unknown operator return InvalidState.
func (c Condition) Evaluate(ctx *EvalContext) (bool, error) {
	switch c.Operator {
	case OperatorIsOwner:
		return ctx.Actor.ID != "" && ctx.Actor.ID == ctx.Resource.OwnerID, nil
	case OperatorSameCompany:
		return ctx.Actor.CompanyID != "" && ctx.Actor.CompanyID == ctx.Resource.CompanyID, nil
	case OperatorHasRole:
		for _, role := range operandStrings(c.Value) {
			if ctx.Actor.HasRole(role) {
				return true, nil
			}
		}
		return false, nil
	}

	actual, err := ctx.Lookup(c.ContextType, c.Field)
	if err != nil {
		return false, err
	}

	switch c.Operator {
	case OperatorEquals:
		return actual.Equal(c.Value), nil
	case OperatorNotEquals:
		return !actual.Equal(c.Value), nil
	case OperatorIn, OperatorNotIn:
		if c.Value.Kind() != KindList {
			return false, InvalidState("condition on %q: %s needs a list operand", c.Field, c.Operator)
		}
		in := c.Value.Contains(actual)
		if c.Operator == OperatorIn {
			return in, nil
		}
		return !in, nil
	case OperatorGreaterThan:
		cmp, ok := compareOrdered(actual, c.Value)
		return ok && cmp > 0, nil
	case OperatorLessThan:
		cmp, ok := compareOrdered(actual, c.Value)
		return ok && cmp < 0, nil
	case OperatorContains:
		return !actual.IsNull() && strings.Contains(actual.AsString(), c.Value.AsString()), nil
	case OperatorStartsWith:
		return !actual.IsNull() && strings.HasPrefix(actual.AsString(), c.Value.AsString()), nil
	case OperatorEndsWith:
		return !actual.IsNull() && strings.HasSuffix(actual.AsString(), c.Value.AsString()), nil
	case OperatorExists:
		return !actual.IsNull(), nil
	case OperatorNotExists:
		return actual.IsNull(), nil
	case OperatorTimeBetween:
		bounds := c.Value.Items()
		if len(bounds) != 2 {
			return false, InvalidState("condition on %q: TIME_BETWEEN needs a [start, end] pair", c.Field)
		}
		start, ok1 := bounds[0].AsTime()
		end, ok2 := bounds[1].AsTime()
		if !ok1 || !ok2 {
			return false, InvalidState("condition on %q: TIME_BETWEEN bounds are not timestamps", c.Field)
		}
		at, ok := actual.AsTime()
		if !ok {
			return false, nil
		}
		return !at.Before(start) && !at.After(end), nil
	case OperatorIpInRange:
		if actual.IsNull() {
			return false, nil
		}
		return IPInAnyRange(actual.AsString(), operandStrings(c.Value)), nil
	}
	return false, InvalidState("condition on %q: unknown operator %d", c.Field, int(c.Operator))
}

// compareOrdered orders two values numerically, or as timestamps when
// either side is a timestamp or both sides parse as one. ok is false when
// they cannot be coerced.
func compareOrdered(a, b Value) (int, bool) {
	if a.Kind() == KindTime || b.Kind() == KindTime {
		return compareTimes(a, b)
	}
	an, ok1 := a.AsNumber()
	bn, ok2 := b.AsNumber()
	if !ok1 || !ok2 {
		if a.Kind() == KindString && b.Kind() == KindString {
			return compareTimes(a, b)
		}
		return 0, false
	}
	switch {
	case an < bn:
		return -1, true
	case an > bn:
		return 1, true
	}
	return 0, true
}

func compareTimes(a, b Value) (int, bool) {
	at, ok1 := a.AsTime()
	bt, ok2 := b.AsTime()
	if !ok1 || !ok2 {
		return 0, false
	}
	return at.Compare(bt), true
}

func operandStrings(v Value) []string {
	if v.Kind() == KindList {
		out := make([]string, 0, len(v.Items()))
		for _, item := range v.Items() {
			out = append(out, item.AsString())
		}
		return out
	}
	if v.IsNull() {
		return nil
	}
	return []string{v.AsString()}
}
