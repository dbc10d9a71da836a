package authz

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindTime
	KindList
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a condition operand: string, number, bool, timestamp or list.
// The zero Value is null.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	t    time.Time
	list []Value
}

func Null() Value               { return Value{} }
func String(s string) Value     { return Value{kind: KindString, str: s} }
func Number(n float64) Value    { return Value{kind: KindNumber, num: n} }
func Int(n int) Value           { return Number(float64(n)) }
func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func Time(t time.Time) Value    { return Value{kind: KindTime, t: t} }
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Strings builds a list of string values.
func Strings(items ...string) Value {
	out := make([]Value, len(items))
	for i, s := range items {
		out[i] = String(s)
	}
	return List(out...)
}

// FromAny converts decoded JSON/YAML data into a Value.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case int:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case float32:
		return Number(float64(x))
	case float64:
		return Number(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return Number(f)
		}
		return String(x.String())
	case time.Time:
		return Time(x)
	case *time.Time:
		if x == nil {
			return Null()
		}
		return Time(*x)
	case []Value:
		return List(x...)
	case []string:
		return Strings(x...)
	case []any:
		out := make([]Value, len(x))
		for i, item := range x {
			out[i] = FromAny(item)
		}
		return List(out...)
	case fmt.Stringer:
		return String(x.String())
	default:
		return String(fmt.Sprint(x))
	}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == KindNull }

// Items returns the list elements, or nil for non-list values.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// AsString returns the string form used by substring operators.
func (v Value) AsString() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.UTC().Format(time.RFC3339Nano)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.AsString()
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

// AsNumber coerces the value to a number. Timestamps become Unix
// milliseconds.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindTime:
		return float64(v.t.UnixMilli()), true
	default:
		return 0, false
	}
}

// AsTime coerces the value to a timestamp. Strings are parsed as RFC3339
// (or a bare date), numbers as Unix milliseconds.
func (v Value) AsTime() (time.Time, bool) {
	switch v.kind {
	case KindTime:
		return v.t, true
	case KindString:
		s := strings.TrimSpace(v.str)
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04Z07:00", "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case KindNumber:
		return time.UnixMilli(int64(v.num)).UTC(), true
	default:
		return time.Time{}, false
	}
}

// Equal is a strict identity comparison: values of different kinds are
// never equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Contains reports whether a list value holds item.
func (v Value) Contains(item Value) bool {
	for _, candidate := range v.list {
		if candidate.Equal(item) {
			return true
		}
	}
	return false
}

// Interface returns the value as plain Go data for JSON encoding.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindTime:
		return v.t.UTC().Format(time.RFC3339Nano)
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

func (v Value) String() string {
	if v.kind == KindNull {
		return "<null>"
	}
	return v.AsString()
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

func (v Value) MarshalYAML() (interface{}, error) {
	return v.Interface(), nil
}

func (v *Value) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}
