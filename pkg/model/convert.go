package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
)

// ConditionMap is a permission's equality/membership condition map,
// stored as jsonb.
type ConditionMap map[string]authz.Value

func (m ConditionMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *ConditionMap) Scan(value interface{}) error {
	return scanJSON(value, m)
}

// ConditionList is a policy's ordered condition list, stored as jsonb.
type ConditionList []authz.Condition

func (l ConditionList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *ConditionList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

func scanJSON(value interface{}, dest interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
