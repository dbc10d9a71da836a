package authz

import (
	"strings"
	"time"
)

// ContextSchemaVersion is bumped whenever a field is added to or removed
// from the evaluation context.
const ContextSchemaVersion = 1

// Actor is the principal a decision is made for.
type Actor struct {
	ID              string           `json:"id" yaml:"id"`
	CompanyID       string           `json:"company_id,omitempty" yaml:"company_id,omitempty"`
	RoleID          string           `json:"role_id,omitempty" yaml:"role_id,omitempty"`
	Roles           []string         `json:"roles,omitempty" yaml:"roles,omitempty"`
	Email           string           `json:"email,omitempty" yaml:"email,omitempty"`
	AuthenticatedAt time.Time        `json:"authenticated_at,omitempty" yaml:"authenticated_at,omitempty"`
	Attributes      map[string]Value `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// HasRole reports whether the actor holds role, by id or name.
func (a Actor) HasRole(role string) bool {
	if role == "" {
		return false
	}
	if a.RoleID == role {
		return true
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CompanyInfo describes the tenant the request is made in.
type CompanyInfo struct {
	ID     string           `json:"id,omitempty" yaml:"id,omitempty"`
	Name   string           `json:"name,omitempty" yaml:"name,omitempty"`
	Fields map[string]Value `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// ResourceSnapshot is the state of the targeted resource at request time.
type ResourceSnapshot struct {
	ID        string           `json:"id,omitempty" yaml:"id,omitempty"`
	OwnerID   string           `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`
	CompanyID string           `json:"company_id,omitempty" yaml:"company_id,omitempty"`
	Fields    map[string]Value `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// RequestInfo carries transport level facts about the request.
type RequestInfo struct {
	IPAddress string           `json:"ip_address,omitempty" yaml:"ip_address,omitempty"`
	UserAgent string           `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	Method    string           `json:"method,omitempty" yaml:"method,omitempty"`
	Path      string           `json:"path,omitempty" yaml:"path,omitempty"`
	Fields    map[string]Value `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type SessionInfo struct {
	ID          string           `json:"id,omitempty" yaml:"id,omitempty"`
	DeviceID    string           `json:"device_id,omitempty" yaml:"device_id,omitempty"`
	MFAVerified bool             `json:"mfa_verified,omitempty" yaml:"mfa_verified,omitempty"`
	CreatedAt   time.Time        `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Fields      map[string]Value `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type LocationInfo struct {
	Country    string           `json:"country,omitempty" yaml:"country,omitempty"`
	City       string           `json:"city,omitempty" yaml:"city,omitempty"`
	Suspicious bool             `json:"suspicious,omitempty" yaml:"suspicious,omitempty"`
	Fields     map[string]Value `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Environment is the part of the evaluation context shared by every check
// in a request.
type Environment struct {
	Company  CompanyInfo  `json:"company,omitempty" yaml:"company,omitempty"`
	Request  RequestInfo  `json:"request,omitempty" yaml:"request,omitempty"`
	Session  SessionInfo  `json:"session,omitempty" yaml:"session,omitempty"`
	Location LocationInfo `json:"location,omitempty" yaml:"location,omitempty"`
}

// EvalContext is the fixed shape conditions are evaluated against.
type EvalContext struct {
	Version  int
	Actor    Actor
	Company  CompanyInfo
	Resource ResourceSnapshot
	Request  RequestInfo
	Session  SessionInfo
	Location LocationInfo
	Time     time.Time
}

// NewEvalContext assembles the context for one check.
func NewEvalContext(actor Actor, target ResourceSnapshot, env Environment, now time.Time) *EvalContext {
	company := env.Company
	if company.ID == "" {
		company.ID = actor.CompanyID
	}
	return &EvalContext{
		Version:  ContextSchemaVersion,
		Actor:    actor,
		Company:  company,
		Resource: target,
		Request:  env.Request,
		Session:  env.Session,
		Location: env.Location,
		Time:     now,
	}
}

// normalizeField makes "company_id", "companyId" and "CompanyID" the same key.
func normalizeField(field string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(field), "_", ""))
}

func stringValue(s string) Value {
	if s == "" {
		return Null()
	}
	return String(s)
}

func timeValue(t time.Time) Value {
	if t.IsZero() {
		return Null()
	}
	return Time(t)
}

func lookupFields(fields map[string]Value, field string) Value {
	if v, ok := fields[field]; ok {
		return v
	}
	want := normalizeField(field)
	for k, v := range fields {
		if normalizeField(k) == want {
			return v
		}
	}
	return Null()
}

// Lookup reads field from the part of the context selected by ct. Missing
// fields resolve to null; an unknown context type is an invalid state.
func (c *EvalContext) Lookup(ct ContextType, field string) (Value, error) {
	key := normalizeField(field)
	switch ct {
	case ContextTypeUser:
		switch key {
		case "id", "userid":
			return stringValue(c.Actor.ID), nil
		case "companyid":
			return stringValue(c.Actor.CompanyID), nil
		case "roleid", "role":
			return stringValue(c.Actor.RoleID), nil
		case "roles":
			return Strings(c.Actor.Roles...), nil
		case "email":
			return stringValue(c.Actor.Email), nil
		case "authenticatedat":
			return timeValue(c.Actor.AuthenticatedAt), nil
		}
		return lookupFields(c.Actor.Attributes, field), nil
	case ContextTypeCompany:
		switch key {
		case "id", "companyid":
			return stringValue(c.Company.ID), nil
		case "name":
			return stringValue(c.Company.Name), nil
		}
		return lookupFields(c.Company.Fields, field), nil
	case ContextTypeResource:
		switch key {
		case "id", "resourceid":
			return stringValue(c.Resource.ID), nil
		case "ownerid", "createdby":
			return stringValue(c.Resource.OwnerID), nil
		case "companyid":
			return stringValue(c.Resource.CompanyID), nil
		}
		return lookupFields(c.Resource.Fields, field), nil
	case ContextTypeRequest:
		switch key {
		case "ip", "ipaddress":
			return stringValue(c.Request.IPAddress), nil
		case "useragent":
			return stringValue(c.Request.UserAgent), nil
		case "method":
			return stringValue(c.Request.Method), nil
		case "path":
			return stringValue(c.Request.Path), nil
		case "hour":
			return Int(c.Time.Hour()), nil
		case "weekday":
			return String(strings.ToLower(c.Time.Weekday().String())), nil
		}
		return lookupFields(c.Request.Fields, field), nil
	case ContextTypeSession:
		switch key {
		case "id", "sessionid":
			return stringValue(c.Session.ID), nil
		case "deviceid":
			return stringValue(c.Session.DeviceID), nil
		case "mfaverified":
			return Bool(c.Session.MFAVerified), nil
		case "createdat":
			return timeValue(c.Session.CreatedAt), nil
		}
		return lookupFields(c.Session.Fields, field), nil
	case ContextTypeLocation:
		switch key {
		case "country":
			return stringValue(c.Location.Country), nil
		case "city":
			return stringValue(c.Location.City), nil
		case "suspicious":
			return Bool(c.Location.Suspicious), nil
		}
		return lookupFields(c.Location.Fields, field), nil
	case ContextTypeTime:
		return Time(c.Time), nil
	}
	return Null(), InvalidState("unknown context type %d", int(ct))
}

// Snapshot flattens the context into plain data for audit storage.
func (c *EvalContext) Snapshot() map[string]any {
	out := map[string]any{
		"version": c.Version,
		"time":    c.Time.UTC().Format(time.RFC3339Nano),
	}
	if c.Company.ID != "" {
		out["company_id"] = c.Company.ID
	}
	if c.Resource.ID != "" {
		out["resource_id"] = c.Resource.ID
	}
	if c.Resource.OwnerID != "" {
		out["resource_owner_id"] = c.Resource.OwnerID
	}
	if c.Resource.CompanyID != "" {
		out["resource_company_id"] = c.Resource.CompanyID
	}
	if c.Request.IPAddress != "" {
		out["ip_address"] = c.Request.IPAddress
	}
	if c.Request.UserAgent != "" {
		out["user_agent"] = c.Request.UserAgent
	}
	if c.Session.ID != "" {
		out["session_id"] = c.Session.ID
	}
	if c.Session.DeviceID != "" {
		out["device_id"] = c.Session.DeviceID
	}
	if c.Location.Country != "" {
		out["country"] = c.Location.Country
	}
	if c.Location.Suspicious {
		out["suspicious_network"] = true
	}
	return out
}
