package authz

//go:generate go run github.com/dmarkham/enumer -type Resource -trimprefix Resource -transform snake -json -yaml -sql -output resource.gen.go
//go:generate go run github.com/dmarkham/enumer -type Action -trimprefix Action -transform snake -json -yaml -sql -output action.gen.go
//go:generate go run github.com/dmarkham/enumer -type Scope -trimprefix Scope -transform upper -json -yaml -sql -output scope.gen.go
//go:generate go run github.com/dmarkham/enumer -type Effect -trimprefix Effect -transform upper -json -yaml -sql -output effect.gen.go
//go:generate go run github.com/dmarkham/enumer -type Operator -trimprefix Operator -transform snake-upper -json -yaml -sql -output operator.gen.go
//go:generate go run github.com/dmarkham/enumer -type ContextType -trimprefix ContextType -transform upper -json -yaml -sql -output context_type.gen.go
//go:generate go run github.com/dmarkham/enumer -type RoleType -trimprefix RoleType -transform snake -json -yaml -sql -output role_type.gen.go

// Resource is the closed set of protected resource kinds.
type Resource int

const (
	ResourceCompanies Resource = iota
	ResourceStaff
	ResourceCredits
	ResourceTransactions
	ResourceDocs
	ResourceUsers
	ResourceRoles
	ResourcePermissions
	ResourcePolicies
	ResourceAuditLogs
	ResourceReports
	ResourceDashboard
	ResourceSettings
)

// Action is the closed set of operations on a resource.
type Action int

const (
	ActionCreate Action = iota
	ActionRead
	ActionUpdate
	ActionDelete
	ActionApprove
	ActionReject
	ActionExport
	ActionManage
	ActionAssign
)

// Scope narrows where a grant applies.
type Scope int

const (
	ScopeGlobal Scope = iota
	ScopeCompany
	ScopePersonal
	ScopeAssigned
)

// Ptr returns a pointer to s, for optional scope arguments.
func (s Scope) Ptr() *Scope {
	return &s
}

// Effect is the outcome a rule produces. The zero value is EffectDeny.
type Effect int

const (
	EffectDeny Effect = iota
	EffectAllow
)

// Allows reports whether the effect grants access.
func (e Effect) Allows() bool {
	return e == EffectAllow
}

// Operator is a condition operator understood by the evaluator.
type Operator int

const (
	OperatorEquals Operator = iota
	OperatorNotEquals
	OperatorIn
	OperatorNotIn
	OperatorGreaterThan
	OperatorLessThan
	OperatorContains
	OperatorStartsWith
	OperatorEndsWith
	OperatorExists
	OperatorNotExists
	OperatorTimeBetween
	OperatorIpInRange
	OperatorHasRole
	OperatorIsOwner
	OperatorSameCompany
)

// ContextType selects which part of the evaluation context a condition reads.
type ContextType int

const (
	ContextTypeUser ContextType = iota
	ContextTypeCompany
	ContextTypeResource
	ContextTypeRequest
	ContextTypeTime
	ContextTypeLocation
	ContextTypeSession
)

// RoleType ranks roles for administrative purposes. Lower values outrank
// higher ones.
type RoleType int

const (
	RoleTypeSuperAdmin RoleType = iota
	RoleTypeCompanyOwner
	RoleTypeCompanyAdmin
	RoleTypeManager
	RoleTypeAccountant
	RoleTypeClerk
	RoleTypeEmployee
	RoleTypeViewer
)

// Outranks reports whether t sits strictly above other.
func (t RoleType) Outranks(other RoleType) bool {
	return t < other
}
