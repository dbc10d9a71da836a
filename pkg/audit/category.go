package audit

//go:generate go run github.com/dmarkham/enumer -type Category -trimprefix Category -transform snake -json -yaml -sql -output category.gen.go

// Category classifies a ledger entry.
type Category int

const (
	CategoryAccessAttempt Category = iota
	CategoryPermissionGranted
	CategoryPermissionDenied
	CategoryRoleAssigned
	CategoryRoleRemoved
	CategoryPolicyCreated
	CategoryPolicyUpdated
	CategoryPolicyDeleted
	CategoryPrivilegeEscalation
)

// IsAdministrative reports whether the category records a rule change
// rather than a decision.
func (c Category) IsAdministrative() bool {
	return c != CategoryAccessAttempt
}
