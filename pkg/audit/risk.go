package audit

// MaxRisk is the upper bound of every risk score.
const MaxRisk = 100

// failurePenalty is added to an administrative event that did not succeed.
const failurePenalty = 20

var categoryBase = map[Category]int{
	CategoryAccessAttempt:       5,
	CategoryPermissionGranted:   20,
	CategoryPermissionDenied:    15,
	CategoryRoleAssigned:        30,
	CategoryRoleRemoved:         20,
	CategoryPolicyCreated:       40,
	CategoryPolicyUpdated:       35,
	CategoryPolicyDeleted:       45,
	CategoryPrivilegeEscalation: 80,
}

// Score is the risk of an administrative event of the given category.
func Score(category Category, success bool) int {
	score := categoryBase[category]
	if !success {
		score += failurePenalty
	}
	return Clamp(score)
}

// Clamp bounds a score to [0, MaxRisk].
func Clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > MaxRisk:
		return MaxRisk
	}
	return score
}
