package domain

import "fmt"

// BloodGroup is a domain value for one of the 8 ABO/Rh combinations.
// Invariant: the value must be one of the supported groups.
//
// Usage: construct via ParseBloodGroup at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type BloodGroup string

const (
	BloodGroupONeg  BloodGroup = "O-"
	BloodGroupOPos  BloodGroup = "O+"
	BloodGroupANeg  BloodGroup = "A-"
	BloodGroupAPos  BloodGroup = "A+"
	BloodGroupBNeg  BloodGroup = "B-"
	BloodGroupBPos  BloodGroup = "B+"
	BloodGroupABNeg BloodGroup = "AB-"
	BloodGroupABPos BloodGroup = "AB+"
)

// validBloodGroups is the single source of truth for valid groups.
var validBloodGroups = map[BloodGroup]bool{
	BloodGroupONeg:  true,
	BloodGroupOPos:  true,
	BloodGroupANeg:  true,
	BloodGroupAPos:  true,
	BloodGroupBNeg:  true,
	BloodGroupBPos:  true,
	BloodGroupABNeg: true,
	BloodGroupABPos: true,
}

// AllBloodGroups lists every supported group in a stable order.
func AllBloodGroups() []BloodGroup {
	return []BloodGroup{
		BloodGroupONeg, BloodGroupOPos,
		BloodGroupANeg, BloodGroupAPos,
		BloodGroupBNeg, BloodGroupBPos,
		BloodGroupABNeg, BloodGroupABPos,
	}
}

// ParseBloodGroup constructs a BloodGroup from external input.
//
// Errors: returns ErrInvalidBloodGroup when the value is empty or not one of
// the 8 supported codes; no other errors are expected.
func ParseBloodGroup(s string) (BloodGroup, error) {
	g := BloodGroup(s)
	if !g.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidBloodGroup, s)
	}
	return g, nil
}

// IsValid checks if the group is one of the supported enum values.
func (g BloodGroup) IsValid() bool {
	return validBloodGroups[g]
}

// String returns the string representation of the group.
func (g BloodGroup) String() string {
	return string(g)
}
