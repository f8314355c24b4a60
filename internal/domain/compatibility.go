package domain

import "fmt"

// compatibleDonors maps a recipient group to the donor groups that may safely
// donate to it. The table encodes the standard transfusion rules: O- is the
// universal donor, AB+ the universal recipient. It is initialized once and
// never mutated, so concurrent readers need no locking.
var compatibleDonors = map[BloodGroup][]BloodGroup{
	BloodGroupAPos:  {BloodGroupAPos, BloodGroupANeg, BloodGroupOPos, BloodGroupONeg},
	BloodGroupANeg:  {BloodGroupANeg, BloodGroupONeg},
	BloodGroupBPos:  {BloodGroupBPos, BloodGroupBNeg, BloodGroupOPos, BloodGroupONeg},
	BloodGroupBNeg:  {BloodGroupBNeg, BloodGroupONeg},
	BloodGroupABPos: {BloodGroupAPos, BloodGroupANeg, BloodGroupBPos, BloodGroupBNeg, BloodGroupABPos, BloodGroupABNeg, BloodGroupOPos, BloodGroupONeg},
	BloodGroupABNeg: {BloodGroupANeg, BloodGroupBNeg, BloodGroupABNeg, BloodGroupONeg},
	BloodGroupOPos:  {BloodGroupOPos, BloodGroupONeg},
	BloodGroupONeg:  {BloodGroupONeg},
}

// CompatibleDonorGroups returns the donor groups that may donate to the given
// recipient group. The returned slice is a copy; callers may mutate it.
//
// Errors: returns ErrInvalidBloodGroup for an unrecognized recipient group.
// Boundary code should have validated the group already, so hitting this from
// inside the core indicates a programming error upstream.
func CompatibleDonorGroups(recipient BloodGroup) ([]BloodGroup, error) {
	donors, ok := compatibleDonors[recipient]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBloodGroup, recipient)
	}
	return append([]BloodGroup{}, donors...), nil
}

// CanDonate reports whether a donor group may donate to a recipient group.
func CanDonate(donor, recipient BloodGroup) bool {
	donors, ok := compatibleDonors[recipient]
	if !ok {
		return false
	}
	for _, g := range donors {
		if g == donor {
			return true
		}
	}
	return false
}
