package domain

import "errors"

// Domain errors surfaced by the matching core. Infrastructure facts (missing
// rows, conflicts) live in pkg/platform/sentinel; these describe violations
// of domain rules.
var (
	// ErrInvalidBloodGroup marks an unrecognized blood-group code. It is
	// fatal to the single request carrying it, never to the system.
	ErrInvalidBloodGroup = errors.New("invalid blood group")

	// ErrInvalidInput marks malformed or incomplete boundary input other
	// than the blood group itself.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyMatched marks a duplicate match attempt for the same
	// (request, donor) pair. Recovered locally by the recorder; callers
	// should not see it as a user-visible failure.
	ErrAlreadyMatched = errors.New("donor already matched for request")
)
