package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Urgency classifies how quickly a request needs donors.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

var validUrgencies = map[Urgency]bool{
	UrgencyLow:      true,
	UrgencyMedium:   true,
	UrgencyHigh:     true,
	UrgencyCritical: true,
}

// ParseUrgency constructs an Urgency from external input. An empty value
// defaults to medium so intake forms may omit it.
func ParseUrgency(s string) (Urgency, error) {
	if s == "" {
		return UrgencyMedium, nil
	}
	u := Urgency(s)
	if !validUrgencies[u] {
		return "", fmt.Errorf("%w: urgency level %q", ErrInvalidInput, s)
	}
	return u, nil
}

func (u Urgency) String() string { return string(u) }

// RequestStatus is the lifecycle state of a blood request.
type RequestStatus string

const (
	RequestStatusOpen    RequestStatus = "open"
	RequestStatusMatched RequestStatus = "matched"
	RequestStatusClosed  RequestStatus = "closed"
)

// statusRank orders statuses so transitions stay monotonic: a request never
// moves backwards from matched to open.
var statusRank = map[RequestStatus]int{
	RequestStatusOpen:    0,
	RequestStatusMatched: 1,
	RequestStatusClosed:  2,
}

// CanTransitionTo reports whether moving from s to next is a forward
// transition. Same-status updates are allowed (idempotent writes).
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	cur, ok := statusRank[s]
	if !ok {
		return false
	}
	nxt, ok := statusRank[next]
	if !ok {
		return false
	}
	return nxt >= cur
}

func (s RequestStatus) String() string { return string(s) }

// BloodRequest is a hospital's request for donors of a given group.
type BloodRequest struct {
	ID               uuid.UUID
	HospitalName     string
	HospitalEmail    string
	HospitalPhone    string
	HospitalLocation string
	BloodGroup       BloodGroup // required group for the recipient
	PatientDetails   string     // optional
	Urgency          Urgency
	Status           RequestStatus
	CreatedAt        time.Time
}
