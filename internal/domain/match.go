package domain

import (
	"time"

	"github.com/google/uuid"
)

// Channel identifies a notification delivery channel.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

// DeliveryStatus is the outcome of one channel attempt. Exactly one status is
// produced per channel per Notify call.
type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
	DeliverySkipped DeliveryStatus = "skipped" // channel not configured for this donor
)

// FailureReason classifies a failed delivery for operators. Empty unless the
// status is failed.
type FailureReason string

const (
	ReasonTransientNetwork FailureReason = "transient_network"
	ReasonInvalidRecipient FailureReason = "invalid_recipient"
	ReasonProviderRejected FailureReason = "provider_rejected"
	ReasonTimeout          FailureReason = "timeout"
)

// DeliveryOutcome records what happened on a single channel.
type DeliveryOutcome struct {
	Status DeliveryStatus
	Reason FailureReason
}

// DeliveryOutcomes maps each attempted channel to its outcome.
type DeliveryOutcomes map[Channel]DeliveryOutcome

// AnySent reports whether at least one channel delivered.
func (o DeliveryOutcomes) AnySent() bool {
	for _, outcome := range o {
		if outcome.Status == DeliverySent {
			return true
		}
	}
	return false
}

// Match is the recorded, at-most-once pairing of a request with a notified
// donor. Uniqueness is per (RequestID, DonorID): the same donor may hold
// matches for distinct requests.
type Match struct {
	ID         uuid.UUID
	RequestID  uuid.UUID
	DonorID    uuid.UUID
	NotifiedAt time.Time
	Outcomes   DeliveryOutcomes
}
