package models

import (
	"time"

	"github.com/google/uuid"
)

// Fact kinds emitted by the ledgers
const (
	FactRequestSubmitted = "EVENT_REQUEST_SUBMITTED"
	FactRequestApproved  = "EVENT_REQUEST_APPROVED"
	FactRequestRejected  = "EVENT_REQUEST_REJECTED"
	FactRequestCancelled = "EVENT_REQUEST_CANCELLED"
	FactRSVPReceived     = "RSVP_RECEIVED"
	FactCheckinRecorded  = "STAFF_CHECKIN"
	FactEventReminder    = "EVENT_REMINDER"
)

// Fact is an immutable description of a committed state transition. It
// is what the ledgers publish and what drives notification fan-out.
// Facts are only emitted after their owning transaction commits.
type Fact struct {
	Type       string     `json:"type"`
	OccurredAt time.Time  `json:"occurred_at"`
	ActorID    uuid.UUID  `json:"actor_id"`
	RequestID  *uuid.UUID `json:"request_id,omitempty"`
	EventID    *uuid.UUID `json:"event_id,omitempty"`
	FacilityID *uuid.UUID `json:"facility_id,omitempty"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`

	// EventTitle rides along so the orchestrator can build message text
	// without an extra lookup.
	EventTitle string `json:"event_title,omitempty"`

	// RSVPStatus is set for RSVP_RECEIVED facts
	RSVPStatus string `json:"rsvp_status,omitempty"`

	// RejectionReason is set for EVENT_REQUEST_REJECTED facts
	RejectionReason string `json:"rejection_reason,omitempty"`
}
