package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// User roles
const (
	RoleAdmin    = "ADMIN"
	RoleStaff    = "STAFF"
	RoleFacility = "FACILITY"
)

// Event statuses
const (
	EventDraft     = "DRAFT"
	EventPublished = "PUBLISHED"
	EventCancelled = "CANCELLED"
)

// Event request types
const (
	RequestExisting = "REQUEST_EXISTING"
	CreateCustom    = "CREATE_CUSTOM"
)

// Event request statuses
const (
	RequestPending   = "PENDING"
	RequestApproved  = "APPROVED"
	RequestRejected  = "REJECTED"
	RequestCancelled = "CANCELLED"
)

// RSVP statuses
const (
	RSVPYes   = "YES"
	RSVPNo    = "NO"
	RSVPMaybe = "MAYBE"
)

// Notification types
const (
	NotifyEventCreated          = "EVENT_CREATED"
	NotifyEventReminder         = "EVENT_REMINDER"
	NotifyRSVPReceived          = "RSVP_RECEIVED"
	NotifyStaffCheckin          = "STAFF_CHECKIN"
	NotifyEventRequestSubmitted = "EVENT_REQUEST_SUBMITTED"
	NotifyEventRequestApproved  = "EVENT_REQUEST_APPROVED"
	NotifyEventRequestRejected  = "EVENT_REQUEST_REJECTED"
	NotifyEventRequestCancelled = "EVENT_REQUEST_CANCELLED"
)

// User is the identity projection this service needs for recipient
// resolution. Authentication itself lives in the identity service.
type User struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	Name       string         `gorm:"not null" json:"name"`
	Email      string         `gorm:"not null;uniqueIndex" json:"email"`
	Phone      *string        `json:"phone"`
	Role       string         `gorm:"not null;index" json:"role"`
	FacilityID *uuid.UUID     `gorm:"type:uuid;index" json:"facility_id"`
}

// Facility represents a partner facility that requests events
type Facility struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Name          string         `gorm:"not null" json:"name"`
	ContactUserID uuid.UUID      `gorm:"type:uuid;not null" json:"contact_user_id"`
	ContactUser   User           `gorm:"foreignKey:ContactUserID" json:"-"`
}

// Event represents a scheduled in-person event
type Event struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Title         string         `gorm:"not null" json:"title"`
	Description   string         `json:"description"`
	StartDateTime time.Time      `gorm:"not null;index" json:"start_date_time"`
	EndDateTime   time.Time      `gorm:"not null" json:"end_date_time"`
	MaxAttendees  int            `gorm:"not null" json:"max_attendees"`
	Status        string         `gorm:"not null;index" json:"status"`
	LocationName  string         `json:"location_name"`
	CreatedBy     *uuid.UUID     `gorm:"type:uuid" json:"created_by"`
}

// EventRequest captures a facility's ask for an event: either a slot in
// an existing published event or a custom one-off. Requests are
// append-only; once APPROVED, REJECTED or CANCELLED they never change.
type EventRequest struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
	Type                string         `gorm:"not null" json:"type"`
	Status              string         `gorm:"not null;index" json:"status"`
	RequesterFacilityID uuid.UUID      `gorm:"type:uuid;not null;index" json:"requester_facility_id"`
	RequestedBy         uuid.UUID      `gorm:"type:uuid;not null" json:"requested_by"`
	RequestedAt         time.Time      `gorm:"not null" json:"requested_at"`

	// REQUEST_EXISTING target
	EventID *uuid.UUID `gorm:"type:uuid;index" json:"event_id"`

	// CREATE_CUSTOM fields, write-once at submission
	Title             *string    `json:"title"`
	Description       *string    `json:"description"`
	ProposedStart     *time.Time `json:"proposed_start"`
	ProposedEnd       *time.Time `json:"proposed_end"`
	LocationName      *string    `json:"location_name"`
	ExpectedAttendees *int       `json:"expected_attendees"`

	// Review outcome
	ReviewedAt      *time.Time `json:"reviewed_at"`
	ReviewedBy      *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	RejectionReason *string    `json:"rejection_reason"`
	ApprovedEventID *uuid.UUID `gorm:"type:uuid" json:"approved_event_id"`

	// Opaque reference to an attached form submission, never parsed here
	FormSubmissionID *uuid.UUID `gorm:"type:uuid" json:"form_submission_id"`

	Facility Facility `gorm:"foreignKey:RequesterFacilityID" json:"-"`
}

// AttendanceRecord is the per (event, user) RSVP and check-in state
type AttendanceRecord struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	EventID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_event_user" json:"event_id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_event_user" json:"user_id"`
	Status          string         `gorm:"not null" json:"status"`
	CheckInTime     *time.Time     `json:"check_in_time"`
	FeedbackRating  *int           `json:"feedback_rating"`
	FeedbackComment *string        `json:"feedback_comment"`
	IsAnonymous     bool           `gorm:"not null;default:false" json:"is_anonymous"`
	Event           Event          `gorm:"foreignKey:EventID" json:"-"`
}

// Notification is the durable in-app record of a dispatched fact
type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      string    `gorm:"not null" json:"type"`
	Title     string    `gorm:"not null" json:"title"`
	Message   string    `gorm:"not null" json:"message"`
	Link      *string   `json:"link"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
}

// NotificationPreference holds a user's channel opt-ins. A missing row
// means email on, sms off, in-app on.
type NotificationPreference struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Email     bool      `gorm:"not null;default:true" json:"email"`
	SMS       bool      `gorm:"not null;default:false" json:"sms"`
	InApp     bool      `gorm:"not null;default:true" json:"in_app"`
}

// DefaultPreference returns the channel opt-ins used when a user has no
// stored preference row.
func DefaultPreference(userID uuid.UUID) NotificationPreference {
	return NotificationPreference{UserID: userID, Email: true, SMS: false, InApp: true}
}

// AuditEntry is one immutable line in the shared audit trail
type AuditEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	Action     string    `gorm:"not null;index" json:"action"`
	ActorID    uuid.UUID `gorm:"type:uuid;not null" json:"actor_id"`
	EntityType string    `gorm:"not null" json:"entity_type"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index" json:"entity_id"`
	Details    []byte    `gorm:"type:jsonb" json:"details"`
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{},
		&Facility{},
		&Event{},
		&EventRequest{},
		&AttendanceRecord{},
		&Notification{},
		&NotificationPreference{},
		&AuditEntry{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	return nil
}
