package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// Store interfaces consumed by the services. The gorm repositories
// satisfy them; tests substitute mocks.

// RequestStore persists event requests
type RequestStore interface {
	Create(ctx context.Context, request *models.EventRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.EventRequest, error)
	HasOpenRequest(ctx context.Context, facilityID, eventID uuid.UUID) (bool, error)
	ListByFacility(ctx context.Context, facilityID uuid.UUID) ([]models.EventRequest, error)
	ListPending(ctx context.Context) ([]models.EventRequest, error)
	Approve(ctx context.Context, request *models.EventRequest, reviewerID uuid.UUID, now time.Time) (*models.Event, error)
	Reject(ctx context.Context, requestID, reviewerID uuid.UUID, reason string, now time.Time) error
	Cancel(ctx context.Context, requestID uuid.UUID, now time.Time) error
}

// EventStore reads events owned by event management
type EventStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.Event, error)
}

// AttendanceStore persists attendance records. UpsertRSVP and
// SetCheckedIn are single atomic units at the storage layer.
type AttendanceStore interface {
	UpsertRSVP(ctx context.Context, eventID, userID uuid.UUID, status string) (*models.AttendanceRecord, error)
	SetCheckedIn(ctx context.Context, eventID, userID uuid.UUID, now time.Time) (*models.AttendanceRecord, bool, error)
	SaveFeedback(ctx context.Context, eventID, userID uuid.UUID, rating int, comment *string, anonymous bool) (*models.AttendanceRecord, error)
	GetRecord(ctx context.Context, eventID, userID uuid.UUID) (*models.AttendanceRecord, error)
	ListForEvent(ctx context.Context, eventID uuid.UUID) ([]models.AttendanceRecord, error)
	ListYesUserIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error)
}

// NotificationStore persists in-app notifications
type NotificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

// PreferenceStore persists notification preferences
type PreferenceStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error)
	Upsert(ctx context.Context, pref *models.NotificationPreference) error
}

// UserStore reads the identity projection
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	ListByRoles(ctx context.Context, roles ...string) ([]models.User, error)
}

// FacilityStore reads partner facilities
type FacilityStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Facility, error)
	GetContact(ctx context.Context, facilityID uuid.UUID) (*models.User, error)
}

// AuditRecorder appends to the shared audit trail, best-effort, and
// reads an entity's trail back for review
type AuditRecorder interface {
	Record(ctx context.Context, action string, actorID uuid.UUID, entityType string, entityID uuid.UUID, details map[string]interface{})
	ListForEntity(ctx context.Context, entityID uuid.UUID, limit int) ([]models.AuditEntry, error)
}

// EventIndexer pushes newly published events into the search index
type EventIndexer interface {
	IndexEvent(ctx context.Context, event *models.Event) error
}
