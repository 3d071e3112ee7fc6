package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/apperrors"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// RequestRepository provides access to event request data. All state
// transitions are conditional updates guarded on the PENDING status, so
// a racing second reviewer observes zero affected rows instead of
// double-applying the transition.
type RequestRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *gorm.DB, readOnlyDB *gorm.DB) *RequestRepository {
	return &RequestRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create persists a new PENDING event request
func (r *RequestRepository) Create(ctx context.Context, request *models.EventRequest) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return errors.Wrap(err, "failed to create event request")
	}
	return nil
}

// GetByID gets an event request by ID
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EventRequest, error) {
	var request models.EventRequest
	err := r.readOnlyDB.WithContext(ctx).First(&request, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event request")
		}
		return nil, errors.Wrap(err, "failed to get event request by ID")
	}
	return &request, nil
}

// HasOpenRequest reports whether the facility already holds a
// non-terminal request for the given event.
func (r *RequestRepository) HasOpenRequest(ctx context.Context, facilityID, eventID uuid.UUID) (bool, error) {
	var count int64
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.EventRequest{}).
		Where("requester_facility_id = ? AND event_id = ? AND status = ?", facilityID, eventID, models.RequestPending).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check for open requests")
	}
	return count > 0, nil
}

// ListByFacility lists a facility's requests, newest first
func (r *RequestRepository) ListByFacility(ctx context.Context, facilityID uuid.UUID) ([]models.EventRequest, error) {
	var requests []models.EventRequest
	err := r.readOnlyDB.WithContext(ctx).
		Where("requester_facility_id = ?", facilityID).
		Order("requested_at desc").
		Find(&requests).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list requests by facility")
	}
	return requests, nil
}

// ListPending lists requests awaiting review, oldest first
func (r *RequestRepository) ListPending(ctx context.Context) ([]models.EventRequest, error) {
	var requests []models.EventRequest
	err := r.readOnlyDB.WithContext(ctx).
		Where("status = ?", models.RequestPending).
		Order("requested_at asc").
		Find(&requests).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending requests")
	}
	return requests, nil
}

// Approve flips a PENDING request to APPROVED in one transaction. For
// CREATE_CUSTOM requests the concrete event is created inside the same
// transaction, so a lost race rolls the new event back too. Returns the
// approved event (created or pre-existing).
func (r *RequestRepository) Approve(ctx context.Context, request *models.EventRequest, reviewerID uuid.UUID, now time.Time) (*models.Event, error) {
	var approved *models.Event

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		eventID := request.EventID
		if request.Type == models.CreateCustom {
			event := &models.Event{
				ID:            uuid.New(),
				Title:         derefString(request.Title),
				Description:   derefString(request.Description),
				StartDateTime: *request.ProposedStart,
				EndDateTime:   *request.ProposedEnd,
				MaxAttendees:  derefInt(request.ExpectedAttendees),
				Status:        models.EventPublished,
				LocationName:  derefString(request.LocationName),
				CreatedBy:     &reviewerID,
			}
			if err := tx.Create(event).Error; err != nil {
				return errors.Wrap(err, "failed to create event from custom request")
			}
			eventID = &event.ID
			approved = event
		} else {
			var event models.Event
			if err := tx.First(&event, "id = ?", *eventID).Error; err != nil {
				return errors.Wrap(err, "failed to load target event")
			}
			approved = &event
		}

		res := tx.Model(&models.EventRequest{}).
			Where("id = ? AND status = ?", request.ID, models.RequestPending).
			Updates(map[string]interface{}{
				"status":            models.RequestApproved,
				"reviewed_at":       now,
				"reviewed_by":       reviewerID,
				"approved_event_id": eventID,
			})
		if res.Error != nil {
			return errors.Wrap(res.Error, "failed to approve event request")
		}
		if res.RowsAffected == 0 {
			return apperrors.InvalidState("this request has already been reviewed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// Reject flips a PENDING request to REJECTED
func (r *RequestRepository) Reject(ctx context.Context, requestID, reviewerID uuid.UUID, reason string, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.EventRequest{}).
		Where("id = ? AND status = ?", requestID, models.RequestPending).
		Updates(map[string]interface{}{
			"status":           models.RequestRejected,
			"reviewed_at":      now,
			"reviewed_by":      reviewerID,
			"rejection_reason": reason,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to reject event request")
	}
	if res.RowsAffected == 0 {
		return apperrors.InvalidState("this request has already been reviewed")
	}
	return nil
}

// Cancel flips a PENDING request to CANCELLED
func (r *RequestRepository) Cancel(ctx context.Context, requestID uuid.UUID, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.EventRequest{}).
		Where("id = ? AND status = ?", requestID, models.RequestPending).
		Update("status", models.RequestCancelled)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to cancel event request")
	}
	if res.RowsAffected == 0 {
		return apperrors.InvalidState("this request can no longer be cancelled")
	}
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
