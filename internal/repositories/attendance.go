package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/apperrors"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// AttendanceRepository provides access to attendance records. The
// capacity ceiling is enforced here, at the storage layer, as a single
// atomic unit: the event row is locked FOR UPDATE before the YES count
// is read, so two concurrent RSVPs for the last seat serialize instead
// of both being admitted.
type AttendanceRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *gorm.DB, readOnlyDB *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// UpsertRSVP records the user's RSVP, enforcing the capacity ceiling
// when the record enters YES from any other state.
func (r *AttendanceRepository) UpsertRSVP(ctx context.Context, eventID, userID uuid.UUID, status string) (*models.AttendanceRecord, error) {
	var record *models.AttendanceRecord

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&event, "id = ?", eventID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("event")
			}
			return errors.Wrap(err, "failed to lock event row")
		}

		var existing models.AttendanceRecord
		err = tx.Where("event_id = ? AND user_id = ?", eventID, userID).First(&existing).Error
		hasExisting := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(err, "failed to load attendance record")
		}

		enteringYes := status == models.RSVPYes && (!hasExisting || existing.Status != models.RSVPYes)
		if enteringYes {
			var yesCount int64
			err = tx.Model(&models.AttendanceRecord{}).
				Where("event_id = ? AND status = ?", eventID, models.RSVPYes).
				Count(&yesCount).Error
			if err != nil {
				return errors.Wrap(err, "failed to count confirmed attendees")
			}
			if yesCount >= int64(event.MaxAttendees) {
				return apperrors.EventFull()
			}
		}

		if hasExisting {
			existing.Status = status
			if err := tx.Save(&existing).Error; err != nil {
				return errors.Wrap(err, "failed to update attendance record")
			}
			record = &existing
			return nil
		}

		created := models.AttendanceRecord{
			ID:      uuid.New(),
			EventID: eventID,
			UserID:  userID,
			Status:  status,
		}
		if err := tx.Create(&created).Error; err != nil {
			return errors.Wrap(err, "failed to create attendance record")
		}
		record = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// SetCheckedIn marks the user as checked in, creating a walk-in record
// if none exists. Check-in is idempotent: a second call leaves the
// original check-in time untouched and reports alreadyCheckedIn.
// Check-in always forces the visible status to YES.
func (r *AttendanceRepository) SetCheckedIn(ctx context.Context, eventID, userID uuid.UUID, now time.Time) (record *models.AttendanceRecord, alreadyCheckedIn bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.AttendanceRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(err, "failed to load attendance record for check-in")
		}

		if err == nil {
			if existing.CheckInTime != nil {
				record = &existing
				alreadyCheckedIn = true
				return nil
			}
			existing.CheckInTime = &now
			existing.Status = models.RSVPYes
			if err := tx.Save(&existing).Error; err != nil {
				return errors.Wrap(err, "failed to record check-in")
			}
			record = &existing
			return nil
		}

		created := models.AttendanceRecord{
			ID:          uuid.New(),
			EventID:     eventID,
			UserID:      userID,
			Status:      models.RSVPYes,
			CheckInTime: &now,
		}
		if err := tx.Create(&created).Error; err != nil {
			return errors.Wrap(err, "failed to create walk-in attendance record")
		}
		record = &created
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return record, alreadyCheckedIn, nil
}

// SaveFeedback attaches feedback to the user's attendance record,
// creating the record if the user never RSVPed.
func (r *AttendanceRepository) SaveFeedback(ctx context.Context, eventID, userID uuid.UUID, rating int, comment *string, anonymous bool) (*models.AttendanceRecord, error) {
	var record *models.AttendanceRecord

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.AttendanceRecord
		err := tx.Where("event_id = ? AND user_id = ?", eventID, userID).First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(err, "failed to load attendance record for feedback")
		}

		if err == nil {
			existing.FeedbackRating = &rating
			existing.FeedbackComment = comment
			existing.IsAnonymous = anonymous
			if err := tx.Save(&existing).Error; err != nil {
				return errors.Wrap(err, "failed to save feedback")
			}
			record = &existing
			return nil
		}

		created := models.AttendanceRecord{
			ID:              uuid.New(),
			EventID:         eventID,
			UserID:          userID,
			Status:          models.RSVPMaybe,
			FeedbackRating:  &rating,
			FeedbackComment: comment,
			IsAnonymous:     anonymous,
		}
		if err := tx.Create(&created).Error; err != nil {
			return errors.Wrap(err, "failed to create attendance record for feedback")
		}
		record = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetRecord gets the user's attendance record for an event
func (r *AttendanceRepository) GetRecord(ctx context.Context, eventID, userID uuid.UUID) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := r.readOnlyDB.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("attendance record")
		}
		return nil, errors.Wrap(err, "failed to get attendance record")
	}
	return &record, nil
}

// ListForEvent lists all attendance records for an event
func (r *AttendanceRepository) ListForEvent(ctx context.Context, eventID uuid.UUID) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.readOnlyDB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at asc").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list attendance for event")
	}
	return records, nil
}

// CountYes counts confirmed attendees for an event
func (r *AttendanceRepository) CountYes(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var count int64
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Where("event_id = ? AND status = ?", eventID, models.RSVPYes).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count confirmed attendees")
	}
	return count, nil
}

// ListYesUserIDs lists the user IDs of confirmed attendees. Used by the
// reminder job to build its recipient set.
func (r *AttendanceRepository) ListYesUserIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Where("event_id = ? AND status = ?", eventID, models.RSVPYes).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list confirmed attendee IDs")
	}
	return ids, nil
}
