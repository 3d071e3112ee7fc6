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

// EventRepository provides access to event data
type EventRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB, readOnlyDB *gorm.DB) *EventRepository {
	return &EventRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// GetByID gets an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.readOnlyDB.WithContext(ctx).First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event")
		}
		return nil, errors.Wrap(err, "failed to get event by ID")
	}
	return &event, nil
}

// ListPublished lists published events that have not yet ended
func (r *EventRepository) ListPublished(ctx context.Context, now time.Time) ([]models.Event, error) {
	var events []models.Event
	err := r.readOnlyDB.WithContext(ctx).
		Where("status = ? AND end_date_time > ?", models.EventPublished, now).
		Order("start_date_time asc").
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list published events")
	}
	return events, nil
}

// ListStartingBetween lists published events starting inside the given
// window. Used by the reminder job.
func (r *EventRepository) ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	var events []models.Event
	err := r.readOnlyDB.WithContext(ctx).
		Where("status = ? AND start_date_time >= ? AND start_date_time < ?", models.EventPublished, from, to).
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list events starting in window")
	}
	return events, nil
}
