package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/apperrors"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// NotificationRepository provides access to in-app notifications
type NotificationRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB, readOnlyDB *gorm.DB) *NotificationRepository {
	return &NotificationRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create appends an in-app notification
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return errors.Wrap(err, "failed to create notification")
	}
	return nil
}

// ListForUser lists a user's notifications, newest first
func (r *NotificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.readOnlyDB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flips a notification's read flag. Scoped to the owning user
// so one user cannot mark another's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to mark notification read")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("notification")
	}
	return nil
}

// UnreadCount counts a user's unread notifications
func (r *NotificationRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count unread notifications")
	}
	return count, nil
}

// PreferenceRepository provides access to notification preferences
type PreferenceRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewPreferenceRepository creates a new preference repository
func NewPreferenceRepository(db *gorm.DB, readOnlyDB *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// GetByUserID gets a user's stored preference. A user with no stored
// row gets the documented defaults.
func (r *PreferenceRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	var pref models.NotificationPreference
	err := r.readOnlyDB.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			def := models.DefaultPreference(userID)
			return &def, nil
		}
		return nil, errors.Wrap(err, "failed to get notification preference")
	}
	return &pref, nil
}

// Upsert stores a user's preference
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *models.NotificationPreference) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.NotificationPreference
		err := tx.Where("user_id = ?", pref.UserID).First(&existing).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			pref.ID = uuid.New()
			return tx.Create(pref).Error
		}
		existing.Email = pref.Email
		existing.SMS = pref.SMS
		existing.InApp = pref.InApp
		return tx.Save(&existing).Error
	})
	if err != nil {
		return errors.Wrap(err, "failed to upsert notification preference")
	}
	return nil
}
