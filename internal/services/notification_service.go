package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/apperrors"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/cache"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/channels"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

const preferenceCacheTTL = 5 * time.Minute

// Notice is a fully-resolved notification: the dispatcher receives the
// target list already computed and applies nothing but each recipient's
// own channel preferences.
type Notice struct {
	Type    string
	Targets []uuid.UUID
	Title   string
	Message string
	Link    *string
}

// NotificationService is the dispatcher. For each target it writes the
// durable in-app record when the in-app channel is on, then attempts
// the external channels the target opted into. One recipient's failed
// send never affects another recipient or another channel, and no
// failure here ever propagates to the operation that produced the fact.
type NotificationService struct {
	notifications NotificationStore
	preferences   PreferenceStore
	users         UserStore
	email         channels.EmailSender
	sms           channels.SMSSender
	cache         *cache.RedisCache
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notifications NotificationStore,
	preferences PreferenceStore,
	users UserStore,
	email channels.EmailSender,
	sms channels.SMSSender,
	redisCache *cache.RedisCache,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		preferences:   preferences,
		users:         users,
		email:         email,
		sms:           sms,
		cache:         redisCache,
	}
}

// Notify fans the notice out to every target. The recipient set is
// resolved once by the caller; preference filtering happens per user.
// Calling Notify twice for the same fact produces two in-app records:
// de-duplication is the caller's job, one call per committed transition.
func (s *NotificationService) Notify(ctx context.Context, notice Notice) {
	if len(notice.Targets) == 0 {
		return
	}

	// One identity lookup for the whole batch
	users, err := s.users.GetByIDs(ctx, notice.Targets)
	if err != nil {
		log.Error().Err(err).Str("type", notice.Type).Msg("Failed to load notification recipients")
		return
	}
	byID := make(map[uuid.UUID]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	for _, target := range notice.Targets {
		user, ok := byID[target]
		if !ok {
			log.Warn().Str("user_id", target.String()).Str("type", notice.Type).Msg("Notification target not found, skipping")
			continue
		}
		s.notifyOne(ctx, notice, user)
	}
}

func (s *NotificationService) notifyOne(ctx context.Context, notice Notice, user *models.User) {
	pref := s.preferenceFor(ctx, user.ID)

	if pref.InApp {
		notification := &models.Notification{
			ID:      uuid.New(),
			UserID:  user.ID,
			Type:    notice.Type,
			Title:   notice.Title,
			Message: notice.Message,
			Link:    notice.Link,
		}
		if err := s.notifications.Create(ctx, notification); err != nil {
			log.Error().
				Err(err).
				Str("user_id", user.ID.String()).
				Str("type", notice.Type).
				Msg("Failed to write in-app notification, continuing")
		}
	}

	if pref.Email {
		sendCtx, cancel := context.WithTimeout(ctx, channels.SendTimeout)
		err := s.email.SendEmail(sendCtx, user.Email, notice.Title, notice.Message)
		cancel()
		if err != nil {
			log.Warn().
				Err(err).
				Str("user_id", user.ID.String()).
				Str("type", notice.Type).
				Msg("Email send failed, continuing")
		}
	}

	if pref.SMS && user.Phone != nil && *user.Phone != "" {
		sendCtx, cancel := context.WithTimeout(ctx, channels.SendTimeout)
		err := s.sms.SendSMS(sendCtx, *user.Phone, notice.Message)
		cancel()
		if err != nil {
			log.Warn().
				Err(err).
				Str("user_id", user.ID.String()).
				Str("type", notice.Type).
				Msg("SMS send failed, continuing")
		}
	}
}

// preferenceFor loads a user's channel preference through the cache.
// Any failure falls back to the documented defaults so the in-app
// record is still written.
func (s *NotificationService) preferenceFor(ctx context.Context, userID uuid.UUID) models.NotificationPreference {
	key := "notifpref:" + userID.String()

	if s.cache.Enabled() {
		var cached models.NotificationPreference
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached
		}
	}

	pref, err := s.preferences.GetByUserID(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to load notification preference, using defaults")
		return models.DefaultPreference(userID)
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, pref, preferenceCacheTTL); err != nil {
			log.Debug().Err(err).Msg("Failed to cache notification preference")
		}
	}

	return *pref
}

// ListForUser lists the caller's notifications
func (s *NotificationService) ListForUser(ctx context.Context, actor Actor, limit int) ([]models.Notification, error) {
	if !actor.Valid() {
		return nil, apperrors.Unauthorized()
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	notifications, err := s.notifications.ListForUser(ctx, actor.UserID, limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return notifications, nil
}

// MarkRead flips one of the caller's notifications to read
func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, notificationID uuid.UUID) error {
	if !actor.Valid() {
		return apperrors.Unauthorized()
	}
	return s.notifications.MarkRead(ctx, actor.UserID, notificationID)
}

// UnreadCount counts the caller's unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, actor Actor) (int64, error) {
	if !actor.Valid() {
		return 0, apperrors.Unauthorized()
	}
	count, err := s.notifications.UnreadCount(ctx, actor.UserID)
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return count, nil
}

// GetPreferences returns the caller's channel preferences
func (s *NotificationService) GetPreferences(ctx context.Context, actor Actor) (*models.NotificationPreference, error) {
	if !actor.Valid() {
		return nil, apperrors.Unauthorized()
	}
	pref, err := s.preferences.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return pref, nil
}

// UpdatePreferences stores the caller's channel preferences and drops
// the cached copy.
func (s *NotificationService) UpdatePreferences(ctx context.Context, actor Actor, email, sms, inApp bool) (*models.NotificationPreference, error) {
	if !actor.Valid() {
		return nil, apperrors.Unauthorized()
	}
	pref := &models.NotificationPreference{
		UserID: actor.UserID,
		Email:  email,
		SMS:    sms,
		InApp:  inApp,
	}
	if err := s.preferences.Upsert(ctx, pref); err != nil {
		return nil, apperrors.Internal(err)
	}
	if s.cache.Enabled() {
		if err := s.cache.Delete(ctx, "notifpref:"+actor.UserID.String()); err != nil {
			log.Debug().Err(err).Msg("Failed to invalidate cached notification preference")
		}
	}
	return pref, nil
}
