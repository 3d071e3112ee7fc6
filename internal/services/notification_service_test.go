package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/apperrors"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

type fakeNotificationStore struct {
	mu      sync.Mutex
	created []models.Notification
	failFor map[uuid.UUID]bool
}

func (f *fakeNotificationStore) Create(ctx context.Context, notification *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[notification.UserID] {
		return errors.New("insert failed")
	}
	f.created = append(f.created, *notification)
	return nil
}

func (f *fakeNotificationStore) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.created {
		if n.UserID == userID && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.created {
		if f.created[i].ID == notificationID && f.created[i].UserID == userID {
			f.created[i].Read = true
			return nil
		}
	}
	return apperrors.NotFound("notification")
}

func (f *fakeNotificationStore) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, n := range f.created {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationStore) forUser(userID uuid.UUID) []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type fakePreferenceStore struct {
	mu    sync.Mutex
	prefs map[uuid.UUID]models.NotificationPreference
	err   error
}

func (f *fakePreferenceStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if pref, ok := f.prefs[userID]; ok {
		return &pref, nil
	}
	pref := models.DefaultPreference(userID)
	return &pref, nil
}

func (f *fakePreferenceStore) Upsert(ctx context.Context, pref *models.NotificationPreference) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prefs == nil {
		f.prefs = map[uuid.UUID]models.NotificationPreference{}
	}
	f.prefs[pref.UserID] = *pref
	return nil
}

type fakeUserStore struct {
	users map[uuid.UUID]models.User
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := f.users[id]; ok {
		return &user, nil
	}
	return nil, apperrors.NotFound("user")
}

func (f *fakeUserStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (f *fakeUserStore) ListByRoles(ctx context.Context, roles ...string) ([]models.User, error) {
	var out []models.User
	for _, user := range f.users {
		for _, role := range roles {
			if user.Role == role {
				out = append(out, user)
			}
		}
	}
	return out, nil
}

type sentEmail struct {
	To      string
	Subject string
}

type recordingEmailSender struct {
	mu      sync.Mutex
	sent    []sentEmail
	failFor map[string]bool
}

func (r *recordingEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[to] {
		return errors.New("smtp unavailable")
	}
	r.sent = append(r.sent, sentEmail{To: to, Subject: subject})
	return nil
}

type recordingSMSSender struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingSMSSender) SendSMS(ctx context.Context, phone, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, phone)
	return nil
}

func seedUser(name, email string, phone *string, role string) models.User {
	return models.User{ID: uuid.New(), Name: name, Email: email, Phone: phone, Role: role}
}

func TestNotifyRespectsPerRecipientPreferences(t *testing.T) {
	alma := seedUser("Alma", "alma@example.org", nil, models.RoleStaff)
	ruth := seedUser("Ruth", "ruth@example.org", nil, models.RoleStaff)

	store := &fakeNotificationStore{}
	prefs := &fakePreferenceStore{prefs: map[uuid.UUID]models.NotificationPreference{
		// Ruth turned email off and keeps in-app only
		ruth.ID: {UserID: ruth.ID, Email: false, SMS: false, InApp: true},
	}}
	users := &fakeUserStore{users: map[uuid.UUID]models.User{alma.ID: alma, ruth.ID: ruth}}
	email := &recordingEmailSender{}
	sms := &recordingSMSSender{}

	service := NewNotificationService(store, prefs, users, email, sms, nil)
	service.Notify(context.Background(), Notice{
		Type:    models.NotifyEventRequestApproved,
		Targets: []uuid.UUID{alma.ID, ruth.ID},
		Title:   "Event request approved",
		Message: "Your request has been approved.",
	})

	// Both get the durable in-app record
	require.Len(t, store.forUser(alma.ID), 1)
	require.Len(t, store.forUser(ruth.ID), 1)

	// Only Alma opted into email, nobody into SMS
	require.Len(t, email.sent, 1)
	require.Equal(t, "alma@example.org", email.sent[0].To)
	require.Empty(t, sms.sent)
}

func TestNotifyOneFailureDoesNotAffectOtherRecipients(t *testing.T) {
	alma := seedUser("Alma", "alma@example.org", nil, models.RoleStaff)
	ruth := seedUser("Ruth", "ruth@example.org", nil, models.RoleStaff)

	store := &fakeNotificationStore{failFor: map[uuid.UUID]bool{alma.ID: true}}
	prefs := &fakePreferenceStore{}
	users := &fakeUserStore{users: map[uuid.UUID]models.User{alma.ID: alma, ruth.ID: ruth}}
	email := &recordingEmailSender{failFor: map[string]bool{"alma@example.org": true}}
	sms := &recordingSMSSender{}

	service := NewNotificationService(store, prefs, users, email, sms, nil)
	service.Notify(context.Background(), Notice{
		Type:    models.NotifyEventReminder,
		Targets: []uuid.UUID{alma.ID, ruth.ID},
		Title:   "Upcoming event reminder",
		Message: "Starts soon.",
	})

	// Alma's store write and email both failed; Ruth is untouched
	require.Empty(t, store.forUser(alma.ID))
	require.Len(t, store.forUser(ruth.ID), 1)
	require.Len(t, email.sent, 1)
	require.Equal(t, "ruth@example.org", email.sent[0].To)
}

func TestNotifySendsSMSOnlyWithPhone(t *testing.T) {
	phone := "+15550100"
	withPhone := seedUser("Alma", "alma@example.org", &phone, models.RoleStaff)
	withoutPhone := seedUser("Ruth", "ruth@example.org", nil, models.RoleStaff)

	store := &fakeNotificationStore{}
	prefs := &fakePreferenceStore{prefs: map[uuid.UUID]models.NotificationPreference{
		withPhone.ID:    {UserID: withPhone.ID, SMS: true, InApp: true},
		withoutPhone.ID: {UserID: withoutPhone.ID, SMS: true, InApp: true},
	}}
	users := &fakeUserStore{users: map[uuid.UUID]models.User{withPhone.ID: withPhone, withoutPhone.ID: withoutPhone}}
	sms := &recordingSMSSender{}

	service := NewNotificationService(store, prefs, users, &recordingEmailSender{}, sms, nil)
	service.Notify(context.Background(), Notice{
		Type:    models.NotifyEventReminder,
		Targets: []uuid.UUID{withPhone.ID, withoutPhone.ID},
		Title:   "Reminder",
		Message: "Starts soon.",
	})

	require.Equal(t, []string{phone}, sms.sent)
}

func TestNotifyFallsBackToDefaultPreferences(t *testing.T) {
	alma := seedUser("Alma", "alma@example.org", nil, models.RoleStaff)

	store := &fakeNotificationStore{}
	prefs := &fakePreferenceStore{err: errors.New("database down")}
	users := &fakeUserStore{users: map[uuid.UUID]models.User{alma.ID: alma}}
	email := &recordingEmailSender{}

	service := NewNotificationService(store, prefs, users, email, &recordingSMSSender{}, nil)
	service.Notify(context.Background(), Notice{
		Type:    models.NotifyEventRequestSubmitted,
		Targets: []uuid.UUID{alma.ID},
		Title:   "New event request",
		Message: "A facility submitted a request.",
	})

	// Defaults are email and in-app on, SMS off
	require.Len(t, store.forUser(alma.ID), 1)
	require.Len(t, email.sent, 1)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	owner := seedUser("Alma", "alma@example.org", nil, models.RoleStaff)
	other := seedUser("Ruth", "ruth@example.org", nil, models.RoleStaff)

	store := &fakeNotificationStore{}
	users := &fakeUserStore{users: map[uuid.UUID]models.User{owner.ID: owner, other.ID: other}}
	service := NewNotificationService(store, &fakePreferenceStore{}, users, &recordingEmailSender{}, &recordingSMSSender{}, nil)

	service.Notify(context.Background(), Notice{
		Type:    models.NotifyEventReminder,
		Targets: []uuid.UUID{owner.ID},
		Title:   "Reminder",
		Message: "Starts soon.",
	})
	created := store.forUser(owner.ID)
	require.Len(t, created, 1)

	otherActor := Actor{UserID: other.ID, Role: models.RoleStaff}
	err := service.MarkRead(context.Background(), otherActor, created[0].ID)
	require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	ownerActor := Actor{UserID: owner.ID, Role: models.RoleStaff}
	require.NoError(t, service.MarkRead(context.Background(), ownerActor, created[0].ID))

	count, err := service.UnreadCount(context.Background(), ownerActor)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestUpdatePreferencesRoundTrip(t *testing.T) {
	actor := Actor{UserID: uuid.New(), Role: models.RoleFacility, FacilityID: ptrUUID(uuid.New())}
	prefs := &fakePreferenceStore{}
	service := NewNotificationService(&fakeNotificationStore{}, prefs, &fakeUserStore{}, &recordingEmailSender{}, &recordingSMSSender{}, nil)

	updated, err := service.UpdatePreferences(context.Background(), actor, false, true, true)
	require.NoError(t, err)
	require.False(t, updated.Email)
	require.True(t, updated.SMS)

	loaded, err := service.GetPreferences(context.Background(), actor)
	require.NoError(t, err)
	require.Equal(t, *updated, *loaded)
}

func ptrUUID(id uuid.UUID) *uuid.UUID { return &id }
