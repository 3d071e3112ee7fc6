package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/apperrors"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// MockRequestStore mocks the request persistence surface
type MockRequestStore struct {
	mock.Mock
}

func (m *MockRequestStore) Create(ctx context.Context, request *models.EventRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*models.EventRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventRequest), args.Error(1)
}

func (m *MockRequestStore) HasOpenRequest(ctx context.Context, facilityID, eventID uuid.UUID) (bool, error) {
	args := m.Called(ctx, facilityID, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRequestStore) ListByFacility(ctx context.Context, facilityID uuid.UUID) ([]models.EventRequest, error) {
	args := m.Called(ctx, facilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EventRequest), args.Error(1)
}

func (m *MockRequestStore) ListPending(ctx context.Context) ([]models.EventRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EventRequest), args.Error(1)
}

func (m *MockRequestStore) Approve(ctx context.Context, request *models.EventRequest, reviewerID uuid.UUID, now time.Time) (*models.Event, error) {
	args := m.Called(ctx, request, reviewerID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockRequestStore) Reject(ctx context.Context, requestID, reviewerID uuid.UUID, reason string, now time.Time) error {
	args := m.Called(ctx, requestID, reviewerID, reason, now)
	return args.Error(0)
}

func (m *MockRequestStore) Cancel(ctx context.Context, requestID uuid.UUID, now time.Time) error {
	args := m.Called(ctx, requestID, now)
	return args.Error(0)
}

func newRequestService(requests *MockRequestStore, events *MockEventStore) (*RequestService, *factRecorder) {
	recorder := &factRecorder{}
	service := NewRequestService(requests, events, recorder, noopAudit{}, nil)
	return service, recorder
}

func TestSubmitExistingEvent(t *testing.T) {
	requests := new(MockRequestStore)
	events := new(MockEventStore)
	service, recorder := newRequestService(requests, events)

	facilityID := uuid.New()
	actor := facilityActor(facilityID)
	event := publishedEvent(time.Now().Add(48*time.Hour), time.Now().Add(50*time.Hour), 30)

	events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	requests.On("HasOpenRequest", mock.Anything, facilityID, event.ID).Return(false, nil)
	requests.On("Create", mock.Anything, mock.AnythingOfType("*models.EventRequest")).Return(nil)

	request, err := service.Submit(context.Background(), actor, SubmitRequestInput{
		Type:    models.RequestExisting,
		EventID: &event.ID,
	})

	require.NoError(t, err)
	require.Equal(t, models.RequestPending, request.Status)
	require.Equal(t, facilityID, request.RequesterFacilityID)
	require.Equal(t, event.ID, *request.EventID)

	facts := recorder.ofType(models.FactRequestSubmitted)
	require.Len(t, facts, 1)
	require.Equal(t, event.Title, facts[0].EventTitle)

	requests.AssertExpectations(t)
}

func TestSubmitDuplicateRequestRejected(t *testing.T) {
	requests := new(MockRequestStore)
	events := new(MockEventStore)
	service, recorder := newRequestService(requests, events)

	facilityID := uuid.New()
	event := publishedEvent(time.Now().Add(48*time.Hour), time.Now().Add(50*time.Hour), 30)

	events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	requests.On("HasOpenRequest", mock.Anything, facilityID, event.ID).Return(true, nil)

	_, err := service.Submit(context.Background(), facilityActor(facilityID), SubmitRequestInput{
		Type:    models.RequestExisting,
		EventID: &event.ID,
	})

	require.Error(t, err)
	require.True(t, apperrors.IsKind(err, apperrors.KindDuplicateRequest))
	require.Empty(t, recorder.all())
	requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitCustomRequiresFields(t *testing.T) {
	requests := new(MockRequestStore)
	events := new(MockEventStore)
	service, _ := newRequestService(requests, events)

	title := "Sing-along Afternoon"
	start := time.Now().Add(72 * time.Hour)
	end := start.Add(2 * time.Hour)
	location := "Community Hall"
	count := 25

	// Missing location
	_, err := service.Submit(context.Background(), facilityActor(uuid.New()), SubmitRequestInput{
		Type:              models.CreateCustom,
		Title:             &title,
		ProposedStart:     &start,
		ProposedEnd:       &end,
		ExpectedAttendees: &count,
	})
	require.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// Start after end
	badStart := end.Add(time.Hour)
	_, err = service.Submit(context.Background(), facilityActor(uuid.New()), SubmitRequestInput{
		Type:              models.CreateCustom,
		Title:             &title,
		ProposedStart:     &badStart,
		ProposedEnd:       &end,
		LocationName:      &location,
		ExpectedAttendees: &count,
	})
	require.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitRequiresFacilityActor(t *testing.T) {
	service, _ := newRequestService(new(MockRequestStore), new(MockEventStore))

	_, err := service.Submit(context.Background(), Actor{}, SubmitRequestInput{Type: models.RequestExisting})
	require.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))

	_, err = service.Submit(context.Background(), reviewerActor(), SubmitRequestInput{Type: models.RequestExisting})
	require.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestApproveCustomRequest(t *testing.T) {
	requests := new(MockRequestStore)
	events := new(MockEventStore)
	service, recorder := newRequestService(requests, events)

	reviewer := reviewerActor()
	facilityID := uuid.New()
	title := "Pottery Morning"
	pending := &models.EventRequest{
		ID:                  uuid.New(),
		Type:                models.CreateCustom,
		Status:              models.RequestPending,
		RequesterFacilityID: facilityID,
		Title:               &title,
	}
	created := publishedEvent(time.Now().Add(96*time.Hour), time.Now().Add(98*time.Hour), 20)

	requests.On("GetByID", mock.Anything, pending.ID).Return(pending, nil)
	requests.On("Approve", mock.Anything, pending, reviewer.UserID, mock.AnythingOfType("time.Time")).Return(created, nil)

	approved, err := service.Approve(context.Background(), reviewer, pending.ID)

	require.NoError(t, err)
	require.Equal(t, models.RequestApproved, approved.Status)
	require.Equal(t, created.ID, *approved.ApprovedEventID)
	require.Equal(t, reviewer.UserID, *approved.ReviewedBy)

	facts := recorder.ofType(models.FactRequestApproved)
	require.Len(t, facts, 1)
	require.Equal(t, facilityID, *facts[0].FacilityID)
	require.Equal(t, created.ID, *facts[0].EventID)
}

func TestApproveTerminalRequestFails(t *testing.T) {
	requests := new(MockRequestStore)
	events := new(MockEventStore)
	service, recorder := newRequestService(requests, events)

	reviewed := &models.EventRequest{
		ID:     uuid.New(),
		Type:   models.RequestExisting,
		Status: models.RequestRejected,
	}
	requests.On("GetByID", mock.Anything, reviewed.ID).Return(reviewed, nil)

	_, err := service.Approve(context.Background(), reviewerActor(), reviewed.ID)

	require.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
	require.Empty(t, recorder.all())
	requests.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApproveRaceLoserSeesInvalidState(t *testing.T) {
	requests := new(MockRequestStore)
	events := new(MockEventStore)
	service, recorder := newRequestService(requests, events)

	// Both reviewers read the request while it was still PENDING; the
	// storage layer arbitrates and refuses the second transition.
	pending := &models.EventRequest{
		ID:     uuid.New(),
		Type:   models.CreateCustom,
		Status: models.RequestPending,
	}
	requests.On("GetByID", mock.Anything, pending.ID).Return(pending, nil)
	requests.On("Approve", mock.Anything, pending, mock.Anything, mock.Anything).
		Return(nil, apperrors.InvalidState("this request has already been reviewed"))

	_, err := service.Approve(context.Background(), reviewerActor(), pending.ID)

	require.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
	require.Empty(t, recorder.ofType(models.FactRequestApproved))
}

func TestRejectRequiresReason(t *testing.T) {
	requests := new(MockRequestStore)
	events := new(MockEventStore)
	service, recorder := newRequestService(requests, events)

	_, err := service.Reject(context.Background(), reviewerActor(), uuid.New(), "   ")

	require.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	require.Empty(t, recorder.all())
	requests.AssertNotCalled(t, "Reject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRejectPendingRequest(t *testing.T) {
	requests := new(MockRequestStore)
	events := new(MockEventStore)
	service, recorder := newRequestService(requests, events)

	reviewer := reviewerActor()
	facilityID := uuid.New()
	title := "Garden Concert"
	pending := &models.EventRequest{
		ID:                  uuid.New(),
		Type:                models.CreateCustom,
		Status:              models.RequestPending,
		RequesterFacilityID: facilityID,
		Title:               &title,
	}

	requests.On("GetByID", mock.Anything, pending.ID).Return(pending, nil)
	requests.On("Reject", mock.Anything, pending.ID, reviewer.UserID, "fully booked that week", mock.AnythingOfType("time.Time")).Return(nil)

	rejected, err := service.Reject(context.Background(), reviewer, pending.ID, "fully booked that week")

	require.NoError(t, err)
	require.Equal(t, models.RequestRejected, rejected.Status)
	require.Equal(t, "fully booked that week", *rejected.RejectionReason)

	facts := recorder.ofType(models.FactRequestRejected)
	require.Len(t, facts, 1)
	require.Equal(t, "fully booked that week", facts[0].RejectionReason)
}

func TestCancelOnlyByRequester(t *testing.T) {
	requests := new(MockRequestStore)
	events := new(MockEventStore)
	service, _ := newRequestService(requests, events)

	owner := uuid.New()
	pending := &models.EventRequest{
		ID:          uuid.New(),
		Status:      models.RequestPending,
		RequestedBy: owner,
	}
	requests.On("GetByID", mock.Anything, pending.ID).Return(pending, nil)

	stranger := Actor{UserID: uuid.New(), Role: models.RoleFacility, FacilityID: &pending.RequesterFacilityID}
	_, err := service.Cancel(context.Background(), stranger, pending.ID)
	require.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	requests.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything)
}

type stubAudit struct {
	entries []models.AuditEntry
}

func (s stubAudit) Record(ctx context.Context, action string, actorID uuid.UUID, entityType string, entityID uuid.UUID, details map[string]interface{}) {
}

func (s stubAudit) ListForEntity(ctx context.Context, entityID uuid.UUID, limit int) ([]models.AuditEntry, error) {
	return s.entries, nil
}

func TestRequestHistoryReviewerOnly(t *testing.T) {
	requests := new(MockRequestStore)
	pending := &models.EventRequest{ID: uuid.New(), Status: models.RequestPending}
	requests.On("GetByID", mock.Anything, pending.ID).Return(pending, nil)

	trail := []models.AuditEntry{
		{ID: uuid.New(), Action: "event_request.submitted", EntityType: "event_request", EntityID: pending.ID},
		{ID: uuid.New(), Action: "event_request.approved", EntityType: "event_request", EntityID: pending.ID},
	}
	service := NewRequestService(requests, new(MockEventStore), &factRecorder{}, stubAudit{entries: trail}, nil)

	_, err := service.History(context.Background(), facilityActor(uuid.New()), pending.ID)
	require.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	entries, err := service.History(context.Background(), reviewerActor(), pending.ID)
	require.NoError(t, err)
	require.Equal(t, trail, entries)
}

func TestCancelPendingRequest(t *testing.T) {
	requests := new(MockRequestStore)
	events := new(MockEventStore)
	service, recorder := newRequestService(requests, events)

	facilityID := uuid.New()
	actor := facilityActor(facilityID)
	pending := &models.EventRequest{
		ID:                  uuid.New(),
		Status:              models.RequestPending,
		RequestedBy:         actor.UserID,
		RequesterFacilityID: facilityID,
	}

	requests.On("GetByID", mock.Anything, pending.ID).Return(pending, nil)
	requests.On("Cancel", mock.Anything, pending.ID, mock.AnythingOfType("time.Time")).Return(nil)

	cancelled, err := service.Cancel(context.Background(), actor, pending.ID)

	require.NoError(t, err)
	require.Equal(t, models.RequestCancelled, cancelled.Status)
	require.Len(t, recorder.ofType(models.FactRequestCancelled), 1)
}
