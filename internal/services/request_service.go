package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/apperrors"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/messaging"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// RequestService is the event request ledger. It owns the request
// lifecycle and is the only component that creates a concrete event as
// a side effect of approval. Facts are published strictly after the
// owning transaction commits; a notification failure can never roll an
// approval back.
type RequestService struct {
	requests  RequestStore
	events    EventStore
	publisher messaging.FactPublisher
	auditor   AuditRecorder
	indexer   EventIndexer
	validate  *validator.Validate
	nowFn     func() time.Time
}

// NewRequestService creates a new request service
func NewRequestService(requests RequestStore, events EventStore, publisher messaging.FactPublisher, auditor AuditRecorder, indexer EventIndexer) *RequestService {
	return &RequestService{
		requests:  requests,
		events:    events,
		publisher: publisher,
		auditor:   auditor,
		indexer:   indexer,
		validate:  validator.New(),
		nowFn:     time.Now,
	}
}

// SubmitRequestInput is the payload for a new event request
type SubmitRequestInput struct {
	Type             string     `validate:"required,oneof=REQUEST_EXISTING CREATE_CUSTOM"`
	EventID          *uuid.UUID // REQUEST_EXISTING target
	FormSubmissionID *uuid.UUID // opaque, never parsed here

	// CREATE_CUSTOM fields
	Title             *string
	Description       *string
	ProposedStart     *time.Time
	ProposedEnd       *time.Time
	LocationName      *string
	ExpectedAttendees *int `validate:"omitempty,min=1"`
}

// Submit creates a PENDING request on behalf of a facility actor
func (s *RequestService) Submit(ctx context.Context, actor Actor, input SubmitRequestInput) (*models.EventRequest, error) {
	if !actor.Valid() {
		return nil, apperrors.Unauthorized()
	}
	if !actor.IsFacility() {
		return nil, apperrors.Forbidden("only facility accounts may request events")
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.Validation("invalid request payload")
	}

	now := s.nowFn()
	request := &models.EventRequest{
		ID:                  uuid.New(),
		Type:                input.Type,
		Status:              models.RequestPending,
		RequesterFacilityID: *actor.FacilityID,
		RequestedBy:         actor.UserID,
		RequestedAt:         now,
		FormSubmissionID:    input.FormSubmissionID,
	}

	switch input.Type {
	case models.RequestExisting:
		if input.EventID == nil {
			return nil, apperrors.Validation("an event must be selected")
		}
		event, err := s.events.GetByID(ctx, *input.EventID)
		if err != nil {
			return nil, err
		}
		if event.Status != models.EventPublished {
			return nil, apperrors.Validation("the selected event is not open for requests")
		}
		if !event.EndDateTime.After(now) {
			return nil, apperrors.Validation("the selected event has already ended")
		}
		open, err := s.requests.HasOpenRequest(ctx, *actor.FacilityID, event.ID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if open {
			return nil, apperrors.DuplicateRequest()
		}
		request.EventID = &event.ID

	case models.CreateCustom:
		if input.Title == nil || strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.Validation("a title is required for custom events")
		}
		if input.ProposedStart == nil || input.ProposedEnd == nil {
			return nil, apperrors.Validation("start and end times are required for custom events")
		}
		if !input.ProposedStart.Before(*input.ProposedEnd) {
			return nil, apperrors.Validation("the event must start before it ends")
		}
		if input.LocationName == nil || strings.TrimSpace(*input.LocationName) == "" {
			return nil, apperrors.Validation("a location is required for custom events")
		}
		if input.ExpectedAttendees == nil || *input.ExpectedAttendees < 1 {
			return nil, apperrors.Validation("an expected attendee count of at least 1 is required")
		}
		request.Title = input.Title
		request.Description = input.Description
		request.ProposedStart = input.ProposedStart
		request.ProposedEnd = input.ProposedEnd
		request.LocationName = input.LocationName
		request.ExpectedAttendees = input.ExpectedAttendees
	}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, apperrors.Internal(err)
	}

	log.Info().
		Str("request_id", request.ID.String()).
		Str("type", request.Type).
		Str("facility_id", actor.FacilityID.String()).
		Msg("Event request submitted")

	s.auditor.Record(ctx, "event_request.submitted", actor.UserID, "event_request", request.ID, map[string]interface{}{
		"type":        request.Type,
		"facility_id": actor.FacilityID.String(),
	})

	s.publisher.Publish(ctx, models.Fact{
		Type:       models.FactRequestSubmitted,
		OccurredAt: now,
		ActorID:    actor.UserID,
		RequestID:  &request.ID,
		EventID:    request.EventID,
		FacilityID: actor.FacilityID,
		EventTitle: s.requestTitle(ctx, request),
	})

	return request, nil
}

// Approve transitions a PENDING request to APPROVED. For CREATE_CUSTOM
// requests the concrete event is materialized in the same transaction;
// the second of two racing approvals observes InvalidState and creates
// nothing.
func (s *RequestService) Approve(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.EventRequest, error) {
	if !actor.Valid() {
		return nil, apperrors.Unauthorized()
	}
	if !actor.IsReviewer() {
		return nil, apperrors.Forbidden("only staff reviewers may approve requests")
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestPending {
		return nil, apperrors.InvalidState("this request has already been reviewed")
	}

	now := s.nowFn()
	event, err := s.requests.Approve(ctx, request, actor.UserID, now)
	if err != nil {
		return nil, err
	}

	request.Status = models.RequestApproved
	request.ReviewedAt = &now
	request.ReviewedBy = &actor.UserID
	request.ApprovedEventID = &event.ID

	log.Info().
		Str("request_id", request.ID.String()).
		Str("event_id", event.ID.String()).
		Str("reviewer_id", actor.UserID.String()).
		Msg("Event request approved")

	s.auditor.Record(ctx, "event_request.approved", actor.UserID, "event_request", request.ID, map[string]interface{}{
		"event_id": event.ID.String(),
	})

	// New events enter the search index after commit, best-effort
	if request.Type == models.CreateCustom && s.indexer != nil {
		if err := s.indexer.IndexEvent(ctx, event); err != nil {
			log.Warn().Err(err).Str("event_id", event.ID.String()).Msg("Failed to index approved event, continuing")
		}
	}

	s.publisher.Publish(ctx, models.Fact{
		Type:       models.FactRequestApproved,
		OccurredAt: now,
		ActorID:    actor.UserID,
		RequestID:  &request.ID,
		EventID:    &event.ID,
		FacilityID: &request.RequesterFacilityID,
		EventTitle: event.Title,
	})

	return request, nil
}

// Reject transitions a PENDING request to REJECTED. A reason is
// mandatory and becomes part of the request's permanent record.
func (s *RequestService) Reject(ctx context.Context, actor Actor, requestID uuid.UUID, reason string) (*models.EventRequest, error) {
	if !actor.Valid() {
		return nil, apperrors.Unauthorized()
	}
	if !actor.IsReviewer() {
		return nil, apperrors.Forbidden("only staff reviewers may reject requests")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.Validation("a rejection reason is required")
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestPending {
		return nil, apperrors.InvalidState("this request has already been reviewed")
	}

	now := s.nowFn()
	if err := s.requests.Reject(ctx, request.ID, actor.UserID, reason, now); err != nil {
		return nil, err
	}

	request.Status = models.RequestRejected
	request.ReviewedAt = &now
	request.ReviewedBy = &actor.UserID
	request.RejectionReason = &reason

	log.Info().
		Str("request_id", request.ID.String()).
		Str("reviewer_id", actor.UserID.String()).
		Msg("Event request rejected")

	s.auditor.Record(ctx, "event_request.rejected", actor.UserID, "event_request", request.ID, map[string]interface{}{
		"reason": reason,
	})

	s.publisher.Publish(ctx, models.Fact{
		Type:            models.FactRequestRejected,
		OccurredAt:      now,
		ActorID:         actor.UserID,
		RequestID:       &request.ID,
		FacilityID:      &request.RequesterFacilityID,
		EventTitle:      s.requestTitle(ctx, request),
		RejectionReason: reason,
	})

	return request, nil
}

// Cancel lets the original requester withdraw a PENDING request
func (s *RequestService) Cancel(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.EventRequest, error) {
	if !actor.Valid() {
		return nil, apperrors.Unauthorized()
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.RequestedBy != actor.UserID {
		return nil, apperrors.Forbidden("only the original requester may cancel a request")
	}
	if request.Status != models.RequestPending {
		return nil, apperrors.InvalidState("this request can no longer be cancelled")
	}

	now := s.nowFn()
	if err := s.requests.Cancel(ctx, request.ID, now); err != nil {
		return nil, err
	}

	request.Status = models.RequestCancelled

	log.Info().Str("request_id", request.ID.String()).Msg("Event request cancelled")

	s.auditor.Record(ctx, "event_request.cancelled", actor.UserID, "event_request", request.ID, nil)

	// Cancellation is audited and published but triggers no external
	// notification; the orchestrator treats it as a no-op fact.
	s.publisher.Publish(ctx, models.Fact{
		Type:       models.FactRequestCancelled,
		OccurredAt: now,
		ActorID:    actor.UserID,
		RequestID:  &request.ID,
		FacilityID: &request.RequesterFacilityID,
	})

	return request, nil
}

// ListByFacility lists a facility's own requests
func (s *RequestService) ListByFacility(ctx context.Context, actor Actor, facilityID uuid.UUID) ([]models.EventRequest, error) {
	if !actor.Valid() {
		return nil, apperrors.Unauthorized()
	}
	if !actor.IsReviewer() && (actor.FacilityID == nil || *actor.FacilityID != facilityID) {
		return nil, apperrors.Forbidden("you may only view your own facility's requests")
	}
	requests, err := s.requests.ListByFacility(ctx, facilityID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return requests, nil
}

// ListPending lists requests awaiting review
func (s *RequestService) ListPending(ctx context.Context, actor Actor) ([]models.EventRequest, error) {
	if !actor.Valid() {
		return nil, apperrors.Unauthorized()
	}
	if !actor.IsReviewer() {
		return nil, apperrors.Forbidden("only staff reviewers may view the review queue")
	}
	requests, err := s.requests.ListPending(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return requests, nil
}

// GetByID fetches one request, visible to reviewers and the owning facility
func (s *RequestService) GetByID(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.EventRequest, error) {
	if !actor.Valid() {
		return nil, apperrors.Unauthorized()
	}
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !actor.IsReviewer() && (actor.FacilityID == nil || *actor.FacilityID != request.RequesterFacilityID) {
		return nil, apperrors.Forbidden("you may only view your own facility's requests")
	}
	return request, nil
}

// History returns the audit trail for one request, reviewer-only
func (s *RequestService) History(ctx context.Context, actor Actor, requestID uuid.UUID) ([]models.AuditEntry, error) {
	if !actor.Valid() {
		return nil, apperrors.Unauthorized()
	}
	if !actor.IsReviewer() {
		return nil, apperrors.Forbidden("only staff reviewers may view a request's history")
	}
	if _, err := s.requests.GetByID(ctx, requestID); err != nil {
		return nil, err
	}
	entries, err := s.auditor.ListForEntity(ctx, requestID, 100)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return entries, nil
}

// requestTitle resolves a human-readable title for fact messages
func (s *RequestService) requestTitle(ctx context.Context, request *models.EventRequest) string {
	if request.Title != nil {
		return *request.Title
	}
	if request.EventID != nil {
		if event, err := s.events.GetByID(ctx, *request.EventID); err == nil {
			return event.Title
		}
	}
	return "an event"
}
