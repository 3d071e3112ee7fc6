package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/apperrors"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/messaging"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// CheckInEarlyWindow is how long before an event's start check-in opens
const CheckInEarlyWindow = 2 * time.Hour

// AttendanceService is the attendance ledger: per-user RSVP and
// check-in state for concrete events. The capacity ceiling itself is
// enforced inside the store's atomic RSVP operation; this service owns
// the surrounding rules (time windows, statuses, authorization).
type AttendanceService struct {
	attendance AttendanceStore
	events     EventStore
	publisher  messaging.FactPublisher
	auditor    AuditRecorder
	nowFn      func() time.Time
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(attendance AttendanceStore, events EventStore, publisher messaging.FactPublisher, auditor AuditRecorder) *AttendanceService {
	return &AttendanceService{
		attendance: attendance,
		events:     events,
		publisher:  publisher,
		auditor:    auditor,
		nowFn:      time.Now,
	}
}

func validRSVPStatus(status string) bool {
	switch status {
	case models.RSVPYes, models.RSVPNo, models.RSVPMaybe:
		return true
	}
	return false
}

// RSVP records or changes the caller's RSVP for an event. Entering YES
// is capacity-gated; any other transition is free. RSVPs close when the
// event ends.
func (s *AttendanceService) RSVP(ctx context.Context, actor Actor, eventID uuid.UUID, status string) (*models.AttendanceRecord, error) {
	if !actor.Valid() {
		return nil, apperrors.Unauthorized()
	}
	if !validRSVPStatus(status) {
		return nil, apperrors.Validation("RSVP status must be YES, NO or MAYBE")
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	now := s.nowFn()
	if !event.EndDateTime.After(now) {
		return nil, apperrors.InvalidState("this event has already ended")
	}

	record, err := s.attendance.UpsertRSVP(ctx, eventID, actor.UserID, status)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("event_id", eventID.String()).
		Str("user_id", actor.UserID.String()).
		Str("status", status).
		Msg("RSVP recorded")

	s.auditor.Record(ctx, "attendance.rsvp", actor.UserID, "event", eventID, map[string]interface{}{
		"status": status,
	})

	s.publisher.Publish(ctx, models.Fact{
		Type:       models.FactRSVPReceived,
		OccurredAt: now,
		ActorID:    actor.UserID,
		EventID:    &eventID,
		UserID:     &actor.UserID,
		EventTitle: event.Title,
		RSVPStatus: status,
	})

	return record, nil
}

// CheckIn records the caller's arrival. Only valid from two hours
// before start until the event ends. Idempotent: a repeat call after a
// successful check-in succeeds without touching the original time.
// Check-in forces the visible status to YES without re-running the
// capacity check, so walk-ins are admitted.
func (s *AttendanceService) CheckIn(ctx context.Context, actor Actor, eventID uuid.UUID) (*models.AttendanceRecord, error) {
	if !actor.Valid() {
		return nil, apperrors.Unauthorized()
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	now := s.nowFn()
	opensAt := event.StartDateTime.Add(-CheckInEarlyWindow)
	if now.Before(opensAt) {
		return nil, apperrors.WindowClosed("check-in has not opened yet, it opens two hours before the event starts")
	}
	if now.After(event.EndDateTime) {
		return nil, apperrors.WindowClosed("check-in is closed, this event has already ended")
	}

	record, alreadyCheckedIn, err := s.attendance.SetCheckedIn(ctx, eventID, actor.UserID, now)
	if err != nil {
		return nil, err
	}
	if alreadyCheckedIn {
		return record, nil
	}

	log.Info().
		Str("event_id", eventID.String()).
		Str("user_id", actor.UserID.String()).
		Msg("Check-in recorded")

	s.auditor.Record(ctx, "attendance.checkin", actor.UserID, "event", eventID, nil)

	s.publisher.Publish(ctx, models.Fact{
		Type:       models.FactCheckinRecorded,
		OccurredAt: now,
		ActorID:    actor.UserID,
		EventID:    &eventID,
		UserID:     &actor.UserID,
		EventTitle: event.Title,
	})

	return record, nil
}

// RecordFeedback attaches a rating and optional comment to the caller's
// attendance record. No time window is enforced here.
func (s *AttendanceService) RecordFeedback(ctx context.Context, actor Actor, eventID uuid.UUID, rating int, comment *string, anonymous bool) (*models.AttendanceRecord, error) {
	if !actor.Valid() {
		return nil, apperrors.Unauthorized()
	}
	if rating < 1 || rating > 5 {
		return nil, apperrors.Validation("rating must be between 1 and 5")
	}

	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	record, err := s.attendance.SaveFeedback(ctx, eventID, actor.UserID, rating, comment, anonymous)
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "attendance.feedback", actor.UserID, "event", eventID, map[string]interface{}{
		"rating":    rating,
		"anonymous": anonymous,
	})

	return record, nil
}

// ListForEvent lists an event's attendance, reviewer-only
func (s *AttendanceService) ListForEvent(ctx context.Context, actor Actor, eventID uuid.UUID) ([]models.AttendanceRecord, error) {
	if !actor.Valid() {
		return nil, apperrors.Unauthorized()
	}
	if !actor.IsReviewer() {
		return nil, apperrors.Forbidden("only staff may view the attendance list")
	}
	records, err := s.attendance.ListForEvent(ctx, eventID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return records, nil
}

// MyStatus returns the caller's own attendance record for an event
func (s *AttendanceService) MyStatus(ctx context.Context, actor Actor, eventID uuid.UUID) (*models.AttendanceRecord, error) {
	if !actor.Valid() {
		return nil, apperrors.Unauthorized()
	}
	return s.attendance.GetRecord(ctx, eventID, actor.UserID)
}
