package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// Notifier is the dispatcher surface the orchestrator drives
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

// Orchestrator is the thin sequencing layer between the ledgers and
// the dispatcher. Its single job is resolving who gets told what for
// each fact type; it performs no business validation and swallows
// every failure, since by the time a fact reaches it the owning
// transaction has already committed.
type Orchestrator struct {
	notifier   Notifier
	users      UserStore
	facilities FacilityStore
	attendance AttendanceStore
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(notifier Notifier, users UserStore, facilities FacilityStore, attendance AttendanceStore) *Orchestrator {
	return &Orchestrator{
		notifier:   notifier,
		users:      users,
		facilities: facilities,
		attendance: attendance,
	}
}

// Dispatch routes one committed fact to its recipients
func (o *Orchestrator) Dispatch(ctx context.Context, fact models.Fact) {
	switch fact.Type {
	case models.FactRequestSubmitted:
		o.notifyReviewers(ctx, models.NotifyEventRequestSubmitted,
			"New event request",
			fmt.Sprintf("%s submitted a request for %q.", o.facilityName(ctx, fact.FacilityID), fact.EventTitle),
			requestLink(fact.RequestID), nil)

	case models.FactRequestApproved:
		o.notifyFacilityContact(ctx, fact.FacilityID, models.NotifyEventRequestApproved,
			"Event request approved",
			fmt.Sprintf("Your request for %q has been approved.", fact.EventTitle),
			eventLink(fact.EventID))

	case models.FactRequestRejected:
		message := fmt.Sprintf("Your request for %q was not approved.", fact.EventTitle)
		if fact.RejectionReason != "" {
			message = fmt.Sprintf("Your request for %q was not approved: %s", fact.EventTitle, fact.RejectionReason)
		}
		o.notifyFacilityContact(ctx, fact.FacilityID, models.NotifyEventRequestRejected,
			"Event request update", message, requestLink(fact.RequestID))

	case models.FactRequestCancelled:
		// Audited by the ledger; nobody is notified.

	case models.FactRSVPReceived:
		// Staff only care about confirmed attendance
		if fact.RSVPStatus != models.RSVPYes {
			return
		}
		o.notifyReviewers(ctx, models.NotifyRSVPReceived,
			"New RSVP",
			fmt.Sprintf("%s is attending %q.", o.userName(ctx, fact.UserID), fact.EventTitle),
			eventLink(fact.EventID), fact.UserID)

	case models.FactCheckinRecorded:
		o.notifyReviewers(ctx, models.NotifyStaffCheckin,
			"Check-in recorded",
			fmt.Sprintf("%s checked in to %q.", o.userName(ctx, fact.UserID), fact.EventTitle),
			eventLink(fact.EventID), fact.UserID)

	case models.FactEventReminder:
		o.notifyConfirmedAttendees(ctx, fact)

	default:
		log.Warn().Str("fact_type", fact.Type).Msg("Unknown fact type, ignoring")
	}
}

// notifyReviewers fans out to every admin and staff user. When the
// acting user is themselves a reviewer they are excluded: nobody is
// told about their own RSVP or check-in.
func (o *Orchestrator) notifyReviewers(ctx context.Context, noticeType, title, message string, link *string, actedBy *uuid.UUID) {
	reviewers, err := o.users.ListByRoles(ctx, models.RoleAdmin, models.RoleStaff)
	if err != nil {
		log.Error().Err(err).Str("type", noticeType).Msg("Failed to resolve reviewer recipients")
		return
	}
	targets := make([]uuid.UUID, 0, len(reviewers))
	for _, reviewer := range reviewers {
		if actedBy != nil && reviewer.ID == *actedBy {
			continue
		}
		targets = append(targets, reviewer.ID)
	}
	if len(targets) == 0 {
		return
	}
	o.notifier.Notify(ctx, Notice{
		Type:    noticeType,
		Targets: targets,
		Title:   title,
		Message: message,
		Link:    link,
	})
}

func (o *Orchestrator) notifyFacilityContact(ctx context.Context, facilityID *uuid.UUID, noticeType, title, message string, link *string) {
	if facilityID == nil {
		log.Warn().Str("type", noticeType).Msg("Fact carries no facility, skipping contact notification")
		return
	}
	contact, err := o.facilities.GetContact(ctx, *facilityID)
	if err != nil {
		log.Error().Err(err).Str("facility_id", facilityID.String()).Msg("Failed to resolve facility contact")
		return
	}
	o.notifier.Notify(ctx, Notice{
		Type:    noticeType,
		Targets: []uuid.UUID{contact.ID},
		Title:   title,
		Message: message,
		Link:    link,
	})
}

func (o *Orchestrator) notifyConfirmedAttendees(ctx context.Context, fact models.Fact) {
	if fact.EventID == nil {
		return
	}
	targets, err := o.attendance.ListYesUserIDs(ctx, *fact.EventID)
	if err != nil {
		log.Error().Err(err).Str("event_id", fact.EventID.String()).Msg("Failed to resolve reminder recipients")
		return
	}
	o.notifier.Notify(ctx, Notice{
		Type:    models.NotifyEventReminder,
		Targets: targets,
		Title:   "Upcoming event reminder",
		Message: fmt.Sprintf("%q starts soon. We look forward to seeing you there.", fact.EventTitle),
		Link:    eventLink(fact.EventID),
	})
}

func (o *Orchestrator) facilityName(ctx context.Context, facilityID *uuid.UUID) string {
	if facilityID == nil {
		return "A partner facility"
	}
	facility, err := o.facilities.GetByID(ctx, *facilityID)
	if err != nil {
		return "A partner facility"
	}
	return facility.Name
}

func (o *Orchestrator) userName(ctx context.Context, userID *uuid.UUID) string {
	if userID == nil {
		return "An attendee"
	}
	user, err := o.users.GetByID(ctx, *userID)
	if err != nil {
		return "An attendee"
	}
	return user.Name
}

func eventLink(eventID *uuid.UUID) *string {
	if eventID == nil {
		return nil
	}
	link := "/events/" + eventID.String()
	return &link
}

func requestLink(requestID *uuid.UUID) *string {
	if requestID == nil {
		return nil
	}
	link := "/event-requests/" + requestID.String()
	return &link
}
