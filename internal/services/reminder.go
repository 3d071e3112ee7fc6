package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/messaging"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// ReminderService emits EVENT_REMINDER facts for events approaching
// their start time. It runs from the worker's cron schedule and is a
// plain caller of the fact queue, not part of the ledger core. Each run
// covers one interval-wide slice of the lookahead horizon, so an event
// is reminded once as it crosses the horizon.
type ReminderService struct {
	events    EventStore
	publisher messaging.FactPublisher
	lookahead time.Duration
	interval  time.Duration
	nowFn     func() time.Time
}

// NewReminderService creates a new reminder service
func NewReminderService(events EventStore, publisher messaging.FactPublisher, lookahead, interval time.Duration) *ReminderService {
	if lookahead <= 0 {
		lookahead = 24 * time.Hour
	}
	if interval <= 0 || interval > lookahead {
		interval = time.Hour
	}
	return &ReminderService{
		events:    events,
		publisher: publisher,
		lookahead: lookahead,
		interval:  interval,
		nowFn:     time.Now,
	}
}

// Run emits reminder facts for events whose start time falls in this
// run's slice of the lookahead window.
func (s *ReminderService) Run(ctx context.Context) error {
	now := s.nowFn()
	from := now.Add(s.lookahead - s.interval)
	to := now.Add(s.lookahead)

	events, err := s.events.ListStartingBetween(ctx, from, to)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	log.Info().Int("count", len(events)).Msg("Emitting event reminders")

	for i := range events {
		event := events[i]
		s.publisher.Publish(ctx, models.Fact{
			Type:       models.FactEventReminder,
			OccurredAt: now,
			EventID:    &event.ID,
			EventTitle: event.Title,
		})
	}

	return nil
}
