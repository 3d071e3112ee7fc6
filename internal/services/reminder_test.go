package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

func TestReminderRunCoversOneSlice(t *testing.T) {
	events := new(MockEventStore)
	recorder := &factRecorder{}

	service := NewReminderService(events, recorder, 24*time.Hour, time.Hour)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	service.nowFn = func() time.Time { return now }

	upcoming := publishedEvent(now.Add(23*time.Hour+30*time.Minute), now.Add(25*time.Hour), 20)
	events.On("ListStartingBetween", mock.Anything, now.Add(23*time.Hour), now.Add(24*time.Hour)).
		Return([]models.Event{*upcoming}, nil)

	require.NoError(t, service.Run(context.Background()))

	facts := recorder.ofType(models.FactEventReminder)
	require.Len(t, facts, 1)
	require.Equal(t, upcoming.ID, *facts[0].EventID)
	require.Equal(t, upcoming.Title, facts[0].EventTitle)
	events.AssertExpectations(t)
}

func TestReminderRunQuietWindow(t *testing.T) {
	events := new(MockEventStore)
	recorder := &factRecorder{}

	service := NewReminderService(events, recorder, 24*time.Hour, time.Hour)
	events.On("ListStartingBetween", mock.Anything, mock.Anything, mock.Anything).Return([]models.Event{}, nil)

	require.NoError(t, service.Run(context.Background()))
	require.Empty(t, recorder.all())
}

func TestReminderDefaultsOnBadDurations(t *testing.T) {
	service := NewReminderService(new(MockEventStore), &factRecorder{}, 0, 0)
	require.Equal(t, 24*time.Hour, service.lookahead)
	require.Equal(t, time.Hour, service.interval)
}
