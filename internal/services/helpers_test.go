package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// factRecorder captures published facts so tests can assert on them
type factRecorder struct {
	mu    sync.Mutex
	facts []models.Fact
}

func (f *factRecorder) Publish(ctx context.Context, fact models.Fact) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.facts = append(f.facts, fact)
}

func (f *factRecorder) Close() error { return nil }

func (f *factRecorder) all() []models.Fact {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Fact, len(f.facts))
	copy(out, f.facts)
	return out
}

func (f *factRecorder) ofType(factType string) []models.Fact {
	var out []models.Fact
	for _, fact := range f.all() {
		if fact.Type == factType {
			out = append(out, fact)
		}
	}
	return out
}

// noopAudit satisfies AuditRecorder without persistence
type noopAudit struct{}

func (noopAudit) ListForEntity(ctx context.Context, entityID uuid.UUID, limit int) ([]models.AuditEntry, error) {
	return nil, nil
}

func (noopAudit) Record(ctx context.Context, action string, actorID uuid.UUID, entityType string, entityID uuid.UUID, details map[string]interface{}) {
}

// MockEventStore mocks the event read surface
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventStore) ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func facilityActor(facilityID uuid.UUID) Actor {
	return Actor{UserID: uuid.New(), Role: models.RoleFacility, FacilityID: &facilityID}
}

func reviewerActor() Actor {
	return Actor{UserID: uuid.New(), Role: models.RoleStaff}
}

func publishedEvent(start, end time.Time, maxAttendees int) *models.Event {
	return &models.Event{
		ID:            uuid.New(),
		Title:         "Watercolor Workshop",
		StartDateTime: start,
		EndDateTime:   end,
		MaxAttendees:  maxAttendees,
		Status:        models.EventPublished,
	}
}
