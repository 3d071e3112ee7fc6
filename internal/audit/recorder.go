package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// Store is the persistence surface the recorder needs
type Store interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
	ListForEntity(ctx context.Context, entityID uuid.UUID, limit int) ([]models.AuditEntry, error)
}

// Recorder appends immutable audit entries for state-changing ledger
// operations. Audit writes are best-effort: a failed append is logged
// and never blocks the primary operation.
type Recorder struct {
	store Store
}

// NewRecorder creates a new audit recorder
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record appends one audit entry. Details must be JSON-serializable.
func (r *Recorder) Record(ctx context.Context, action string, actorID uuid.UUID, entityType string, entityID uuid.UUID, details map[string]interface{}) {
	payload, err := json.Marshal(details)
	if err != nil {
		log.Warn().Err(err).Str("action", action).Msg("Failed to serialize audit details")
		payload = []byte("{}")
	}

	entry := &models.AuditEntry{
		ID:         uuid.New(),
		Action:     action,
		ActorID:    actorID,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    payload,
	}

	if err := r.store.Append(ctx, entry); err != nil {
		log.Warn().
			Err(err).
			Str("action", action).
			Str("entity_id", entityID.String()).
			Msg("Failed to append audit entry, continuing")
	}
}

// ListForEntity returns an entity's audit trail, newest first
func (r *Recorder) ListForEntity(ctx context.Context, entityID uuid.UUID, limit int) ([]models.AuditEntry, error) {
	return r.store.ListForEntity(ctx, entityID, limit)
}
