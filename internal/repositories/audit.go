package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// AuditRepository appends to the shared immutable audit trail
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append writes one audit entry
func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return errors.Wrap(err, "failed to append audit entry")
	}
	return nil
}

// ListForEntity lists audit entries for one entity, newest first
func (r *AuditRepository) ListForEntity(ctx context.Context, entityID uuid.UUID, limit int) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("created_at desc").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list audit entries")
	}
	return entries, nil
}
