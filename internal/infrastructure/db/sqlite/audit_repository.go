package sqlite

import (
	"context"

	"gorm.io/gorm"

	"github.com/99minutos/user-management/internal/core/domain"
)

// AuditRepository implements ports.AuditRepository with gorm.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.db.WithContext(ctx).Create(&auditRecord{
		UserID:     event.UserID,
		ActorID:    event.ActorID,
		Action:     string(event.Action),
		OccurredAt: event.OccurredAt.UTC(),
	}).Error
}
