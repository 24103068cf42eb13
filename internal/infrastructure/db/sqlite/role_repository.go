package sqlite

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/99minutos/user-management/internal/core/domain"
)

// RoleRepository implements ports.RoleRepository with gorm.
type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Upsert inserts the role unless a row with that name already exists.
func (r *RoleRepository) Upsert(ctx context.Context, role domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rec := roleRecord{Name: string(role)}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("upsert role: %w", err)
	}
	return nil
}
