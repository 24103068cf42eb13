package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/99minutos/user-management/internal/core/domain"
)

// UserRepository implements ports.UserRepository with gorm.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create resolves the role row and inserts the user in one transaction.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := findRole(tx, user.Role)
		if err != nil {
			return err
		}
		rec := userRecord{
			UUID:         user.ID,
			Name:         user.Name,
			Email:        user.Email,
			PasswordHash: user.PasswordHash,
			RoleID:       role.ID,
			CreatedAt:    user.CreatedAt,
			UpdatedAt:    user.UpdatedAt,
		}
		return tx.Omit("Role").Create(&rec).Error
	})
	if err != nil {
		return translate("insert user", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, r.db, "uuid = ?", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, r.db, "email = ?", email)
}

func (r *UserRepository) findOne(ctx context.Context, db *gorm.DB, query string, arg any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec userRecord
	if err := db.WithContext(ctx).Preload("Role").Where(query, arg).First(&rec).Error; err != nil {
		return nil, translate("find user", err)
	}
	return rec.toDomain(), nil
}

// Update writes only the patched columns and reads the row back inside the
// same transaction.
func (r *UserRepository) Update(ctx context.Context, id string, patch domain.UserPatch, updatedAt time.Time) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var out *domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cols := map[string]any{"updated_at": updatedAt}
		if patch.Name != nil {
			cols["name"] = *patch.Name
		}
		if patch.Email != nil {
			cols["email"] = *patch.Email
		}
		if patch.PasswordHash != nil {
			cols["password_hash"] = *patch.PasswordHash
		}
		if patch.Role != nil {
			role, err := findRole(tx, *patch.Role)
			if err != nil {
				return err
			}
			cols["role_id"] = role.ID
		}

		res := tx.Model(&userRecord{}).Where("uuid = ?", id).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}

		var rec userRecord
		if err := tx.Preload("Role").Where("uuid = ?", id).First(&rec).Error; err != nil {
			return err
		}
		out = rec.toDomain()
		return nil
	})
	if err != nil {
		return nil, translate("update user", err)
	}
	return out, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res := r.db.WithContext(ctx).Where("uuid = ?", id).Delete(&userRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func findRole(tx *gorm.DB, role domain.Role) (*roleRecord, error) {
	var rec roleRecord
	if err := tx.Where("name = ?", string(role)).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoleNotSeeded
		}
		return nil, err
	}
	return &rec, nil
}

// translate maps gorm errors onto domain sentinels and wraps the rest.
func translate(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrEmailTaken
	case errors.Is(err, domain.ErrRoleNotSeeded):
		return domain.ErrRoleNotSeeded
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
