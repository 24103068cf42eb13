package ports

import (
	"context"
	"time"

	"github.com/99minutos/user-management/internal/core/domain"
)

// UserRepository defines the credential store for user accounts.
type UserRepository interface {
	// Create persists the user and its role assignment as one atomic unit.
	// Returns domain.ErrEmailTaken on a duplicate email and
	// domain.ErrRoleNotSeeded when the role has not been seeded.
	Create(ctx context.Context, user *domain.User) error
	// FindByID looks a user up by external identifier.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Update applies the non-nil fields of patch and returns the stored result.
	Update(ctx context.Context, id string, patch domain.UserPatch, updatedAt time.Time) (*domain.User, error)
	// Delete permanently removes the user. Returns domain.ErrUserNotFound when
	// nothing was deleted.
	Delete(ctx context.Context, id string) error
}

// RoleRepository persists the role table that user rows reference.
type RoleRepository interface {
	// Upsert ensures a role exists; calling it again is a no-op.
	Upsert(ctx context.Context, role domain.Role) error
}
