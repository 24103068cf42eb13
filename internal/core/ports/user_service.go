package ports

import (
	"context"

	"github.com/99minutos/user-management/internal/core/domain"
)

// CreateUserInput carries everything needed to create an account.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// UpdateUserInput is a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
}

// UserLifecycle performs account operations without any authorization. The
// caller is responsible for having consulted the policy first.
type UserLifecycle interface {
	Create(ctx context.Context, input CreateUserInput, actorID string) (*domain.User, error)
	Fetch(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, input UpdateUserInput, actorID string) (*domain.User, error)
	Delete(ctx context.Context, id string, actorID string) error
}

// UserService exposes account management to an authenticated actor,
// applying the authorization policy before every lifecycle operation.
type UserService interface {
	Create(ctx context.Context, actor *domain.User, input CreateUserInput) (*domain.User, error)
	Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error)
	Update(ctx context.Context, actor *domain.User, id string, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, actor *domain.User, id string) error
}
