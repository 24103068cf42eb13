package ports

import (
	"context"

	"github.com/99minutos/user-management/internal/core/domain"
)

// RegisterInput is the self-registration payload. It has no role on purpose:
// self-registered accounts always get domain.RoleUser.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult pairs a user with a freshly issued bearer token.
type AuthResult struct {
	User        *domain.User
	AccessToken string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Logout(ctx context.Context, identity *domain.Identity) error
	// Authenticate resolves a raw bearer token to the caller's identity.
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
}
