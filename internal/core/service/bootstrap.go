package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
)

// SeedRoles ensures every registry role exists in storage. Safe to run on
// every start.
func SeedRoles(ctx context.Context, repo ports.RoleRepository, log zerolog.Logger) error {
	for _, role := range domain.Roles() {
		if err := repo.Upsert(ctx, role); err != nil {
			return fmt.Errorf("seed role %s: %w", role, err)
		}
	}
	log.Info().Int("roles", len(domain.Roles())).Msg("roles seeded")
	return nil
}

// AdminAccount describes the administrator created on first start.
type AdminAccount struct {
	Name     string
	Email    string
	Password string
}

// EnsureAdmin creates the bootstrap administrator unless an account with that
// email already exists. An empty email disables it.
func EnsureAdmin(ctx context.Context, users ports.UserRepository, lifecycle ports.UserLifecycle, acct AdminAccount, log zerolog.Logger) error {
	if acct.Email == "" {
		return nil
	}

	_, err := users.FindByEmail(ctx, NormalizeEmail(acct.Email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("lookup bootstrap admin: %w", err)
	}

	if acct.Password == "" {
		return errors.New("bootstrap admin: password is required")
	}
	name := acct.Name
	if name == "" {
		name = "Administrator"
	}

	user, err := lifecycle.Create(ctx, ports.CreateUserInput{
		Name:     name,
		Email:    acct.Email,
		Password: acct.Password,
		Role:     domain.RoleAdmin,
	}, "")
	if err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	log.Info().Str("user_id", user.ID).Msg("bootstrap admin created")
	return nil
}
