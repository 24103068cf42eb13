package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
	"github.com/99minutos/user-management/internal/pkg/metrics"
)

// UserService applies the authorization policy and then delegates to the
// lifecycle operations.
type UserService struct {
	lifecycle ports.UserLifecycle
	log       zerolog.Logger
}

func NewUserService(lifecycle ports.UserLifecycle, log zerolog.Logger) *UserService {
	return &UserService{lifecycle: lifecycle, log: log}
}

func (s *UserService) Create(ctx context.Context, actor *domain.User, in ports.CreateUserInput) (*domain.User, error) {
	if err := s.authorize(actor, domain.ActionCreate, ""); err != nil {
		return nil, err
	}
	return s.lifecycle.Create(ctx, in, actor.ID)
}

func (s *UserService) Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if err := s.authorize(actor, domain.ActionView, id); err != nil {
		return nil, err
	}
	return s.lifecycle.Fetch(ctx, id)
}

// Update lets the owner change profile fields; changing the role needs admin.
func (s *UserService) Update(ctx context.Context, actor *domain.User, id string, in ports.UpdateUserInput) (*domain.User, error) {
	if err := s.authorize(actor, domain.ActionUpdate, id); err != nil {
		return nil, err
	}
	if in.Role != nil {
		if err := s.authorize(actor, domain.ActionAssignRole, id); err != nil {
			return nil, err
		}
	}
	return s.lifecycle.Update(ctx, id, in, actor.ID)
}

func (s *UserService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := s.authorize(actor, domain.ActionDelete, id); err != nil {
		return err
	}
	return s.lifecycle.Delete(ctx, id, actor.ID)
}

func (s *UserService) authorize(actor *domain.User, action domain.Action, targetID string) error {
	err := domain.Authorize(actor, action, targetID)
	decision := "allow"
	if err != nil {
		decision = "deny"
		var actorID string
		if actor != nil {
			actorID = actor.ID
		}
		s.log.Debug().
			Str("actor_id", actorID).
			Str("action", string(action)).
			Str("target_id", targetID).
			Msg("authorization denied")
	}
	metrics.AuthorizationDecisionsTotal.WithLabelValues(string(action), decision).Inc()
	return err
}
