package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
	"github.com/99minutos/user-management/internal/pkg/metrics"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// UserLifecycle implements ports.UserLifecycle. It performs no authorization.
type UserLifecycle struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	ids    ports.IDGenerator
	audit  ports.AuditRecorder
	log    zerolog.Logger
	now    func() time.Time
}

func NewUserLifecycle(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	ids ports.IDGenerator,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) *UserLifecycle {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &UserLifecycle{
		repo:   repo,
		hasher: hasher,
		ids:    ids,
		audit:  auditOrDiscard(audit),
		log:    log,
		now:    time.Now,
	}
}

// Create stores a new user with a fresh external identifier and a hashed
// password. actorID is empty for self-registration.
func (l *UserLifecycle) Create(ctx context.Context, in ports.CreateUserInput, actorID string) (*domain.User, error) {
	if !in.Role.Valid() {
		return nil, domain.NewValidationError("role", fmt.Sprintf("role must be one of: %s", roleList()))
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "The name field is required.")
	}

	hash, err := l.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := l.now().UTC()
	user := &domain.User{
		ID:           l.ids.NewID(),
		Name:         name,
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := l.repo.Create(ctx, user); err != nil {
		metrics.LifecycleOperationsTotal.WithLabelValues("create", resultLabel(err)).Inc()
		return nil, err
	}
	metrics.LifecycleOperationsTotal.WithLabelValues("create", "success").Inc()

	action := domain.AuditCreated
	if actorID == "" {
		action = domain.AuditRegistered
	}
	l.audit.Record(domain.AuditEvent{UserID: user.ID, ActorID: actorID, Action: action, OccurredAt: now})

	l.log.Info().Str("user_id", user.ID).Str("role", user.Role.String()).Str("actor_id", actorID).Msg("user created")
	return user, nil
}

// Fetch returns the user with the given external identifier.
func (l *UserLifecycle) Fetch(ctx context.Context, id string) (*domain.User, error) {
	return l.repo.FindByID(ctx, id)
}

// Update applies only the fields present in the input.
func (l *UserLifecycle) Update(ctx context.Context, id string, in ports.UpdateUserInput, actorID string) (*domain.User, error) {
	var patch domain.UserPatch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "The name field is required.")
		}
		patch.Name = &name
	}
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		patch.Email = &email
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, domain.NewValidationError("role", fmt.Sprintf("role must be one of: %s", roleList()))
		}
		role := *in.Role
		patch.Role = &role
	}
	if in.Password != nil {
		hash, err := l.hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}

	if patch.Empty() {
		return l.repo.FindByID(ctx, id)
	}

	now := l.now().UTC()
	user, err := l.repo.Update(ctx, id, patch, now)
	if err != nil {
		metrics.LifecycleOperationsTotal.WithLabelValues("update", resultLabel(err)).Inc()
		return nil, err
	}
	metrics.LifecycleOperationsTotal.WithLabelValues("update", "success").Inc()

	l.audit.Record(domain.AuditEvent{UserID: id, ActorID: actorID, Action: domain.AuditUpdated, OccurredAt: now})
	l.log.Info().Str("user_id", id).Str("actor_id", actorID).Msg("user updated")
	return user, nil
}

// Delete permanently removes the user.
func (l *UserLifecycle) Delete(ctx context.Context, id string, actorID string) error {
	if err := l.repo.Delete(ctx, id); err != nil {
		metrics.LifecycleOperationsTotal.WithLabelValues("delete", resultLabel(err)).Inc()
		return err
	}
	metrics.LifecycleOperationsTotal.WithLabelValues("delete", "success").Inc()

	l.audit.Record(domain.AuditEvent{UserID: id, ActorID: actorID, Action: domain.AuditDeleted, OccurredAt: l.now().UTC()})
	l.log.Info().Str("user_id", id).Str("actor_id", actorID).Msg("user deleted")
	return nil
}

// hashPassword reports a password bcrypt cannot hash because of its length
// as a validation failure on "password".
func (l *UserLifecycle) hashPassword(password string) (string, error) {
	hash, err := l.hasher.Hash(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", domain.NewValidationError("password", fmt.Sprintf("The password may not be greater than %d bytes.", maxPasswordBytes))
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// NormalizeEmail lower-cases and trims an address so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func roleList() string {
	roles := domain.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return "conflict"
	case errors.Is(err, domain.ErrUserNotFound):
		return "not_found"
	default:
		return "error"
	}
}
