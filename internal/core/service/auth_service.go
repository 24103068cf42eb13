package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
	"github.com/99minutos/user-management/internal/pkg/metrics"
)

// AuthService implements registration, login, logout and token
// authentication.
type AuthService struct {
	users     ports.UserRepository
	lifecycle ports.UserLifecycle
	hasher    ports.PasswordHasher
	tokens    *TokenService
	audit     ports.AuditRecorder
	log       zerolog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	users ports.UserRepository,
	lifecycle ports.UserLifecycle,
	hasher ports.PasswordHasher,
	tokens *TokenService,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		lifecycle: lifecycle,
		hasher:    hasher,
		tokens:    tokens,
		audit:     auditOrDiscard(audit),
		log:       log,
	}
}

// Register creates a self-service account. The role is always
// domain.RoleUser regardless of what the client sent.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	user, err := s.lifecycle.Create(ctx, ports.CreateUserInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Role:     domain.RoleUser,
	}, "")
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", resultLabel(err)).Inc()
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "error").Inc()
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("register", "success").Inc()
	return &ports.AuthResult{User: user, AccessToken: token}, nil
}

// Login verifies credentials. Unknown emails and wrong passwords produce the
// same error and take comparable time.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(s.dummy(), password)
			metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid_credentials").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid_credentials").Inc()
		s.log.Debug().Str("user_id", user.ID).Msg("login rejected")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	s.audit.Record(domain.AuditEvent{UserID: user.ID, Action: domain.AuditLoggedIn, OccurredAt: time.Now().UTC()})
	return &ports.AuthResult{User: user, AccessToken: token}, nil
}

// Logout revokes the token the identity was authenticated with.
func (s *AuthService) Logout(ctx context.Context, identity *domain.Identity) error {
	if identity == nil || identity.User == nil {
		return domain.ErrUnauthenticated
	}
	if err := s.tokens.Revoke(ctx, identity.TokenID, identity.ExpiresAt); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("logout", "error").Inc()
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("logout", "success").Inc()
	s.audit.Record(domain.AuditEvent{UserID: identity.User.ID, Action: domain.AuditLoggedOut, OccurredAt: time.Now().UTC()})
	return nil
}

// Authenticate resolves a bearer token to the current state of its user.
// A token whose user has since been deleted no longer authenticates.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := s.tokens.Verify(ctx, token)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("authenticate", "rejected").Inc()
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.AuthAttemptsTotal.WithLabelValues("authenticate", "unknown_user").Inc()
			return nil, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	return &domain.Identity{
		User:      user,
		TokenID:   claims.TokenID,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// dummy returns a hash to compare against when the email is unknown.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("not-a-real-password")
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to build dummy hash")
		}
		s.dummyHash = h
	})
	return s.dummyHash
}
