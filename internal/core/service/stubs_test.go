package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/user-management/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID      map[string]*domain.User
	createErr error // if set, Create returns this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, u := range r.byID {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	r.byID[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Update(_ context.Context, id string, patch domain.UserPatch, updatedAt time.Time) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if patch.Email != nil {
		for otherID, other := range r.byID {
			if otherID != id && other.Email == *patch.Email {
				return nil, domain.ErrEmailTaken
			}
		}
	}
	patch.Apply(u)
	u.UpdatedAt = updatedAt
	return cloneUser(u), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

type stubRoleRepo struct {
	roles   map[domain.Role]int
	failFor domain.Role
}

func (r *stubRoleRepo) Upsert(_ context.Context, role domain.Role) error {
	if role == r.failFor {
		return fmt.Errorf("boom")
	}
	r.roles[role]++
	return nil
}

type stubTokenStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newStubTokenStore() *stubTokenStore {
	return &stubTokenStore{revoked: make(map[string]time.Time)}
}

func (s *stubTokenStore) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = expiresAt
	return nil
}

func (s *stubTokenStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[tokenID]
	return ok, nil
}

type recordingAudit struct {
	events []domain.AuditEvent
}

func (r *recordingAudit) Record(e domain.AuditEvent) {
	r.events = append(r.events, e)
}

func (r *recordingAudit) actions() []domain.AuditAction {
	out := make([]domain.AuditAction, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

type sequentialIDs struct {
	prefix string
	n      int
}

func (g *sequentialIDs) NewID() string {
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type fixture struct {
	repo      *stubUserRepo
	store     *stubTokenStore
	audit     *recordingAudit
	hasher    *BcryptHasher
	tokens    *TokenService
	lifecycle *UserLifecycle
	users     *UserService
	auth      *AuthService
}

func newFixture() *fixture {
	f := &fixture{
		repo:   newStubUserRepo(),
		store:  newStubTokenStore(),
		audit:  &recordingAudit{},
		hasher: NewBcryptHasher(bcrypt.MinCost),
	}
	f.tokens = NewTokenService("secret", time.Hour, f.store, nil)
	f.lifecycle = NewUserLifecycle(f.repo, f.hasher, &sequentialIDs{prefix: "usr"}, f.audit, discardLogger)
	f.users = NewUserService(f.lifecycle, discardLogger)
	f.auth = NewAuthService(f.repo, f.lifecycle, f.hasher, f.tokens, f.audit, discardLogger)
	return f
}

// seed stores a user directly, bypassing the lifecycle.
func (f *fixture) seed(id, email, password string, role domain.Role) *domain.User {
	hash, err := f.hasher.Hash(password)
	if err != nil {
		panic(err)
	}
	u := &domain.User{ID: id, Name: id, Email: email, PasswordHash: hash, Role: role}
	f.repo.byID[id] = cloneUser(u)
	return u
}
