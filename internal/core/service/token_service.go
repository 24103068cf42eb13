package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
)

const defaultTokenTTL = 24 * time.Hour

// tokenClaims is the JWT payload. Subject carries the user's external ID and
// ID (jti) identifies the token for revocation.
type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenClaims is the verified content of a bearer token.
type TokenClaims struct {
	UserID    string
	Role      domain.Role
	TokenID   string
	ExpiresAt time.Time
}

// TokenService issues, verifies and revokes HS256 bearer tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	store  ports.TokenStore
	ids    ports.IDGenerator
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration, store ports.TokenStore, ids ports.IDGenerator) *TokenService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		store:  store,
		ids:    ids,
		now:    time.Now,
	}
}

// Issue signs a new token bound to user.
func (s *TokenService) Issue(user *domain.User) (string, error) {
	now := s.now().UTC()
	claims := tokenClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ids.NewID(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and the revocation list. Every rejection
// wraps domain.ErrUnauthenticated; store failures are returned as-is.
func (s *TokenService) Verify(ctx context.Context, raw string) (*TokenClaims, error) {
	var claims tokenClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: token missing identity", domain.ErrUnauthenticated)
	}

	revoked, err := s.store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", domain.ErrUnauthenticated)
	}

	return &TokenClaims{
		UserID:    claims.Subject,
		Role:      domain.Role(claims.Role),
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke adds tokenID to the revocation list until expiresAt.
func (s *TokenService) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return errors.New("revoke token: empty token id")
	}
	if err := s.store.Revoke(ctx, tokenID, expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
