package sqlite

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenStore implements ports.TokenStore with a revoked_tokens table.
// Expired rows are purged whenever a new token is revoked.
type TokenStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTokenStore(db *gorm.DB) *TokenStore {
	return &TokenStore{db: db, now: time.Now}
}

func (s *TokenStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := s.now().UTC()
	if !expiresAt.After(now) {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expires_at <= ?", now).Delete(&revokedToken{}).Error; err != nil {
			return fmt.Errorf("purge revoked tokens: %w", err)
		}
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&revokedToken{TokenID: tokenID, ExpiresAt: expiresAt.UTC()}).Error
		if err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
		return nil
	})
}

func (s *TokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int64
	err := s.db.WithContext(ctx).Model(&revokedToken{}).
		Where("token_id = ? AND expires_at > ?", tokenID, s.now().UTC()).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}
