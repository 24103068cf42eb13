package ports

import (
	"context"
	"time"
)

// TokenStore keeps the revocation list for issued bearer tokens. Entries only
// need to live until the token would have expired anyway.
type TokenStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// PasswordHasher hashes and verifies plaintext passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// IDGenerator produces opaque external identifiers.
type IDGenerator interface {
	NewID() string
}
