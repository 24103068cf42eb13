package sqlite

import (
	"time"

	"github.com/99minutos/user-management/internal/core/domain"
)

type roleRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

func (roleRecord) TableName() string { return "roles" }

// userRecord keeps the autoincrement key internal; UUID is what leaves the
// repository as domain.User.ID.
type userRecord struct {
	ID           uint       `gorm:"primaryKey"`
	UUID         string     `gorm:"column:uuid;uniqueIndex;not null"`
	Name         string     `gorm:"not null"`
	Email        string     `gorm:"uniqueIndex;not null"`
	PasswordHash string     `gorm:"not null"`
	RoleID       uint       `gorm:"not null;index"`
	Role         roleRecord `gorm:"foreignKey:RoleID;constraint:OnDelete:RESTRICT"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

func (u *userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           u.UUID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         domain.Role(u.Role.Name),
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

type auditRecord struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     string `gorm:"index;not null"`
	ActorID    string
	Action     string    `gorm:"not null"`
	OccurredAt time.Time `gorm:"not null"`
	RecordedAt time.Time `gorm:"autoCreateTime"`
}

func (auditRecord) TableName() string { return "audit_events" }

type revokedToken struct {
	TokenID   string    `gorm:"primaryKey"`
	ExpiresAt time.Time `gorm:"index;not null"`
}

func (revokedToken) TableName() string { return "revoked_tokens" }
