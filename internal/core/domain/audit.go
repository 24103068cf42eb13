package domain

import "time"

// AuditAction names what happened to a user account.
type AuditAction string

const (
	AuditRegistered AuditAction = "registered"
	AuditLoggedIn   AuditAction = "logged_in"
	AuditLoggedOut  AuditAction = "logged_out"
	AuditCreated    AuditAction = "created"
	AuditUpdated    AuditAction = "updated"
	AuditDeleted    AuditAction = "deleted"
)

// AuditEvent is an append-only record of an account change or session event.
type AuditEvent struct {
	UserID     string
	ActorID    string // empty for self-service events
	Action     AuditAction
	OccurredAt time.Time
}
