package domain

import (
	"errors"
	"testing"
)

func TestCan(t *testing.T) {
	admin := &User{ID: "admin-1", Role: RoleAdmin}
	alice := &User{ID: "alice", Role: RoleUser}

	tests := []struct {
		name   string
		actor  *User
		action Action
		target string
		want   bool
	}{
		{"admin creates", admin, ActionCreate, "", true},
		{"admin views other", admin, ActionView, "alice", true},
		{"admin updates other", admin, ActionUpdate, "alice", true},
		{"admin deletes other", admin, ActionDelete, "alice", true},
		{"admin deletes self", admin, ActionDelete, "admin-1", true},
		{"admin assigns role", admin, ActionAssignRole, "alice", true},
		{"user creates", alice, ActionCreate, "", false},
		{"user views self", alice, ActionView, "alice", true},
		{"user views other", alice, ActionView, "bob", false},
		{"user updates self", alice, ActionUpdate, "alice", true},
		{"user updates other", alice, ActionUpdate, "bob", false},
		{"user deletes self", alice, ActionDelete, "alice", false},
		{"user deletes other", alice, ActionDelete, "bob", false},
		{"user assigns own role", alice, ActionAssignRole, "alice", false},
		{"user views empty target", alice, ActionView, "", false},
		{"nil actor", nil, ActionView, "alice", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Can(tt.actor, tt.action, tt.target); got != tt.want {
				t.Fatalf("Can(%v, %s, %q) = %v, want %v", tt.actor, tt.action, tt.target, got, tt.want)
			}
		})
	}
}

func TestAuthorize_DenialIsForbidden(t *testing.T) {
	err := Authorize(&User{ID: "alice", Role: RoleUser}, ActionDelete, "bob")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	var ae *AuthorizationError
	if !errors.As(err, &ae) || ae.Action != ActionDelete {
		t.Fatalf("expected AuthorizationError for delete, got %v", err)
	}
	if errors.Is(err, ErrUserNotFound) {
		t.Fatalf("denial must not look like not found")
	}
}

func TestAuthorize_Allows(t *testing.T) {
	if err := Authorize(&User{ID: "alice", Role: RoleUser}, ActionView, "alice"); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}
}
