package domain

// Action names an operation on a user record that the policy rules over.
type Action string

const (
	ActionCreate Action = "create"
	ActionView   Action = "view"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	// ActionAssignRole guards changing the role of an existing user.
	ActionAssignRole Action = "assign role to"
)

// Can decides whether actor may perform action on the user identified by
// targetID. It never touches storage, so a denial says nothing about whether
// the target exists.
func Can(actor *User, action Action, targetID string) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	switch action {
	case ActionView, ActionUpdate:
		return targetID != "" && actor.ID == targetID
	default:
		return false
	}
}

// Authorize is Can expressed as an error: nil on allow, *AuthorizationError
// on deny.
func Authorize(actor *User, action Action, targetID string) error {
	if Can(actor, action, targetID) {
		return nil
	}
	return &AuthorizationError{Action: action}
}
