package domain

import "fmt"

// Role is a named capability bundle assigned to exactly one user at a time.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// registry is the closed set of roles, in seeding order. Adding a role means
// adding it here and redeploying.
var registry = []struct {
	name string
	role Role
}{
	{name: "ADMIN", role: RoleAdmin},
	{name: "USER", role: RoleUser},
}

// Roles returns every known role in a stable order.
func Roles() []Role {
	out := make([]Role, len(registry))
	for i, r := range registry {
		out[i] = r.role
	}
	return out
}

// RoleValues maps each symbolic role name to its stored value.
func RoleValues() map[string]Role {
	out := make(map[string]Role, len(registry))
	for _, r := range registry {
		out[r.name] = r.role
	}
	return out
}

// Valid reports whether r belongs to the registry.
func (r Role) Valid() bool {
	for _, known := range registry {
		if known.role == r {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts a stored or submitted value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}
