package enums

import "fmt"

// ActorRole maps to the role claim carried in access tokens.
type ActorRole string

const (
	RolePhotographer ActorRole = "photographer"
	RoleAdmin        ActorRole = "admin"
)

var validActorRoles = []ActorRole{
	RolePhotographer,
	RoleAdmin,
}

// IsValid reports whether the value matches a known role.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
