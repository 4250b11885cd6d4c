package enums

import (
	"fmt"
	"strings"
)

// Role is the coarse-grained authorization role stored on profiles and user_roles.
type Role string

const (
	RoleArtist   Role = "artist"
	RoleProducer Role = "producer"
	RoleAdmin    Role = "admin"
)

var validRoles = []Role{
	RoleArtist,
	RoleProducer,
	RoleAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// RolePtr parses a nullable column value. Empty or unknown values yield nil.
func RolePtr(value *string) *Role {
	if value == nil {
		return nil
	}
	role, err := ParseRole(*value)
	if err != nil {
		return nil
	}
	return &role
}
