package enums

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// UserRole is the closed set of roles the backend assigns to console users.
type UserRole string

const (
	UserRoleAdmin   UserRole = "Admin"
	UserRoleUser    UserRole = "User"
	UserRoleSaler   UserRole = "Saler"
	UserRoleUnknown UserRole = ""
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleUser,
	UserRoleSaler,
}

// BadgeColor is the palette slot a role badge renders with.
type BadgeColor string

const (
	BadgeColorError   BadgeColor = "error"
	BadgeColorPrimary BadgeColor = "primary"
	BadgeColorSuccess BadgeColor = "success"
	BadgeColorDefault BadgeColor = "default"
)

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known, assigned UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Normalize folds unrecognised or unset values into UserRoleUnknown.
func (r UserRole) Normalize() UserRole {
	for _, candidate := range validUserRoles {
		if strings.EqualFold(string(candidate), strings.TrimSpace(string(r))) {
			return candidate
		}
	}
	return UserRoleUnknown
}

// Label is the text shown on a role badge.
func (r UserRole) Label() string {
	if n := r.Normalize(); n != UserRoleUnknown {
		return n.String()
	}
	return "N/A"
}

// BadgeColor maps every role, including UserRoleUnknown, to a badge color.
func (r UserRole) BadgeColor() BadgeColor {
	switch r.Normalize() {
	case UserRoleAdmin:
		return BadgeColorError
	case UserRoleUser:
		return BadgeColorPrimary
	case UserRoleSaler:
		return BadgeColorSuccess
	case UserRoleUnknown:
		return BadgeColorDefault
	}
	return BadgeColorDefault
}

// UnmarshalJSON accepts any string and treats null or non-string payloads as UserRoleUnknown,
// so one odd record does not fail a whole list decode.
func (r *UserRole) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		*r = UserRoleUnknown
		return nil
	}
	var raw string
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("decode user role: %w", err)
	}
	*r = UserRole(raw).Normalize()
	return nil
}

// ParseUserRole converts raw input into an assigned UserRole.
func ParseUserRole(value string) (UserRole, error) {
	if role := UserRole(value).Normalize(); role != UserRoleUnknown {
		return role, nil
	}
	return UserRoleUnknown, fmt.Errorf("invalid user role %q", value)
}
