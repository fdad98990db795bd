package users

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/bazaar-console/pkg/enums"
)

// User mirrors the backend's User resource.
type User struct {
	ID        int64          `json:"id"`
	UserName  string         `json:"userName"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Email     string         `json:"email"`
	Role      enums.UserRole `json:"role"`
}

func ID(u User) int64 {
	return u.ID
}

// SearchFields are the values the user directory filter matches against.
func SearchFields(u User) []string {
	return []string{u.FirstName, u.LastName, u.UserName}
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Summary is the multi-line text of the user detail dialog.
func (u User) Summary() string {
	return fmt.Sprintf("Name: %s\nEmail: %s\nRole: %s", u.FullName(), u.Email, u.Role.Label())
}

// Badge is the role chip shown next to a user.
type Badge struct {
	Label string           `json:"label"`
	Color enums.BadgeColor `json:"color"`
}

func (u User) Badge() Badge {
	return Badge{Label: u.Role.Label(), Color: u.Role.BadgeColor()}
}

// Card is the render form of a user in lists and dialogs.
type Card struct {
	User
	FullName string `json:"fullName"`
	Badge    Badge  `json:"badge"`
	Summary  string `json:"summary"`
}

func Present(u User) Card {
	u.Role = u.Role.Normalize()
	return Card{User: u, FullName: u.FullName(), Badge: u.Badge(), Summary: u.Summary()}
}
