package users

import (
	"github.com/angelmondragon/bazaar-console/internal/gateway"
	"github.com/angelmondragon/bazaar-console/pkg/enums"
)

// Payload is the JSON body of user create and update calls.
type Payload struct {
	UserName  string         `json:"userName" validate:"required,max=50"`
	FirstName string         `json:"firstName" validate:"required,max=100"`
	LastName  string         `json:"lastName" validate:"required,max=100"`
	Email     string         `json:"email" validate:"required,email"`
	Role      enums.UserRole `json:"role" validate:"omitempty,oneof=Admin User Saler"`
}

// Body wraps the payload for the gateway. An unknown role is sent as an empty string.
func (p Payload) Body() gateway.Body {
	p.Role = p.Role.Normalize()
	return gateway.JSONBody(p)
}

// PayloadFrom copies the editable fields of u, as used to prefill an edit form.
func PayloadFrom(u User) Payload {
	return Payload{
		UserName:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role.Normalize(),
	}
}
