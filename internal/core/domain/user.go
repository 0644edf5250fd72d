package domain

import "time"

// Role is the capability class of a user.
type Role string

const (
	RoleClient  Role = "client"
	RoleManager Role = "manager"
	RoleMaster  Role = "master"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleManager, RoleMaster:
		return true
	}
	return false
}

// ParseRole converts a string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// User models a person talking to the bot. ID is the numeric account id of
// the chat platform and is never reassigned.
type User struct {
	ID          int64     `json:"id" bson:"_id"`
	Handle      string    `json:"handle,omitempty" bson:"handle,omitempty"`
	DisplayName string    `json:"display_name,omitempty" bson:"display_name,omitempty"`
	Role        Role      `json:"role" bson:"role"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
