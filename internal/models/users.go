package models

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
	RoleGod   Role = "GOD"
)

// User is the caller identity forwarded by the gateway
type User struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Check if user is authenticated
func (u *User) IsAuthenticated() bool {
	if u == nil || u.ID == "" {
		return false
	}

	switch u.Role {
	case RoleUser, RoleAdmin, RoleGod:
		return true
	}

	return false
}

// Check if user can see every partner's pages
func (u *User) IsAdmin() bool {
	return u.IsAuthenticated() && (u.Role == RoleAdmin || u.Role == RoleGod)
}
