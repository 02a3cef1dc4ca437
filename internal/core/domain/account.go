package domain

import "time"

type Role string

const (
	// RoleUnknown means the role lookup has not resolved yet. The route
	// guard treats it as Pending, never as a deny.
	RoleUnknown Role = ""
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCashier
}

// Home is the default landing path for a role.
func (r Role) Home() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleCashier:
		return "/cashier"
	default:
		return "/login"
	}
}

type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is the signed-in identity handed to every component that needs
// it. It is built from a verified token, never from a global.
type Session struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
