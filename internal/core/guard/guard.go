// Package guard decides whether a session may see role-protected content.
// The decision is pure; side effects (navigation, status codes) belong to
// whatever layer consumes it.
package guard

import "github.com/rl1809/retail-pos/internal/core/domain"

type Decision int

const (
	// Pending means the role lookup has not resolved; render a loading
	// state, do not redirect.
	Pending Decision = iota
	Allow
	RedirectToLogin
	RedirectToRoleHome
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToRoleHome:
		return "redirect_to_role_home"
	default:
		return "unknown"
	}
}

// Authorize evaluates a session against the role a route requires.
// A zero required role means any authenticated session is allowed.
func Authorize(sess *domain.Session, required domain.Role) Decision {
	if sess == nil {
		return RedirectToLogin
	}
	if sess.Role == domain.RoleUnknown {
		return Pending
	}
	if required != domain.RoleUnknown && sess.Role != required {
		return RedirectToRoleHome
	}
	return Allow
}
