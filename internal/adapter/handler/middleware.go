package handler

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"

	"github.com/rl1809/retail-pos/internal/core/domain"
	"github.com/rl1809/retail-pos/internal/core/guard"
)

type contextKey string

const sessionKey contextKey = "session"

func SessionFromContext(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(sessionKey).(*domain.Session)
	return sess
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return header[7:]
}

// guard is the HTTP realization of the route guard: it resolves the session
// from the bearer token and maps the authorize decision onto the response.
// Redirects are issued once, here, and never by the wrapped handler.
func (h *HTTPHandler) guard(required domain.Role, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		var sess *domain.Session
		if token := bearerToken(r); token != "" {
			s, err := h.auth.SessionFromToken(r.Context(), token)
			if err == nil {
				sess = s
			}
		}

		switch guard.Authorize(sess, required) {
		case guard.Pending:
			w.Header().Set("Retry-After", "1")
			writeMessage(w, http.StatusServiceUnavailable, "role lookup in progress")
		case guard.RedirectToLogin:
			w.Header().Set("Location", "/login")
			writeMessage(w, http.StatusUnauthorized, "sign in required")
		case guard.RedirectToRoleHome:
			http.Redirect(w, r, sess.Role.Home(), http.StatusSeeOther)
		case guard.Allow:
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next(w, r.WithContext(ctx), ps)
		}
	}
}

// IPLimiter throttles credential guessing on the login route, one token
// bucket per client address.
type IPLimiter struct {
	mu    sync.Mutex
	perIP map[string]*rate.Limiter
	limit rate.Limit
	burst int
}

func NewIPLimiter(limit rate.Limit, burst int) *IPLimiter {
	return &IPLimiter{
		perIP: make(map[string]*rate.Limiter),
		limit: limit,
		burst: burst,
	}
}

func (l *IPLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.perIP[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.perIP[ip] = lim
	}
	return lim.Allow()
}

func (h *HTTPHandler) rateLimited(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !h.login.allow(ip) {
			writeMessage(w, http.StatusTooManyRequests, "too many login attempts")
			return
		}
		next(w, r, ps)
	}
}
