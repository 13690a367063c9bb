package miniauth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const userContextKey contextKey = "miniauth.user"

// Middleware resolves the caller's identity on every request: the session
// cookie is looked up through the SessionStore, or, for programmatic
// callers, a bearer token from the Authorization header is verified.
type Middleware struct {
	Auth   *Authenticator
	Cookie SessionCookie

	// VerifyToken is optional; when set, an "Authorization: Bearer ..."
	// header is an alternative credential (see TokenIssuer.Verify).
	VerifyToken func(tokenString string) (userID int64, err error)

	// LoginURL is where RequireUser sends unauthenticated browsers.
	// Defaults to "/login".
	LoginURL string
}

func (m *Middleware) loginURL() string {
	if m.LoginURL != "" {
		return m.LoginURL
	}
	return "/login"
}

// UserFromContext returns the user resolved by the middleware, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey).(*User)
	return user, ok
}

// resolveUser finds the request's user from the session cookie or bearer
// token. Returns nil when the request carries no valid credential.
func (m *Middleware) resolveUser(r *http.Request) *User {
	if sessionID := m.Cookie.Get(r); sessionID != "" {
		if user, err := m.Auth.GetSessionUser(r.Context(), sessionID); err == nil {
			return user
		}
	}

	if m.VerifyToken != nil {
		header := r.Header.Get("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			if userID, err := m.VerifyToken(token); err == nil {
				if user, err := m.Auth.Users.GetUserByID(r.Context(), userID); err == nil {
					return user
				}
			}
		}
	}
	return nil
}

// Handler injects the resolved user (if any) into the request context and
// passes the request on either way.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := m.resolveUser(r); user != nil {
			r = r.WithContext(context.WithValue(r.Context(), userContextKey, user))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser guards the authenticated area: requests without a resolvable
// user are redirected to the login URL.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := m.resolveUser(r)
		if user == nil {
			http.Redirect(w, r, m.loginURL(), http.StatusFound)
			return
		}
		r = r.WithContext(context.WithValue(r.Context(), userContextKey, user))
		next.ServeHTTP(w, r)
	})
}
