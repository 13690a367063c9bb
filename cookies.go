package miniauth

import (
	"net/http"
	"time"
)

// DefaultSessionTTL is how long a session cookie stays valid client-side.
// The session row itself never expires; only the cookie does.
const DefaultSessionTTL = 24 * time.Hour

// SessionCookie describes how the session bearer cookie is issued. The zero
// value uses the name "session", Secure+HttpOnly, and DefaultSessionTTL.
// Secure can be switched off for local development via Insecure.
type SessionCookie struct {
	Name     string
	Insecure bool
	TTL      time.Duration
}

func (c SessionCookie) name() string {
	if c.Name != "" {
		return c.Name
	}
	return "session"
}

func (c SessionCookie) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return DefaultSessionTTL
}

// Set writes the session cookie.
func (c SessionCookie) Set(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(c.ttl().Seconds()),
		Expires:  time.Now().Add(c.ttl()),
		Secure:   !c.Insecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie on the client.
func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now(),
		Secure:   !c.Insecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Get reads the session id from the request, or "" when absent.
func (c SessionCookie) Get(r *http.Request) string {
	cookie, err := r.Cookie(c.name())
	if err != nil {
		return ""
	}
	return cookie.Value
}
