package miniauth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// Authenticator ties the Hasher and the stores together into the login and
// session-resolution operations shared by every sign-in method.
type Authenticator struct {
	Hasher   *Hasher
	Users    UserStore
	Sessions SessionStore

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

func (a *Authenticator) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// Login verifies email+password and returns a session id for the matching
// user. The password is hashed and compared by reproduction against the
// stored hash. On mismatch the attempted email is logged server-side and
// ErrInvalidCredentials is returned.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, error) {
	hash := a.Hasher.PasswordHash(password)
	user, err := a.Users.GetUserByCredentials(ctx, email, hash)
	if err != nil {
		a.logger().Warn("no user found", "email", email)
		return "", ErrInvalidCredentials
	}
	return a.Sessions.CreateSession(ctx, user.ID)
}

// GetSessionUser resolves a session id to its user. Returns
// ErrSessionNotFound for an unknown id, and ErrUserNotFound when the session
// row references a user that no longer exists (a dangling foreign key).
func (a *Authenticator) GetSessionUser(ctx context.Context, sessionID string) (*User, error) {
	session, err := a.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return a.Users.GetUserByID(ctx, session.UserID)
}

// DeriveUsername builds a username from an OAuth profile's given and family
// names: lowercased, spaces replaced with underscores. Not guaranteed unique;
// the users table declares no unique constraint on username.
func DeriveUsername(givenName, familyName string) string {
	return strings.ReplaceAll(strings.ToLower(givenName+familyName), " ", "_")
}

// OAuthUserHandler returns the callback invoked by the OAuth package after a
// successful code exchange and profile fetch. It upserts the user from the
// provider profile (full overwrite keyed on email, including the raw access
// token), issues a session, sets the session cookie and redirects to
// successURL. Any store failure redirects to loginURL instead.
func (a *Authenticator) OAuthUserHandler(cookie SessionCookie, successURL, loginURL string) func(token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request) {
	return func(token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request) {
		str := func(key string) string {
			v, _ := userInfo[key].(string)
			return v
		}
		user := &User{
			Email:             str("email"),
			Username:          DeriveUsername(str("given_name"), str("family_name")),
			DisplayName:       str("name"),
			Profile:           str("picture"),
			GoogleAccessToken: token.AccessToken,
		}
		userID, err := a.Users.AddUser(r.Context(), user)
		if err != nil {
			a.logger().Error("oauth user upsert failed", "email", user.Email, "err", err)
			http.Redirect(w, r, loginURL, http.StatusFound)
			return
		}
		sessionID, err := a.Sessions.CreateSession(r.Context(), userID)
		if err != nil {
			a.logger().Error("session create failed", "user_id", userID, "err", err)
			http.Redirect(w, r, loginURL, http.StatusFound)
			return
		}
		cookie.Set(w, sessionID)
		http.Redirect(w, r, successURL, http.StatusFound)
	}
}
