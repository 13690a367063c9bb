package miniauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AuthURLFunc prepares an OAuth sign-in: it sets the transient state and
// code-verifier cookies on w and returns the provider authorization URL.
type AuthURLFunc func(w http.ResponseWriter, r *http.Request) (string, error)

// LocalAuth serves the /login endpoint: GET returns the OAuth authorization
// URL (or redirects straight to the authenticated area when a valid session
// cookie is already present), POST performs email+password login.
type LocalAuth struct {
	Auth   *Authenticator
	Cookie SessionCookie

	// SuccessURL is the authenticated landing destination. Defaults to "/dashboard".
	SuccessURL string

	// AuthURL is wired to the OAuth package's initiate step. Optional; when
	// nil, GET /login returns an empty auth_url.
	AuthURL AuthURLFunc

	// Form/JSON field names. Default to "email" and "password".
	EmailField    string
	PasswordField string
}

func (a *LocalAuth) successURL() string {
	if a.SuccessURL != "" {
		return a.SuccessURL
	}
	return "/dashboard"
}

func (a *LocalAuth) emailField() string {
	if a.EmailField != "" {
		return a.EmailField
	}
	return "email"
}

func (a *LocalAuth) passwordField() string {
	if a.PasswordField != "" {
		return a.PasswordField
	}
	return "password"
}

func (a *LocalAuth) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.HandleLoginPage(w, r)
	case http.MethodPost:
		a.HandleLogin(w, r)
	default:
		http.Error(w, `{"error": "Method not allowed"}`, http.StatusMethodNotAllowed)
	}
}

// HandleLoginPage implements GET /login. An already-authenticated client is
// redirected to the success URL; everyone else gets the OAuth authorization
// URL with the state and code_verifier cookies set.
func (a *LocalAuth) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sessionID := a.Cookie.Get(r); sessionID != "" {
		if _, err := a.Auth.GetSessionUser(r.Context(), sessionID); err == nil {
			http.Redirect(w, r, a.successURL(), http.StatusFound)
			return
		}
	}

	authURL := ""
	if a.AuthURL != nil {
		u, err := a.AuthURL(w, r)
		if err != nil {
			http.Error(w, `{"error": "OAuth not available"}`, http.StatusInternalServerError)
			return
		}
		authURL = u
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"auth_url": authURL})
}

// HandleLogin implements POST /login. On success it sets the session cookie
// and redirects to the success URL; on failure it answers 401 with a JSON
// error body rather than leaving the client without a response.
func (a *LocalAuth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	email, password, parseErr := a.parseLoginForm(r)
	if parseErr != nil {
		writeAuthError(w, http.StatusBadRequest, parseErr)
		return
	}

	sessionID, err := a.Auth.Login(r.Context(), email, password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			writeAuthError(w, http.StatusInternalServerError, NewAuthError("login_failed", "Login failed", ""))
			return
		}
		writeAuthError(w, http.StatusUnauthorized, NewAuthError(ErrCodeInvalidCreds, "Invalid credentials", a.passwordField()))
		return
	}

	a.Cookie.Set(w, sessionID)
	http.Redirect(w, r, a.successURL(), http.StatusFound)
}

// HandleLogout clears the session cookie and redirects to the "to" query
// parameter, or to /login. The session row itself is untouched.
func (a *LocalAuth) HandleLogout(w http.ResponseWriter, r *http.Request) {
	a.Cookie.Clear(w)
	to := r.URL.Query().Get("to")
	if to == "" {
		to = "/login"
	}
	http.Redirect(w, r, to, http.StatusFound)
}

func (a *LocalAuth) parseLoginForm(r *http.Request) (email, password string, authErr *AuthError) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		var data map[string]any
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil || data == nil {
			return "", "", NewAuthError(ErrCodeParseError, "Invalid post body", "")
		}
		email, _ = data[a.emailField()].(string)
		password, _ = data[a.passwordField()].(string)
	} else {
		if err := r.ParseForm(); err != nil {
			return "", "", NewAuthError(ErrCodeParseError, "Error parsing form", "")
		}
		email = r.FormValue(a.emailField())
		password = r.FormValue(a.passwordField())
	}

	if email == "" {
		return "", "", NewAuthError(ErrCodeMissingField, "Email is required", a.emailField())
	}
	if password == "" {
		return "", "", NewAuthError(ErrCodeMissingField, "Password is required", a.passwordField())
	}
	return email, password, nil
}

// writeAuthError renders an AuthError as a JSON body with the given status.
func writeAuthError(w http.ResponseWriter, status int, err *AuthError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(err); encErr != nil {
		fmt.Fprintf(w, `{"error": %q}`, err.Message)
	}
}
