package oauth2

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// HandleUserFunc is called after a successful code exchange and profile
// fetch. The callback owns user persistence, session issuance and the final
// redirect.
type HandleUserFunc func(token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request)

// Cookie names carrying the flow's transient state across the redirect
// boundary.
const (
	StateCookieName    = "state"
	VerifierCookieName = "code_verifier"
)

// transientCookieTTL bounds how long the state and verifier cookies live; the
// whole authorization round-trip has to finish inside it.
const transientCookieTTL = 10 * time.Minute

// GenerateState returns a random CSRF state token.
func GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func setTransientCookie(w http.ResponseWriter, name, value string, insecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(transientCookieTTL.Seconds()),
		Expires:  time.Now().Add(transientCookieTTL),
		Secure:   !insecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTransientCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:    name,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Now(),
	})
}

// isTransient reports whether err looks like a transient network failure
// worth one retry. Provider rejections (oauth2.RetrieveError) never qualify.
func isTransient(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// withRetry runs fn, retrying exactly once on a transient network failure.
func withRetry(fn func() error) error {
	err := fn()
	if err != nil && isTransient(err) {
		err = fn()
	}
	return err
}
