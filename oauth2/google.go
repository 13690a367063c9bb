// Package oauth2 implements the Google OAuth sign-in flow: authorization URL
// construction with CSRF state and PKCE, and the redirect callback that
// exchanges the code and fetches the user's profile.
package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/webak/miniauth"
)

// googleUserInfoURL is the OpenID Connect profile endpoint.
const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// defaultExchangeTimeout bounds each outbound provider call.
const defaultExchangeTimeout = 10 * time.Second

// Google drives the two-phase OAuth sign-in state machine. Phase one
// (AuthURL) plants the state and code_verifier cookies and hands back the
// authorization URL; phase two (HandleCallback) runs only when the cookies
// from phase one are still present and the returned state matches exactly.
type Google struct {
	HandleUser HandleUserFunc

	// LoginURL receives every failed callback. Defaults to "/login".
	LoginURL string

	// CookieInsecure drops the Secure flag on the transient cookies.
	CookieInsecure bool

	// Timeout bounds the token exchange and profile fetch individually.
	Timeout time.Duration

	// UserInfoURL overrides the profile endpoint, for tests.
	UserInfoURL string

	Logger *slog.Logger

	config oauth2.Config
}

// NewGoogle configures the flow for the given client. Scopes are fixed to
// what the user upsert needs: email, profile, openid.
func NewGoogle(clientID, clientSecret, redirectURL string, handleUser HandleUserFunc) *Google {
	return &Google{
		HandleUser: handleUser,
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (g *Google) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

func (g *Google) loginURL() string {
	if g.LoginURL != "" {
		return g.LoginURL
	}
	return "/login"
}

func (g *Google) timeout() time.Duration {
	if g.Timeout > 0 {
		return g.Timeout
	}
	return defaultExchangeTimeout
}

func (g *Google) userInfoURL() string {
	if g.UserInfoURL != "" {
		return g.UserInfoURL
	}
	return googleUserInfoURL
}

// Endpoint exposes the provider endpoint for overriding in tests.
func (g *Google) Endpoint() *oauth2.Endpoint {
	return &g.config.Endpoint
}

// AuthURL generates a fresh state token and PKCE verifier, stores both in
// short-lived http-only cookies, and returns the authorization URL carrying
// the state and the derived S256 code challenge.
func (g *Google) AuthURL(w http.ResponseWriter, r *http.Request) (string, error) {
	state, err := GenerateState()
	if err != nil {
		return "", err
	}
	verifier := oauth2.GenerateVerifier()

	setTransientCookie(w, StateCookieName, state, g.CookieInsecure)
	setTransientCookie(w, VerifierCookieName, verifier, g.CookieInsecure)

	return g.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

// HandleCallback implements GET /auth/google. The terminal outcome is always
// a redirect: to the login URL on any failure, or wherever HandleUser sends
// the authenticated user on success. The token exchange is never attempted
// unless the returned state exactly matches the stored state cookie.
func (g *Google) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	storedState := cookieValue(r, StateCookieName)
	storedVerifier := cookieValue(r, VerifierCookieName)

	clearTransientCookie(w, StateCookieName)
	clearTransientCookie(w, VerifierCookieName)

	if code == "" || state == "" || storedState == "" || storedVerifier == "" {
		g.fail(w, r, miniauth.NewOAuthError(miniauth.OAuthErrMissingParams, nil))
		return
	}
	if state != storedState {
		g.fail(w, r, miniauth.NewOAuthError(miniauth.OAuthErrStateMismatch, nil))
		return
	}

	token, err := g.exchange(r.Context(), code, storedVerifier)
	if err != nil {
		g.fail(w, r, miniauth.NewOAuthError(miniauth.OAuthErrExchangeFailed, err))
		return
	}

	userInfo, err := g.fetchUserInfo(r.Context(), token)
	if err != nil {
		g.fail(w, r, miniauth.NewOAuthError(miniauth.OAuthErrProfileFetch, err))
		return
	}

	g.HandleUser(token, userInfo, w, r)
}

func (g *Google) fail(w http.ResponseWriter, r *http.Request, err *miniauth.OAuthError) {
	g.logger().Warn("oauth callback failed", "code", string(err.Code), "err", err.Err)
	http.Redirect(w, r, g.loginURL(), http.StatusFound)
}

// exchange trades the authorization code and PKCE verifier for a token, with
// a bounded deadline and a single retry on transient network failure.
func (g *Google) exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	var token *oauth2.Token
	err := withRetry(func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout())
		defer cancel()
		t, err := g.config.Exchange(callCtx, code, oauth2.VerifierOption(verifier))
		if err != nil {
			return err
		}
		token = t
		return nil
	})
	return token, err
}

// fetchUserInfo reads the OpenID Connect profile with the access token.
func (g *Google) fetchUserInfo(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	var userInfo map[string]any
	err := withRetry(func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout())
		defer cancel()

		req, err := http.NewRequestWithContext(callCtx, http.MethodGet, g.userInfoURL(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
		}
		return json.NewDecoder(resp.Body).Decode(&userInfo)
	})
	if err != nil {
		return nil, err
	}
	return userInfo, nil
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
