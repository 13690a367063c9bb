package miniauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAPITokenTTL is how long a minted API token stays valid. There is no
// refresh or rotation; callers re-mint from their session.
const DefaultAPITokenTTL = 15 * time.Minute

// TokenIssuer mints short-lived JWTs for programmatic callers who already
// hold a valid session, and verifies them on the way back in. The subject
// claim carries the user id.
type TokenIssuer struct {
	Auth      *Authenticator
	SecretKey string
	Issuer    string

	// Cookie locates the session credential on HTTP requests.
	Cookie SessionCookie

	// TTL defaults to DefaultAPITokenTTL.
	TTL time.Duration
}

func (t *TokenIssuer) ttl() time.Duration {
	if t.TTL > 0 {
		return t.TTL
	}
	return DefaultAPITokenTTL
}

// IssueForSession resolves the session and mints a signed token for its user.
func (t *TokenIssuer) IssueForSession(ctx context.Context, sessionID string) (string, error) {
	user, err := t.Auth.GetSessionUser(ctx, sessionID)
	if err != nil {
		return "", err
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatInt(user.ID, 10),
		"iss": t.Issuer,
		"iat": now.Unix(),
		"exp": now.Add(t.ttl()).Unix(),
	})
	return token.SignedString([]byte(t.SecretKey))
}

// Verify parses and validates a token string, returning the user id from the
// subject claim.
func (t *TokenIssuer) Verify(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return []byte(t.SecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims == nil {
		return 0, fmt.Errorf("claims is not a map")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, fmt.Errorf("subject not found")
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed subject: %w", err)
	}
	return userID, nil
}

// ServeHTTP implements POST /api/token: exchanges the session cookie for a
// short-lived bearer token.
func (t *TokenIssuer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error": "Method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	sessionID := t.Cookie.Get(r)
	if sessionID == "" {
		http.Error(w, `{"error": "Not authenticated"}`, http.StatusUnauthorized)
		return
	}
	tokenString, err := t.IssueForSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, `{"error": "Not authenticated"}`, http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"token":      tokenString,
		"expires_in": int(t.ttl().Seconds()),
	})
}
