package miniauth

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"time"
)

// OTPCookieName is the cookie slot holding the hash of the outstanding code.
// One slot per client: issuing a new challenge overwrites the previous one.
const OTPCookieName = "otp"

// DefaultOTPTTL bounds how long an issued code stays verifiable.
const DefaultOTPTTL = 10 * time.Minute

// otpMin/otpMax delimit the code range. The upper bound is exclusive, so
// 999999 itself is never generated. That mirrors the historical generator;
// widening the range needs requirements confirmation first.
const (
	otpMin = 100000
	otpMax = 999999
)

// GenerateOTP returns a uniformly random numeric code in [100000, 999999).
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}

// OTPChallenge issues and verifies email one-time passcodes. The plaintext
// code travels out-of-band by email; the server keeps only a keyed hash of
// it, in a short-lived cookie on the client.
type OTPChallenge struct {
	Hasher *Hasher
	Email  EmailSender

	// CookieTTL defaults to DefaultOTPTTL.
	CookieTTL time.Duration

	// CookieInsecure drops the Secure flag for local development.
	CookieInsecure bool

	Logger *slog.Logger
}

func (c *OTPChallenge) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *OTPChallenge) ttl() time.Duration {
	if c.CookieTTL > 0 {
		return c.CookieTTL
	}
	return DefaultOTPTTL
}

func (c *OTPChallenge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		c.HandleVerify(w, r)
	case http.MethodPost:
		c.HandleIssue(w, r)
	default:
		http.Error(w, `{"error": "Method not allowed"}`, http.StatusMethodNotAllowed)
	}
}

// Verify reports whether the submitted code hashes to storedHash. False for
// an empty submission or an empty stored hash.
func (c *OTPChallenge) Verify(code, storedHash string) bool {
	if code == "" || storedHash == "" {
		return false
	}
	return c.Hasher.Hash(code) == storedHash
}

// HandleVerify implements GET /auth/otp?otp=<code>: compares the submission
// against the hash in the otp cookie and answers {"verified": bool}.
func (c *OTPChallenge) HandleVerify(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("otp")
	storedHash := ""
	if cookie, err := r.Cookie(OTPCookieName); err == nil {
		storedHash = cookie.Value
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"verified": c.Verify(code, storedHash)})
}

// HandleIssue implements POST /auth/otp: generates a fresh code, stores its
// hash in the otp cookie, emails the plaintext code, and answers with a
// delivery-status payload. The otp field of the request body is historical
// and ignored.
func (c *OTPChallenge) HandleIssue(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		writeAuthError(w, http.StatusBadRequest, NewAuthError(ErrCodeMissingField, "Email is required", "email"))
		return
	}

	code, err := GenerateOTP()
	if err != nil {
		c.logger().Error("otp generation failed", "err", err)
		http.Error(w, `{"error": "Failed to generate code"}`, http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     OTPCookieName,
		Value:    c.Hasher.Hash(code),
		Path:     "/",
		MaxAge:   int(c.ttl().Seconds()),
		Expires:  time.Now().Add(c.ttl()),
		Secure:   !c.CookieInsecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	delivered := true
	status := http.StatusOK
	if err := c.Email.SendOTPEmail(body.Email, code); err != nil {
		c.logger().Error("otp email send failed", "to", body.Email, "err", err)
		delivered = false
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"delivered": delivered, "to": body.Email})
}
