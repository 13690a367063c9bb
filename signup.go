package miniauth

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Signup processes OTP-gated registration: the submitted code must hash to
// the value stored in the otp cookie before the user row is written.
type Signup struct {
	Hasher *Hasher
	Users  UserStore

	Logger *slog.Logger
}

func (s *Signup) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// ServeHTTP implements POST /signup with a JSON body of
// {email, username, otp, password}. An OTP mismatch answers 400; success
// upserts the user with a freshly computed password hash and answers an
// empty 200.
func (s *Signup) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		OTP      string `json:"otp"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAuthError(w, http.StatusBadRequest, NewAuthError(ErrCodeParseError, "Invalid post body", ""))
		return
	}
	if body.Email == "" {
		writeAuthError(w, http.StatusBadRequest, NewAuthError(ErrCodeMissingField, "Email is required", "email"))
		return
	}
	if body.Username == "" {
		writeAuthError(w, http.StatusBadRequest, NewAuthError(ErrCodeMissingField, "Username is required", "username"))
		return
	}
	if body.Password == "" {
		writeAuthError(w, http.StatusBadRequest, NewAuthError(ErrCodeMissingField, "Password is required", "password"))
		return
	}

	storedHash := ""
	if cookie, err := r.Cookie(OTPCookieName); err == nil {
		storedHash = cookie.Value
	}
	if body.OTP == "" || storedHash == "" || s.Hasher.Hash(body.OTP) != storedHash {
		writeAuthError(w, http.StatusBadRequest, NewAuthError(ErrCodeOTPMismatch, "Invalid verification code", "otp"))
		return
	}

	user := &User{
		Email:    body.Email,
		Username: body.Username,
		Password: s.Hasher.PasswordHash(body.Password),
	}
	if _, err := s.Users.AddUser(r.Context(), user); err != nil {
		s.logger().Error("signup upsert failed", "email", body.Email, "err", err)
		http.Error(w, `{"error": "Failed to create user"}`, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
