package miniauth_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ma "github.com/webak/miniauth"
)

func newTestOTPChallenge(sender *recordingEmailSender) *ma.OTPChallenge {
	return &ma.OTPChallenge{
		Hasher:         ma.NewHasher("test-salt", ma.MinPBKDF2Iterations),
		Email:          sender,
		CookieInsecure: true,
	}
}

func otpCookieFrom(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == ma.OTPCookieName {
			return cookie
		}
	}
	return nil
}

func issueOTP(t *testing.T, challenge *ma.OTPChallenge, email string) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/otp", strings.NewReader(`{"email": "`+email+`"}`))
	rr := httptest.NewRecorder()
	challenge.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Issue returned %d: %s", rr.Code, rr.Body.String())
	}
	cookie := otpCookieFrom(t, rr)
	if cookie == nil {
		t.Fatal("otp cookie not set")
	}
	return cookie
}

func TestHandleIssue(t *testing.T) {
	sender := &recordingEmailSender{}
	challenge := newTestOTPChallenge(sender)

	req := httptest.NewRequest(http.MethodPost, "/auth/otp", strings.NewReader(`{"email": "otp@example.com"}`))
	rr := httptest.NewRecorder()
	challenge.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Decoding body: %v", err)
	}
	if body["delivered"] != true {
		t.Error("delivered should be true")
	}
	if body["to"] != "otp@example.com" {
		t.Errorf("to = %v", body["to"])
	}

	code := sender.lastCode()
	if len(code) != 6 {
		t.Fatalf("Emailed code %q is not 6 digits", code)
	}

	cookie := otpCookieFrom(t, rr)
	if cookie == nil {
		t.Fatal("otp cookie not set")
	}
	if cookie.Value != challenge.Hasher.Hash(code) {
		t.Error("Cookie does not hold the hash of the emailed code")
	}
	if !cookie.HttpOnly {
		t.Error("otp cookie should be HttpOnly")
	}
}

func TestHandleIssueMissingEmail(t *testing.T) {
	challenge := newTestOTPChallenge(&recordingEmailSender{})

	req := httptest.NewRequest(http.MethodPost, "/auth/otp", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	challenge.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}
}

func TestHandleIssueDeliveryFailure(t *testing.T) {
	sender := &recordingEmailSender{err: errors.New("smtp down")}
	challenge := newTestOTPChallenge(sender)

	req := httptest.NewRequest(http.MethodPost, "/auth/otp", strings.NewReader(`{"email": "otp@example.com"}`))
	rr := httptest.NewRecorder()
	challenge.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Decoding body: %v", err)
	}
	if body["delivered"] != false {
		t.Error("delivered should be false")
	}
}

func TestHandleVerify(t *testing.T) {
	sender := &recordingEmailSender{}
	challenge := newTestOTPChallenge(sender)
	cookie := issueOTP(t, challenge, "verify@example.com")
	code := sender.lastCode()

	tests := []struct {
		name     string
		query    string
		cookie   *http.Cookie
		verified bool
	}{
		{"correct code", "otp=" + code, cookie, true},
		{"wrong code", "otp=000000", cookie, false},
		{"empty code", "", cookie, false},
		{"no cookie", "otp=" + code, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/otp?"+tt.query, nil)
			if tt.cookie != nil {
				req.AddCookie(&http.Cookie{Name: tt.cookie.Name, Value: tt.cookie.Value})
			}
			rr := httptest.NewRecorder()
			challenge.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", rr.Code)
			}
			var body map[string]bool
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("Decoding body: %v", err)
			}
			if body["verified"] != tt.verified {
				t.Errorf("verified = %v, want %v", body["verified"], tt.verified)
			}
		})
	}
}

func TestReissueOverwritesChallenge(t *testing.T) {
	sender := &recordingEmailSender{}
	challenge := newTestOTPChallenge(sender)

	issueOTP(t, challenge, "reissue@example.com")
	firstCode := sender.lastCode()
	second := issueOTP(t, challenge, "reissue@example.com")
	secondCode := sender.lastCode()

	if firstCode == secondCode {
		t.Skip("Generated the same code twice")
	}

	// Only the latest code verifies against the current cookie.
	if challenge.Verify(firstCode, second.Value) {
		t.Error("Stale code should not verify against the new cookie")
	}
	if !challenge.Verify(secondCode, second.Value) {
		t.Error("Fresh code should verify against the new cookie")
	}
}

func TestVerifyEmptyInputs(t *testing.T) {
	challenge := newTestOTPChallenge(&recordingEmailSender{})
	hash := challenge.Hasher.Hash("123456")

	if challenge.Verify("", hash) {
		t.Error("Empty code should never verify")
	}
	if challenge.Verify("123456", "") {
		t.Error("Empty stored hash should never verify")
	}
	if challenge.Verify("", "") {
		t.Error("Both empty should never verify")
	}
}
