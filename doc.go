// Package miniauth provides the authentication core for small web
// applications: password login, email one-time-passcode (OTP) verification,
// Google OAuth sign-in, and session issuance backed by a relational user
// table.
//
// # Architecture
//
// User: the identity record, keyed by a store-assigned numeric id. Email is
// the natural upsert key; the same row is overwritten on repeat signup or
// OAuth sign-in events.
//
// Session: an opaque, unguessable identifier tying a client to one user. A
// user holds at most one session row; asking for a new session returns the
// existing id.
//
// OTP challenges and OAuth transient state (CSRF state token, PKCE code
// verifier) are never persisted server-side. They travel as short-lived
// cookies, with the OTP cookie holding only a keyed hash of the code.
//
// # Basic Usage
//
// Wire a store backend and build an Authenticator:
//
//	import (
//	    "github.com/webak/miniauth"
//	    gormstores "github.com/webak/miniauth/stores/gorm"
//	)
//
//	users := gormstores.NewUserStore(db)
//	sessions := gormstores.NewSessionStore(db)
//	hasher := miniauth.NewHasher(cfg.Salt, cfg.PBKDF2Iterations)
//	auth := &miniauth.Authenticator{Hasher: hasher, Users: users, Sessions: sessions}
//
// Mount the HTTP handlers:
//
//	local := &miniauth.LocalAuth{Auth: auth, SuccessURL: "/dashboard"}
//	otp := &miniauth.OTPChallenge{Hasher: hasher, Email: sender}
//	signup := &miniauth.Signup{Hasher: hasher, Users: users}
//
// See cmd/miniauthd for a complete host application.
package miniauth
