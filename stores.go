package miniauth

import "context"

// User is the identity record. Email is the natural key: AddUser overwrites
// the existing row for an email rather than creating a second one.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email"`
	Profile     string `json:"profile,omitempty"` // avatar URL or similar

	// Password holds the PBKDF2 hash, never the plaintext. Empty for
	// OAuth-only accounts.
	Password string `json:"-"`

	GoogleAccessToken string `json:"-"`
}

// Session ties one user to one opaque identifier. UserID is unique: a user
// has at most one session row, and the id is the sole bearer credential.
type Session struct {
	ID     string `json:"id"`
	UserID int64  `json:"user_id"`
}

// UserStore manages user records.
type UserStore interface {
	// AddUser upserts the user keyed on email: if a row exists for
	// u.Email, all provided fields overwrite it (full replace, not a
	// merge); otherwise a new row is inserted. Returns the row id in both
	// branches. Implementations resolve the insert/update choice at the
	// storage layer under a unique email index so concurrent calls for a
	// new email cannot create duplicate rows.
	AddUser(ctx context.Context, u *User) (int64, error)

	// GetUserByID returns the user row, or ErrUserNotFound.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByCredentials returns the user whose email and stored
	// password hash both match, or ErrUserNotFound.
	GetUserByCredentials(ctx context.Context, email, passwordHash string) (*User, error)
}

// SessionStore manages session identifiers.
type SessionStore interface {
	// CreateSession returns the user's session id, inserting a freshly
	// generated random id only when no row exists. The insert-or-return is
	// atomic under the unique user_id constraint, so a second concurrent
	// call observes the same id.
	CreateSession(ctx context.Context, userID int64) (string, error)

	// GetSession resolves a session id, or returns ErrSessionNotFound.
	GetSession(ctx context.Context, sessionID string) (*Session, error)
}
