package gorm

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	ma "github.com/webak/miniauth"
)

// UserStore implements ma.UserStore using GORM.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// AddUser upserts the user keyed on email as a single conditional insert:
// the unique email index resolves the conflict at the storage layer, so two
// concurrent calls for a new email cannot both insert. All mutable columns
// are overwritten on conflict (full replace, not a merge).
func (s *UserStore) AddUser(ctx context.Context, u *ma.User) (int64, error) {
	model := UserToModel(u)
	model.ID = 0
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username", "display_name", "profile", "password", "google_access_token",
		}),
	}).Create(model).Error
	if err != nil {
		return 0, err
	}

	// The conflict path does not report the existing row id on every
	// dialect; read it back by the natural key.
	var row UserModel
	if err := s.db.WithContext(ctx).First(&row, "email = ?", u.Email).Error; err != nil {
		return 0, err
	}
	return row.ID, nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id int64) (*ma.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ma.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToUser(), nil
}

func (s *UserStore) GetUserByCredentials(ctx context.Context, email, passwordHash string) (*ma.User, error) {
	var model UserModel
	err := s.db.WithContext(ctx).
		First(&model, "email = ? AND password = ?", email, passwordHash).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ma.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToUser(), nil
}

// SessionStore implements ma.SessionStore using GORM.
type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

// CreateSession is an atomic insert-or-return under the unique user_id
// constraint: the insert silently loses to an existing row, and the read
// after it returns whichever id won.
func (s *SessionStore) CreateSession(ctx context.Context, userID int64) (string, error) {
	model := &SessionModel{ID: uuid.NewString(), UserID: userID}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(model).Error
	if err != nil {
		return "", err
	}

	var row SessionModel
	if err := s.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error; err != nil {
		return "", err
	}
	return row.ID, nil
}

func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (*ma.Session, error) {
	var model SessionModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ma.ErrSessionNotFound
		}
		return nil, err
	}
	return model.ToSession(), nil
}
