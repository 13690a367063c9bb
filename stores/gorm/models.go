package gorm

import (
	ma "github.com/webak/miniauth"
	"gorm.io/gorm"
)

// UserModel is the GORM model for users. Email carries the unique index the
// upsert resolves conflicts against.
type UserModel struct {
	ID                int64  `gorm:"primaryKey;autoIncrement"`
	Username          string `gorm:"size:255;not null"`
	DisplayName       string `gorm:"size:255"`
	Email             string `gorm:"size:255;not null;uniqueIndex"`
	Profile           string `gorm:"size:1024"`
	Password          string `gorm:"size:255"`
	GoogleAccessToken string `gorm:"size:2048"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *ma.User {
	return &ma.User{
		ID:                m.ID,
		Username:          m.Username,
		DisplayName:       m.DisplayName,
		Email:             m.Email,
		Profile:           m.Profile,
		Password:          m.Password,
		GoogleAccessToken: m.GoogleAccessToken,
	}
}

func UserToModel(u *ma.User) *UserModel {
	return &UserModel{
		ID:                u.ID,
		Username:          u.Username,
		DisplayName:       u.DisplayName,
		Email:             u.Email,
		Profile:           u.Profile,
		Password:          u.Password,
		GoogleAccessToken: u.GoogleAccessToken,
	}
}

// SessionModel is the GORM model for sessions. UserID is unique: at most one
// session row per user.
type SessionModel struct {
	ID     string `gorm:"primaryKey;size:36"`
	UserID int64  `gorm:"not null;uniqueIndex"`
}

func (SessionModel) TableName() string {
	return "sessions"
}

func (m *SessionModel) ToSession() *ma.Session {
	return &ma.Session{ID: m.ID, UserID: m.UserID}
}

// AutoMigrate runs database migrations for the auth tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&SessionModel{},
	)
}
