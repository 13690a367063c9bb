package gae

import (
	"context"
	"fmt"

	"cloud.google.com/go/datastore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	ma "github.com/webak/miniauth"
)

// Kind constants for Datastore entities
const (
	KindUser    = "User"
	KindSession = "Session"
)

// UserEntity is the Datastore representation of a user.
type UserEntity struct {
	Key               *datastore.Key `datastore:"__key__"`
	Username          string         `datastore:"username"`
	DisplayName       string         `datastore:"display_name,noindex"`
	Email             string         `datastore:"email"`
	Profile           string         `datastore:"profile,noindex"`
	Password          string         `datastore:"password,noindex"`
	GoogleAccessToken string         `datastore:"google_access_token,noindex"`
}

func (e *UserEntity) ToUser() *ma.User {
	u := &ma.User{
		Username:          e.Username,
		DisplayName:       e.DisplayName,
		Email:             e.Email,
		Profile:           e.Profile,
		Password:          e.Password,
		GoogleAccessToken: e.GoogleAccessToken,
	}
	if e.Key != nil {
		u.ID = e.Key.ID
	}
	return u
}

func userToEntity(u *ma.User) *UserEntity {
	return &UserEntity{
		Username:          u.Username,
		DisplayName:       u.DisplayName,
		Email:             u.Email,
		Profile:           u.Profile,
		Password:          u.Password,
		GoogleAccessToken: u.GoogleAccessToken,
	}
}

// SessionEntity is the Datastore representation of a session. The entity key
// name is the session id.
type SessionEntity struct {
	Key    *datastore.Key `datastore:"__key__"`
	UserID int64          `datastore:"user_id"`
}

// NewStores creates both stores on a shared Datastore client.
func NewStores(ctx context.Context, projectID string, opts ...option.ClientOption) (*UserStore, *SessionStore, error) {
	client, err := datastore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("datastore client: %w", err)
	}
	return &UserStore{client: client}, &SessionStore{client: client}, nil
}

// UserStore implements ma.UserStore using Google Cloud Datastore.
type UserStore struct {
	client *datastore.Client
}

func NewUserStore(client *datastore.Client) *UserStore {
	return &UserStore{client: client}
}

func (s *UserStore) findKeyByEmail(ctx context.Context, email string) (*datastore.Key, error) {
	query := datastore.NewQuery(KindUser).
		FilterField("email", "=", email).
		KeysOnly().
		Limit(1)
	it := s.client.Run(ctx, query)
	key, err := it.Next(nil)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return key, nil
}

// AddUser overwrites the row matching the email, or inserts a fresh entity
// with an allocated numeric id.
func (s *UserStore) AddUser(ctx context.Context, u *ma.User) (int64, error) {
	key, err := s.findKeyByEmail(ctx, u.Email)
	if err != nil {
		return 0, err
	}
	if key == nil {
		key = datastore.IncompleteKey(KindUser, nil)
	}
	newKey, err := s.client.Put(ctx, key, userToEntity(u))
	if err != nil {
		return 0, err
	}
	return newKey.ID, nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id int64) (*ma.User, error) {
	var entity UserEntity
	err := s.client.Get(ctx, datastore.IDKey(KindUser, id, nil), &entity)
	if err == datastore.ErrNoSuchEntity {
		return nil, ma.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return entity.ToUser(), nil
}

func (s *UserStore) GetUserByCredentials(ctx context.Context, email, passwordHash string) (*ma.User, error) {
	// Password is noindex; filter on email and compare the hash in memory.
	query := datastore.NewQuery(KindUser).
		FilterField("email", "=", email).
		Limit(1)
	it := s.client.Run(ctx, query)

	var entity UserEntity
	_, err := it.Next(&entity)
	if err == iterator.Done {
		return nil, ma.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if entity.Password == "" || entity.Password != passwordHash {
		return nil, ma.ErrUserNotFound
	}
	return entity.ToUser(), nil
}

// SessionStore implements ma.SessionStore using Google Cloud Datastore.
type SessionStore struct {
	client *datastore.Client
}

func NewSessionStore(client *datastore.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) CreateSession(ctx context.Context, userID int64) (string, error) {
	query := datastore.NewQuery(KindSession).
		FilterField("user_id", "=", userID).
		KeysOnly().
		Limit(1)
	it := s.client.Run(ctx, query)
	key, err := it.Next(nil)
	if err == nil {
		return key.Name, nil
	}
	if err != iterator.Done {
		return "", err
	}

	sessionID := uuid.NewString()
	entity := &SessionEntity{UserID: userID}
	if _, err := s.client.Put(ctx, datastore.NameKey(KindSession, sessionID, nil), entity); err != nil {
		return "", err
	}
	return sessionID, nil
}

func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (*ma.Session, error) {
	var entity SessionEntity
	err := s.client.Get(ctx, datastore.NameKey(KindSession, sessionID, nil), &entity)
	if err == datastore.ErrNoSuchEntity {
		return nil, ma.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ma.Session{ID: sessionID, UserID: entity.UserID}, nil
}
