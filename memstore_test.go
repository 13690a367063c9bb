package miniauth_test

import (
	"context"
	"fmt"
	"sync"

	ma "github.com/webak/miniauth"
)

// memUserStore is an in-memory UserStore for tests.
type memUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*ma.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[int64]*ma.User)}
}

func (s *memUserStore) AddUser(ctx context.Context, u *ma.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.users {
		if existing.Email == u.Email {
			copied := *u
			copied.ID = id
			s.users[id] = &copied
			return id, nil
		}
	}
	s.nextID++
	copied := *u
	copied.ID = s.nextID
	s.users[s.nextID] = &copied
	return s.nextID, nil
}

func (s *memUserStore) GetUserByID(ctx context.Context, id int64) (*ma.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ma.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memUserStore) GetUserByCredentials(ctx context.Context, email, passwordHash string) (*ma.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email && user.Password != "" && user.Password == passwordHash {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ma.ErrUserNotFound
}

// memSessionStore is an in-memory SessionStore for tests.
type memSessionStore struct {
	mu     sync.Mutex
	nextID int
	byUser map[int64]string
	byID   map[string]int64
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{byUser: make(map[int64]string), byID: make(map[string]int64)}
}

func (s *memSessionStore) CreateSession(ctx context.Context, userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byUser[userID]; ok {
		return id, nil
	}
	s.nextID++
	id := fmt.Sprintf("session-%d", s.nextID)
	s.byUser[userID] = id
	s.byID[id] = userID
	return id, nil
}

func (s *memSessionStore) GetSession(ctx context.Context, sessionID string) (*ma.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.byID[sessionID]
	if !ok {
		return nil, ma.ErrSessionNotFound
	}
	return &ma.Session{ID: sessionID, UserID: userID}, nil
}

// recordingEmailSender captures sent codes for assertions.
type recordingEmailSender struct {
	mu    sync.Mutex
	to    []string
	codes []string
	err   error
}

func (s *recordingEmailSender) SendOTPEmail(to string, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.to = append(s.to, to)
	s.codes = append(s.codes, code)
	return nil
}

func (s *recordingEmailSender) lastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		return ""
	}
	return s.codes[len(s.codes)-1]
}
