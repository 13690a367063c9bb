// Package redis provides a Redis-backed SessionStore for deployments that
// keep session lookups off the relational database. The user store stays
// relational; only the session id mapping lives here.
package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	ma "github.com/webak/miniauth"
)

const defaultKeyPrefix = "miniauth"

// SessionStore implements ma.SessionStore on a Redis client. Two keys per
// session: prefix:sess:<id> -> user id, and prefix:user:<user id> -> id as
// the reverse index backing the one-session-per-user reuse.
type SessionStore struct {
	client *redis.Client
	prefix string
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client, prefix: defaultKeyPrefix}
}

func (s *SessionStore) sessionKey(sessionID string) string {
	return s.prefix + ":sess:" + sessionID
}

func (s *SessionStore) userKey(userID int64) string {
	return s.prefix + ":user:" + strconv.FormatInt(userID, 10)
}

// CreateSession claims the user's reverse-index slot with SETNX; the loser
// of a race reads back whichever session id won. Sessions have no TTL,
// matching the never-expired lifecycle of the relational rows.
func (s *SessionStore) CreateSession(ctx context.Context, userID int64) (string, error) {
	sessionID := uuid.NewString()

	claimed, err := s.client.SetNX(ctx, s.userKey(userID), sessionID, 0).Result()
	if err != nil {
		return "", fmt.Errorf("session claim: %w", err)
	}
	if !claimed {
		existing, err := s.client.Get(ctx, s.userKey(userID)).Result()
		if err != nil {
			return "", fmt.Errorf("session lookup: %w", err)
		}
		return existing, nil
	}

	if err := s.client.Set(ctx, s.sessionKey(sessionID), userID, 0).Err(); err != nil {
		return "", fmt.Errorf("session store: %w", err)
	}
	return sessionID, nil
}

func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (*ma.Session, error) {
	value, err := s.client.Get(ctx, s.sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, ma.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session record %q: %w", sessionID, err)
	}
	return &ma.Session{ID: sessionID, UserID: userID}, nil
}
