package redis_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	ma "github.com/webak/miniauth"
	maredis "github.com/webak/miniauth/stores/redis"
)

func newTestStore(t *testing.T) (*maredis.SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return maredis.NewSessionStore(client), mr
}

func TestCreateAndGetSession(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sessionID, err := store.CreateSession(ctx, 42)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sessionID == "" {
		t.Fatal("CreateSession returned empty id")
	}

	session, err := store.GetSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session.UserID != 42 {
		t.Errorf("UserID = %d, want 42", session.UserID)
	}
	if session.ID != sessionID {
		t.Errorf("ID = %q, want %q", session.ID, sessionID)
	}
}

func TestCreateSessionReusesExisting(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first, err := store.CreateSession(ctx, 42)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	second, err := store.CreateSession(ctx, 42)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if second != first {
		t.Errorf("Second CreateSession returned %q, want %q", second, first)
	}
}

func TestSessionsIndependentPerUser(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	a, err := store.CreateSession(ctx, 1)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	b, err := store.CreateSession(ctx, 2)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if a == b {
		t.Error("Different users should get different sessions")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := store.GetSession(context.Background(), "never-issued"); !errors.Is(err, ma.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestGetSessionCorruptRecord(t *testing.T) {
	store, mr := newTestStore(t)

	mr.Set("miniauth:sess:corrupt", "not-a-number")
	if _, err := store.GetSession(context.Background(), "corrupt"); err == nil {
		t.Error("Expected error for corrupt record")
	}
}
