package gorm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	ma "github.com/webak/miniauth"
	magorm "github.com/webak/miniauth/stores/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Opening database: %v", err)
	}
	if err := magorm.AutoMigrate(db); err != nil {
		t.Fatalf("Migrating: %v", err)
	}
	return db
}

func TestAddUserInsert(t *testing.T) {
	store := magorm.NewUserStore(newTestDB(t))
	ctx := context.Background()

	id, err := store.AddUser(ctx, &ma.User{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "hash-1",
	})
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if id == 0 {
		t.Fatal("AddUser returned zero id")
	}

	user, err := store.GetUserByID(ctx, id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if user.Username != "alice" || user.Email != "alice@example.com" {
		t.Errorf("Stored user = %+v", user)
	}
}

func TestAddUserUpsertKeepsID(t *testing.T) {
	store := magorm.NewUserStore(newTestDB(t))
	ctx := context.Background()

	firstID, err := store.AddUser(ctx, &ma.User{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "hash-1",
	})
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	secondID, err := store.AddUser(ctx, &ma.User{
		Username:          "alice2",
		DisplayName:       "Alice A.",
		Email:             "alice@example.com",
		Password:          "hash-2",
		GoogleAccessToken: "tok",
	})
	if err != nil {
		t.Fatalf("AddUser upsert: %v", err)
	}
	if secondID != firstID {
		t.Errorf("Upsert returned id %d, want existing id %d", secondID, firstID)
	}

	user, err := store.GetUserByID(ctx, firstID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if user.Username != "alice2" || user.Password != "hash-2" {
		t.Errorf("Columns not overwritten: %+v", user)
	}
	if user.DisplayName != "Alice A." || user.GoogleAccessToken != "tok" {
		t.Errorf("Columns not overwritten: %+v", user)
	}
}

func TestGetUserByCredentials(t *testing.T) {
	store := magorm.NewUserStore(newTestDB(t))
	ctx := context.Background()

	id, err := store.AddUser(ctx, &ma.User{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "hash-bob",
	})
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	user, err := store.GetUserByCredentials(ctx, "bob@example.com", "hash-bob")
	if err != nil {
		t.Fatalf("GetUserByCredentials: %v", err)
	}
	if user.ID != id {
		t.Errorf("ID = %d, want %d", user.ID, id)
	}

	if _, err := store.GetUserByCredentials(ctx, "bob@example.com", "wrong-hash"); !errors.Is(err, ma.ErrUserNotFound) {
		t.Errorf("Wrong hash: expected ErrUserNotFound, got %v", err)
	}
	if _, err := store.GetUserByCredentials(ctx, "nobody@example.com", "hash-bob"); !errors.Is(err, ma.ErrUserNotFound) {
		t.Errorf("Unknown email: expected ErrUserNotFound, got %v", err)
	}
}

func TestGetUserByIDNotFound(t *testing.T) {
	store := magorm.NewUserStore(newTestDB(t))
	if _, err := store.GetUserByID(context.Background(), 12345); !errors.Is(err, ma.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestCreateSessionReusesRow(t *testing.T) {
	db := newTestDB(t)
	users := magorm.NewUserStore(db)
	sessions := magorm.NewSessionStore(db)
	ctx := context.Background()

	userID, err := users.AddUser(ctx, &ma.User{Username: "carol", Email: "carol@example.com"})
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	first, err := sessions.CreateSession(ctx, userID)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if first == "" {
		t.Fatal("CreateSession returned empty id")
	}

	second, err := sessions.CreateSession(ctx, userID)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if second != first {
		t.Errorf("Second CreateSession returned %q, want the existing %q", second, first)
	}

	session, err := sessions.GetSession(ctx, first)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session.UserID != userID {
		t.Errorf("Session user = %d, want %d", session.UserID, userID)
	}
}

func TestSessionsIndependentPerUser(t *testing.T) {
	db := newTestDB(t)
	users := magorm.NewUserStore(db)
	sessions := magorm.NewSessionStore(db)
	ctx := context.Background()

	aliceID, err := users.AddUser(ctx, &ma.User{Username: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	bobID, err := users.AddUser(ctx, &ma.User{Username: "bob", Email: "bob@example.com"})
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	aliceSession, err := sessions.CreateSession(ctx, aliceID)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	bobSession, err := sessions.CreateSession(ctx, bobID)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if aliceSession == bobSession {
		t.Error("Different users should get different sessions")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	sessions := magorm.NewSessionStore(newTestDB(t))
	if _, err := sessions.GetSession(context.Background(), "never-issued"); !errors.Is(err, ma.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}
