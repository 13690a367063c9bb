// Package grpc provides server interceptors that authenticate callers from
// request metadata: either a session id resolved through the session store or
// a bearer token minted by the HTTP layer.
package grpc

import (
	"context"
)

// Config holds the metadata keys the interceptor reads.
type Config struct {
	// AuthorizationMDKey carries "Bearer <token>" values.
	AuthorizationMDKey string

	// SessionMDKey carries a raw session id.
	SessionMDKey string
}

// DefaultConfig returns the standard metadata key names.
func DefaultConfig() *Config {
	return &Config{
		AuthorizationMDKey: "authorization",
		SessionMDKey:       "x-session-id",
	}
}

type userIDContextKey struct{}

// ContextWithUserID attaches an authenticated user id to the context.
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDContextKey{}, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDContextKey{}).(int64)
	return userID, ok
}
