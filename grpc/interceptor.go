package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// SessionResolver maps a session id to its user id. Wire this to
// Authenticator.GetSessionUser.
type SessionResolver func(ctx context.Context, sessionID string) (userID int64, err error)

// TokenVerifier validates a bearer token and returns the user id it names.
// Wire this to TokenIssuer.Verify.
type TokenVerifier func(tokenString string) (userID int64, err error)

// InterceptorConfig configures the auth interceptor behavior.
type InterceptorConfig struct {
	// Config holds the metadata key configuration.
	*Config

	// RequireAuth when true rejects unauthenticated requests.
	// When false, requests proceed but UserIDFromContext returns false.
	RequireAuth bool

	// PublicMethods is a set of method names that don't require auth.
	// Keys are full method names like "/package.Service/Method".
	PublicMethods map[string]bool

	// At least one of ResolveSession / VerifyToken must be set.
	ResolveSession SessionResolver
	VerifyToken    TokenVerifier
}

// DefaultInterceptorConfig returns a config that requires auth for all methods.
func DefaultInterceptorConfig() *InterceptorConfig {
	return &InterceptorConfig{
		Config:        DefaultConfig(),
		RequireAuth:   true,
		PublicMethods: make(map[string]bool),
	}
}

// NewPublicMethodsConfig creates a config with the specified public methods.
func NewPublicMethodsConfig(publicMethods ...string) *InterceptorConfig {
	config := DefaultInterceptorConfig()
	for _, method := range publicMethods {
		config.PublicMethods[method] = true
	}
	return config
}

// OptionalAuthConfig returns a config that allows unauthenticated requests.
func OptionalAuthConfig() *InterceptorConfig {
	return &InterceptorConfig{
		Config:        DefaultConfig(),
		RequireAuth:   false,
		PublicMethods: make(map[string]bool),
	}
}

// authenticate resolves a user id from the request metadata: the bearer
// token is tried first, then the session id.
func (c *InterceptorConfig) authenticate(ctx context.Context) (int64, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return 0, false
	}

	if c.VerifyToken != nil {
		for _, value := range md.Get(c.AuthorizationMDKey) {
			token, found := strings.CutPrefix(value, "Bearer ")
			if !found {
				continue
			}
			if userID, err := c.VerifyToken(token); err == nil {
				return userID, true
			}
		}
	}

	if c.ResolveSession != nil {
		for _, sessionID := range md.Get(c.SessionMDKey) {
			if sessionID == "" {
				continue
			}
			if userID, err := c.ResolveSession(ctx, sessionID); err == nil {
				return userID, true
			}
		}
	}

	return 0, false
}

// UnaryAuthInterceptor returns a gRPC unary interceptor that authenticates
// requests from metadata and injects the user id into the handler context.
func UnaryAuthInterceptor(config *InterceptorConfig) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		userID, authed := config.authenticate(ctx)
		if authed {
			ctx = ContextWithUserID(ctx, userID)
		} else if config.RequireAuth && !config.PublicMethods[info.FullMethod] {
			return nil, status.Error(codes.Unauthenticated, "authentication required")
		}
		return handler(ctx, req)
	}
}

// StreamAuthInterceptor returns the streaming counterpart of
// UnaryAuthInterceptor.
func StreamAuthInterceptor(config *InterceptorConfig) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		userID, authed := config.authenticate(ss.Context())
		if authed {
			wrapped := &wrappedStream{ServerStream: ss, ctx: ContextWithUserID(ss.Context(), userID)}
			return handler(srv, wrapped)
		}
		if config.RequireAuth && !config.PublicMethods[info.FullMethod] {
			return status.Error(codes.Unauthenticated, "authentication required")
		}
		return handler(srv, ss)
	}
}

type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context { return w.ctx }
