package grpc

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/inkstone/identity/internal/common"
	"github.com/inkstone/identity/internal/server/auth"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Identity is the authenticated caller attached to the request context by
// the access-token interceptor.
type Identity struct {
	ID          string
	Role        string
	Permissions []string
}

// IdentityFromContext returns the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok
}

// RequirePermission checks that the context identity holds at least one of
// the given permissions.
func RequirePermission(ctx context.Context, permissions ...string) error {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing identity")
	}
	for _, want := range permissions {
		for _, have := range id.Permissions {
			if want == have {
				return nil
			}
		}
	}
	return status.Error(codes.PermissionDenied, "permission denied")
}

// publicMethods are reachable without an access token: the anonymous
// lifecycle operations plus health checks.
var publicMethods = map[string]struct{}{
	"/grpc.health.v1.Health/Check": {},
	"/grpc.health.v1.Health/Watch": {},
	"/identity.IdentityService/Register":              {},
	"/identity.IdentityService/Login":                 {},
	"/identity.IdentityService/RefreshTokens":         {},
	"/identity.IdentityService/RequestPasswordReset":  {},
	"/identity.IdentityService/VerifyResetOtp":        {},
	"/identity.IdentityService/CompletePasswordReset": {},
}

// accessTokenInterceptor is the request authenticator. It extracts the
// bearer token from incoming metadata, verifies it with purpose "access",
// and attaches the identity to the context. Every failure is
// codes.Unauthenticated; the status message is the stable contract clients
// branch on, exactly one of: "missing metadata", "missing authorization
// header", "invalid authorization header format", "token expired" (refresh
// silently), "invalid token" (force re-login).
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if _, ok := publicMethods[info.FullMethod]; ok {
		return handler(ctx, req)
	}

	token, err := bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	claims, err := s.issuer.Verify(token, auth.PurposeAccess)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, "token expired")
		}
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	ctx = context.WithValue(ctx, identityKey, &Identity{
		ID:          claims.UserID,
		Role:        claims.Role,
		Permissions: claims.Permissions,
	})

	return handler(ctx, req)
}

func bearerToken(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing metadata")
	}

	values := md.Get(common.AuthorizationHeaderName)
	if len(values) == 0 {
		return "", status.Error(codes.Unauthenticated, "missing authorization header")
	}

	scheme, token, found := strings.Cut(values[0], " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", status.Error(codes.Unauthenticated, "invalid authorization header format")
	}

	return token, nil
}
