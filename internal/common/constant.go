package common

// AuthorizationHeaderName is the gRPC/HTTP metadata key that carries the
// bearer access token on inbound requests.
const AuthorizationHeaderName = "authorization"

// Role names seeded by the migrations. Every identity holds exactly one
// of these at a time.
const (
	RoleUser   = "user"
	RoleAuthor = "author"
)
