// Package store defines the Data Access Port the grant handlers depend on and
// the records that flow through it. Implementations live in sub packages.
package store

import (
	"context"

	"github.com/jrsteele09/go-oauth2-token-server/clients"
	ierrors "github.com/jrsteele09/go-oauth2-token-server/internal/errors"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/jrsteele09/go-oauth2-token-server/users"
)

// Lookup misses the core expects and does not log.
var (
	// ErrNotFound is returned by implementations for a clean lookup miss.
	ErrNotFound = ierrors.ErrNotFound
	// ErrExpired is returned for an authorization code past its lifetime.
	ErrExpired = ierrors.ErrExpired
)

// DataHandler is the persistence contract of the token core.
//
// Every method may block on I/O. A nil/empty result or any error is treated by
// callers as "absent"; implementations should return ErrNotFound for a clean miss
// so other failures can be told apart in logs. The core never retries a call.
type DataHandler interface {
	// ValidateClient reports whether the client credentials are valid for the grant type.
	ValidateClient(ctx context.Context, clientID, clientSecret string, grantType oauth2.GrantType) (bool, error)

	// GetClientUserID returns the user the client acts as in the client_credentials grant.
	GetClientUserID(ctx context.Context, clientID, clientSecret string) (string, error)

	// GetUserID resolves resource owner credentials to a user ID.
	GetUserID(ctx context.Context, username, password string) (string, error)

	// CreateOrUpdateAuthInfo records a grant for the client/user pair with the given scope.
	CreateOrUpdateAuthInfo(ctx context.Context, clientID, userID, scope string) (*AuthInfo, error)

	GetAuthInfoByCode(ctx context.Context, code string) (*AuthInfo, error)
	GetAuthInfoByRefreshToken(ctx context.Context, refreshToken string) (*AuthInfo, error)
	GetAuthInfoByID(ctx context.Context, id string) (*AuthInfo, error)

	// CreateOrUpdateAccessToken issues an access token bound to the AuthInfo.
	CreateOrUpdateAccessToken(ctx context.Context, authInfo *AuthInfo) (*AccessToken, error)

	GetAccessToken(ctx context.Context, token string) (*AccessToken, error)

	ValidateClientByID(ctx context.Context, clientID string) (bool, error)
	ValidateUserByID(ctx context.Context, userID string) (bool, error)
}

// ScopeValidator is an optional extension of DataHandler. When implemented, grants
// that accept a requested scope check it before recording the grant.
type ScopeValidator interface {
	ValidateScope(ctx context.Context, clientID, scope string) (bool, error)
}

// Registrar is implemented by stores that can be seeded with clients and users.
type Registrar interface {
	RegisterClient(ctx context.Context, client *clients.Client) error
	RegisterUser(ctx context.Context, user *users.User) error
}

// CodeIssuer is implemented by stores that can mint authorization codes. The
// authorization endpoint itself is outside this module; this is how a front end
// (or a test) hands the token endpoint a code to redeem.
type CodeIssuer interface {
	IssueAuthorizationCode(ctx context.Context, clientID, userID, scope, redirectURI string) (*AuthInfo, error)
}
