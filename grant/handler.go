// Package grant implements the token endpoint state machine: one Handler per
// grant type, a Dispatcher selecting between them, and single-shot result
// delivery for asynchronous callers.
package grant

import (
	"context"

	"github.com/jrsteele09/go-oauth2-token-server/credentials"
	ierrors "github.com/jrsteele09/go-oauth2-token-server/internal/errors"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/jrsteele09/go-oauth2-token-server/store"
	"github.com/rs/zerolog"
)

// Handler validates a token request for one grant type and issues a token.
// Every non-nil error returned is an *oauth2.Error.
type Handler interface {
	HandleRequest(ctx context.Context, req oauth2.Request) (*oauth2.TokenResponse, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req oauth2.Request) (*oauth2.TokenResponse, error)

func (f HandlerFunc) HandleRequest(ctx context.Context, req oauth2.Request) (*oauth2.TokenResponse, error) {
	return f(ctx, req)
}

// base holds what every grant variant shares. It is read-only after construction.
type base struct {
	grantType oauth2.GrantType
	data      store.DataHandler
	fetcher   credentials.Fetcher
	logger    zerolog.Logger
}

func newBase(grantType oauth2.GrantType, data store.DataHandler, fetcher credentials.Fetcher, logger zerolog.Logger) base {
	if fetcher == nil {
		fetcher = credentials.NewClientCredentialFetcher()
	}
	return base{
		grantType: grantType,
		data:      data,
		fetcher:   fetcher,
		logger:    logger.With().Str("grant_type", grantType.String()).Logger(),
	}
}

// authenticate fetches the client credential and validates it for the grant type.
func (b *base) authenticate(ctx context.Context, req oauth2.Request) (*credentials.ClientCredential, error) {
	cred, ok := b.fetcher.Fetch(req)
	if !ok {
		return nil, oauth2.NewError(oauth2.InvalidRequest, "client credential not found")
	}
	valid, err := b.data.ValidateClient(ctx, cred.ClientID, cred.ClientSecret, b.grantType)
	if b.absent(err, "ValidateClient") || !valid {
		return nil, oauth2.NewError(oauth2.InvalidClient, "client authentication failed")
	}
	return cred, nil
}

// checkScope consults the optional scope validator of the data handler.
func (b *base) checkScope(ctx context.Context, clientID, scope string) error {
	validator, ok := b.data.(store.ScopeValidator)
	if !ok {
		return nil
	}
	valid, err := validator.ValidateScope(ctx, clientID, scope)
	if b.absent(err, "ValidateScope") || !valid {
		return oauth2.NewErrorf(oauth2.InvalidScope, "scope %q is not permitted for the client", scope)
	}
	return nil
}

// issue creates the access token for a validated grant and shapes the response.
func (b *base) issue(ctx context.Context, authInfo *store.AuthInfo) (*oauth2.TokenResponse, error) {
	accessToken, err := b.data.CreateOrUpdateAccessToken(ctx, authInfo)
	if b.absent(err, "CreateOrUpdateAccessToken") || accessToken == nil || accessToken.Token == "" {
		return nil, oauth2.NewError(oauth2.InvalidGrant, "access token could not be issued")
	}
	return oauth2.NewTokenResponse(accessToken.Token, accessToken.ExpiresIn, authInfo.RefreshToken, authInfo.Scope), nil
}

// absent reports whether a data handler call failed. Lookup misses and
// expired codes are expected; anything else is logged before being treated
// as a miss.
func (b *base) absent(err error, op string) bool {
	if err == nil {
		return false
	}
	if !ierrors.Is(err, store.ErrNotFound) && !ierrors.Is(err, store.ErrExpired) {
		b.logger.Err(err).Str("op", op).Msg("data handler call failed")
	}
	return true
}

func parameter(req oauth2.Request, name string) (string, error) {
	v, ok := req.Parameter(name)
	if !ok {
		return "", oauth2.NewErrorf(oauth2.InvalidRequest, "%s not found", name)
	}
	return v, nil
}
