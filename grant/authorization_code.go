package grant

import (
	"context"

	"github.com/jrsteele09/go-oauth2-token-server/credentials"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/jrsteele09/go-oauth2-token-server/store"
	"github.com/rs/zerolog"
)

var _ Handler = (*AuthorizationCode)(nil)

// AuthorizationCode redeems a code issued by the authorization endpoint.
type AuthorizationCode struct {
	base
}

func NewAuthorizationCode(data store.DataHandler, fetcher credentials.Fetcher, logger zerolog.Logger) *AuthorizationCode {
	return &AuthorizationCode{base: newBase(oauth2.AuthorizationCodeGrant, data, fetcher, logger)}
}

func (h *AuthorizationCode) HandleRequest(ctx context.Context, req oauth2.Request) (*oauth2.TokenResponse, error) {
	cred, err := h.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}

	code, err := parameter(req, oauth2.ParamCode)
	if err != nil {
		return nil, err
	}
	redirectURI, err := parameter(req, oauth2.ParamRedirectURI)
	if err != nil {
		return nil, err
	}

	authInfo, err := h.data.GetAuthInfoByCode(ctx, code)
	if h.absent(err, "GetAuthInfoByCode") || authInfo == nil {
		return nil, oauth2.NewError(oauth2.InvalidGrant, "authorization code is invalid")
	}
	if authInfo.ClientID != cred.ClientID {
		return nil, oauth2.NewError(oauth2.InvalidClient, "authorization code was issued to another client")
	}
	// A grant without a stored redirect URI can never match a requested one.
	if authInfo.RedirectURI == "" {
		return nil, oauth2.NewError(oauth2.RedirectURIMismatch, "redirect_uri is not registered for the grant")
	}
	if authInfo.RedirectURI != redirectURI {
		return nil, oauth2.NewError(oauth2.RedirectURIMismatch, "redirect_uri does not match")
	}

	return h.issue(ctx, authInfo)
}
