package grant

import (
	"context"

	"github.com/jrsteele09/go-oauth2-token-server/credentials"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/jrsteele09/go-oauth2-token-server/store"
	"github.com/rs/zerolog"
)

var _ Handler = (*Password)(nil)

// Password exchanges resource owner credentials for a token.
type Password struct {
	base
}

func NewPassword(data store.DataHandler, fetcher credentials.Fetcher, logger zerolog.Logger) *Password {
	return &Password{base: newBase(oauth2.PasswordGrant, data, fetcher, logger)}
}

func (h *Password) HandleRequest(ctx context.Context, req oauth2.Request) (*oauth2.TokenResponse, error) {
	cred, err := h.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}

	username, err := parameter(req, oauth2.ParamUsername)
	if err != nil {
		return nil, err
	}
	password, err := parameter(req, oauth2.ParamPassword)
	if err != nil {
		return nil, err
	}

	userID, err := h.data.GetUserID(ctx, username, password)
	if h.absent(err, "GetUserID") || userID == "" {
		return nil, oauth2.NewError(oauth2.InvalidGrant, "resource owner credentials are invalid")
	}

	scope, _ := req.Parameter(oauth2.ParamScope)
	if err := h.checkScope(ctx, cred.ClientID, scope); err != nil {
		return nil, err
	}

	authInfo, err := h.data.CreateOrUpdateAuthInfo(ctx, cred.ClientID, userID, scope)
	if h.absent(err, "CreateOrUpdateAuthInfo") || authInfo == nil {
		return nil, oauth2.NewError(oauth2.InvalidGrant, "authorization could not be recorded")
	}

	return h.issue(ctx, authInfo)
}
