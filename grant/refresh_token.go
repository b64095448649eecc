package grant

import (
	"context"

	"github.com/jrsteele09/go-oauth2-token-server/credentials"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/jrsteele09/go-oauth2-token-server/store"
	"github.com/rs/zerolog"
)

var _ Handler = (*RefreshToken)(nil)

// RefreshToken issues a new access token for an existing grant. The refresh
// token itself is returned unchanged.
type RefreshToken struct {
	base
}

func NewRefreshToken(data store.DataHandler, fetcher credentials.Fetcher, logger zerolog.Logger) *RefreshToken {
	return &RefreshToken{base: newBase(oauth2.RefreshTokenGrant, data, fetcher, logger)}
}

func (h *RefreshToken) HandleRequest(ctx context.Context, req oauth2.Request) (*oauth2.TokenResponse, error) {
	cred, err := h.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}

	refreshToken, err := parameter(req, oauth2.ParamRefreshToken)
	if err != nil {
		return nil, err
	}

	authInfo, err := h.data.GetAuthInfoByRefreshToken(ctx, refreshToken)
	if h.absent(err, "GetAuthInfoByRefreshToken") || authInfo == nil {
		return nil, oauth2.NewError(oauth2.InvalidGrant, "refresh token is invalid")
	}
	if authInfo.ClientID != cred.ClientID {
		return nil, oauth2.NewError(oauth2.InvalidClient, "refresh token was issued to another client")
	}

	return h.issue(ctx, authInfo)
}
