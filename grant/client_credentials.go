package grant

import (
	"context"

	"github.com/jrsteele09/go-oauth2-token-server/credentials"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/jrsteele09/go-oauth2-token-server/store"
	"github.com/rs/zerolog"
)

var _ Handler = (*ClientCredentials)(nil)

// ClientCredentials issues a token to a client acting for its configured user.
type ClientCredentials struct {
	base
}

func NewClientCredentials(data store.DataHandler, fetcher credentials.Fetcher, logger zerolog.Logger) *ClientCredentials {
	return &ClientCredentials{base: newBase(oauth2.ClientCredentialsGrant, data, fetcher, logger)}
}

func (h *ClientCredentials) HandleRequest(ctx context.Context, req oauth2.Request) (*oauth2.TokenResponse, error) {
	cred, err := h.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}

	userID, err := h.data.GetClientUserID(ctx, cred.ClientID, cred.ClientSecret)
	if h.absent(err, "GetClientUserID") || userID == "" {
		return nil, oauth2.NewError(oauth2.InvalidClient, "client has no associated user")
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
