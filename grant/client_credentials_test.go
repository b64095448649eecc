package grant_test

import (
	"testing"

	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/jrsteele09/go-oauth2-token-server/store/storefake"
	"github.com/stretchr/testify/require"
)

func TestClientCredentials_FullResult(t *testing.T) {
	fake := newFake()
	res, err := handle(t, fake, params(
		oauth2.ParamClientID, storefake.ClientID1,
		oauth2.ParamClientSecret, storefake.ClientSecret1,
	), oauth2.ClientCredentialsGrant)
	require.NoError(t, err)

	require.Equal(t, oauth2.TokenTypeBearer, res.TokenType)
	require.Equal(t, storefake.AccessToken1, res.AccessToken)
	require.Equal(t, storefake.ExpiresIn900, res.ExpiresIn)
	require.True(t, res.HasRefreshToken())
	require.Equal(t, storefake.RefreshToken1, res.GetRefreshToken())
	require.Equal(t, storefake.Scope1, res.GetScope())

	require.Equal(t, []string{
		"ValidateClient", "GetClientUserID", "CreateOrUpdateAuthInfo", "CreateOrUpdateAccessToken",
	}, fake.Calls())
}

func TestClientCredentials_SimpleResult(t *testing.T) {
	fake := newFake()
	req := params(oauth2.ParamScope, "read").
		WithHeader(oauth2.HeaderAuthorization, basicAuth(storefake.ClientID2, storefake.ClientSecret2))

	res, err := handle(t, fake, req, oauth2.ClientCredentialsGrant)
	require.NoError(t, err)
	require.False(t, res.HasRefreshToken())
	require.Nil(t, res.RefreshToken)
	require.Equal(t, "read", res.GetScope())
}

func TestClientCredentials_NoScope(t *testing.T) {
	fake := newFake()
	req := params().WithHeader(oauth2.HeaderAuthorization, basicAuth(storefake.ClientID2, storefake.ClientSecret2))

	res, err := handle(t, fake, req, oauth2.ClientCredentialsGrant)
	require.NoError(t, err)
	require.Nil(t, res.Scope)
	require.Nil(t, res.RefreshToken)
}

func TestClientCredentials_Errors(t *testing.T) {
	t.Run("no credentials", func(t *testing.T) {
		fake := newFake()
		_, err := handle(t, fake, params(oauth2.ParamScope, "read"), oauth2.ClientCredentialsGrant)
		requireOAuthError(t, err, oauth2.InvalidRequest)
		require.Zero(t, fake.CallCount())
	})

	t.Run("invalid client", func(t *testing.T) {
		fake := newFake()
		_, err := handle(t, fake, params(
			oauth2.ParamClientID, "unknown",
			oauth2.ParamClientSecret, "secret",
		), oauth2.ClientCredentialsGrant)
		requireOAuthError(t, err, oauth2.InvalidClient)
		require.Equal(t, []string{"ValidateClient"}, fake.Calls())
	})

	t.Run("grant type not allowed for client", func(t *testing.T) {
		fake := newFake()
		fake.Clients["codeOnly"] = storefake.Client{
			Secret:     "s",
			UserID:     storefake.UserID1,
			GrantTypes: []oauth2.GrantType{oauth2.AuthorizationCodeGrant},
		}
		_, err := handle(t, fake, params(
			oauth2.ParamClientID, "codeOnly",
			oauth2.ParamClientSecret, "s",
		), oauth2.ClientCredentialsGrant)
		requireOAuthError(t, err, oauth2.InvalidClient)
	})

	t.Run("client has no user", func(t *testing.T) {
		fake := newFake()
		fake.Clients["noUser"] = storefake.Client{Secret: "s"}
		_, err := handle(t, fake, params(
			oauth2.ParamClientID, "noUser",
			oauth2.ParamClientSecret, "s",
		), oauth2.ClientCredentialsGrant)
		requireOAuthError(t, err, oauth2.InvalidClient)
		require.Equal(t, []string{"ValidateClient", "GetClientUserID"}, fake.Calls())
	})

	t.Run("auth info not found", func(t *testing.T) {
		fake := newFake()
		_, err := handle(t, fake, params(
			oauth2.ParamClientID, storefake.AuthInfoNotFound,
			oauth2.ParamClientSecret, storefake.ClientSecret1,
		), oauth2.ClientCredentialsGrant)
		requireOAuthError(t, err, oauth2.InvalidGrant)
		require.Equal(t, []string{"ValidateClient", "GetClientUserID", "CreateOrUpdateAuthInfo"}, fake.Calls())
	})
}

func TestClientCredentials_ScopeValidation(t *testing.T) {
	newScoped := func() *storefake.ScopedDataHandler {
		return &storefake.ScopedDataHandler{
			DataHandler: newFake(),
			Scopes:      map[string][]string{storefake.ClientID1: {storefake.Scope1}},
		}
	}

	t.Run("permitted", func(t *testing.T) {
		data := newScoped()
		_, err := handle(t, data, params(
			oauth2.ParamClientID, storefake.ClientID1,
			oauth2.ParamClientSecret, storefake.ClientSecret1,
			oauth2.ParamScope, storefake.Scope1,
		), oauth2.ClientCredentialsGrant)
		require.NoError(t, err)
		require.Contains(t, data.Calls(), "ValidateScope")
	})

	t.Run("rejected", func(t *testing.T) {
		data := newScoped()
		_, err := handle(t, data, params(
			oauth2.ParamClientID, storefake.ClientID1,
			oauth2.ParamClientSecret, storefake.ClientSecret1,
			oauth2.ParamScope, "admin",
		), oauth2.ClientCredentialsGrant)
		requireOAuthError(t, err, oauth2.InvalidScope)
		require.Equal(t, []string{"ValidateClient", "GetClientUserID", "ValidateScope"}, data.Calls())
	})
}
