package oauth2_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/stretchr/testify/require"
)

func TestNewTokenResponse(t *testing.T) {
	t.Run("full shape", func(t *testing.T) {
		tr := oauth2.NewTokenResponse("accessToken1", 900, "refreshToken1", "scope1")
		require.Equal(t, "Bearer", tr.TokenType)
		require.True(t, tr.HasRefreshToken())
		require.Equal(t, "refreshToken1", tr.GetRefreshToken())
		require.Equal(t, "scope1", tr.GetScope())

		body, err := json.Marshal(tr)
		require.NoError(t, err)
		require.JSONEq(t, `{
			"token_type": "Bearer",
			"access_token": "accessToken1",
			"expires_in": 900,
			"refresh_token": "refreshToken1",
			"scope": "scope1"
		}`, string(body))
	})

	t.Run("simple shape omits optional fields", func(t *testing.T) {
		tr := oauth2.NewTokenResponse("accessToken1", 3600, "", "")
		require.False(t, tr.HasRefreshToken())
		require.Empty(t, tr.GetScope())

		body, err := json.Marshal(tr)
		require.NoError(t, err)
		require.JSONEq(t, `{"token_type":"Bearer","access_token":"accessToken1","expires_in":3600}`, string(body))
	})
}

func TestGrantType_IsValid(t *testing.T) {
	for _, g := range oauth2.GrantTypes {
		require.True(t, g.IsValid(), g)
	}
	require.False(t, oauth2.GrantType("implicit").IsValid())
	require.False(t, oauth2.GrantType("").IsValid())
}

func TestValues(t *testing.T) {
	req := oauth2.NewValues(map[string]string{"code": "", "scope": "read"}).
		WithHeader("authorization", "Basic abc")

	v, ok := req.Parameter("code")
	require.True(t, ok, "present but empty parameter is still present")
	require.Empty(t, v)

	_, ok = req.Parameter("Code")
	require.False(t, ok, "parameter lookup is case-sensitive")

	_, ok = req.Parameter("redirect_uri")
	require.False(t, ok)

	h, ok := req.Header("Authorization")
	require.True(t, ok)
	require.Equal(t, "Basic abc", h)

	_, ok = oauth2.NewValues(nil).Header("Authorization")
	require.False(t, ok)
}
