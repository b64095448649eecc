package resource_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/jrsteele09/go-oauth2-token-server/resource"
	"github.com/jrsteele09/go-oauth2-token-server/store/storefake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newValidator(fake *storefake.DataHandler) *resource.Validator {
	return resource.NewValidator(fake,
		resource.WithLogger(zerolog.Nop()),
		resource.WithNowFunc(func() time.Time { return now }),
	)
}

func bearer(token string) oauth2.Values {
	return oauth2.NewValues(nil).WithHeader(oauth2.HeaderAuthorization, "Bearer "+token)
}

func TestValidator_Success(t *testing.T) {
	fake := storefake.NewFixture(now)
	g, err := newValidator(fake).Validate(context.Background(), bearer(storefake.AccessToken1))
	require.NoError(t, err)

	require.Equal(t, storefake.AccessToken1, g.AccessToken)
	require.Equal(t, storefake.ClientID1, g.ClientID)
	require.Equal(t, storefake.UserID1, g.UserID)
	require.Equal(t, storefake.Scope1, g.Scope)
	require.True(t, g.ExpiresAt.Equal(now.Add(time.Hour)))
	require.Equal(t, []string{"GetAccessToken", "GetAuthInfoByID", "ValidateClientByID", "ValidateUserByID"}, fake.Calls())
}

func TestValidator_TokenFromParameter(t *testing.T) {
	fake := storefake.NewFixture(now)
	req := oauth2.NewValues(map[string]string{oauth2.ParamAccessToken: storefake.AccessToken1})
	_, err := newValidator(fake).Validate(context.Background(), req)
	require.NoError(t, err)
}

func TestValidator_Errors(t *testing.T) {
	tests := []struct {
		name      string
		req       oauth2.Values
		kind      oauth2.ErrorKind
		wantCalls []string
	}{
		{
			name:      "no token",
			req:       oauth2.NewValues(nil),
			kind:      oauth2.InvalidRequest,
			wantCalls: nil,
		},
		{
			name:      "unknown token",
			req:       bearer("unknown"),
			kind:      oauth2.AccessDenied,
			wantCalls: []string{"GetAccessToken"},
		},
		{
			name:      "expired token",
			req:       bearer(storefake.ExpiredToken),
			kind:      oauth2.AccessDenied,
			wantCalls: []string{"GetAccessToken"},
		},
		{
			name:      "grant missing",
			req:       bearer(storefake.OrphanToken),
			kind:      oauth2.InvalidGrant,
			wantCalls: []string{"GetAccessToken", "GetAuthInfoByID"},
		},
		{
			name:      "client disabled",
			req:       bearer(storefake.DisabledClientToken),
			kind:      oauth2.InvalidClient,
			wantCalls: []string{"GetAccessToken", "GetAuthInfoByID", "ValidateClientByID"},
		},
		{
			name:      "user blocked",
			req:       bearer(storefake.BlockedUserToken),
			kind:      oauth2.InvalidGrant,
			wantCalls: []string{"GetAccessToken", "GetAuthInfoByID", "ValidateClientByID", "ValidateUserByID"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := storefake.NewFixture(now)
			g, err := newValidator(fake).Validate(context.Background(), tt.req)
			require.Nil(t, g)
			var oauthErr *oauth2.Error
			require.ErrorAs(t, err, &oauthErr)
			require.Equal(t, tt.kind, oauthErr.Kind)
			require.Equal(t, tt.wantCalls, fake.Calls())
		})
	}
}

func TestValidator_DataHandlerError(t *testing.T) {
	fake := storefake.NewFixture(now)
	fake.Errors = map[string]error{"GetAccessToken": errors.New("connection refused")}
	_, err := newValidator(fake).Validate(context.Background(), bearer(storefake.AccessToken1))
	require.ErrorIs(t, err, oauth2.ErrAccessDenied)
}

func TestValidator_ExpiresAtBoundary(t *testing.T) {
	fake := storefake.NewFixture(now)
	v := resource.NewValidator(fake,
		resource.WithLogger(zerolog.Nop()),
		resource.WithNowFunc(func() time.Time { return now.Add(time.Hour) }),
	)
	_, err := v.Validate(context.Background(), bearer(storefake.AccessToken1))
	require.NoError(t, err, "a token is valid up to and including its expiry instant")

	v = resource.NewValidator(fake,
		resource.WithLogger(zerolog.Nop()),
		resource.WithNowFunc(func() time.Time { return now.Add(time.Hour + time.Second) }),
	)
	_, err = v.Validate(context.Background(), bearer(storefake.AccessToken1))
	require.ErrorIs(t, err, oauth2.ErrAccessDenied)
}
