package grant_test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth2-token-server/grant"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/jrsteele09/go-oauth2-token-server/store"
	"github.com/jrsteele09/go-oauth2-token-server/store/storefake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newFake() *storefake.DataHandler {
	return storefake.NewFixture(testNow)
}

func newDispatcher(data store.DataHandler) *grant.Dispatcher {
	return grant.NewDispatcher(data, grant.WithLogger(zerolog.Nop()))
}

// params builds a request from alternating name/value pairs.
func params(kv ...string) oauth2.Values {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return oauth2.NewValues(m)
}

func basicAuth(id, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(id+":"+secret))
}

func requireOAuthError(t *testing.T, err error, kind oauth2.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	var oauthErr *oauth2.Error
	require.ErrorAs(t, err, &oauthErr)
	require.Equal(t, kind, oauthErr.Kind, "got %v", err)
}

func handle(t *testing.T, data store.DataHandler, req oauth2.Request, grantType oauth2.GrantType) (*oauth2.TokenResponse, error) {
	t.Helper()
	return newDispatcher(data).HandleTokenRequest(context.Background(), req, grantType)
}
