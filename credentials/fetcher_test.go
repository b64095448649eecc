package credentials_test

import (
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/jrsteele09/go-oauth2-token-server/credentials"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/stretchr/testify/require"
)

func basic(id, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(id+":"+secret))
}

func TestClientCredentialFetcher_Fetch(t *testing.T) {
	fetcher := credentials.NewClientCredentialFetcher()

	tests := []struct {
		name       string
		req        oauth2.Request
		wantOK     bool
		wantID     string
		wantSecret string
	}{
		{
			name:       "basic header",
			req:        oauth2.NewValues(nil).WithHeader("Authorization", basic("clientId1", "clientSecret1")),
			wantOK:     true,
			wantID:     "clientId1",
			wantSecret: "clientSecret1",
		},
		{
			name:       "basic scheme is case insensitive",
			req:        oauth2.NewValues(nil).WithHeader("Authorization", "  basic "+base64.StdEncoding.EncodeToString([]byte("a:b"))),
			wantOK:     true,
			wantID:     "a",
			wantSecret: "b",
		},
		{
			name:       "secret keeps everything after the first colon",
			req:        oauth2.NewValues(nil).WithHeader("Authorization", basic("clientId1", "se:cr:et")),
			wantOK:     true,
			wantID:     "clientId1",
			wantSecret: "se:cr:et",
		},
		{
			name:       "empty secret in header is still a pair",
			req:        oauth2.NewValues(nil).WithHeader("Authorization", basic("clientId1", "")),
			wantOK:     true,
			wantID:     "clientId1",
			wantSecret: "",
		},
		{
			name:       "basic credentials are form-urlencoding decoded",
			req:        oauth2.NewValues(nil).WithHeader("Authorization", basic(url.QueryEscape("client:1"), url.QueryEscape("s+e%c/r et"))),
			wantOK:     true,
			wantID:     "client:1",
			wantSecret: "s+e%c/r et",
		},
		{
			name: "malformed escape in basic header falls back to parameters",
			req: oauth2.NewValues(map[string]string{
				"client_id":     "clientId1",
				"client_secret": "clientSecret1",
			}).WithHeader("Authorization", basic("clientId1", "bad%zz")),
			wantOK:     true,
			wantID:     "clientId1",
			wantSecret: "clientSecret1",
		},
		{
			name: "header takes precedence over parameters",
			req: oauth2.NewValues(map[string]string{
				"client_id":     "paramId",
				"client_secret": "paramSecret",
			}).WithHeader("Authorization", basic("headerId", "headerSecret")),
			wantOK:     true,
			wantID:     "headerId",
			wantSecret: "headerSecret",
		},
		{
			name: "parameters",
			req: oauth2.NewValues(map[string]string{
				"client_id":     "clientId1",
				"client_secret": "clientSecret1",
			}),
			wantOK:     true,
			wantID:     "clientId1",
			wantSecret: "clientSecret1",
		},
		{
			name: "undecodable basic header falls back to parameters",
			req: oauth2.NewValues(map[string]string{
				"client_id":     "clientId1",
				"client_secret": "clientSecret1",
			}).WithHeader("Authorization", "Basic client1:null"),
			wantOK:     true,
			wantID:     "clientId1",
			wantSecret: "clientSecret1",
		},
		{
			name:   "basic header without colon and no parameters",
			req:    oauth2.NewValues(nil).WithHeader("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("nocolon"))),
			wantOK: false,
		},
		{
			name:   "basic header with empty client id",
			req:    oauth2.NewValues(nil).WithHeader("Authorization", basic("", "secret")),
			wantOK: false,
		},
		{
			name:   "bearer header is not a client credential",
			req:    oauth2.NewValues(nil).WithHeader("Authorization", "Bearer abc"),
			wantOK: false,
		},
		{
			name:   "client secret parameter missing",
			req:    oauth2.NewValues(map[string]string{"client_id": "clientId1"}),
			wantOK: false,
		},
		{
			name:   "client id parameter missing",
			req:    oauth2.NewValues(map[string]string{"client_secret": "clientSecret1"}),
			wantOK: false,
		},
		{
			name:   "nothing present",
			req:    oauth2.NewValues(nil),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred, ok := fetcher.Fetch(tt.req)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				require.Nil(t, cred)
				return
			}
			require.Equal(t, tt.wantID, cred.ClientID)
			require.Equal(t, tt.wantSecret, cred.ClientSecret)
		})
	}
}

func TestUsedBasicAuth(t *testing.T) {
	require.True(t, credentials.UsedBasicAuth(oauth2.NewValues(nil).WithHeader("Authorization", basic("a", "b"))))
	require.False(t, credentials.UsedBasicAuth(oauth2.NewValues(map[string]string{"client_id": "a", "client_secret": "b"})))
}
