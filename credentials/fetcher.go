// Package credentials extracts client credentials and bearer tokens from token
// and resource requests.
package credentials

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"strings"

	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
)

var basicScheme = regexp.MustCompile(`(?i)^\s*basic\s+(.*)$`)

// ClientCredential is the client_id / client_secret pair presented on a request.
type ClientCredential struct {
	ClientID     string
	ClientSecret string
}

// Fetcher extracts client credentials from a request.
type Fetcher interface {
	// Fetch returns false when the request carries no usable credential pair.
	Fetch(req oauth2.Request) (*ClientCredential, bool)
}

// ClientCredentialFetcher reads HTTP Basic credentials from the Authorization header
// and falls back to the client_id and client_secret parameters.
type ClientCredentialFetcher struct{}

var _ Fetcher = ClientCredentialFetcher{}

// NewClientCredentialFetcher returns the default Fetcher.
func NewClientCredentialFetcher() ClientCredentialFetcher {
	return ClientCredentialFetcher{}
}

func (ClientCredentialFetcher) Fetch(req oauth2.Request) (*ClientCredential, bool) {
	if cred, ok := fromBasicHeader(req); ok {
		return cred, true
	}

	clientID, idOK := req.Parameter(oauth2.ParamClientID)
	clientSecret, secretOK := req.Parameter(oauth2.ParamClientSecret)
	if !idOK || !secretOK {
		return nil, false
	}
	return &ClientCredential{ClientID: clientID, ClientSecret: clientSecret}, true
}

// UsedBasicAuth reports whether the request authenticates with the Basic scheme,
// which decides whether an invalid_client response carries a WWW-Authenticate challenge.
func UsedBasicAuth(req oauth2.Request) bool {
	_, ok := fromBasicHeader(req)
	return ok
}

func fromBasicHeader(req oauth2.Request) (*ClientCredential, bool) {
	header, ok := req.Header(oauth2.HeaderAuthorization)
	if !ok {
		return nil, false
	}
	match := basicScheme.FindStringSubmatch(header)
	if match == nil {
		return nil, false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(match[1]))
	if err != nil {
		return nil, false
	}
	idx := strings.Index(string(decoded), ":")
	if idx <= 0 {
		return nil, false
	}
	// Both halves are form-urlencoded before encoding (RFC 6749 section 2.3.1)
	clientID, err := url.QueryUnescape(string(decoded[:idx]))
	if err != nil {
		return nil, false
	}
	clientSecret, err := url.QueryUnescape(string(decoded[idx+1:]))
	if err != nil {
		return nil, false
	}
	return &ClientCredential{ClientID: clientID, ClientSecret: clientSecret}, true
}
