package credentials

import (
	"regexp"
	"strings"

	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
)

var bearerScheme = regexp.MustCompile(`(?i)^\s*(bearer|oauth)\s+(\S+)\s*$`)

// AccessTokenFetcher extracts the bearer token a protected resource request presents.
type AccessTokenFetcher interface {
	Fetch(req oauth2.Request) (string, bool)
}

// BearerTokenFetcher accepts "Bearer <token>" (and the legacy "OAuth <token>") in the
// Authorization header, then the access_token and oauth_token parameters.
type BearerTokenFetcher struct{}

var _ AccessTokenFetcher = BearerTokenFetcher{}

func (BearerTokenFetcher) Fetch(req oauth2.Request) (string, bool) {
	if header, ok := req.Header(oauth2.HeaderAuthorization); ok {
		if match := bearerScheme.FindStringSubmatch(header); match != nil {
			return match[2], true
		}
	}
	for _, name := range []string{oauth2.ParamAccessToken, oauth2.ParamOAuthToken} {
		if token, ok := req.Parameter(name); ok && strings.TrimSpace(token) != "" {
			return token, true
		}
	}
	return "", false
}
