package oauth2

import "github.com/jrsteele09/go-oauth2-token-server/internal/utils"

// TokenResponse is the result of a successful grant.
// This is the standard OAuth2 token endpoint response format as defined in RFC 6749 Section 5.1.
type TokenResponse struct {
	// TokenType indicates how to use the access token (always "Bearer").
	TokenType string `json:"token_type"`

	// AccessToken is the opaque token string produced by the storage layer.
	// Usage: Include in Authorization header: "Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// ExpiresIn is the lifetime in seconds of the access token, as reported by the storage layer.
	ExpiresIn int64 `json:"expires_in"`

	// RefreshToken is only present when the underlying grant carries one.
	RefreshToken *string `json:"refresh_token,omitempty"`

	// Scope is only present when the underlying grant carries one.
	Scope *string `json:"scope,omitempty"`
}

// NewTokenResponse builds a Bearer response. Empty refresh token or scope values are omitted.
func NewTokenResponse(accessToken string, expiresIn int64, refreshToken, scope string) *TokenResponse {
	tr := &TokenResponse{
		TokenType:   TokenTypeBearer,
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
	}
	if refreshToken != "" {
		tr.RefreshToken = utils.Ptr(refreshToken)
	}
	if scope != "" {
		tr.Scope = utils.Ptr(scope)
	}
	return tr
}

// GetRefreshToken returns the refresh token or "" when none was issued.
func (tr *TokenResponse) GetRefreshToken() string {
	return utils.Value(tr.RefreshToken)
}

// GetScope returns the granted scope or "" when none was recorded.
func (tr *TokenResponse) GetScope() string {
	return utils.Value(tr.Scope)
}

// HasRefreshToken reports whether the response is the "full" shape carrying a refresh token.
func (tr *TokenResponse) HasRefreshToken() bool {
	return tr.RefreshToken != nil
}
