package oauth2

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
// Determines what credentials are required to obtain tokens.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, redirect_uri and client credentials.
	// Returns: access_token, refresh_token (if the grant carries one)
	AuthorizationCodeGrant GrantType = "authorization_code"

	// ClientCredentialsGrant allows machine-to-machine authentication.
	// Token request includes: client credentials, optional scope
	// Example: Microservice calling another microservice
	ClientCredentialsGrant GrantType = "client_credentials"

	// RefreshTokenGrant exchanges a refresh token for a new access token.
	// Token request includes: refresh_token and client credentials
	RefreshTokenGrant GrantType = "refresh_token"

	// PasswordGrant exchanges resource owner credentials for tokens.
	// Token request includes: username, password, optional scope and client credentials
	PasswordGrant GrantType = "password"
)

// GrantTypes lists every grant type the token endpoint understands.
var GrantTypes = []GrantType{
	AuthorizationCodeGrant,
	ClientCredentialsGrant,
	RefreshTokenGrant,
	PasswordGrant,
}

// IsValid returns whether or not this grant type is supported.
func (g GrantType) IsValid() bool {
	switch g {
	case AuthorizationCodeGrant, ClientCredentialsGrant, RefreshTokenGrant, PasswordGrant:
		return true
	}
	return false
}

func (g GrantType) String() string {
	return string(g)
}

// Request parameter and header names read by the token endpoint.
const (
	ParamGrantType    = "grant_type"
	ParamClientID     = "client_id"
	ParamClientSecret = "client_secret"
	ParamCode         = "code"
	ParamRedirectURI  = "redirect_uri"
	ParamRefreshToken = "refresh_token"
	ParamUsername     = "username"
	ParamPassword     = "password"
	ParamScope        = "scope"
	ParamAccessToken  = "access_token"
	ParamOAuthToken   = "oauth_token"

	HeaderAuthorization = "Authorization"
)

// TokenTypeBearer is the only token type issued by this server.
const TokenTypeBearer = "Bearer"
