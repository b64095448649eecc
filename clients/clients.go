package clients

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
)

var (
	ErrInvalidScope  = errors.New("scope not allowed for client")
	ErrMissingID     = errors.New("client id is required")
	ErrMissingSecret = errors.New("client secret is required for client_credentials")
)

type Client struct {
	ID           string             `json:"id" koanf:"id"`
	Description  string             `json:"description" koanf:"description"`
	Secret       string             `json:"secret" koanf:"secret"`          // Empty makes a public client, which may not use client_credentials
	UserID       string             `json:"userId" koanf:"user_id"`         // User the client acts as for client_credentials
	GrantTypes   []oauth2.GrantType `json:"grantTypes" koanf:"grant_types"` // Empty allows every grant type
	RedirectURIs []string           `json:"redirectURIs" koanf:"redirect_uris"`
	Scopes       []string           `json:"scopes" koanf:"scopes"` // Allowed scopes for this client, empty allows any
}

// Validate checks the client can be stored.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrMissingID
	}
	for _, g := range c.GrantTypes {
		if !g.IsValid() {
			return errors.New("unsupported grant type: " + string(g))
		}
	}
	if c.Secret == "" && c.AllowsGrantType(oauth2.ClientCredentialsGrant) {
		return ErrMissingSecret
	}
	return nil
}

// CheckSecret compares the presented secret in constant time.
func (c *Client) CheckSecret(secret string) bool {
	return subtle.ConstantTimeCompare([]byte(c.Secret), []byte(secret)) == 1
}

// AllowsGrantType returns true if the client may use the grant type
func (c *Client) AllowsGrantType(grantType oauth2.GrantType) bool {
	if len(c.GrantTypes) == 0 {
		return true
	}
	for _, g := range c.GrantTypes {
		if g == grantType {
			return true
		}
	}
	return false
}

// HasRedirectURI returns true if the uri is registered for the client
func (c *Client) HasRedirectURI(uri string) bool {
	for _, u := range c.RedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}

// HasScope checks if the client has permission for a specific scope
func (c *Client) HasScope(scope string) bool {
	if len(c.Scopes) == 0 {
		return true
	}
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// ValidateScopes checks if all requested scopes are allowed for this client
func (c *Client) ValidateScopes(requestedScopes string) error {
	for _, scope := range SplitScopes(requestedScopes) {
		if !c.HasScope(scope) {
			return ErrInvalidScope
		}
	}
	return nil
}

// SplitScopes splits a space-separated scope string, dropping empty entries.
func SplitScopes(scopes string) []string {
	return strings.Fields(scopes)
}
