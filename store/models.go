package store

import "time"

// AuthInfo is the server-held record of an authorization grant issued to a
// client/user pair. It is looked up by code, by refresh token or by ID depending
// on the grant type.
type AuthInfo struct {
	ID           string `json:"id"`
	ClientID     string `json:"client_id"`
	UserID       string `json:"user_id"`
	Scope        string `json:"scope,omitempty"`
	Code         string `json:"-"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
	RefreshToken string `json:"-"`
}

// AccessToken is an issued bearer token bound to an AuthInfo record.
type AccessToken struct {
	Token     string    `json:"-"`
	ExpiresIn int64     `json:"expires_in"` // Lifetime in seconds
	CreatedOn time.Time `json:"created_on"`
	AuthID    string    `json:"auth_id"`
}

// ExpiresAt returns the absolute expiry of the token.
func (at *AccessToken) ExpiresAt() time.Time {
	return at.CreatedOn.Add(time.Duration(at.ExpiresIn) * time.Second)
}

// Expired reports whether the token lifetime has passed at now.
func (at *AccessToken) Expired(now time.Time) bool {
	return now.After(at.ExpiresAt())
}
