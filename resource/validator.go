// Package resource validates bearer tokens presented to a protected resource.
package resource

import (
	"context"
	"time"

	"github.com/jrsteele09/go-oauth2-token-server/credentials"
	ierrors "github.com/jrsteele09/go-oauth2-token-server/internal/errors"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/jrsteele09/go-oauth2-token-server/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Grant is what a valid access token entitles its bearer to.
type Grant struct {
	AccessToken string    `json:"-"`
	ClientID    string    `json:"client_id"`
	UserID      string    `json:"user_id"`
	Scope       string    `json:"scope,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type Validator struct {
	data    store.DataHandler
	fetcher credentials.AccessTokenFetcher
	logger  zerolog.Logger
	nowFunc func() time.Time
}

type Option func(*Validator)

func WithFetcher(fetcher credentials.AccessTokenFetcher) Option {
	return func(v *Validator) {
		v.fetcher = fetcher
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(v *Validator) {
		v.nowFunc = now
	}
}

func NewValidator(data store.DataHandler, options ...Option) *Validator {
	v := &Validator{
		data:    data,
		fetcher: credentials.BearerTokenFetcher{},
		logger:  log.Logger,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(v)
	}
	return v
}

// Validate resolves the bearer token on the request to the grant behind it.
// Every non-nil error is an *oauth2.Error.
func (v *Validator) Validate(ctx context.Context, req oauth2.Request) (*Grant, error) {
	raw, ok := v.fetcher.Fetch(req)
	if !ok {
		return nil, oauth2.NewError(oauth2.InvalidRequest, "access token not found")
	}

	accessToken, err := v.data.GetAccessToken(ctx, raw)
	if v.absent(err, "GetAccessToken") || accessToken == nil {
		return nil, oauth2.NewError(oauth2.AccessDenied, "access token is invalid")
	}
	if accessToken.Expired(v.nowFunc()) {
		return nil, oauth2.NewError(oauth2.AccessDenied, "access token has expired")
	}

	authInfo, err := v.data.GetAuthInfoByID(ctx, accessToken.AuthID)
	if v.absent(err, "GetAuthInfoByID") || authInfo == nil {
		return nil, oauth2.NewError(oauth2.InvalidGrant, "grant for access token not found")
	}

	valid, err := v.data.ValidateClientByID(ctx, authInfo.ClientID)
	if v.absent(err, "ValidateClientByID") || !valid {
		return nil, oauth2.NewError(oauth2.InvalidClient, "client is no longer valid")
	}
	valid, err = v.data.ValidateUserByID(ctx, authInfo.UserID)
	if v.absent(err, "ValidateUserByID") || !valid {
		return nil, oauth2.NewError(oauth2.InvalidGrant, "user is no longer valid")
	}

	return &Grant{
		AccessToken: raw,
		ClientID:    authInfo.ClientID,
		UserID:      authInfo.UserID,
		Scope:       authInfo.Scope,
		ExpiresAt:   accessToken.ExpiresAt(),
	}, nil
}

func (v *Validator) absent(err error, op string) bool {
	if err == nil {
		return false
	}
	if !ierrors.Is(err, store.ErrNotFound) {
		v.logger.Err(err).Str("op", op).Msg("data handler call failed")
	}
	return true
}
