// Package storetest provides common acceptance tests for store.DataHandler
// implementations.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth2-token-server/clients"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/jrsteele09/go-oauth2-token-server/store"
	"github.com/jrsteele09/go-oauth2-token-server/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Store is the full surface the acceptance tests exercise.
type Store interface {
	store.DataHandler
	store.ScopeValidator
	store.Registrar
	store.CodeIssuer
}

// Clock is a settable time source shared between a test and the store under test.
type Clock struct {
	lock sync.Mutex
	now  time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

// Expectations the stores must be built with.
const (
	AccessTokenExpiry = 15 * time.Minute
	AuthCodeExpiry    = 10 * time.Minute
)

const (
	webClientID     = "web"
	webClientSecret = "web-secret"
	webRedirectURI  = "https://app.example.com/cb"
	svcClientID     = "svc"
	svcClientSecret = "svc-secret"
	username        = "alice"
	password        = "Passw0rd"
)

// Run executes the acceptance tests. newStore must return an empty store using
// clock for time, AccessTokenExpiry and AuthCodeExpiry.
//
//nolint:funlen // This is a test helper.
func Run(t *testing.T, newStore func(t *testing.T, clock *Clock) Store) {
	ctx := context.Background()

	setup := func(t *testing.T) (Store, *Clock, *users.User) {
		clock := NewClock(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
		s := newStore(t, clock)

		require.NoError(t, s.RegisterClient(ctx, &clients.Client{
			ID:           webClientID,
			Secret:       webClientSecret,
			GrantTypes:   []oauth2.GrantType{oauth2.AuthorizationCodeGrant, oauth2.RefreshTokenGrant, oauth2.PasswordGrant},
			RedirectURIs: []string{webRedirectURI},
			Scopes:       []string{"read", "write"},
		}))
		require.NoError(t, s.RegisterClient(ctx, &clients.Client{
			ID:         svcClientID,
			Secret:     svcClientSecret,
			GrantTypes: []oauth2.GrantType{oauth2.ClientCredentialsGrant},
		}))

		hash, err := users.HashPassword(password)
		require.NoError(t, err)
		user := &users.User{Username: username, PasswordHash: hash}
		require.NoError(t, s.RegisterUser(ctx, user))
		require.NotEmpty(t, user.ID)
		return s, clock, user
	}

	t.Run("ValidateClient", func(t *testing.T) {
		s, _, _ := setup(t)

		ok, err := s.ValidateClient(ctx, webClientID, webClientSecret, oauth2.AuthorizationCodeGrant)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.ValidateClient(ctx, webClientID, webClientSecret, oauth2.ClientCredentialsGrant)
		require.NoError(t, err)
		assert.False(t, ok, "grant type not registered for client")

		ok, err = s.ValidateClient(ctx, webClientID, "wrong", oauth2.AuthorizationCodeGrant)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.ValidateClient(ctx, "missing", "x", oauth2.AuthorizationCodeGrant)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("RegisterClientUpdates", func(t *testing.T) {
		s, _, _ := setup(t)
		require.NoError(t, s.RegisterClient(ctx, &clients.Client{ID: webClientID, Secret: "rotated"}))

		ok, err := s.ValidateClient(ctx, webClientID, "rotated", oauth2.ClientCredentialsGrant)
		require.NoError(t, err)
		assert.True(t, ok, "empty grant types allow every grant")
	})

	t.Run("ClientAndUserLookups", func(t *testing.T) {
		s, _, user := setup(t)

		userID, err := s.GetClientUserID(ctx, svcClientID, svcClientSecret)
		require.NoError(t, err)
		assert.Equal(t, svcClientID, userID)

		_, err = s.GetClientUserID(ctx, svcClientID, "nope")
		assert.Error(t, err)

		userID, err = s.GetUserID(ctx, username, password)
		require.NoError(t, err)
		assert.Equal(t, user.ID, userID)

		_, err = s.GetUserID(ctx, username, "wrong")
		assert.Error(t, err)

		_, err = s.GetUserID(ctx, "bob", password)
		assert.ErrorIs(t, err, store.ErrNotFound)

		for id, want := range map[string]bool{user.ID: true, svcClientID: true, "ghost": false} {
			ok, err := s.ValidateUserByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, want, ok, id)
		}
		for id, want := range map[string]bool{webClientID: true, "ghost": false} {
			ok, err := s.ValidateClientByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, want, ok, id)
		}
	})

	t.Run("BlockedUser", func(t *testing.T) {
		s, _, user := setup(t)
		user.Blocked = true
		require.NoError(t, s.RegisterUser(ctx, user))

		_, err := s.GetUserID(ctx, username, password)
		assert.Error(t, err)

		ok, err := s.ValidateUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		s, _, _ := setup(t)
		err := s.RegisterUser(ctx, &users.User{ID: "other", Username: username, PasswordHash: "x"})
		assert.Error(t, err)
	})

	t.Run("ValidateScope", func(t *testing.T) {
		s, _, _ := setup(t)

		ok, err := s.ValidateScope(ctx, webClientID, "read write")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.ValidateScope(ctx, webClientID, "admin")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.ValidateScope(ctx, svcClientID, "anything")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("AuthorizationCodeIsSingleUse", func(t *testing.T) {
		s, _, user := setup(t)

		issued, err := s.IssueAuthorizationCode(ctx, webClientID, user.ID, "read", webRedirectURI)
		require.NoError(t, err)
		require.NotEmpty(t, issued.Code)
		require.NotEmpty(t, issued.RefreshToken)

		_, err = s.IssueAuthorizationCode(ctx, webClientID, user.ID, "read", "https://evil.example.com")
		assert.Error(t, err, "unregistered redirect uri")

		info, err := s.GetAuthInfoByCode(ctx, issued.Code)
		require.NoError(t, err)
		assert.Equal(t, webRedirectURI, info.RedirectURI)
		assert.Equal(t, webClientID, info.ClientID)
		assert.Equal(t, "read", info.Scope)

		at, err := s.CreateOrUpdateAccessToken(ctx, info)
		require.NoError(t, err)
		assert.Equal(t, int64(AccessTokenExpiry/time.Second), at.ExpiresIn)
		assert.Equal(t, info.ID, at.AuthID)

		_, err = s.GetAuthInfoByCode(ctx, issued.Code)
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.CreateOrUpdateAccessToken(ctx, info)
		assert.ErrorIs(t, err, store.ErrNotFound, "stale record cannot redeem the code again")

		byRefresh, err := s.GetAuthInfoByRefreshToken(ctx, issued.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, info.ID, byRefresh.ID)
		assert.Empty(t, byRefresh.Code)
	})

	t.Run("AuthorizationCodeExpires", func(t *testing.T) {
		s, clock, user := setup(t)

		issued, err := s.IssueAuthorizationCode(ctx, webClientID, user.ID, "", webRedirectURI)
		require.NoError(t, err)

		clock.Advance(AuthCodeExpiry + time.Minute)
		_, err = s.GetAuthInfoByCode(ctx, issued.Code)
		assert.Error(t, err)
	})

	t.Run("AccessTokenLifecycle", func(t *testing.T) {
		s, clock, _ := setup(t)

		info, err := s.CreateOrUpdateAuthInfo(ctx, svcClientID, svcClientID, "")
		require.NoError(t, err)
		assert.Empty(t, info.RefreshToken, "client without refresh_token grant gets no refresh token")

		again, err := s.CreateOrUpdateAuthInfo(ctx, svcClientID, svcClientID, "read")
		require.NoError(t, err)
		assert.Equal(t, info.ID, again.ID)
		assert.Equal(t, "read", again.Scope)

		first, err := s.CreateOrUpdateAccessToken(ctx, again)
		require.NoError(t, err)

		got, err := s.GetAccessToken(ctx, first.Token)
		require.NoError(t, err)
		assert.Equal(t, again.ID, got.AuthID)
		assert.False(t, got.Expired(clock.Now()))
		assert.True(t, got.Expired(clock.Now().Add(AccessTokenExpiry+time.Second)))

		second, err := s.CreateOrUpdateAccessToken(ctx, again)
		require.NoError(t, err)
		assert.NotEqual(t, first.Token, second.Token)

		_, err = s.GetAccessToken(ctx, first.Token)
		assert.ErrorIs(t, err, store.ErrNotFound, "previous token is replaced")

		byID, err := s.GetAuthInfoByID(ctx, second.AuthID)
		require.NoError(t, err)
		assert.Equal(t, svcClientID, byID.ClientID)
		assert.Equal(t, "read", byID.Scope)
	})

	t.Run("ConcurrentAuthInfoForOnePair", func(t *testing.T) {
		s, _, user := setup(t)

		const workers = 8
		var wg sync.WaitGroup
		ids := make([]string, workers)
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				info, err := s.CreateOrUpdateAuthInfo(ctx, webClientID, user.ID, "read")
				errs[i] = err
				if err == nil {
					ids[i] = info.ID
				}
			}(i)
		}
		wg.Wait()

		for i := range ids {
			require.NoError(t, errs[i])
			assert.Equal(t, ids[0], ids[i], "one grant per client/user pair")
		}
	})

	t.Run("RefreshTokens", func(t *testing.T) {
		s, _, user := setup(t)

		info, err := s.CreateOrUpdateAuthInfo(ctx, webClientID, user.ID, "read")
		require.NoError(t, err)
		require.NotEmpty(t, info.RefreshToken)

		byRefresh, err := s.GetAuthInfoByRefreshToken(ctx, info.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, info.ID, byRefresh.ID)

		_, err = s.GetAuthInfoByRefreshToken(ctx, "unknown")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("Misses", func(t *testing.T) {
		s, _, user := setup(t)

		_, err := s.CreateOrUpdateAuthInfo(ctx, "ghost", user.ID, "")
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.GetAuthInfoByCode(ctx, "unknown")
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.GetAuthInfoByID(ctx, "unknown")
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.GetAccessToken(ctx, "unknown")
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.CreateOrUpdateAccessToken(ctx, &store.AuthInfo{ID: "unknown", ClientID: webClientID})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}
