package memstore_test

import (
	"context"
	"errors"
	"testing"

	memclientrepo "github.com/jrsteele09/go-oauth2-token-server/clients/memrepo"
	"github.com/jrsteele09/go-oauth2-token-server/store"
	"github.com/jrsteele09/go-oauth2-token-server/store/memstore"
	"github.com/jrsteele09/go-oauth2-token-server/store/storetest"
	"github.com/jrsteele09/go-oauth2-token-server/token"
	memuserrepo "github.com/jrsteele09/go-oauth2-token-server/users/memrepo"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T, clock *storetest.Clock) storetest.Store {
		return memstore.New(memclientrepo.New(), memuserrepo.New(),
			memstore.WithNowFunc(clock.Now),
			memstore.WithAccessTokenExpiry(storetest.AccessTokenExpiry),
			memstore.WithAuthCodeExpiry(storetest.AuthCodeExpiry),
		)
	})
}

type failingGenerator struct{}

func (failingGenerator) Generate(token.Claims) (string, error) {
	return "", errors.New("entropy exhausted")
}

func TestStore_GeneratorFailure(t *testing.T) {
	ctx := context.Background()
	s := memstore.New(memclientrepo.New(), memuserrepo.New(), memstore.WithGenerator(failingGenerator{}))

	_, err := s.CreateOrUpdateAccessToken(ctx, &store.AuthInfo{ID: "auth", ClientID: "client"})
	require.Error(t, err)
}
