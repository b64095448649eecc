package server_test

import (
	"context"
	"testing"

	memclientrepo "github.com/jrsteele09/go-oauth2-token-server/clients/memrepo"
	"github.com/jrsteele09/go-oauth2-token-server/internal/config"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/jrsteele09/go-oauth2-token-server/server"
	"github.com/jrsteele09/go-oauth2-token-server/store/memstore"
	memuserrepo "github.com/jrsteele09/go-oauth2-token-server/users/memrepo"
	"github.com/stretchr/testify/require"
)

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	st := memstore.New(memclientrepo.New(), memuserrepo.New())

	seed := testSeed()
	seed.Users = append(seed.Users, config.SeedUser{Username: "carol", Password: "C4rolPass!"})

	require.NoError(t, server.Bootstrap(ctx, st, seed))

	ok, err := st.ValidateClient(ctx, serviceID, serviceSecret, oauth2.ClientCredentialsGrant)
	require.NoError(t, err)
	require.True(t, ok)

	aliceUser, err := st.GetUserID(ctx, "alice", alicePassword)
	require.NoError(t, err)
	require.Equal(t, aliceID, aliceUser)

	carolID, err := st.GetUserID(ctx, "carol", "C4rolPass!")
	require.NoError(t, err)
	require.NotEmpty(t, carolID)

	_, err = st.GetUserID(ctx, "bob", "Hunter22!")
	require.Error(t, err, "blocked users cannot sign in")

	t.Run("re-running updates in place", func(t *testing.T) {
		require.NoError(t, server.Bootstrap(ctx, st, seed))
		again, err := st.GetUserID(ctx, "carol", "C4rolPass!")
		require.NoError(t, err)
		require.Equal(t, carolID, again)
	})

	t.Run("nil seed", func(t *testing.T) {
		require.NoError(t, server.Bootstrap(ctx, st, nil))
	})

	t.Run("username clash", func(t *testing.T) {
		clash := &config.Seed{Users: []config.SeedUser{{ID: "other", Username: "alice", Password: "x"}}}
		require.Error(t, server.Bootstrap(ctx, st, clash))
	})

	t.Run("invalid client", func(t *testing.T) {
		bad := &config.Seed{Clients: testSeed().Clients[:1]}
		bad.Clients[0].ID = ""
		require.Error(t, server.Bootstrap(ctx, st, bad))
	})
}
