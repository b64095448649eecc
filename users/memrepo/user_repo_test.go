package memuserrepo_test

import (
	"testing"

	ierrors "github.com/jrsteele09/go-oauth2-token-server/internal/errors"
	"github.com/jrsteele09/go-oauth2-token-server/users"
	memuserrepo "github.com/jrsteele09/go-oauth2-token-server/users/memrepo"
	"github.com/stretchr/testify/require"
)

func TestUserRepo(t *testing.T) {
	repo := memuserrepo.New()

	alice := &users.User{Username: "alice", PasswordHash: "hash"}
	require.NoError(t, repo.Upsert(alice))
	require.NotEmpty(t, alice.ID)

	got, err := repo.GetByUsername("alice")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)

	got, err = repo.GetByID(alice.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)

	err = repo.Upsert(&users.User{ID: "other", Username: "alice", PasswordHash: "hash"})
	require.ErrorIs(t, err, ierrors.ErrDuplicate)

	// Renaming frees the old username
	require.NoError(t, repo.Upsert(&users.User{ID: alice.ID, Username: "alice2", PasswordHash: "hash"}))
	_, err = repo.GetByUsername("alice")
	require.ErrorIs(t, err, ierrors.ErrNotFound)

	require.NoError(t, repo.SetBlocked(alice.ID, true))
	got, err = repo.GetByID(alice.ID)
	require.NoError(t, err)
	require.True(t, got.Blocked)
	require.ErrorIs(t, repo.SetBlocked("missing", true), ierrors.ErrNotFound)

	list, err := repo.List(0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, repo.Delete(alice.ID))
	_, err = repo.GetByUsername("alice2")
	require.ErrorIs(t, err, ierrors.ErrNotFound)
}
