package users_test

import (
	"testing"

	"github.com/jrsteele09/go-oauth2-token-server/users"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := users.HashPassword("Passw0rd!")
	require.NoError(t, err)
	require.NotEqual(t, "Passw0rd!", hash)

	u := &users.User{Username: "alice", PasswordHash: hash}
	require.NoError(t, u.Validate())
	require.True(t, u.CheckPassword("Passw0rd!"))
	require.False(t, u.CheckPassword("passw0rd!"))
	require.True(t, u.Active())
}

func TestUser_Validate(t *testing.T) {
	require.ErrorIs(t, (&users.User{PasswordHash: "x"}).Validate(), users.ErrMissingUsername)
	require.ErrorIs(t, (&users.User{Username: "bob"}).Validate(), users.ErrMissingPassword)
}

func TestValidatePasswordStrength(t *testing.T) {
	require.NoError(t, users.ValidatePasswordStrength("Abcdefg1"))
	require.Error(t, users.ValidatePasswordStrength("Abc1"))
	require.Error(t, users.ValidatePasswordStrength("abcdefg1"))
	require.Error(t, users.ValidatePasswordStrength("ABCDEFG1"))
	require.Error(t, users.ValidatePasswordStrength("Abcdefgh"))
}
