package token_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth2-token-server/token"
	"github.com/stretchr/testify/require"
)

func TestOpaqueGenerator(t *testing.T) {
	g := token.OpaqueGenerator{}
	first, err := g.Generate(token.Claims{ClientID: "client"})
	require.NoError(t, err)
	second, err := g.Generate(token.Claims{ClientID: "client"})
	require.NoError(t, err)

	require.Len(t, first, 64)
	require.NotEqual(t, first, second)

	short, err := token.OpaqueGenerator{Size: 8}.Generate(token.Claims{})
	require.NoError(t, err)
	require.Len(t, short, 16)
}

func TestJWTGenerator_RoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	signer, err := token.NewHMACSigner("test-secret")
	require.NoError(t, err)
	g := token.NewJWTGenerator(signer,
		token.WithIssuer("https://auth.example.com"),
		token.WithAudience("api"),
		token.WithNowFunc(func() time.Time { return now }),
	)

	raw, err := g.Generate(token.Claims{
		ClientID:  "client1",
		UserID:    "user1",
		Scope:     "read write",
		IssuedAt:  now,
		ExpiresAt: now.Add(15 * time.Minute),
	})
	require.NoError(t, err)

	claims, err := g.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "client1", claims.ClientID)
	require.Equal(t, "user1", claims.UserID)
	require.Equal(t, "read write", claims.Scope)
	require.True(t, claims.ExpiresAt.Equal(now.Add(15*time.Minute)))
}

func TestJWTGenerator_ClientOnlyToken(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	signer, err := token.NewHMACSigner("test-secret")
	require.NoError(t, err)
	g := token.NewJWTGenerator(signer, token.WithNowFunc(func() time.Time { return now }))

	raw, err := g.Generate(token.Claims{ClientID: "client1", IssuedAt: now, ExpiresAt: now.Add(time.Minute)})
	require.NoError(t, err)

	claims, err := g.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "client1", claims.ClientID)
	require.Empty(t, claims.UserID)
}

func TestJWTGenerator_Rejects(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	signer, err := token.NewHMACSigner("test-secret")
	require.NoError(t, err)
	other, err := token.NewHMACSigner("other-secret")
	require.NoError(t, err)

	g := token.NewJWTGenerator(signer, token.WithNowFunc(func() time.Time { return now }))
	raw, err := g.Generate(token.Claims{ClientID: "client1", IssuedAt: now, ExpiresAt: now.Add(time.Minute)})
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		_, err := token.NewJWTGenerator(other, token.WithNowFunc(func() time.Time { return now })).Parse(raw)
		require.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		later := token.NewJWTGenerator(signer, token.WithNowFunc(func() time.Time { return now.Add(time.Hour) }))
		_, err := later.Parse(raw)
		require.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		strict := token.NewJWTGenerator(signer,
			token.WithIssuer("someone-else"),
			token.WithNowFunc(func() time.Time { return now }),
		)
		_, err := strict.Parse(raw)
		require.Error(t, err)
	})
}

func TestNewHMACSigner_EmptySecret(t *testing.T) {
	_, err := token.NewHMACSigner("")
	require.Error(t, err)
}
