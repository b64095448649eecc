package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth2-token-server/internal/config"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the config reads so defaults apply.
func clearEnv(t *testing.T) {
	for _, name := range []string{
		"PORT", "APP_NAME", "ENV", "LOG_LEVEL", "BASE_URL", "SEED_FILE",
		"STORAGE_DRIVER", "STORAGE_DSN", "TOKEN_FORMAT", "JWT_SIGNING_ALG",
		"JWT_SIGNING_KEY", "JWT_KEY_ID", "JWT_PRIVATE_KEY_FILE",
		"ACCESS_TOKEN_EXPIRY", "AUTH_CODE_EXPIRY", "ALLOWED_ORIGINS",
	} {
		t.Setenv(name, "")
	}
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)
	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.True(t, c.IsDev())
	require.Equal(t, config.StorageMemory, c.GetStorageDriver())
	require.Equal(t, config.TokenFormatOpaque, c.GetTokenFormat())
	require.Equal(t, time.Hour, c.GetAccessTokenExpiry())
	require.Equal(t, 10*time.Minute, c.GetAuthCodeExpiry())
	require.Empty(t, c.GetAllowedOrigins())
}

func TestNew_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "PROD")
	t.Setenv("BASE_URL", "https://auth.example.com/")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("TOKEN_FORMAT", "jwt")
	t.Setenv("JWT_SIGNING_KEY", "secret")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "15m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":9090", c.GetPort())
	require.False(t, c.IsDev())
	require.Equal(t, "https://auth.example.com", c.GetBaseURL())
	require.Equal(t, ":memory:", c.GetStorageDSN())
	require.Equal(t, 15*time.Minute, c.GetAccessTokenExpiry())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://b.example.com"))
	require.False(t, c.GetAllowedOrigins().IsAllowedOrigin("https://c.example.com"))
	require.Equal(t, "https://a.example.com, https://b.example.com", c.GetAllowedOrigins().String())
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mongo"}},
		{"postgres without dsn", map[string]string{"STORAGE_DRIVER": "postgres"}},
		{"unknown token format", map[string]string{"TOKEN_FORMAT": "paseto"}},
		{"hmac without key", map[string]string{"TOKEN_FORMAT": "jwt"}},
		{"bad duration", map[string]string{"AUTH_CODE_EXPIRY": "soon"}},
		{"zero expiry", map[string]string{"ACCESS_TOKEN_EXPIRY": "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.New()
			require.Error(t, err)
		})
	}
}

func TestWildcardOrigin(t *testing.T) {
	origins := config.Cors{Origins: []string{"*"}}.GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://anything.example.com"))
}

func TestGetJWTPrivateKeyFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_PRIVATE_KEY_FILE", "/etc/oauth2/signing.pem")
	c, err := config.New()
	require.NoError(t, err)
	require.Equal(t, "/etc/oauth2/signing.pem", c.GetJWTPrivateKeyFile())
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
clients:
  - id: web
    secret: s3cret
    user_id: service
    grant_types: [client_credentials, refresh_token]
    redirect_uris: ["https://app.example.com/cb"]
    scopes: [read, write]
users:
  - id: u1
    username: alice
    password: Passw0rd!
  - username: bob
    password: Hunter22!
    blocked: true
`), 0o600))

	seed, err := config.LoadSeed(path)
	require.NoError(t, err)

	require.Len(t, seed.Clients, 1)
	c := seed.Clients[0]
	require.Equal(t, "web", c.ID)
	require.Equal(t, "s3cret", c.Secret)
	require.Equal(t, "service", c.UserID)
	require.Equal(t, []oauth2.GrantType{oauth2.ClientCredentialsGrant, oauth2.RefreshTokenGrant}, c.GrantTypes)
	require.Equal(t, []string{"https://app.example.com/cb"}, c.RedirectURIs)
	require.Equal(t, []string{"read", "write"}, c.Scopes)

	require.Len(t, seed.Users, 2)
	require.Equal(t, config.SeedUser{ID: "u1", Username: "alice", Password: "Passw0rd!"}, seed.Users[0])
	require.True(t, seed.Users[1].Blocked)
}

func TestLoadSeed_Errors(t *testing.T) {
	_, err := config.LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clients:\n  - id: web\n    grant_types: [implicit]\n"), 0o600))
	_, err = config.LoadSeed(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("users:\n  - username: alice\n"), 0o600))
	_, err = config.LoadSeed(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("users:\n  - username: alice\n    password: password\n"), 0o600))
	_, err = config.LoadSeed(path)
	require.ErrorContains(t, err, "uppercase")
}
