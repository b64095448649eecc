package config

import (
	"time"

	ierrors "github.com/jrsteele09/go-oauth2-token-server/internal/errors"
	"github.com/pkg/errors"
)

const (
	TokenFormatOpaque = "opaque"
	TokenFormatJWT    = "jwt"
)

type OAuthConfig interface {
	GetTokenFormat() string
	GetJWTSigningAlgorithm() string
	GetJWTSigningKey() string
	GetJWTKeyID() string
	GetJWTPrivateKeyFile() string
	GetAccessTokenExpiry() time.Duration
	GetAuthCodeExpiry() time.Duration
}

type OAuth struct {
	TokenFormat       string        `env:"TOKEN_FORMAT" envDefault:"opaque"`
	JWTSigningAlg     string        `env:"JWT_SIGNING_ALG" envDefault:"HS256"`
	JWTSigningKey     string        `env:"JWT_SIGNING_KEY"`      // HS256 shared secret
	JWTKeyID          string        `env:"JWT_KEY_ID" envDefault:"default"`
	JWTPrivateKeyFile string        `env:"JWT_PRIVATE_KEY_FILE"` // RS256/ES256 PEM, created on first start
	AccessTokenExpiry time.Duration `env:"ACCESS_TOKEN_EXPIRY" envDefault:"1h"`
	AuthCodeExpiry    time.Duration `env:"AUTH_CODE_EXPIRY" envDefault:"10m"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetTokenFormat() string {
	return o.TokenFormat
}

func (o OAuth) GetJWTSigningAlgorithm() string {
	return o.JWTSigningAlg
}

func (o OAuth) GetJWTSigningKey() string {
	return o.JWTSigningKey
}

func (o OAuth) GetJWTKeyID() string {
	return o.JWTKeyID
}

// GetJWTPrivateKeyFile is where the asymmetric signing key is kept. Empty means
// a new key on every start.
func (o OAuth) GetJWTPrivateKeyFile() string {
	return o.JWTPrivateKeyFile
}

func (o OAuth) GetAccessTokenExpiry() time.Duration {
	return o.AccessTokenExpiry
}

func (o OAuth) GetAuthCodeExpiry() time.Duration {
	return o.AuthCodeExpiry
}

func (o OAuth) validate() error {
	switch o.TokenFormat {
	case TokenFormatOpaque:
	case TokenFormatJWT:
		if o.JWTSigningAlg == "HS256" && o.JWTSigningKey == "" {
			return errors.Wrap(ierrors.ErrMissingSigningKey, "JWT_SIGNING_KEY")
		}
	default:
		return errors.Wrapf(ierrors.ErrUnknownTokenFormat, "TOKEN_FORMAT %q", o.TokenFormat)
	}
	if o.AccessTokenExpiry <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRY must be positive")
	}
	if o.AuthCodeExpiry <= 0 {
		return errors.New("AUTH_CODE_EXPIRY must be positive")
	}
	return nil
}
