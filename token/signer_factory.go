package token

import (
	"os"

	"github.com/pkg/errors"
)

// SignerSettings describe how JWT access tokens are signed.
type SignerSettings struct {
	Algorithm      string // HS256, RS256 or ES256
	Secret         string // HS256 only
	KeyID          string
	PrivateKeyPEM  []byte // RS256/ES256, takes precedence over PrivateKeyFile
	PrivateKeyFile string // RS256/ES256, created with a fresh key when missing
}

// NewSigner builds the Signer described by the settings. Without a key an
// asymmetric signer uses a key that only lives as long as the process.
func NewSigner(settings SignerSettings) (Signer, error) {
	switch settings.Algorithm {
	case "", AlgHS256:
		signer, err := NewHMACSigner(settings.Secret)
		if err != nil {
			return nil, err
		}
		return signer, nil

	case AlgRS256, AlgES256:
		keyPair, err := loadKeyPair(settings)
		if err != nil {
			return nil, errors.Wrap(err, "[token.NewSigner]")
		}
		if keyPair.Algorithm != settings.Algorithm {
			return nil, errors.Errorf("[token.NewSigner] key is %s, expected %s", keyPair.Algorithm, settings.Algorithm)
		}
		return NewKeyPairSigner(keyPair), nil

	default:
		return nil, errors.Errorf("[token.NewSigner] unsupported signer type: %s", settings.Algorithm)
	}
}

func loadKeyPair(settings SignerSettings) (*KeyPair, error) {
	if len(settings.PrivateKeyPEM) > 0 {
		return LoadKeyPairFromPEM(settings.KeyID, settings.PrivateKeyPEM)
	}
	if settings.PrivateKeyFile == "" {
		return GenerateKeyPair(settings.KeyID, settings.Algorithm)
	}

	pemData, err := os.ReadFile(settings.PrivateKeyFile)
	if err == nil {
		return LoadKeyPairFromPEM(settings.KeyID, pemData)
	}
	if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "read %s", settings.PrivateKeyFile)
	}

	keyPair, err := GenerateKeyPair(settings.KeyID, settings.Algorithm)
	if err != nil {
		return nil, err
	}
	if pemData, err = keyPair.ExportPrivateKeyPEM(); err != nil {
		return nil, err
	}
	// Never replace a key another process wrote meanwhile
	f, err := os.OpenFile(settings.PrivateKeyFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", settings.PrivateKeyFile)
	}
	if _, err := f.Write(pemData); err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "write %s", settings.PrivateKeyFile)
	}
	if err := f.Close(); err != nil {
		return nil, errors.Wrapf(err, "close %s", settings.PrivateKeyFile)
	}
	return keyPair, nil
}
