package token

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"math/big"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	AlgHS256 = "HS256"
	AlgRS256 = "RS256"
	AlgES256 = "ES256"
)

// KeyPair is an asymmetric signing key used for JWT access tokens
type KeyPair struct {
	KeyID      string
	PrivateKey crypto.Signer
	Algorithm  string // RS256 or ES256
}

// JWKS represents a JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`

	// RSA
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`

	// EC
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// GenerateKeyPair creates a fresh key pair for RS256 or ES256.
func GenerateKeyPair(keyID, algorithm string) (*KeyPair, error) {
	switch algorithm {
	case AlgRS256:
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, errors.Wrap(err, "[token.GenerateKeyPair] failed to generate RSA key")
		}
		return &KeyPair{KeyID: keyID, PrivateKey: key, Algorithm: AlgRS256}, nil
	case AlgES256:
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, errors.Wrap(err, "[token.GenerateKeyPair] failed to generate ECDSA key")
		}
		return &KeyPair{KeyID: keyID, PrivateKey: key, Algorithm: AlgES256}, nil
	default:
		return nil, errors.Errorf("[token.GenerateKeyPair] unsupported algorithm %q", algorithm)
	}
}

// LoadKeyPairFromPEM reads a PKCS1, PKCS8 or SEC1 encoded private key. The
// algorithm follows from the key type.
func LoadKeyPairFromPEM(keyID string, pemData []byte) (*KeyPair, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("[token.LoadKeyPairFromPEM] failed to decode PEM block")
	}

	var key any
	var err error
	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		key, err = x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	default:
		return nil, errors.Errorf("[token.LoadKeyPairFromPEM] unsupported PEM block %q", block.Type)
	}
	if err != nil {
		return nil, errors.Wrap(err, "[token.LoadKeyPairFromPEM] failed to parse private key")
	}

	switch k := key.(type) {
	case *rsa.PrivateKey:
		return &KeyPair{KeyID: keyID, PrivateKey: k, Algorithm: AlgRS256}, nil
	case *ecdsa.PrivateKey:
		if k.Curve != elliptic.P256() {
			return nil, errors.New("[token.LoadKeyPairFromPEM] only P-256 EC keys are supported")
		}
		return &KeyPair{KeyID: keyID, PrivateKey: k, Algorithm: AlgES256}, nil
	default:
		return nil, errors.Errorf("[token.LoadKeyPairFromPEM] unsupported key type %T", key)
	}
}

func (kp *KeyPair) PublicKey() crypto.PublicKey {
	return kp.PrivateKey.Public()
}

// GetSigningMethod returns the JWT signing method for this key pair
func (kp *KeyPair) GetSigningMethod() jwt.SigningMethod {
	if kp.Algorithm == AlgES256 {
		return jwt.SigningMethodES256
	}
	return jwt.SigningMethodRS256
}

// ExportPrivateKeyPEM exports the private key as PKCS8 PEM
func (kp *KeyPair) ExportPrivateKeyPEM() ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(kp.PrivateKey)
	if err != nil {
		return nil, errors.Wrap(err, "[KeyPair.ExportPrivateKeyPEM] failed to marshal private key")
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// ToJWK converts the public half of the key pair to JWK format
func (kp *KeyPair) ToJWK() (*JWK, error) {
	jwk := &JWK{
		Kid: kp.KeyID,
		Use: "sig",
		Alg: kp.Algorithm,
	}

	switch pub := kp.PublicKey().(type) {
	case *rsa.PublicKey:
		jwk.Kty = "RSA"
		jwk.N = base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
		jwk.E = base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes())
	case *ecdsa.PublicKey:
		jwk.Kty = "EC"
		jwk.Crv = "P-256"
		// Coordinates are fixed width for the curve
		jwk.X = base64.RawURLEncoding.EncodeToString(pub.X.FillBytes(make([]byte, 32)))
		jwk.Y = base64.RawURLEncoding.EncodeToString(pub.Y.FillBytes(make([]byte, 32)))
	default:
		return nil, errors.New("[KeyPair.ToJWK] unsupported public key type")
	}

	return jwk, nil
}
