// Package token produces the access token, refresh token and authorization
// code strings handed out by the stores.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
)

const defaultTokenBytes = 32 // 256 bits

// Claims describes the grant an access token is being minted for.
type Claims struct {
	ClientID  string
	UserID    string
	Scope     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Generator creates access token strings. Stores treat the result as opaque.
type Generator interface {
	Generate(claims Claims) (string, error)
}

// RandomString returns a hex encoded string of n random bytes.
func RandomString(n int) (string, error) {
	if n <= 0 {
		n = defaultTokenBytes
	}
	tokenBytes := make([]byte, n)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "[token.RandomString] rand.Read")
	}
	return hex.EncodeToString(tokenBytes), nil
}

var _ Generator = OpaqueGenerator{}

// OpaqueGenerator creates random hex strings carrying no claims.
type OpaqueGenerator struct {
	Size int // number of random bytes, defaults to 32
}

func (g OpaqueGenerator) Generate(_ Claims) (string, error) {
	return RandomString(g.Size)
}
