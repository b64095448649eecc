package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var _ Generator = (*JWTGenerator)(nil)

// JWTGenerator creates self describing access tokens. The store still records
// the token, so a JWT is looked up exactly like an opaque string.
type JWTGenerator struct {
	signer   Signer
	issuer   string
	audience string
	nowFunc  func() time.Time
}

type JWTOption func(*JWTGenerator)

func WithIssuer(issuer string) JWTOption {
	return func(g *JWTGenerator) {
		g.issuer = issuer
	}
}

func WithAudience(audience string) JWTOption {
	return func(g *JWTGenerator) {
		g.audience = audience
	}
}

func WithNowFunc(now func() time.Time) JWTOption {
	return func(g *JWTGenerator) {
		g.nowFunc = now
	}
}

func NewJWTGenerator(signer Signer, options ...JWTOption) *JWTGenerator {
	g := &JWTGenerator{signer: signer}
	for _, opt := range options {
		opt(g)
	}
	if g.nowFunc == nil {
		g.nowFunc = time.Now
	}
	return g
}

func (g *JWTGenerator) Generate(c Claims) (string, error) {
	subject := c.UserID
	if subject == "" {
		subject = c.ClientID
	}
	claims := jwt.MapClaims{
		"sub":       subject,             // The user, or the client acting as itself
		"client_id": c.ClientID,          // The client the token was issued to
		"iat":       c.IssuedAt.Unix(),   // Issued At: the time at which the token was issued
		"exp":       c.ExpiresAt.Unix(),  // Expiry: when the token will expire
		"jti":       uuid.New().String(), // Unique token ID
	}
	if g.issuer != "" {
		claims["iss"] = g.issuer
	}
	if g.audience != "" {
		claims["aud"] = g.audience
	}
	if c.Scope != "" {
		claims["scope"] = c.Scope
	}

	signed, err := g.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[JWTGenerator.Generate] Sign")
	}
	return signed, nil
}

// Parse verifies a token created by Generate and returns its claims.
func (g *JWTGenerator) Parse(raw string) (*Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{g.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(g.nowFunc),
	}
	if g.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(g.issuer))
	}
	if g.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(g.audience))
	}

	parsed, err := jwt.Parse(raw, g.signer.GetVerificationKey, parserOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "[JWTGenerator.Parse] jwt.Parse")
	}
	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("[JWTGenerator.Parse] invalid token claims")
	}

	c := &Claims{}
	c.UserID, _ = mapClaims["sub"].(string)
	c.ClientID, _ = mapClaims["client_id"].(string)
	c.Scope, _ = mapClaims["scope"].(string)
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if c.UserID == c.ClientID {
		c.UserID = ""
	}
	return c, nil
}
