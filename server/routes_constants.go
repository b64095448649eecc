package server

// Route path constants
const (
	RouteOAuth2Token    = "/oauth2/token"
	RouteOAuth2Resource = "/oauth2/resource"
	RouteWellKnownJWKS  = "/.well-known/jwks.json"
	RouteHealthz        = "/healthz"
)
