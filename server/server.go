package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-oauth2-token-server/grant"
	"github.com/jrsteele09/go-oauth2-token-server/internal/config"
	"github.com/jrsteele09/go-oauth2-token-server/resource"
	"github.com/jrsteele09/go-oauth2-token-server/token"
	"github.com/rs/zerolog/log"
)

// KeySetProvider publishes the keys that verify JWT access tokens.
type KeySetProvider interface {
	GetJWKS() (*token.JWKS, error)
}

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	tokens    *grant.Dispatcher
	resources *resource.Validator
	keySet    KeySetProvider
}

type Option func(*Server)

// WithKeySet publishes the signing keys on the JWKS route.
func WithKeySet(keySet KeySetProvider) Option {
	return func(s *Server) {
		s.keySet = keySet
	}
}

func New(config config.Config, tokens *grant.Dispatcher, resources *resource.Validator, options ...Option) *Server {
	s := &Server{
		env:       config.GetEnv(),
		mux:       http.NewServeMux(),
		config:    config,
		tokens:    tokens,
		resources: resources,
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered route patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Info().Msgf("[%s] %s", color+paddedMethod+ResetColor, path)
}
