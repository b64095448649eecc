package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("POST "+RouteOAuth2Token, ChainMiddleware(s.Token(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteOAuth2Token, ChainMiddleware(s.Preflight(), s.APIMiddleware()...))

	// Demo protected resource
	s.RegisterRouteHandler("GET "+RouteOAuth2Resource, ChainMiddleware(s.Resource(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteOAuth2Resource, ChainMiddleware(s.Preflight(), s.APIMiddleware()...))

	if s.keySet != nil {
		s.RegisterRouteHandler("GET "+RouteWellKnownJWKS, ChainMiddleware(s.JWKS(), s.APIMiddleware()...))
	}

	s.RegisterRouteHandler("GET "+RouteHealthz, ChainMiddleware(s.Healthz(), s.RecoverMiddleware))
}
