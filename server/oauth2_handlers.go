package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-oauth2-token-server/credentials"
	ierrors "github.com/jrsteele09/go-oauth2-token-server/internal/errors"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

// httpRequest adapts an *http.Request to oauth2.Request. Token endpoint
// parameters only come from the form body.
type httpRequest struct {
	r *http.Request
}

var _ oauth2.Request = httpRequest{}

func (h httpRequest) Header(name string) (string, bool) {
	values := h.r.Header.Values(name)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (h httpRequest) Parameter(name string) (string, bool) {
	values, ok := h.r.PostForm[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// queryRequest also reads parameters from the query string, which RFC 6750
// allows for the access_token parameter on resource requests.
type queryRequest struct {
	httpRequest
}

func (q queryRequest) Parameter(name string) (string, bool) {
	if v, ok := q.httpRequest.Parameter(name); ok {
		return v, true
	}
	values, ok := q.r.URL.Query()[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Token is the RFC 6749 token endpoint
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, oauth2.ErrorCodeInvalidRequest, "Failed to parse form data", http.StatusBadRequest)
			return
		}
		req := httpRequest{r: r}

		grantType, ok := req.Parameter(oauth2.ParamGrantType)
		if !ok || grantType == "" {
			writeJSONError(w, oauth2.ErrorCodeInvalidRequest, "grant_type not found", http.StatusBadRequest)
			return
		}

		select {
		case outcome := <-s.tokens.Submit(r.Context(), req, oauth2.GrantType(grantType)):
			if oauthErr := outcome.OAuthError(); oauthErr != nil {
				writeTokenError(w, req, oauthErr)
				return
			}
			w.Header().Set("Cache-Control", "no-store")
			w.Header().Set("Pragma", "no-cache")
			writeJSON(w, http.StatusOK, outcome.Result)
		case <-r.Context().Done():
			log.Warn().Str("grant_type", grantType).Msg("client went away before the token was issued")
		}
	}
}

func writeTokenError(w http.ResponseWriter, req oauth2.Request, oauthErr *oauth2.Error) {
	status := oauthErr.Kind.StatusCode()
	if oauthErr.Kind == oauth2.InvalidClient && credentials.UsedBasicAuth(req) {
		w.Header().Set("WWW-Authenticate", `Basic realm="oauth2"`)
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	writeJSON(w, status, oauthErr.Response())
}

// Resource is a demo protected resource: it answers with the grant the bearer token carries
func (s *Server) Resource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, oauth2.ErrorCodeInvalidRequest, "Failed to parse form data", http.StatusBadRequest)
			return
		}

		grant, err := s.resources.Validate(r.Context(), queryRequest{httpRequest{r: r}})
		if err != nil {
			var oauthErr *oauth2.Error
			if !ierrors.As(err, &oauthErr) {
				oauthErr = oauth2.NewError(oauth2.InvalidGrant, "access token could not be validated")
			}
			w.Header().Set("WWW-Authenticate", bearerChallenge(oauthErr))
			writeJSON(w, oauthErr.Kind.StatusCode(), oauthErr.Response())
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, grant)
	}
}

func bearerChallenge(e *oauth2.Error) string {
	challenge := fmt.Sprintf(`Bearer realm="oauth2", error=%q`, e.Code())
	if e.Description != "" {
		challenge += fmt.Sprintf(", error_description=%q", strings.ReplaceAll(e.Description, `"`, `'`))
	}
	return challenge
}

// JWKS publishes the keys that verify JWT access tokens
func (s *Server) JWKS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := s.keySet.GetJWKS()
		if err != nil {
			log.Err(err).Msg("failed to build JWKS")
			writeJSONError(w, "server_error", "failed to get JWKS", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, http.StatusOK, jwks)
	}
}

func (s *Server) Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"grant_types": s.tokens.GrantTypes(),
		})
	}
}

// Preflight answers OPTIONS requests that carry no Origin header
func (s *Server) Preflight() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", s.config.GetAllowedMethods())
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to write response")
	}
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
