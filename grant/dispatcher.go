package grant

import (
	"context"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/jrsteele09/go-oauth2-token-server/credentials"
	ierrors "github.com/jrsteele09/go-oauth2-token-server/internal/errors"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/jrsteele09/go-oauth2-token-server/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Dispatcher routes a token request to the Handler registered for its grant type.
type Dispatcher struct {
	lock     sync.RWMutex
	handlers map[oauth2.GrantType]Handler
	logger   zerolog.Logger
}

type dispatcherConfig struct {
	fetcher credentials.Fetcher
	logger  zerolog.Logger
}

type Option func(*dispatcherConfig)

// WithFetcher sets the credential fetcher injected into the default handlers.
func WithFetcher(fetcher credentials.Fetcher) Option {
	return func(c *dispatcherConfig) {
		c.fetcher = fetcher
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *dispatcherConfig) {
		c.logger = logger
	}
}

// NewDispatcher registers the four standard grant types against the data handler.
func NewDispatcher(data store.DataHandler, options ...Option) *Dispatcher {
	cfg := dispatcherConfig{
		fetcher: credentials.NewClientCredentialFetcher(),
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(&cfg)
	}

	d := &Dispatcher{
		handlers: make(map[oauth2.GrantType]Handler),
		logger:   cfg.logger,
	}
	d.Register(oauth2.AuthorizationCodeGrant, NewAuthorizationCode(data, cfg.fetcher, cfg.logger))
	d.Register(oauth2.ClientCredentialsGrant, NewClientCredentials(data, cfg.fetcher, cfg.logger))
	d.Register(oauth2.RefreshTokenGrant, NewRefreshToken(data, cfg.fetcher, cfg.logger))
	d.Register(oauth2.PasswordGrant, NewPassword(data, cfg.fetcher, cfg.logger))
	return d
}

// Register adds or replaces the handler for a grant type.
func (d *Dispatcher) Register(grantType oauth2.GrantType, handler Handler) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.handlers[grantType] = handler
}

// GrantTypes lists the registered grant types.
func (d *Dispatcher) GrantTypes() []oauth2.GrantType {
	d.lock.RLock()
	defer d.lock.RUnlock()
	types := make([]oauth2.GrantType, 0, len(d.handlers))
	for gt := range d.handlers {
		types = append(types, gt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func (d *Dispatcher) handler(grantType oauth2.GrantType) (Handler, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	h, ok := d.handlers[grantType]
	return h, ok
}

// HandleTokenRequest runs the handler for grantType and blocks until it finishes.
// The returned error is always an *oauth2.Error. A panic in the handler or the
// data handler is logged and reported as InvalidGrant.
func (d *Dispatcher) HandleTokenRequest(ctx context.Context, req oauth2.Request, grantType oauth2.GrantType) (*oauth2.TokenResponse, error) {
	h, ok := d.handler(grantType)
	if !ok {
		return nil, oauth2.NewErrorf(oauth2.UnsupportedGrantType, "unsupported grant type: %q", grantType)
	}

	result, err := d.run(ctx, h, req, grantType)
	if err != nil {
		return nil, d.classify(grantType, err)
	}
	if result == nil {
		d.logger.Error().Str("grant_type", grantType.String()).Msg("handler returned neither result nor error")
		return nil, oauth2.NewError(oauth2.InvalidGrant, "no token issued")
	}
	return result, nil
}

func (d *Dispatcher) run(ctx context.Context, h Handler, req oauth2.Request, grantType oauth2.GrantType) (result *oauth2.TokenResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Str("grant_type", grantType.String()).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Recovered from panic in grant handler")
			result, err = nil, oauth2.NewError(oauth2.InvalidGrant, "grant could not be processed")
		}
	}()
	return h.HandleRequest(ctx, req)
}

// HandleTokenRequestAsync runs the request on its own goroutine and reports
// through callback exactly once.
func (d *Dispatcher) HandleTokenRequestAsync(ctx context.Context, req oauth2.Request, grantType oauth2.GrantType, callback Callback) *Continuation {
	cont := NewContinuation(callback)
	go func() {
		result, err := d.HandleTokenRequest(ctx, req, grantType)
		if err != nil {
			cont.Fail(err)
			return
		}
		cont.Succeed(result)
	}()
	return cont
}

// Submit runs the request asynchronously. The returned channel yields one
// Outcome and is then closed.
func (d *Dispatcher) Submit(ctx context.Context, req oauth2.Request, grantType oauth2.GrantType) <-chan Outcome {
	ch := make(chan Outcome, 1)
	d.HandleTokenRequestAsync(ctx, req, grantType, func(o Outcome) {
		ch <- o
		close(ch)
	})
	return ch
}

// classify keeps the error taxonomy closed for handlers registered from outside
// this package.
func (d *Dispatcher) classify(grantType oauth2.GrantType, err error) *oauth2.Error {
	var oauthErr *oauth2.Error
	if asOAuthError(err, &oauthErr) {
		return oauthErr
	}
	d.logger.Err(err).Str("grant_type", grantType.String()).Msg("handler returned an unclassified error")
	return oauth2.NewError(oauth2.InvalidGrant, "grant could not be processed")
}

func asOAuthError(err error, target **oauth2.Error) bool {
	return ierrors.As(err, target)
}
