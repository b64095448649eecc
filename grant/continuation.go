package grant

import (
	"sync"

	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
)

// Outcome is the terminal result of one token request: exactly one of Result
// or Err is set.
type Outcome struct {
	Result *oauth2.TokenResponse
	Err    error
}

// OAuthError returns Err as an *oauth2.Error, or nil on success.
func (o Outcome) OAuthError() *oauth2.Error {
	if o.Err == nil {
		return nil
	}
	var oauthErr *oauth2.Error
	if ok := asOAuthError(o.Err, &oauthErr); ok {
		return oauthErr
	}
	return oauth2.NewError(oauth2.InvalidGrant, o.Err.Error())
}

// Callback receives the outcome of an asynchronous token request.
type Callback func(Outcome)

// Continuation delivers an Outcome to its callback at most once. Later
// completions are dropped.
type Continuation struct {
	once     sync.Once
	callback Callback
	done     chan struct{}
}

func NewContinuation(callback Callback) *Continuation {
	return &Continuation{
		callback: callback,
		done:     make(chan struct{}),
	}
}

// Complete delivers the outcome and reports whether this call was the one
// that did so.
func (c *Continuation) Complete(outcome Outcome) bool {
	delivered := false
	c.once.Do(func() {
		delivered = true
		defer close(c.done)
		if c.callback != nil {
			c.callback(outcome)
		}
	})
	return delivered
}

func (c *Continuation) Succeed(result *oauth2.TokenResponse) bool {
	return c.Complete(Outcome{Result: result})
}

func (c *Continuation) Fail(err error) bool {
	return c.Complete(Outcome{Err: err})
}

// Done is closed once the callback has returned.
func (c *Continuation) Done() <-chan struct{} {
	return c.done
}
