package grant_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-oauth2-token-server/grant"
	"github.com/jrsteele09/go-oauth2-token-server/oauth2"
	"github.com/stretchr/testify/require"
)

func TestContinuation_ExactlyOnce(t *testing.T) {
	var calls atomic.Int32
	var got grant.Outcome
	cont := grant.NewContinuation(func(o grant.Outcome) {
		calls.Add(1)
		got = o
	})

	var wg sync.WaitGroup
	delivered := atomic.Int32{}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var ok bool
			if i%2 == 0 {
				ok = cont.Succeed(oauth2.NewTokenResponse("t", 1, "", ""))
			} else {
				ok = cont.Fail(oauth2.ErrInvalidGrant)
			}
			if ok {
				delivered.Add(1)
			}
		}(i)
	}
	wg.Wait()
	<-cont.Done()

	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, int32(1), delivered.Load())
	require.True(t, (got.Result == nil) != (got.Err == nil), "exactly one of result or error")
}

func TestContinuation_NilCallback(t *testing.T) {
	cont := grant.NewContinuation(nil)
	require.True(t, cont.Succeed(oauth2.NewTokenResponse("t", 1, "", "")))
	require.False(t, cont.Succeed(oauth2.NewTokenResponse("t", 1, "", "")))
	<-cont.Done()
}

func TestOutcome_OAuthError(t *testing.T) {
	require.Nil(t, grant.Outcome{}.OAuthError())
	require.Equal(t, oauth2.AccessDenied, grant.Outcome{Err: oauth2.ErrAccessDenied}.OAuthError().Kind)
	require.Equal(t, oauth2.InvalidGrant, grant.Outcome{Err: errors.New("other")}.OAuthError().Kind)
}
