// Package transport builds the client's HTTP request pipeline: a fixed chain
// of http.RoundTripper middlewares around a pooled transport.
//
// Order, outermost first:
//
//	offline → auth → retry → response cache → cache policy → sanitizer → logging → token refresh → network
//
// A request travels down the chain and its response back up in reverse.
package transport

import (
	"io"
	"net/http"
	"strings"
)

// Middleware wraps a RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Chain applies mws so that mws[0] sees the request first.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	rt := base
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}
	return rt
}

const (
	HeaderAuthorization = "Authorization"
	HeaderCacheControl  = "Cache-Control"
	HeaderRequestID     = "X-Request-ID"

	onlyIfCached = "only-if-cached"
)

func isOnlyIfCached(r *http.Request) bool {
	return strings.Contains(r.Header.Get(HeaderCacheControl), onlyIfCached)
}

// replayable reports whether r's body can be sent again.
func replayable(r *http.Request) bool {
	return r.Body == nil || r.Body == http.NoBody || r.GetBody != nil
}

// cloneForReplay copies r with a fresh body.
func cloneForReplay(r *http.Request) (*http.Request, error) {
	c := r.Clone(r.Context())
	if r.GetBody != nil {
		body, err := r.GetBody()
		if err != nil {
			return nil, err
		}
		c.Body = body
	}
	return c, nil
}

// discard drains and closes a response that will not reach the caller, so
// its connection goes back to the pool.
func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
