package transport

import (
	"context"
	"net/http"
	"sync"

	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

// TokenStore is what the refresh step reads and updates.
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	UpdateTokens(ctx context.Context, accessToken, refreshToken string) error
}

// Refresher exchanges a refresh token for a new pair. It must not go through
// the pipeline that calls it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (accessToken, newRefreshToken string, err error)
}

type RefreshFunc func(ctx context.Context, refreshToken string) (string, string, error)

func (f RefreshFunc) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	return f(ctx, refreshToken)
}

// refreshGate is the process-wide "refresh in progress" flag. It is not a
// queue: a request that finds it taken gets its own 401 back.
type refreshGate struct {
	mu         sync.Mutex
	refreshing bool
}

func (g *refreshGate) tryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refreshing {
		return false
	}
	g.refreshing = true
	return true
}

func (g *refreshGate) release() {
	g.mu.Lock()
	g.refreshing = false
	g.mu.Unlock()
}

// TokenRefresh handles a 401 on a non-auth path. If the store already holds
// a different token than the one sent, the request is replayed with it.
// Otherwise one caller refreshes, persists the new pair and replays once;
// concurrent callers and failed refreshes get the original 401.
func TokenRefresh(tokens TokenStore, refresher Refresher, paths Paths, log logging.Logger) Middleware {
	gate := &refreshGate{}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil || resp.StatusCode != http.StatusUnauthorized || paths.IsAuth(req.URL.Path) {
				return resp, err
			}

			sent := bearer(req)
			if sent == "" || !replayable(req) {
				return resp, nil
			}

			ctx := req.Context()

			if current := tokens.AccessToken(); current != "" && current != sent {
				log.Debug(ctx, "token changed while request was in flight, replaying")
				return replayWith(next, req, current, resp)
			}

			if !gate.tryAcquire() {
				log.Debug(ctx, "refresh already in progress, returning 401")
				return resp, nil
			}

			access, ok := refresh(ctx, tokens, refresher, log)
			gate.release()
			if !ok {
				return resp, nil
			}
			return replayWith(next, req, access, resp)
		})
	}
}

func refresh(ctx context.Context, tokens TokenStore, refresher Refresher, log logging.Logger) (string, bool) {
	rt := tokens.RefreshToken()
	if rt == "" {
		return "", false
	}

	access, newRefresh, err := refresher.Refresh(ctx, rt)
	if err != nil || access == "" {
		log.Warn(ctx, "token refresh failed", "error", err)
		return "", false
	}
	if newRefresh == "" {
		newRefresh = rt
	}

	if err := tokens.UpdateTokens(ctx, access, newRefresh); err != nil {
		log.Error(ctx, "storing refreshed tokens failed", "error", err)
		return "", false
	}

	log.Info(ctx, "access token refreshed")
	return access, true
}

// replayWith sends req again with token. The original response is kept if
// the request cannot be rebuilt.
func replayWith(next http.RoundTripper, req *http.Request, token string, orig *http.Response) (*http.Response, error) {
	r, err := cloneForReplay(req)
	if err != nil {
		return orig, nil
	}
	r.Header.Set(HeaderAuthorization, "Bearer "+token)

	discard(orig)
	return next.RoundTrip(r)
}
