package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

type RetryPolicy struct {
	// MaxAttempts counts the first try.
	MaxAttempts int
	// BaseDelay doubles after every failed attempt.
	BaseDelay time.Duration
}

// Retry resends requests that failed with a transport error or a 5xx
// response. 4xx responses and cache-only requests are returned as is. Once
// attempts run out the last 5xx response (or the last error) is returned.
func Retry(p RetryPolicy, log logging.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			if p.MaxAttempts <= 1 || isOnlyIfCached(req) || !replayable(req) {
				return next.RoundTrip(req)
			}

			b := retry.WithMaxRetries(uint64(p.MaxAttempts-1), retry.NewExponential(p.BaseDelay))

			var (
				resp    *http.Response
				attempt int
			)
			err := retry.Do(req.Context(), b, func(ctx context.Context) error {
				attempt++

				r := req
				if attempt > 1 {
					var err error
					if r, err = cloneForReplay(req); err != nil {
						return err
					}
				}

				res, err := next.RoundTrip(r)
				if err != nil {
					if ctx.Err() != nil {
						return err
					}
					log.Warn(ctx, "request failed, will retry", "url", req.URL.Redacted(), "attempt", attempt, "error", err)
					return retry.RetryableError(err)
				}

				if res.StatusCode >= http.StatusInternalServerError && attempt < p.MaxAttempts {
					log.Warn(ctx, "server error, will retry", "url", req.URL.Redacted(), "attempt", attempt, "status", res.StatusCode)
					discard(res)
					return retry.RetryableError(fmt.Errorf("server returned %d", res.StatusCode))
				}

				resp = res
				return nil
			})
			if err != nil {
				return nil, err
			}
			return resp, nil
		})
	}
}
