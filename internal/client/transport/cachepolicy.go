package transport

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CachePolicy marks successful GET responses as cacheable for maxAge unless
// the server said no-store.
func CachePolicy(maxAge time.Duration) Middleware {
	value := fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil || req.Method != http.MethodGet {
				return resp, err
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return resp, nil
			}
			if strings.Contains(resp.Header.Get(HeaderCacheControl), "no-store") {
				return resp, nil
			}
			resp.Header.Set(HeaderCacheControl, value)
			return resp, nil
		})
	}
}
