package transport

import (
	"net/http"

	"github.com/dmitrijs2005/weelo-captain/internal/client/connectivity"
)

// HeaderServedOffline marks a response the cache answered because the
// backend was unreachable. Such data is as old as the stored response.
const HeaderServedOffline = "X-Served-Offline"

// Offline restricts GETs to the response cache while the backend is
// unreachable. A miss is answered with 504 by the cache instead of waiting
// for a network timeout.
func Offline(c connectivity.Checker) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.Method != http.MethodGet || c.Online() {
				return next.RoundTrip(req)
			}

			req = req.Clone(req.Context())
			req.Header.Set(HeaderCacheControl, onlyIfCached+", max-stale")
			resp, err := next.RoundTrip(req)
			if err == nil && IsCached(resp) {
				resp.Header.Set(HeaderServedOffline, "1")
			}
			return resp, err
		})
	}
}

// ServedOffline reports whether resp came from the cache while offline.
func ServedOffline(resp *http.Response) bool {
	return resp.Header.Get(HeaderServedOffline) != ""
}
