package transport

import (
	"net/http"
	"strings"
)

// TokenSource supplies the bearer credential.
type TokenSource interface {
	AccessToken() string
}

// publicPaths never carry credentials. Paths are relative to the API base.
var publicPaths = map[string]struct{}{
	"/auth/send-otp":   {},
	"/auth/verify-otp": {},
	"/auth/refresh":    {},
	"/health":          {},
}

const publicPrefix = "/public/"

// Paths decides which requests are public. Prefix is the base URL path
// (e.g. /api/v1) stripped before matching.
type Paths struct {
	Prefix string
}

func (p Paths) relative(path string) string {
	if p.Prefix != "" && strings.HasPrefix(path, p.Prefix) {
		return path[len(p.Prefix):]
	}
	return path
}

func (p Paths) IsPublic(path string) bool {
	rel := p.relative(path)
	if _, ok := publicPaths[rel]; ok {
		return true
	}
	return strings.HasPrefix(rel, publicPrefix)
}

// IsAuth reports whether path belongs to the auth endpoints, whose 401s mean
// bad credentials rather than an expired session.
func (p Paths) IsAuth(path string) bool {
	return strings.HasPrefix(p.relative(path), "/auth/")
}

// Auth sets "Authorization: Bearer <token>" on non-public requests. A header
// set by the caller is left alone.
func Auth(tokens TokenSource, paths Paths) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			if paths.IsPublic(req.URL.Path) || req.Header.Get(HeaderAuthorization) != "" {
				return next.RoundTrip(req)
			}

			token := tokens.AccessToken()
			if token == "" {
				return next.RoundTrip(req)
			}

			req = req.Clone(req.Context())
			req.Header.Set(HeaderAuthorization, "Bearer "+token)
			return next.RoundTrip(req)
		})
	}
}

func bearer(req *http.Request) string {
	return strings.TrimPrefix(req.Header.Get(HeaderAuthorization), "Bearer ")
}
