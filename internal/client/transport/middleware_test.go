package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/weelo-captain/internal/client/connectivity"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

func get(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}

func TestChain_OuterFirst(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}

	rt := Chain(RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		order = append(order, "base")
		return response(r, 200, "{}"), nil
	}), mark("a"), mark("b"), mark("c"))

	_, err := rt.RoundTrip(get(t, "http://x/"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "base"}, order)
}

func TestAuth(t *testing.T) {
	paths := Paths{Prefix: "/api/v1"}
	tokens := &fakeTokens{access: "tok"}

	var seen http.Header
	rt := Auth(tokens, paths)(RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = r.Header.Clone()
		return response(r, 200, "{}"), nil
	}))

	tests := []struct {
		name   string
		path   string
		preset string
		want   []string
	}{
		{"send otp is public", "/api/v1/auth/send-otp", "", nil},
		{"verify otp is public", "/api/v1/auth/verify-otp", "", nil},
		{"refresh is public", "/api/v1/auth/refresh", "", nil},
		{"public catalog", "/api/v1/public/vehicle-types", "", nil},
		{"health", "/api/v1/health", "", nil},
		{"protected gets one header", "/api/v1/vehicles", "", []string{"Bearer tok"}},
		{"logout is protected", "/api/v1/auth/logout", "", []string{"Bearer tok"}},
		{"caller header kept", "/api/v1/vehicles", "Bearer mine", []string{"Bearer mine"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := get(t, "http://x"+tt.path)
			if tt.preset != "" {
				req.Header.Set(HeaderAuthorization, tt.preset)
			}
			_, err := rt.RoundTrip(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, seen.Values(HeaderAuthorization))
		})
	}
}

func TestAuth_NoTokenNoHeader(t *testing.T) {
	var seen http.Header
	rt := Auth(&fakeTokens{}, Paths{})(RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = r.Header
		return response(r, 200, "{}"), nil
	}))

	_, err := rt.RoundTrip(get(t, "http://x/vehicles"))
	require.NoError(t, err)
	assert.Empty(t, seen.Get(HeaderAuthorization))
}

func fastRetry() Middleware {
	return Retry(RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}, logging.Nop())
}

func TestRetry_RecoversAfterTwoServerErrors(t *testing.T) {
	seq := &sequence{statuses: []int{500, 500, 200}}

	resp, err := fastRetry()(seq).RoundTrip(get(t, "http://x/vehicles"))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 3, seq.count(), "two retries after the first attempt")
}

func TestRetry_SurfacesLastFailure(t *testing.T) {
	seq := &sequence{statuses: []int{500, 500, 500, 500}}

	resp, err := fastRetry()(seq).RoundTrip(get(t, "http://x/vehicles"))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, 3, seq.count())
}

func TestRetry_DoesNotRetryClientErrors(t *testing.T) {
	seq := &sequence{statuses: []int{404, 200}}

	resp, err := fastRetry()(seq).RoundTrip(get(t, "http://x/vehicles/9"))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, 1, seq.count())
}

func TestRetry_ReplaysBody(t *testing.T) {
	seq := &sequence{statuses: []int{503, 201}}
	req, err := http.NewRequest(http.MethodPost, "http://x/vehicles", strings.NewReader(`{"vehicleNumber":"A"}`))
	require.NoError(t, err)

	resp, err := fastRetry()(seq).RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, []string{`{"vehicleNumber":"A"}`, `{"vehicleNumber":"A"}`}, seq.bodies)
}

func TestRetry_TransportErrorsExhausted(t *testing.T) {
	var hits atomic.Int32
	boom := errors.New("connection reset")
	rt := fastRetry()(RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		hits.Add(1)
		return nil, boom
	}))

	_, err := rt.RoundTrip(get(t, "http://x/vehicles"))
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 3, hits.Load())
}

func TestRetry_SkipsCacheOnlyRequests(t *testing.T) {
	seq := &sequence{statuses: []int{504, 200}}
	req := get(t, "http://x/vehicles")
	req.Header.Set(HeaderCacheControl, "only-if-cached, max-stale")

	resp, err := fastRetry()(seq).RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, 504, resp.StatusCode)
	assert.Equal(t, 1, seq.count())
}

func TestRetry_StopsOnCancel(t *testing.T) {
	seq := &sequence{statuses: []int{500}}
	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://x/", nil)

	rt := Retry(RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour}, logging.Nop())(seq)
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := rt.RoundTrip(req)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, seq.count())
}

func sanitized(t *testing.T, status int, body string) (*http.Response, string) {
	t.Helper()
	rt := Sanitize()(RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		resp := response(r, status, body)
		resp.Header.Set("Content-Type", "text/html")
		return resp, nil
	}))
	resp, err := rt.RoundTrip(get(t, "http://x/"))
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestSanitize_WrapsHTML(t *testing.T) {
	resp, body := sanitized(t, 502, "<html>Error</html>")

	assert.Equal(t,
		`{"success":false,"data":null,"error":{"code":"INVALID_RESPONSE","message":"<html>Error</html>","statusCode":502}}`,
		body)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.EqualValues(t, len(body), resp.ContentLength)
}

func TestSanitize_PassesJSONUnchanged(t *testing.T) {
	in := "  {\"success\":true,\"data\":{\"id\":\"v1\"}}\n"
	_, body := sanitized(t, 200, in)
	assert.Equal(t, in, body)

	_, body = sanitized(t, 200, `[1,2]`)
	assert.Equal(t, `[1,2]`, body)

	_, body = sanitized(t, 204, "")
	assert.Empty(t, body)
}

func TestSanitize_TruncatesAndEscapes(t *testing.T) {
	long := `"quoted" ` + strings.Repeat("é", 300)
	_, body := sanitized(t, 500, long)

	assert.Contains(t, body, `\"quoted\"`)
	assert.Less(t, len(body), 400)
}

func TestCachePolicy(t *testing.T) {
	tests := []struct {
		name   string
		method string
		status int
		header string
		want   string
	}{
		{"get ok", http.MethodGet, 200, "", "public, max-age=300"},
		{"no-store kept", http.MethodGet, 200, "no-store", "no-store"},
		{"post untouched", http.MethodPost, 200, "", ""},
		{"error untouched", http.MethodGet, 500, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := CachePolicy(5 * time.Minute)(RoundTripFunc(func(r *http.Request) (*http.Response, error) {
				resp := response(r, tt.status, "{}")
				if tt.header != "" {
					resp.Header.Set(HeaderCacheControl, tt.header)
				}
				return resp, nil
			}))
			req, _ := http.NewRequest(tt.method, "http://x/", nil)
			resp, err := rt.RoundTrip(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Header.Get(HeaderCacheControl))
		})
	}
}

func TestOffline_OnlyMarksGETs(t *testing.T) {
	var seen []string
	rt := Offline(connectivity.Static(false))(RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = append(seen, r.Header.Get(HeaderCacheControl))
		return response(r, 200, "{}"), nil
	}))

	_, _ = rt.RoundTrip(get(t, "http://x/"))
	post, _ := http.NewRequest(http.MethodPost, "http://x/", nil)
	_, _ = rt.RoundTrip(post)

	assert.Equal(t, []string{"only-if-cached, max-stale", ""}, seen)
}

func TestOffline_MarksOnlyCachedAnswers(t *testing.T) {
	cached := true
	rt := Offline(connectivity.Static(false))(RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		resp := response(r, 200, "{}")
		if cached {
			resp.Header.Set("X-From-Cache", "1")
		} else {
			resp.StatusCode = http.StatusGatewayTimeout
		}
		return resp, nil
	}))

	resp, err := rt.RoundTrip(get(t, "http://x/vehicles"))
	require.NoError(t, err)
	assert.True(t, ServedOffline(resp))

	cached = false
	resp, err = rt.RoundTrip(get(t, "http://x/vehicles"))
	require.NoError(t, err)
	assert.False(t, ServedOffline(resp))

	online := Offline(connectivity.Static(true))(RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		resp := response(r, 200, "{}")
		resp.Header.Set("X-From-Cache", "1")
		return resp, nil
	}))
	resp, err = online.RoundTrip(get(t, "http://x/vehicles"))
	require.NoError(t, err)
	assert.False(t, ServedOffline(resp), "a fresh hit while online is not offline data")
}

func TestLogging_RedactsAndTagsRequests(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewTextLogger(&buf, "debug")

	var gotID string
	rt := Logging(log, true)(RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		gotID = r.Header.Get(HeaderRequestID)
		return response(r, 200, `{"success":true}`), nil
	}))

	req := get(t, "http://x/vehicles")
	req.Header.Set(HeaderAuthorization, "Bearer secret-token")
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)

	assert.NotEmpty(t, gotID)
	assert.Contains(t, buf.String(), gotID)
	assert.NotContains(t, buf.String(), "secret-token")
	assert.Contains(t, buf.String(), "[redacted]")

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, `{"success":true}`, string(body), "body restored after logging")
}

func TestLogging_NoBodiesInProduction(t *testing.T) {
	var buf bytes.Buffer
	rt := Logging(logging.NewTextLogger(&buf, "debug"), false)(RoundTripFunc(func(r *http.Request) (*http.Response, error) {
		return response(r, 200, `{"otp":"123456"}`), nil
	}))

	_, err := rt.RoundTrip(get(t, "http://x/"))
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "123456")
}
