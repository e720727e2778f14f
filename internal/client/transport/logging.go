package transport

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

const maxLoggedBody = 2 << 10

// Logging records every exchange and tags it with an X-Request-ID. Bodies are
// logged only when logBodies is set (never in production builds). The
// Authorization header is always redacted.
func Logging(log logging.Logger, logBodies bool) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			ctx := req.Context()

			id := req.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
				req = req.Clone(ctx)
				req.Header.Set(HeaderRequestID, id)
			}

			l := log.With("request_id", id, "method", req.Method, "url", req.URL.Redacted())
			if logBodies {
				l.Debug(ctx, "http request", "headers", redactHeaders(req.Header), "body", peekRequest(req))
			} else {
				l.Debug(ctx, "http request")
			}

			start := time.Now()
			resp, err := next.RoundTrip(req)
			elapsed := time.Since(start)
			if err != nil {
				l.Warn(ctx, "http request failed", "duration", elapsed, "error", err)
				return nil, err
			}

			args := []any{"status", resp.StatusCode, "duration", elapsed}
			if logBodies {
				args = append(args, "body", peekResponse(resp))
			}
			if resp.StatusCode >= http.StatusInternalServerError {
				l.Warn(ctx, "http response", args...)
			} else {
				l.Debug(ctx, "http response", args...)
			}
			return resp, nil
		})
	}
}

func redactHeaders(h http.Header) http.Header {
	out := h.Clone()
	if out.Get(HeaderAuthorization) != "" {
		out.Set(HeaderAuthorization, "[redacted]")
	}
	return out
}

func peekRequest(req *http.Request) string {
	if req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return ""
	}
	defer body.Close()
	b, _ := io.ReadAll(io.LimitReader(body, maxLoggedBody))
	return string(b)
}

// peekResponse reads the body and puts an identical reader back.
func peekResponse(resp *http.Response) string {
	if resp.Body == nil {
		return ""
	}
	b, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(b))
	if err != nil {
		return ""
	}
	if len(b) > maxLoggedBody {
		b = b[:maxLoggedBody]
	}
	return string(b)
}
