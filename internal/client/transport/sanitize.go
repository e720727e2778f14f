package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"unicode/utf8"
)

const (
	CodeInvalidResponse = "INVALID_RESPONSE"

	maxSanitizedMessage = 200
)

type invalidEnvelope struct {
	Success bool         `json:"success"`
	Data    *struct{}    `json:"data"`
	Error   invalidError `json:"error"`
}

type invalidError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// Sanitize replaces bodies that are not JSON (HTML error pages, plain text
// from proxies) with an INVALID_RESPONSE error envelope. JSON and empty
// bodies pass through byte for byte.
func Sanitize() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil {
				return nil, err
			}

			body, err := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if err != nil {
				return nil, err
			}

			trimmed := bytes.TrimSpace(body)
			if len(trimmed) == 0 || trimmed[0] == '{' || trimmed[0] == '[' {
				resp.Body = io.NopCloser(bytes.NewReader(body))
				return resp, nil
			}

			wrapped, err := wrapInvalid(trimmed, resp.StatusCode)
			if err != nil {
				return nil, err
			}

			resp.Body = io.NopCloser(bytes.NewReader(wrapped))
			resp.ContentLength = int64(len(wrapped))
			resp.Header.Set("Content-Type", "application/json")
			resp.Header.Set("Content-Length", strconv.Itoa(len(wrapped)))
			resp.Header.Del("Content-Encoding")
			return resp, nil
		})
	}
}

func wrapInvalid(raw []byte, status int) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	err := enc.Encode(invalidEnvelope{
		Error: invalidError{
			Code:       CodeInvalidResponse,
			Message:    truncate(string(raw), maxSanitizedMessage),
			StatusCode: status,
		},
	})
	if err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
