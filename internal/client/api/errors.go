package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork wraps transport failures: DNS, connection, TLS, timeouts.
	ErrNetwork = errors.New("network error")
	// ErrDecode is returned when a 2xx body is not a valid envelope.
	ErrDecode = errors.New("malformed response")
	// ErrUnauthorized matches any *Error with status 401.
	ErrUnauthorized = errors.New("unauthorized")
)

// CodeInvalidResponse marks an envelope synthesized by the client from a
// non-JSON body.
const CodeInvalidResponse = "INVALID_RESPONSE"

// Error is a failed call as reported by the server.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("api: %d %s: %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("api: %d: %s", e.StatusCode, msg)
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}
