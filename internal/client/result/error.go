package result

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
)

const (
	MsgSessionExpired  = "session expired, please log in again"
	MsgForbidden       = "you do not have permission to perform this action"
	MsgNotFound        = "the requested item was not found"
	MsgConflict        = "this item was changed by someone else"
	MsgNetwork         = "network error, please check your connection"
	MsgInvalidResponse = "the server sent an unexpected response"
	MsgCanceled        = "request cancelled"
	MsgUnknown         = "something went wrong"
)

// Error is the user-facing side of a failed operation.
type Error struct {
	Message    string
	StatusCode int
	Code       string

	// MustReauthenticate is set when the server rejected the session even
	// after a refresh; callers should force a logout.
	MustReauthenticate bool
}

func (e *Error) Error() string { return e.Message }

// FromError classifies err. Server messages for 4xx are kept as sent; only
// missing messages fall back to generic text.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var re *Error
	if errors.As(err, &re) {
		return re
	}

	var ae *api.Error
	if errors.As(err, &ae) {
		out := &Error{StatusCode: ae.StatusCode, Code: ae.Code, Message: ae.Message}
		switch ae.StatusCode {
		case http.StatusUnauthorized:
			out.MustReauthenticate = true
			out.Message = MsgSessionExpired
		case http.StatusForbidden:
			out.Message = orDefault(ae.Message, MsgForbidden)
		case http.StatusNotFound:
			out.Message = orDefault(ae.Message, MsgNotFound)
		case http.StatusConflict:
			out.Message = orDefault(ae.Message, MsgConflict)
		default:
			switch {
			case ae.Code == api.CodeInvalidResponse:
				out.Message = MsgInvalidResponse
			case ae.StatusCode >= 500:
				out.Message = orDefault(ae.Message, MsgNetwork)
			default:
				out.Message = orDefault(ae.Message, MsgUnknown)
			}
		}
		return out
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &Error{Message: MsgCanceled}
	case errors.Is(err, api.ErrNetwork), errors.Is(err, context.DeadlineExceeded):
		return &Error{Message: MsgNetwork}
	}

	return &Error{Message: orDefault(err.Error(), MsgUnknown)}
}

// FromErrorT is FromError wrapped into a Result.
func FromErrorT[T any](err error) Result[T] {
	return Failure[T](FromError(err))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
