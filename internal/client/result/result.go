// Package result holds the tagged Loading/Success/Error value every repository
// operation returns instead of an error.
package result

import "fmt"

type Kind int

const (
	KindLoading Kind = iota
	KindSuccess
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Result is exactly one of Loading, Success(data) or Error(err).
type Result[T any] struct {
	kind Kind
	data T
	err  *Error
}

func Loading[T any]() Result[T] {
	return Result[T]{kind: KindLoading}
}

func Success[T any](data T) Result[T] {
	return Result[T]{kind: KindSuccess, data: data}
}

// Failure wraps err. A nil err becomes an unknown error so that an Error
// result always has a message.
func Failure[T any](err *Error) Result[T] {
	if err == nil {
		err = &Error{Message: MsgUnknown}
	}
	return Result[T]{kind: KindError, err: err}
}

func (r Result[T]) Kind() Kind      { return r.kind }
func (r Result[T]) IsLoading() bool { return r.kind == KindLoading }
func (r Result[T]) IsSuccess() bool { return r.kind == KindSuccess }
func (r Result[T]) IsError() bool   { return r.kind == KindError }

// Data returns the success value, or the zero value for other kinds.
func (r Result[T]) Data() T { return r.data }

// Err returns the failure, or nil for other kinds.
func (r Result[T]) Err() *Error { return r.err }

// AsError returns the failure as an error value, or nil for other kinds.
func (r Result[T]) AsError() error {
	if r.kind != KindError {
		return nil
	}
	return r.err
}

// Map converts the success value and forwards other kinds unchanged.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	switch r.kind {
	case KindSuccess:
		return Success(fn(r.data))
	case KindError:
		return Result[U]{kind: KindError, err: r.err}
	default:
		return Loading[U]()
	}
}
