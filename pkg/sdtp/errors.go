package sdtp

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies protocol errors. The string value is sent to clients as error_kind.
type Kind string

const (
	KindNotFound   Kind = "NotFoundError"
	KindSchema     Kind = "SchemaError"
	KindType       Kind = "TypeError"
	KindSpec       Kind = "SpecError"
	KindConversion Kind = "ConversionError"
	KindTimeout    Kind = "TimeoutError"
	KindRequest    Kind = "RequestError"
	KindInternal   Kind = "InternalError"
)

// HTTPStatus returns the status code a listener answers with for errors of this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// Error is a classified protocol error.
//
// Path locates the offending filter subtree, e.g. "AND[1].age", and is empty
// for errors that are not tied to a filter node.
type Error struct {
	Kind    Kind
	Message string
	Path    string
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s at %s: %s", e.Kind, e.Path, e.Message)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Response converts e to its wire form.
func (e *Error) Response() *ErrorResponse {
	return &ErrorResponse{ErrorKind: e.Kind, Message: e.Message, Path: e.Path}
}

func newError(kind Kind, path string, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Path: path}
}

func NotFoundErrorf(format string, args ...any) *Error {
	return newError(KindNotFound, "", format, args...)
}

func SchemaErrorf(path string, format string, args ...any) *Error {
	return newError(KindSchema, path, format, args...)
}

func TypeErrorf(path string, format string, args ...any) *Error {
	return newError(KindType, path, format, args...)
}

func SpecErrorf(path string, format string, args ...any) *Error {
	return newError(KindSpec, path, format, args...)
}

func ConversionErrorf(format string, args ...any) *Error {
	return newError(KindConversion, "", format, args...)
}

func TimeoutErrorf(format string, args ...any) *Error {
	return newError(KindTimeout, "", format, args...)
}

func RequestErrorf(format string, args ...any) *Error {
	return newError(KindRequest, "", format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

// AsError returns the first *Error in err's chain.
// Errors without a classification become an InternalError carrying err's message.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{Kind: KindInternal, Message: err.Error()}
}
