// Package errx classifies failures into the small set of kinds the HTTP
// layer knows how to report.
package errx

import (
	"context"
	"errors"
	"net"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindValidation
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Status is the HTTP status code reported for k.
func (k Kind) Status() int {
	switch k {
	case KindNetwork:
		return http.StatusBadGateway
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Message is safe to show to users; Err is the
// underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind with no message, so callers can
// write errors.Is(err, errx.Validation("")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Network(msg string) *Error        { return New(KindNetwork, msg) }
func Authentication(msg string) *Error { return New(KindAuthentication, msg) }
func Authorization(msg string) *Error  { return New(KindAuthorization, msg) }
func NotFound(msg string) *Error       { return New(KindNotFound, msg) }
func Validation(msg string) *Error     { return New(KindValidation, msg) }
func Server(msg string) *Error         { return New(KindServer, msg) }

// KindOf classifies err. Unclassified timeouts and net errors count as
// network failures.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return KindNetwork
	}
	return KindUnknown
}

// Message returns the user facing message for err. Server and unknown
// errors get a generic message so their cause is never exposed.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		if e.Kind == KindServer || e.Kind == KindUnknown {
			return "internal server error"
		}
		return e.Message
	}

	switch KindOf(err) {
	case KindNetwork:
		return "upstream service unavailable"
	default:
		return "internal server error"
	}
}
