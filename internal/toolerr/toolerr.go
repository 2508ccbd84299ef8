// Package toolerr defines the failure kinds a tool call can end with.
package toolerr

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Kind classifies a tool failure so callers can branch on it.
type Kind string

const (
	KindUnknownTool      Kind = "unknown_tool"
	KindInvalidParameter Kind = "invalid_parameter"
	KindNotFound         Kind = "not_found"
	KindUpstream         Kind = "upstream"
	KindPermission       Kind = "permission"
)

// Error is a classified failure. Param is set for invalid parameter errors.
type Error struct {
	Kind    Kind
	Param   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Param != "" {
		msg = fmt.Sprintf("parameter %q: %s", e.Param, e.Message)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Param == "" || t.Param == e.Param)
}

// Sentinels for errors.Is checks.
var (
	ErrUnknownTool      = &Error{Kind: KindUnknownTool}
	ErrInvalidParameter = &Error{Kind: KindInvalidParameter}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrUpstream         = &Error{Kind: KindUpstream}
	ErrPermission       = &Error{Kind: KindPermission}
)

// UnknownTool reports a tool name that is not registered.
func UnknownTool(name string) *Error {
	return &Error{Kind: KindUnknownTool, Message: fmt.Sprintf("unknown tool %q", name)}
}

// InvalidParameter reports a missing or malformed parameter.
func InvalidParameter(param, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidParameter, Param: param, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a project or merge request the host does not know.
func NotFound(err error, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...), Err: err}
}

// Upstream reports a transport or authentication failure talking to a host.
func Upstream(err error, format string, args ...any) *Error {
	return &Error{Kind: KindUpstream, Message: fmt.Sprintf(format, args...), Err: err}
}

// Permission reports insufficient rights to write a document.
func Permission(err error, format string, args ...any) *Error {
	return &Error{Kind: KindPermission, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err. Errors that carry no kind are upstream failures.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUpstream
}

// From converts any error into an *Error, keeping an existing classification.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return Upstream(err, "unexpected failure")
}
