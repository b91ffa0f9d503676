// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package logic classifies SMTP protocol failures.

Transport failures (the connection could not be established or broke)
are plain Go errors returned by the transport package. This package
deals with the other family: the connection works but the exchange
did not go as the client wanted. An [*Error] has exactly one [Kind]:

- [KindCode]: the server replied with an error reply (4yz or 5yz);

- [KindUnexpectedCode]: the server replied with a non-error reply the
current command did not expect (e.g., 250 where 354 was due after DATA);

- [KindCustom]: a command implementation detected a failure of its own
and wrapped it, so that it can later retrieve it using [errors.As].

None of these is retried here. The caller decides whether to retry the
command, abort the connection, or give up.
*/
package logic

import (
	"errors"
	"fmt"

	"github.com/rbmk-project/common/runtimex"
)

// Response is a server reply. The protocol layer decides what is an
// error reply by implementing IsErroneous.
type Response interface {
	IsErroneous() bool
}

// Kind is the kind of [*Error].
type Kind int

const (
	// KindCode means the server replied with an error reply.
	KindCode Kind = iota + 1

	// KindUnexpectedCode means the server replied with a non-error
	// reply that the command did not expect.
	KindUnexpectedCode

	// KindCustom means a command detected a failure of its own.
	KindCustom
)

// String implements [fmt.Stringer].
func (k Kind) String() string {
	switch k {
	case KindCode:
		return "Code"
	case KindUnexpectedCode:
		return "UnexpectedCode"
	case KindCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// Error is a protocol logic error.
//
// Construct using [CheckResponse], [NewUnexpectedCode], or [NewCustom].
type Error struct {
	custom   error
	kind     Kind
	response Response
}

// NewUnexpectedCode returns an [*Error] of kind [KindUnexpectedCode]
// carrying the reply the command could not handle.
func NewUnexpectedCode(response Response) *Error {
	return &Error{kind: KindUnexpectedCode, response: response}
}

// NewCustom returns an [*Error] of kind [KindCustom] wrapping err.
//
// The err must be safe for concurrent use and must not reference data
// the caller may later modify, since the error may outlive the command
// and travel across goroutines. This function panics if err is nil.
func NewCustom(err error) *Error {
	runtimex.Assert(err != nil, "logic.NewCustom: nil error")
	return &Error{custom: err, kind: KindCustom}
}

// CheckResponse returns the response unchanged and a nil error unless the
// response is erroneous, in which case it returns the zero value and an
// [*Error] of kind [KindCode] owning the response.
func CheckResponse[R Response](response R) (R, error) {
	if response.IsErroneous() {
		var zero R
		return zero, &Error{kind: KindCode, response: response}
	}
	return response, nil
}

// Kind returns the error kind.
func (e *Error) Kind() Kind {
	return e.kind
}

// Response returns the reply carried by [KindCode] and [KindUnexpectedCode]
// errors. The boolean is false for any other kind.
func (e *Error) Response() (Response, bool) {
	ok := e.kind == KindCode || e.kind == KindUnexpectedCode
	return e.response, ok
}

// Custom returns the error wrapped by [KindCustom] errors or nil.
func (e *Error) Custom() error {
	return e.custom
}

// describer is implemented by errors carrying a short description
// distinct from their message.
type describer interface {
	Description() string
}

// causer is implemented by errors exposing their cause.
type causer interface {
	Cause() error
}

// Description returns a fixed description for [KindCode] and
// [KindUnexpectedCode]. For [KindCustom] it returns the wrapped error's
// Description, if any, or its message.
func (e *Error) Description() string {
	switch e.kind {
	case KindCode:
		return "server responded with error response code"
	case KindUnexpectedCode:
		return "server responded with unexpected non-error response code"
	case KindCustom:
		if d, ok := e.custom.(describer); ok {
			return d.Description()
		}
		return e.custom.Error()
	default:
		return "unknown logic error"
	}
}

// Cause returns nil for [KindCode] and [KindUnexpectedCode], which are
// root causes. For [KindCustom] it returns the wrapped error's Cause, if
// any, or the result of [errors.Unwrap] on it.
func (e *Error) Cause() error {
	if e.kind != KindCustom {
		return nil
	}
	if c, ok := e.custom.(causer); ok {
		return c.Cause()
	}
	return errors.Unwrap(e.custom)
}

// Error implements error. [KindCustom] errors print the wrapped error's
// message. [KindCode] and [KindUnexpectedCode] print the kind and the reply.
func (e *Error) Error() string {
	switch e.kind {
	case KindCustom:
		return e.custom.Error()
	case KindCode, KindUnexpectedCode:
		return fmt.Sprintf("%s(%#v)", e.kind, e.response)
	default:
		return "unknown logic error"
	}
}

// Unwrap returns the error wrapped by [KindCustom] errors, so that the
// command which created it can recover it with [errors.As].
func (e *Error) Unwrap() error {
	return e.custom
}

// IsCode returns whether err is or wraps an [*Error] of kind [KindCode].
func IsCode(err error) bool {
	return isKind(err, KindCode)
}

// IsUnexpectedCode returns whether err is or wraps an [*Error]
// of kind [KindUnexpectedCode].
func IsUnexpectedCode(err error) bool {
	return isKind(err, KindUnexpectedCode)
}

// IsCustom returns whether err is or wraps an [*Error] of kind [KindCustom].
func IsCustom(err error) bool {
	return isKind(err, KindCustom)
}

func isKind(err error, kind Kind) bool {
	var lerr *Error
	return errors.As(err, &lerr) && lerr.kind == kind
}
