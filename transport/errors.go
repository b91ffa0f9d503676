// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import "errors"

// ConnectError is the error returned by [*Network.ConnectSecure].
//
// The same type wraps TLS setup, lookup, dial, and handshake failures. The
// message names the failing step and [errors.Is] and [errors.As] reach the
// underlying cause through Unwrap.
type ConnectError struct {
	// Address is the address passed to ConnectSecure.
	Address string

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *ConnectError) Error() string {
	return "secure connect to " + e.Address + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *ConnectError) Unwrap() error {
	return e.Err
}

// ErrNoEndpoints indicates that there were no endpoints to dial.
var ErrNoEndpoints = errors.New("no endpoints to dial")
