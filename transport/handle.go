//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Plain-or-secure connection handle.
//

package transport

import (
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rbmk-project/smtpio/netipx"
)

// Kind tells which kind of stream a [*Handle] holds.
type Kind int

const (
	// KindPlain is a plaintext stream.
	KindPlain Kind = iota

	// KindSecure is a TLS stream whose handshake has completed.
	KindSecure
)

// String implements [fmt.Stringer].
func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindSecure:
		return "secure"
	default:
		return "unknown"
	}
}

// Handle is a connection to an SMTP peer holding either a plaintext
// or a TLS stream. The kind is fixed at construction and all the methods
// dispatch to the held stream, so protocol code can use a [*Handle] as a
// [net.Conn] without caring about the kind.
//
// Construct using [NewPlainHandle] or [NewSecureHandle].
type Handle struct {
	closeonce sync.Once
	closeErr  error
	s         stream
}

var _ net.Conn = &Handle{}

// NewPlainHandle returns a [*Handle] holding a plaintext stream.
func NewPlainHandle(conn net.Conn) *Handle {
	return &Handle{s: plainStream{conn}}
}

// NewSecureHandle returns a [*Handle] holding a TLS stream. The caller
// must have completed the handshake.
func NewSecureHandle(conn TLSConn) *Handle {
	return &Handle{s: secureStream{conn}}
}

// Kind returns the kind of stream held by the handle.
func (h *Handle) Kind() Kind {
	return h.s.kind()
}

// IsSecure returns whether the handle holds a TLS stream.
func (h *Handle) IsSecure() bool {
	return h.s.kind() == KindSecure
}

// ConnectionState returns the TLS connection state. The boolean
// is false when the handle holds a plaintext stream.
func (h *Handle) ConnectionState() (tls.ConnectionState, bool) {
	return h.s.connectionState()
}

// LocalAddressLiteral returns the local IP address formatted as an SMTP
// address literal (e.g., "[192.0.2.1]"), suitable for EHLO when the client
// has no domain name. It returns an empty string if the address is unknown.
func (h *Handle) LocalAddressLiteral() string {
	return netipx.AddressLiteral(h.LocalAddr())
}

// Read implements [net.Conn].
func (h *Handle) Read(buf []byte) (int, error) {
	return h.s.Read(buf)
}

// Write implements [net.Conn].
func (h *Handle) Write(data []byte) (int, error) {
	return h.s.Write(data)
}

// Shutdown half-closes the write side of the stream. For a TLS stream
// this sends a close_notify alert; for a plaintext TCP stream this
// shuts down the write side of the socket. Streams that do not support
// half-closing ignore the call.
func (h *Handle) Shutdown() error {
	err := h.s.shutdown()
	if errors.Is(err, errors.ErrUnsupported) {
		return nil
	}
	return err
}

// Close implements [net.Conn]. Closing a TLS stream sends close_notify
// before closing the underlying socket. Calling Close more than once
// returns the result of the first call.
func (h *Handle) Close() error {
	h.closeonce.Do(func() {
		h.closeErr = h.s.Close()
	})
	return h.closeErr
}

// LocalAddr implements [net.Conn].
func (h *Handle) LocalAddr() net.Addr {
	return h.s.LocalAddr()
}

// RemoteAddr implements [net.Conn].
func (h *Handle) RemoteAddr() net.Addr {
	return h.s.RemoteAddr()
}

// SetDeadline implements [net.Conn].
func (h *Handle) SetDeadline(t time.Time) error {
	return h.s.SetDeadline(t)
}

// SetReadDeadline implements [net.Conn].
func (h *Handle) SetReadDeadline(t time.Time) error {
	return h.s.SetReadDeadline(t)
}

// SetWriteDeadline implements [net.Conn].
func (h *Handle) SetWriteDeadline(t time.Time) error {
	return h.s.SetWriteDeadline(t)
}

// stream is implemented once per [Kind].
type stream interface {
	net.Conn
	connectionState() (tls.ConnectionState, bool)
	kind() Kind
	shutdown() error
}

// closeWriter is implemented by [*net.TCPConn] and [*tls.Conn].
type closeWriter interface {
	CloseWrite() error
}

// plainStream is the [KindPlain] stream.
type plainStream struct {
	net.Conn
}

func (plainStream) connectionState() (tls.ConnectionState, bool) {
	return tls.ConnectionState{}, false
}

func (plainStream) kind() Kind {
	return KindPlain
}

func (s plainStream) shutdown() error {
	if cw, ok := s.Conn.(closeWriter); ok {
		return cw.CloseWrite()
	}
	return nil
}

// secureStream is the [KindSecure] stream.
type secureStream struct {
	TLSConn
}

func (s secureStream) connectionState() (tls.ConnectionState, bool) {
	return s.TLSConn.ConnectionState(), true
}

func (secureStream) kind() Kind {
	return KindSecure
}

func (s secureStream) shutdown() error {
	if cw, ok := s.TLSConn.(closeWriter); ok {
		return cw.CloseWrite()
	}
	return nil
}
