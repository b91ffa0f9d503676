//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Definition of Network.
//

package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"net"
	"time"
)

// Network allows establishing plaintext and TLS connections.
//
// The zero value is ready to use.
//
// A [*Network] is safe for concurrent use by multiple goroutines as long as
// you don't modify its fields after construction and the underlying fields you
// may set (e.g., DialContextFunc) are also safe.
type Network struct {
	// DialContextFunc is the optional dialer for creating new
	// TCP connections. If this field is nil, we use the [*net.Dialer]
	// returned by NewDialerOrSingleton or the default one.
	DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

	// DialContextTimeout is the optional timeout to use for limiting
	// the maximum time spent creating a single connection.
	DialContextTimeout time.Duration

	// HandshakeTimeout is the optional timeout to use for limiting
	// the maximum time spent in a single TLS handshake.
	HandshakeTimeout time.Duration

	// Logger is the optional structured logger for emitting
	// structured diagnostic events. If this field is nil, we
	// will not be emitting structured logs.
	Logger *slog.Logger

	// LookupHostFunc is the optional function to resolve a domain
	// name to IP addresses. If this field is nil, we use the
	// default [*net.Resolver] from the [net] package.
	LookupHostFunc func(ctx context.Context, domain string) ([]string, error)

	// NewDialerOrSingleton is the optional function that returns
	// the [*net.Dialer] to use when DialContextFunc is not set. When this
	// field is not set, we use an internal, static [*net.Dialer] where
	// support for Multipath TCP has been disabled.
	NewDialerOrSingleton func() *net.Dialer

	// RootCAs contains the optional [*x509.CertPool] used when
	// creating the default TLS config. If it is not set, we use the
	// system's root CAs. This field is only used when the TLSConfig
	// field is nil.
	RootCAs *x509.CertPool

	// TLSConfig is the optional TLS client config passed to [TLSSetup]
	// as the default config. We always clone it before use and set the
	// clone's ServerName to the hostname. If this field
	// is nil, we create a suitable config from RootCAs and the hostname.
	TLSConfig *tls.Config

	// TLSEngine is the optional [TLSEngine] to use for creating a new
	// instance of [TLSConn]. If this field is nil, we use an
	// instance of [TLSEngineStdlib].
	TLSEngine TLSEngine

	// TimeNow is an optional function that returns the current time.
	// If this field is nil, the [time.Now] function will be used.
	TimeNow func() time.Time

	// WrapConn is an optional function to wrap a TCP connection to emit
	// structured logs. [WrapConn] is the default wrapper to use. Wrapping
	// only happens when Logger is also set.
	WrapConn func(ctx context.Context, netx *Network, conn net.Conn) net.Conn
}

// DefaultNetwork is the default [*Network] used by this package.
var DefaultNetwork = &Network{}

// ConnectInsecure calls [*Network.ConnectInsecure] using [DefaultNetwork].
func ConnectInsecure(ctx context.Context, address string) (*Handle, error) {
	return DefaultNetwork.ConnectInsecure(ctx, address)
}

// ConnectSecure calls [*Network.ConnectSecure] using [DefaultNetwork].
func ConnectSecure(ctx context.Context, address, hostname string, setup TLSSetup) (*Handle, error) {
	return DefaultNetwork.ConnectSecure(ctx, address, hostname, setup)
}

// timeNow is a function that returns the current time.
func (nx *Network) timeNow() time.Time {
	if nx.TimeNow != nil {
		return nx.TimeNow()
	}
	return time.Now()
}
