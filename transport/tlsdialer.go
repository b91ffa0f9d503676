//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/ooni/probe-cli/blob/v3.20.1/internal/measurexlite/tls.go
//
// TLS connect.
//

package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rbmk-project/common/errclass"
	"github.com/rbmk-project/smtpio/closepool"
)

// ConnectSecure establishes a TLS connection to the given address, a
// "host:port" string where host is a domain name or an IP address. The
// hostname is the name the server certificate is validated against.
//
// We build the default TLS config (see [Network.TLSConfig]) and pass it to
// setup, which may be nil to use [DefaultTLSSetup]. If setup fails, we return
// without touching the network. Otherwise we resolve the address, dial, and
// perform the TLS handshake. Any failure is a [*ConnectError] and any
// connection opened by the failed attempt has already been closed.
func (nx *Network) ConnectSecure(
	ctx context.Context, address, hostname string, setup TLSSetup) (*Handle, error) {
	// obtain the TLS config to use
	config, err := nx.setupTLSLog(ctx, hostname, setup)
	if err != nil {
		return nil, &ConnectError{Address: address, Err: fmt.Errorf("tls setup: %w", err)}
	}

	// resolve the endpoints to connect to
	endpoints, err := nx.maybeLookupEndpoint(ctx, address)
	if err != nil {
		return nil, &ConnectError{Address: address, Err: fmt.Errorf("lookup: %w", err)}
	}

	// sequentially attempt with each available endpoint
	sd := &secureDialer{config: config, netx: nx}
	tconn, err := sequentialDial(ctx, sd.dial, endpoints...)
	if err != nil {
		return nil, &ConnectError{Address: address, Err: err}
	}
	return NewSecureHandle(tconn), nil
}

// setupTLSLog calls setupTLS and emits structured events around it.
func (nx *Network) setupTLSLog(
	ctx context.Context, hostname string, setup TLSSetup) (*tls.Config, error) {
	t0 := nx.timeNow()
	if nx.Logger != nil {
		nx.Logger.InfoContext(
			ctx,
			"tlsSetupStart",
			slog.String("tlsServerName", hostname),
			slog.Time("t", t0),
		)
	}

	config, err := nx.setupTLS(hostname, setup)

	if nx.Logger != nil {
		nx.Logger.InfoContext(
			ctx,
			"tlsSetupDone",
			slog.Any("err", err),
			slog.String("errClass", errclass.New(err)),
			slog.String("tlsServerName", hostname),
			slog.Time("t0", t0),
			slog.Time("t", nx.timeNow()),
		)
	}
	return config, err
}

// secureDialer dials and handshakes a single endpoint.
type secureDialer struct {
	config *tls.Config
	netx   *Network
}

func (sd *secureDialer) dial(ctx context.Context, address string) (TLSConn, error) {
	// close whatever we opened unless we reach the end
	var pool closepool.Pool
	defer pool.Close()

	// dial and log the results of dialing
	conn, err := sd.netx.dialLog(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	pool.Add(conn)

	// create TLS client connection
	engine := sd.netx.tlsEngine()
	tconn := engine.NewClientConn(conn, sd.config)

	// perform the TLS handshake surrounded by events
	laddr := connLocalAddr(conn).String()
	t0 := sd.emitTLSHandshakeStart(ctx, laddr, address, engine)
	err = sd.handshake(ctx, tconn)
	sd.emitTLSHandshakeDone(ctx, laddr, address, engine, t0, err, tconn)
	if err != nil {
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	// the caller now owns the connection
	pool.Release()
	return tconn, nil
}

// handshake performs the handshake honoring HandshakeTimeout.
func (sd *secureDialer) handshake(ctx context.Context, tconn TLSConn) error {
	if sd.netx.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sd.netx.HandshakeTimeout)
		defer cancel()
	}
	return tconn.HandshakeContext(ctx)
}

// emitTLSHandshakeStart emits a TLS handshake start event.
func (sd *secureDialer) emitTLSHandshakeStart(ctx context.Context,
	localAddr, remoteAddr string, engine TLSEngine) time.Time {
	t0 := sd.netx.timeNow()
	if sd.netx.Logger != nil {
		sd.netx.Logger.InfoContext(
			ctx,
			"tlsHandshakeStart",
			slog.String("localAddr", localAddr),
			slog.String("protocol", "tcp"),
			slog.String("remoteAddr", remoteAddr),
			slog.Time("t", t0),
			slog.String("tlsEngineName", engine.Name()),
			slog.String("tlsServerName", sd.config.ServerName),
			slog.Bool("tlsSkipVerify", sd.config.InsecureSkipVerify),
		)
	}
	return t0
}

// emitTLSHandshakeDone emits a TLS handshake done event.
func (sd *secureDialer) emitTLSHandshakeDone(ctx context.Context,
	localAddr, remoteAddr string, engine TLSEngine,
	t0 time.Time, err error, tconn TLSConn) {
	if sd.netx.Logger != nil {
		state := tconn.ConnectionState()
		sd.netx.Logger.InfoContext(
			ctx,
			"tlsHandshakeDone",
			slog.Any("err", err),
			slog.String("errClass", errclass.New(err)),
			slog.String("localAddr", localAddr),
			slog.String("protocol", "tcp"),
			slog.String("remoteAddr", remoteAddr),
			slog.Time("t0", t0),
			slog.Time("t", sd.netx.timeNow()),
			slog.String("tlsCipherSuite", tls.CipherSuiteName(state.CipherSuite)),
			slog.String("tlsEngineName", engine.Name()),
			slog.String("tlsNegotiatedProtocol", state.NegotiatedProtocol),
			slog.Any("tlsPeerCerts", tlsPeerCerts(state, err)),
			slog.String("tlsServerName", sd.config.ServerName),
			slog.Bool("tlsSkipVerify", sd.config.InsecureSkipVerify),
			slog.String("tlsVersion", tls.VersionName(state.Version)),
		)
	}
}

// tlsPeerCerts returns the raw peer certificates. When verification
// failed, the certificate comes from the x509 error, since the
// connection state does not carry it.
func tlsPeerCerts(state tls.ConnectionState, err error) (out [][]byte) {
	out = [][]byte{}

	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) && hostnameErr.Certificate != nil {
		return append(out, hostnameErr.Certificate.Raw)
	}

	var authorityErr x509.UnknownAuthorityError
	if errors.As(err, &authorityErr) && authorityErr.Cert != nil {
		return append(out, authorityErr.Cert.Raw)
	}

	var invalidErr x509.CertificateInvalidError
	if errors.As(err, &invalidErr) && invalidErr.Cert != nil {
		return append(out, invalidErr.Cert.Raw)
	}

	for _, cert := range state.PeerCertificates {
		out = append(out, cert.Raw)
	}
	return
}
