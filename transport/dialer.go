//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/ooni/probe-cli/blob/v3.20.1/internal/netxlite/dialer.go
//
// Plaintext connect.
//

package transport

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/rbmk-project/common/errclass"
)

// ConnectInsecure establishes a plaintext TCP connection to the given
// address, a "host:port" string where host is a domain name or an IP address.
//
// On failure, we return the dial error as is. When the domain resolves to
// several addresses and all of them fail, the error is the [errors.Join]
// of the per-address errors.
func (nx *Network) ConnectInsecure(ctx context.Context, address string) (*Handle, error) {
	// resolve the endpoints to connect to
	endpoints, err := nx.maybeLookupEndpoint(ctx, address)
	if err != nil {
		return nil, err
	}

	// sequentially attempt with each available endpoint
	conn, err := sequentialDial(ctx, nx.dialLog, endpoints...)
	if err != nil {
		return nil, err
	}
	return NewPlainHandle(conn), nil
}

// sequentialDial attempts to dial the endpoints in sequence until one
// of them succeeds. It returns the first successfully established
// connection, on success, and the union of all errors, otherwise.
func sequentialDial[T net.Conn](
	ctx context.Context,
	fx func(ctx context.Context, address string) (T, error),
	endpoints ...string,
) (T, error) {
	var (
		errv []error
		zero T
	)
	for _, endpoint := range endpoints {
		conn, err := fx(ctx, endpoint)
		if err == nil {
			return conn, nil
		}
		errv = append(errv, err)
	}
	switch len(errv) {
	case 0:
		return zero, ErrNoEndpoints
	case 1:
		return zero, errv[0]
	default:
		return zero, errors.Join(errv...)
	}
}

// dialLog dials a TCP connection, emits structured events around the dial,
// and wraps the connection when configured to do so.
func (nx *Network) dialLog(ctx context.Context, address string) (net.Conn, error) {
	t0 := nx.emitConnectStart(ctx, address)
	conn, err := nx.dialNet(ctx, address)
	nx.emitConnectDone(ctx, address, t0, conn, err)
	if err != nil {
		return nil, err
	}
	return nx.maybeWrapConn(ctx, conn), nil
}

// dialNet dials a TCP connection honoring DialContextTimeout.
func (nx *Network) dialNet(ctx context.Context, address string) (net.Conn, error) {
	if nx.DialContextTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, nx.DialContextTimeout)
		defer cancel()
	}

	// if there's an user provided dialer func, use it
	if nx.DialContextFunc != nil {
		return nx.DialContextFunc(ctx, "tcp", address)
	}

	// otherwise use the net package
	return nx.newDialer().DialContext(ctx, "tcp", address)
}

// newDialer returns the [*net.Dialer] to use.
func (nx *Network) newDialer() *net.Dialer {
	if nx.NewDialerOrSingleton != nil {
		return nx.NewDialerOrSingleton()
	}
	return defaultDialer
}

// defaultDialer is the [*net.Dialer] used when nothing else is configured.
var defaultDialer = func() *net.Dialer {
	d := &net.Dialer{}
	d.SetMultipathTCP(false)
	return d
}()

// emitConnectStart emits a structured event before dialing.
func (nx *Network) emitConnectStart(ctx context.Context, address string) time.Time {
	t0 := nx.timeNow()
	if nx.Logger != nil {
		nx.Logger.InfoContext(
			ctx,
			"connectStart",
			slog.String("protocol", "tcp"),
			slog.String("remoteAddr", address),
			slog.Time("t", t0),
		)
	}
	return t0
}

// emitConnectDone emits a structured event after dialing.
func (nx *Network) emitConnectDone(ctx context.Context,
	address string, t0 time.Time, conn net.Conn, err error) {
	if nx.Logger != nil {
		nx.Logger.InfoContext(
			ctx,
			"connectDone",
			slog.Any("err", err),
			slog.String("errClass", errclass.New(err)),
			slog.String("localAddr", connLocalAddr(conn).String()),
			slog.String("protocol", "tcp"),
			slog.String("remoteAddr", address),
			slog.Time("t0", t0),
			slog.Time("t", nx.timeNow()),
		)
	}
}
