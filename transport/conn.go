//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/ooni/probe-cli/blob/v3.20.1/internal/measurexlite/conn.go
//
// Conn wrapper.
//

package transport

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/rbmk-project/common/errclass"
)

// connLocalAddr is a safe way to get the local address of a connection.
func connLocalAddr(conn net.Conn) net.Addr {
	if conn != nil && conn.LocalAddr() != nil {
		return conn.LocalAddr()
	}
	return emptyAddr{}
}

// connRemoteAddr is a safe way to get the remote address of a connection.
func connRemoteAddr(conn net.Conn) net.Addr {
	if conn != nil && conn.RemoteAddr() != nil {
		return conn.RemoteAddr()
	}
	return emptyAddr{}
}

// emptyAddr is an empty [net.Addr].
type emptyAddr struct{}

// Network implements [net.Addr].
func (emptyAddr) Network() string { return "" }

// String implements [net.Addr].
func (emptyAddr) String() string { return "" }

// maybeWrapConn wraps a connection when it makes sense to do so.
func (nx *Network) maybeWrapConn(ctx context.Context, conn net.Conn) net.Conn {
	if conn != nil && nx.Logger != nil && nx.WrapConn != nil {
		conn = nx.WrapConn(ctx, nx, conn)
	}
	return conn
}

// WrapConn wraps a given [net.Conn] to emit structured logs for each
// read, write, and close. When the connection carries TLS, the events
// describe the encrypted bytes on the wire.
func WrapConn(ctx context.Context, netx *Network, conn net.Conn) net.Conn {
	laddr := connLocalAddr(conn)
	return &connWrapper{
		ctx:      ctx,
		conn:     conn,
		laddr:    laddr.String(),
		netx:     netx,
		protocol: laddr.Network(),
		raddr:    connRemoteAddr(conn).String(),
	}
}

// connWrapper wraps a [net.Conn].
type connWrapper struct {
	ctx       context.Context // only used for logging
	closeonce sync.Once
	conn      net.Conn
	laddr     string
	netx      *Network // may contain nil logger!
	protocol  string
	raddr     string
}

// emit emits a structured event including the connection endpoints.
func (c *connWrapper) emit(msg string, attrs ...slog.Attr) {
	if c.netx.Logger == nil {
		return
	}
	attrs = append(attrs,
		slog.String("localAddr", c.laddr),
		slog.String("protocol", c.protocol),
		slog.String("remoteAddr", c.raddr),
	)
	c.netx.Logger.LogAttrs(c.ctx, slog.LevelInfo, msg, attrs...)
}

// emitDone emits the structured event following an operation.
func (c *connWrapper) emitDone(msg string, t0 time.Time, err error, attrs ...slog.Attr) {
	attrs = append(attrs,
		slog.Any("err", err),
		slog.String("errClass", errclass.New(err)),
		slog.Time("t0", t0),
		slog.Time("t", c.netx.timeNow()),
	)
	c.emit(msg, attrs...)
}

// Close implements [net.Conn].
func (c *connWrapper) Close() (err error) {
	c.closeonce.Do(func() {
		t0 := c.netx.timeNow()
		c.emit("closeStart", slog.Time("t", t0))
		err = c.conn.Close()
		c.emitDone("closeDone", t0, err)
	})
	return
}

// CloseWrite half-closes the wrapped connection, if it supports that.
func (c *connWrapper) CloseWrite() error {
	cw, ok := c.conn.(closeWriter)
	if !ok {
		return errors.ErrUnsupported
	}
	t0 := c.netx.timeNow()
	c.emit("closeWriteStart", slog.Time("t", t0))
	err := cw.CloseWrite()
	c.emitDone("closeWriteDone", t0, err)
	return err
}

// LocalAddr implements [net.Conn].
func (c *connWrapper) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Read implements [net.Conn].
func (c *connWrapper) Read(buf []byte) (int, error) {
	t0 := c.netx.timeNow()
	c.emit("readStart", slog.Int("ioBufferSize", len(buf)), slog.Time("t", t0))
	count, err := c.conn.Read(buf)
	c.emitDone("readDone", t0, err, slog.Int("ioBytesCount", count))
	return count, err
}

// RemoteAddr implements [net.Conn].
func (c *connWrapper) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SetDeadline implements [net.Conn].
func (c *connWrapper) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// SetReadDeadline implements [net.Conn].
func (c *connWrapper) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline implements [net.Conn].
func (c *connWrapper) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

// Write implements [net.Conn].
func (c *connWrapper) Write(data []byte) (int, error) {
	t0 := c.netx.timeNow()
	c.emit("writeStart", slog.Int("ioBufferSize", len(data)), slog.Time("t", t0))
	count, err := c.conn.Write(data)
	c.emitDone("writeDone", t0, err, slog.Int("ioBytesCount", count))
	return count, err
}
