// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package cs104

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iecgo/iec104/asdu"
	"github.com/iecgo/iec104/internal/clog"
)

// Connect dials addr, completes the APCI handshake, and starts the
// STARTDT sequence, returning a ready-to-use Connection. It is a
// one-shot helper for callers that manage their own reconnection; see
// Client for a redial-on-failure wrapper.
func Connect(ctx context.Context, addr string, cfg Config, params *asdu.Params, handler ConnectionHandlerInterface) (*Connection, error) {
	if err := cfg.Valid(); err != nil {
		return nil, err
	}
	if err := params.Valid(); err != nil {
		return nil, err
	}
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransportClosed, err)
	}
	c := newConnection(conn, cfg, params, handler, fmt.Sprintf("cs104 client [%s] => ", addr))
	c.start()
	if err := c.StartDataTransfer(0); err != nil {
		_ = c.conn.Close()
		return nil, err
	}
	return c, nil
}

// Client states, mirroring cs101.Client's statusInitial/.../statusDisconnected.
const (
	statusInitial uint32 = iota
	statusConnecting
	statusConnected
	statusDisconnected
)

// Client is a redialing CS104 client: it repeatedly connects to addr,
// runs the connection until it is lost, and (if AutoReconnect is set)
// waits ReconnectInterval before trying again.
type Client struct {
	address string
	option  ClientOption
	handler ConnectionHandlerInterface
	clog.Clog

	rwMux      sync.RWMutex
	connStatus uint32
	conn       *Connection

	ctx    context.Context
	cancel context.CancelFunc

	onConnect        func(c *Connection)
	onConnectionLost func(c *Connection, err error)
	onConnectError   func(err error)
}

// NewClient returns a Client for addr using handler for every
// connection it establishes. o may be nil to accept NewOption()'s
// defaults.
func NewClient(addr string, handler ConnectionHandlerInterface, o *ClientOption) *Client {
	opt := NewOption()
	if o != nil {
		opt = o
	}
	cl := &Client{
		address:          addr,
		option:           *opt,
		handler:          handler,
		Clog:             clog.NewLogger(fmt.Sprintf("cs104 client [%s] => ", addr)),
		onConnect:        func(*Connection) {},
		onConnectionLost: func(*Connection, error) {},
		onConnectError:   func(error) {},
	}
	cl.Clog.LogMode(true)
	return cl
}

// SetLogMode enables or disables logging output.
func (cl *Client) SetLogMode(enable bool) { cl.Clog.LogMode(enable) }

// SetOnConnectHandler sets the callback invoked after STARTDT
// completes on a freshly dialed connection.
func (cl *Client) SetOnConnectHandler(f func(c *Connection)) *Client {
	if f != nil {
		cl.onConnect = f
	}
	return cl
}

// SetConnectionLostHandler sets the callback invoked when an
// established connection is lost.
func (cl *Client) SetConnectionLostHandler(f func(c *Connection, err error)) *Client {
	if f != nil {
		cl.onConnectionLost = f
	}
	return cl
}

// SetConnectErrorHandler sets the callback invoked when a dial or
// handshake attempt fails outright.
func (cl *Client) SetConnectErrorHandler(f func(err error)) *Client {
	if f != nil {
		cl.onConnectError = f
	}
	return cl
}

// Start begins the connect/run/redial loop in the background.
func (cl *Client) Start() error {
	cl.rwMux.Lock()
	if cl.connStatus != statusInitial {
		cl.rwMux.Unlock()
		return errors.New("client already started")
	}
	cl.connStatus = statusConnecting
	cl.ctx, cl.cancel = context.WithCancel(context.Background())
	cl.rwMux.Unlock()

	go cl.connectionManager()
	return nil
}

func (cl *Client) connectionManager() {
	cl.Debug("connection manager started")
	defer func() {
		cl.setStatus(statusInitial)
		cl.Debug("connection manager stopped")
	}()

	for {
		select {
		case <-cl.ctx.Done():
			return
		default:
		}

		cl.setStatus(statusConnecting)
		cl.Debug("dialing %s...", cl.address)

		dialCtx, dialCancel := context.WithTimeout(cl.ctx, cl.option.dialTimeout)
		conn, err := Connect(dialCtx, cl.address, cl.option.config, &cl.option.params, cl.handler)
		dialCancel()
		if err != nil {
			cl.Error("connect to %s failed: %v", cl.address, err)
			cl.setStatus(statusDisconnected)
			cl.onConnectError(err)
			if !cl.option.autoReconnect {
				return
			}
			select {
			case <-time.After(cl.option.reconnectInterval):
				continue
			case <-cl.ctx.Done():
				return
			}
		}

		cl.Debug("connected to %s", cl.address)
		cl.rwMux.Lock()
		cl.conn = conn
		cl.rwMux.Unlock()
		cl.setStatus(statusConnected)
		cl.onConnect(conn)

		lost := cl.waitForLoss(conn)

		cl.rwMux.Lock()
		cl.conn = nil
		cl.rwMux.Unlock()
		cl.setStatus(statusDisconnected)
		cl.onConnectionLost(conn, lost)

		select {
		case <-cl.ctx.Done():
			return
		default:
			if !cl.option.autoReconnect {
				return
			}
			select {
			case <-time.After(cl.option.reconnectInterval):
			case <-cl.ctx.Done():
				return
			}
		}
	}
}

// waitForLoss blocks until conn reaches CLOSED, either because the
// remote end closed it, a protocol error occurred, or Client.Close was
// called.
func (cl *Client) waitForLoss(conn *Connection) error {
	conn.mu.Lock()
	for conn.state != stateClosed {
		conn.cond.Wait()
	}
	err := conn.closeErr
	conn.mu.Unlock()
	return err
}

// Connection returns the currently active connection, or nil if the
// client is not connected.
func (cl *Client) Connection() *Connection {
	cl.rwMux.RLock()
	defer cl.rwMux.RUnlock()
	return cl.conn
}

// IsConnected reports whether the client currently has an active
// connection.
func (cl *Client) IsConnected() bool {
	return atomic.LoadUint32(&cl.connStatus) == statusConnected
}

func (cl *Client) setStatus(s uint32) { atomic.StoreUint32(&cl.connStatus, s) }

// Close stops the redial loop and closes the current connection, if any.
func (cl *Client) Close() error {
	cl.rwMux.Lock()
	if cl.cancel == nil {
		cl.rwMux.Unlock()
		return errors.New("client not running")
	}
	cl.cancel()
	cl.cancel = nil
	conn := cl.conn
	cl.rwMux.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}
