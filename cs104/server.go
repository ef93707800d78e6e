// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package cs104

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/iecgo/iec104/asdu"
	"github.com/iecgo/iec104/internal/clog"
)

// Listen accepts TCP connections on addr until the listener is closed,
// handing each one to newHandler to obtain its ConnectionHandlerInterface
// and then running it to completion in its own goroutine. It blocks
// until the listener fails or is closed.
func Listen(addr string, cfg Config, params *asdu.Params, newHandler func() ConnectionHandlerInterface) error {
	if err := cfg.Valid(); err != nil {
		return err
	}
	if err := params.Valid(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransportClosed, err)
	}
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransportClosed, err)
		}
		c := newConnection(conn, cfg, params, newHandler(), fmt.Sprintf("cs104 server [%s] <= ", conn.RemoteAddr()))
		c.start()
	}
}

// Server is a managed CS104 listener: it owns the net.Listener, tracks
// every accepted Connection, and exposes Close to tear the whole
// station down at once.
type Server struct {
	config Config
	params asdu.Params
	clog.Clog

	newHandler func() ConnectionHandlerInterface

	mu    sync.Mutex
	ln    net.Listener
	conns map[*Connection]struct{}
}

// NewServer returns a Server using DefaultConfig and asdu.ParamsWide104
// until overridden by SetConfig/SetParams. newHandler is called once
// per accepted connection to obtain that connection's handler.
func NewServer(newHandler func() ConnectionHandlerInterface) *Server {
	s := &Server{
		config:     DefaultConfig(),
		params:     *asdu.ParamsWide104,
		newHandler: newHandler,
		conns:      make(map[*Connection]struct{}),
		Clog:       clog.NewLogger("cs104 server => "),
	}
	s.Clog.LogMode(true)
	return s
}

// SetConfig sets the CS104 protocol configuration. Must be called
// before Start. If cfg fails validation, the previous config is kept.
func (s *Server) SetConfig(cfg Config) *Server {
	if err := cfg.Valid(); err != nil {
		s.Warn("invalid config, keeping previous: %v", err)
	} else {
		s.config = cfg
	}
	return s
}

// SetParams sets the ASDU field-width parameters. Must be called
// before Start. If p fails validation, the previous params are kept.
func (s *Server) SetParams(p *asdu.Params) *Server {
	if err := p.Valid(); err != nil {
		s.Warn("invalid params, keeping previous: %v", err)
	} else {
		s.params = *p
	}
	return s
}

// Start listens on addr and accepts connections in the background.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	if s.ln != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrTransportClosed, err)
	}
	s.ln = ln
	s.mu.Unlock()

	go s.acceptLoop(ln)
	return nil
}

func (s *Server) acceptLoop(ln net.Listener) {
	s.Debug("listening on %s", ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.Debug("accept loop stopping: %v", err)
			return
		}
		c := newConnection(conn, s.config, &s.params, s.newHandler(), fmt.Sprintf("cs104 server [%s] <= ", conn.RemoteAddr()))
		s.mu.Lock()
		s.conns[c] = struct{}{}
		s.mu.Unlock()
		c.start()
		go s.forget(c)
	}
}

// forget removes c from the tracked set once it closes, so Close only
// waits on connections that are still live.
func (s *Server) forget(c *Connection) {
	c.wg.Wait()
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// Connections returns a snapshot of the currently live connections.
func (s *Server) Connections() []*Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Connection, 0, len(s.conns))
	for c := range s.conns {
		out = append(out, c)
	}
	return out
}

// Close stops accepting new connections and closes every live one.
func (s *Server) Close() error {
	s.mu.Lock()
	ln := s.ln
	conns := make([]*Connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	for _, c := range conns {
		_ = c.Close()
	}
	return nil
}
