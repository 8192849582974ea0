// Package server implements the TCP connection server: it accepts client
// and peer connections, reads line commands, and dispatches them against the
// node's current state.
package server

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"nodesync/internal/cluster"
	"nodesync/internal/metrics"
	"nodesync/internal/store"
)

// Server serves the line protocol for one node.
type Server struct {
	node    *cluster.Node
	store   *store.Store
	repl    *cluster.Replicator
	metrics *metrics.Metrics
	log     *logrus.Entry

	// ForwardTimeout bounds the connection a follower opens to the leader
	// when relaying a SET.
	ForwardTimeout time.Duration
}

// New creates a Server with the default 2s forwarding timeout.
func New(n *cluster.Node, st *store.Store, repl *cluster.Replicator, m *metrics.Metrics, log *logrus.Logger) *Server {
	return &Server{
		node:           n,
		store:          st,
		repl:           repl,
		metrics:        m,
		log:            log.WithField("node", n.ID()),
		ForwardTimeout: cluster.DefaultProbeTimeout,
	}
}

// ListenAndServe binds the node's own address and serves until the listener
// fails. The bind error is the only fatal startup failure.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.node.Addr())
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.node.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln, one worker goroutine per connection.
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

// handleConn is one connection worker. Commands are read line by line and
// answered in arrival order; EOF or any I/O error ends the worker. Idle
// clients are not timed out.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		resp := s.dispatch(scanner.Text())
		if _, err := io.WriteString(conn, resp); err != nil {
			return
		}
	}
}
