package server

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"nodesync/internal/cluster"
	"nodesync/internal/protocol"
)

// dispatch interprets one command line against current node state and
// returns the response to write back. Every response ends in '\n'.
func (s *Server) dispatch(line string) string {
	cmd := protocol.Parse(line)
	s.metrics.CommandsTotal.WithLabelValues(cmd.Kind.Verb()).Inc()

	switch cmd.Kind {
	case protocol.Ping:
		return protocol.RespPong
	case protocol.Leader:
		return protocol.RespLeader(s.node.LeaderID())
	case protocol.Consistency:
		return s.handleConsistency(cmd)
	case protocol.Get:
		return s.handleGet(cmd)
	case protocol.Set:
		return s.handleSet(cmd)
	case protocol.ReplSet:
		return s.handleReplSet(cmd)
	default:
		return protocol.RespInvalidCommand
	}
}

func (s *Server) handleConsistency(cmd protocol.Command) string {
	mode, ok := cluster.ParseMode(cmd.Mode)
	if !ok {
		return protocol.RespInvalidConsistency
	}
	s.node.SetMode(mode)
	s.log.WithField("mode", mode).Info("consistency mode changed")
	return protocol.RespConsistencyOK(string(mode))
}

func (s *Server) handleGet(cmd protocol.Command) string {
	v, ok := s.store.Get(cmd.Key)
	if !ok {
		return protocol.RespKeyNotFound
	}
	return protocol.RespValue(v)
}

// handleSet is the write path. A follower relays the verbatim command to the
// leader and returns whatever the leader answered. The leader applies the
// write locally first, then replicates; under strong mode a missed quorum
// fails the client even though the local apply already happened, leaving the
// leader knowingly divergent.
func (s *Server) handleSet(cmd protocol.Command) string {
	if !s.node.IsLeader() {
		return s.forwardToLeader(cmd.Raw)
	}

	if cmd.Val == "" {
		return protocol.RespInvalidSet
	}

	s.store.Put(cmd.Key, cmd.Val)

	acks, required := s.repl.Replicate(cmd.Key, cmd.Val)
	if !cluster.QuorumOK(s.node.Mode(), acks, required) {
		s.metrics.QuorumFailures.Inc()
		s.log.WithFields(logrus.Fields{
			"key": cmd.Key, "acks": acks, "required": required,
		}).Warn("strong write missed quorum")
		return protocol.RespQuorumFailed
	}
	return protocol.RespSetOK(cmd.Key, s.node.ID())
}

// handleReplSet applies a replicated write from the leader. Purely local;
// no further fan-out.
func (s *Server) handleReplSet(cmd protocol.Command) string {
	if cmd.Val == "" {
		return protocol.RespInvalidSet
	}
	s.store.Put(cmd.Key, cmd.Val)
	return protocol.RespAck
}

// forwardToLeader relays a raw command to the believed leader: open, send,
// read one response, close. Any transport failure collapses to the single
// leader-unavailable error the client is promised.
func (s *Server) forwardToLeader(raw string) string {
	addr, err := s.node.LeaderAddr()
	if err != nil {
		return protocol.RespLeaderUnavailable
	}

	conn, err := net.DialTimeout("tcp", addr, s.ForwardTimeout)
	if err != nil {
		return protocol.RespLeaderUnavailable
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(s.ForwardTimeout)); err != nil {
		return protocol.RespLeaderUnavailable
	}
	if _, err := fmt.Fprintf(conn, "%s\n", raw); err != nil {
		return protocol.RespLeaderUnavailable
	}

	resp, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return protocol.RespLeaderUnavailable
	}
	return resp
}
