package cluster

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"nodesync/internal/metrics"
)

// Replicator fans a leader's write out to the peers currently marked up and
// tallies acknowledgements for the quorum decision.
//
// Liveness is read here but never written: a peer that fails replication is
// skipped for this write only, and stays marked up until the next heartbeat
// sweep notices it. A freshly partitioned peer therefore costs one probe
// timeout per write for at most one heartbeat interval.
type Replicator struct {
	node    *Node
	metrics *metrics.Metrics
	log     *logrus.Entry

	// Timeout bounds each outbound replication connection.
	Timeout time.Duration
}

// NewReplicator creates a Replicator with the default 2s per-peer timeout.
func NewReplicator(n *Node, m *metrics.Metrics, log *logrus.Logger) *Replicator {
	return &Replicator{
		node:    n,
		metrics: m,
		log:     log.WithField("node", n.ID()),
		Timeout: DefaultProbeTimeout,
	}
}

// Replicate sends REPL_SET for one key to every live peer, sequentially,
// and returns the ack tally together with the strict-majority threshold.
//
// acks starts at 1: the leader has already applied the write locally.
// required = N/2 + 1 over the full cluster count, so a two-node cluster
// needs both nodes for strong mode.
func (r *Replicator) Replicate(key, value string) (acks, required int) {
	n := r.node.ClusterSize()
	required = n/2 + 1
	acks = 1

	for _, p := range r.node.Peers {
		if !p.Alive() {
			continue
		}
		if err := r.replicateTo(p, key, value); err != nil {
			r.metrics.ReplicationMisses.Inc()
			r.log.WithError(err).WithField("peer", p.Addr()).Debug("replication skipped peer")
			continue
		}
		r.metrics.ReplicationAcks.Inc()
		acks++
	}
	return acks, required
}

// QuorumOK is the mode-dependent quorum decision: strong mode demands a
// strict majority, eventual mode always passes.
func QuorumOK(mode Mode, acks, required int) bool {
	if mode == Strong {
		return acks >= required
	}
	return true
}

// replicateTo performs one REPL_SET round-trip. The connection is scoped to
// this call and closed on every exit path.
func (r *Replicator) replicateTo(p *Peer, key, value string) error {
	conn, err := net.DialTimeout("tcp", p.Addr(), r.Timeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.Addr(), err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(r.Timeout)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(conn, "REPL_SET %s %s\n", key, value); err != nil {
		return fmt.Errorf("send to %s: %w", p.Addr(), err)
	}

	resp, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return fmt.Errorf("read ack from %s: %w", p.Addr(), err)
	}
	if !strings.HasPrefix(resp, "ACK") {
		return fmt.Errorf("peer %s replied %q", p.Addr(), strings.TrimSpace(resp))
	}
	return nil
}
