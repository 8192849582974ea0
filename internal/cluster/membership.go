package cluster

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"nodesync/internal/metrics"
)

const (
	// DefaultHeartbeatInterval is the gap between liveness sweeps.
	DefaultHeartbeatInterval = 5 * time.Second
	// DefaultProbeTimeout bounds each outbound heartbeat connection.
	DefaultProbeTimeout = 2 * time.Second
)

// Monitor pings every configured peer on a fixed interval, maintains the
// liveness flags, and recomputes the leader after each sweep. It is the only
// writer of peer liveness and of the node's leader belief.
type Monitor struct {
	node    *Node
	metrics *metrics.Metrics
	log     *logrus.Entry

	// Interval and Timeout may be shortened before Run, e.g. in tests.
	Interval time.Duration
	Timeout  time.Duration
}

// NewMonitor creates a Monitor with the default 5s interval and 2s probe
// timeout.
func NewMonitor(n *Node, m *metrics.Metrics, log *logrus.Logger) *Monitor {
	return &Monitor{
		node:     n,
		metrics:  m,
		log:      log.WithField("node", n.ID()),
		Interval: DefaultHeartbeatInterval,
		Timeout:  DefaultProbeTimeout,
	}
}

// Run sweeps immediately, then on every interval tick until ctx is done.
// The immediate first sweep means a freshly started node elects a leader
// without waiting out a full interval.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		m.Sweep()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep probes every peer, updates liveness, and runs one election round.
func (m *Monitor) Sweep() {
	alive := 0
	for _, p := range m.node.Peers {
		up := m.probe(p) == nil
		if up {
			alive++
		}
		was := p.Alive()
		p.setAlive(up)

		switch {
		case was && !up:
			m.metrics.PeerTransitions.WithLabelValues("down").Inc()
			m.log.WithField("peer", p.Addr()).Warn("FAILURE: peer marked down")
		case !was && up:
			m.metrics.PeerTransitions.WithLabelValues("up").Inc()
			m.log.WithField("peer", p.Addr()).Info("RECOVERED: peer marked up")
		}
	}
	m.metrics.PeersAlive.Set(float64(alive))

	m.elect()
}

// probe performs one PING round-trip against a peer.
func (m *Monitor) probe(p *Peer) error {
	conn, err := net.DialTimeout("tcp", p.Addr(), m.Timeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.Addr(), err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(m.Timeout)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(conn, "PING\n"); err != nil {
		return fmt.Errorf("send ping to %s: %w", p.Addr(), err)
	}
	if _, err := bufio.NewReader(conn).ReadString('\n'); err != nil {
		return fmt.Errorf("read pong from %s: %w", p.Addr(), err)
	}
	return nil
}

// elect assigns the leader deterministically: the maximum id in the current
// alive view, self included. No terms, no votes. Two nodes with different
// views can disagree; that split-brain is accepted.
func (m *Monitor) elect() {
	view := m.node.AliveView()
	leader := view[0]
	for _, id := range view[1:] {
		if id > leader {
			leader = id
		}
	}

	if leader != m.node.LeaderID() {
		m.metrics.ElectionsTotal.Inc()
		m.log.WithFields(logrus.Fields{
			"leader": leader,
			"view":   view,
		}).Info("ELECTION: new leader elected")
	}
	m.node.setLeaderID(leader)
}
