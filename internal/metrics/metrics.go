// Package metrics collects Prometheus counters and gauges for one node.
//
// Every node owns a private registry so multiple in-process nodes (as in the
// cluster tests) never collide on metric registration.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all instruments for a node.
type Metrics struct {
	registry *prometheus.Registry

	// Command handling.
	CommandsTotal *prometheus.CounterVec // by verb

	// Replication.
	ReplicationAcks   prometheus.Counter
	ReplicationMisses prometheus.Counter
	QuorumFailures    prometheus.Counter

	// Membership and election.
	PeerTransitions *prometheus.CounterVec // direction: up|down
	ElectionsTotal  prometheus.Counter
	PeersAlive      prometheus.Gauge
}

// New creates a Metrics with all instruments registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nodesync_commands_total",
			Help: "Commands handled, by verb.",
		}, []string{"verb"}),
		ReplicationAcks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nodesync_replication_acks_total",
			Help: "Replication attempts acknowledged by a peer.",
		}),
		ReplicationMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nodesync_replication_misses_total",
			Help: "Replication attempts that failed or timed out.",
		}),
		QuorumFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nodesync_quorum_failures_total",
			Help: "Strong-mode writes rejected for lack of a majority.",
		}),
		PeerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nodesync_peer_transitions_total",
			Help: "Peer liveness edge transitions, by direction.",
		}, []string{"direction"}),
		ElectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nodesync_elections_total",
			Help: "Leader changes observed by this node.",
		}),
		PeersAlive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nodesync_peers_alive",
			Help: "Peers currently marked alive.",
		}),
	}

	m.registry.MustRegister(
		m.CommandsTotal,
		m.ReplicationAcks,
		m.ReplicationMisses,
		m.QuorumFailures,
		m.PeerTransitions,
		m.ElectionsTotal,
		m.PeersAlive,
	)
	return m
}

// Registry exposes the node's registry for the admin /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
