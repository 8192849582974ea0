// Package cluster holds the shared node state — identity, peer table, leader
// belief, consistency mode — and the two background concerns built on it:
// heartbeat-driven membership with leader election, and write replication.
package cluster

import (
	"fmt"
	"net"
	"strconv"

	"go.uber.org/atomic"
)

// Mode selects how a write is acknowledged to the client.
type Mode string

const (
	// Eventual acknowledges after the leader's local apply; replication is
	// best-effort.
	Eventual Mode = "eventual"
	// Strong acknowledges only when a strict majority of the cluster has
	// applied the write.
	Strong Mode = "strong"
)

// ParseMode validates a client-supplied consistency mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case Eventual, Strong:
		return Mode(s), true
	default:
		return "", false
	}
}

// Peer is one statically configured cluster sibling. The address never
// changes; only the liveness flag does, and only the heartbeat monitor
// writes it.
type Peer struct {
	Host string
	Port int

	alive *atomic.Bool
}

// ParsePeer parses a "host:port" spec into a Peer, initially marked up.
func ParsePeer(spec string) (*Peer, error) {
	host, portStr, err := net.SplitHostPort(spec)
	if err != nil {
		return nil, fmt.Errorf("peer %q: %w", spec, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, fmt.Errorf("peer %q: invalid port %q", spec, portStr)
	}
	return NewPeer(host, port), nil
}

// NewPeer creates a Peer marked up.
func NewPeer(host string, port int) *Peer {
	return &Peer{Host: host, Port: port, alive: atomic.NewBool(true)}
}

// Addr returns the peer's dialable address.
func (p *Peer) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// Alive reports the liveness flag as of the last heartbeat cycle.
func (p *Peer) Alive() bool {
	return p.alive.Load()
}

func (p *Peer) setAlive(up bool) {
	p.alive.Store(up)
}

// Node is the shared state of one cluster member, passed by reference to the
// connection server, the replicator, and the heartbeat monitor. Each field
// carries its own synchronization; there are no cross-field invariants.
type Node struct {
	Host string
	Port int // doubles as the node id and the election tiebreaker
	// Peers is the full sibling set, fixed at startup. No entries are ever
	// added or removed.
	Peers []*Peer

	leaderID *atomic.Int64 // 0 means no leader elected yet
	mode     *atomic.String
}

// NewNode creates a Node with no leader and eventual consistency.
func NewNode(host string, port int, peers []*Peer) *Node {
	return &Node{
		Host:     host,
		Port:     port,
		Peers:    peers,
		leaderID: atomic.NewInt64(0),
		mode:     atomic.NewString(string(Eventual)),
	}
}

// ID returns the node id. A node's id is its listening port.
func (n *Node) ID() int {
	return n.Port
}

// Addr returns the node's own listen address.
func (n *Node) Addr() string {
	return net.JoinHostPort(n.Host, strconv.Itoa(n.Port))
}

// LeaderID returns the id of the node this node currently believes leads,
// or 0 before the first election.
func (n *Node) LeaderID() int {
	return int(n.leaderID.Load())
}

// IsLeader reports whether this node believes it leads the cluster.
func (n *Node) IsLeader() bool {
	return n.LeaderID() == n.ID()
}

func (n *Node) setLeaderID(id int) {
	n.leaderID.Store(int64(id))
}

// Mode returns the node-local consistency mode.
func (n *Node) Mode() Mode {
	return Mode(n.mode.Load())
}

// SetMode changes the node-local consistency mode.
func (n *Node) SetMode(m Mode) {
	n.mode.Store(string(m))
}

// ClusterSize is the total node count, self included.
func (n *Node) ClusterSize() int {
	return len(n.Peers) + 1
}

// LeaderAddr resolves the believed leader to a dialable address. It fails
// when no leader has been elected or the leader id matches no known peer.
func (n *Node) LeaderAddr() (string, error) {
	id := n.LeaderID()
	if id == 0 {
		return "", fmt.Errorf("no leader elected")
	}
	if id == n.ID() {
		return n.Addr(), nil
	}
	for _, p := range n.Peers {
		if p.Port == id {
			return p.Addr(), nil
		}
	}
	return "", fmt.Errorf("leader %d not in peer table", id)
}

// AliveView returns the ids this node currently considers alive, self
// included. The election is a pure function of this view.
func (n *Node) AliveView() []int {
	view := []int{n.ID()}
	for _, p := range n.Peers {
		if p.Alive() {
			view = append(view, p.Port)
		}
	}
	return view
}
