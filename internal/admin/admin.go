// Package admin serves an optional HTTP surface next to the line protocol:
// health and status for probes and humans, and Prometheus metrics. It never
// touches the write path; everything it reports is a lock-free read of node
// state plus a store size.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"nodesync/internal/cluster"
	"nodesync/internal/metrics"
	"nodesync/internal/store"
)

// Server is the admin HTTP server for one node.
type Server struct {
	node   *cluster.Node
	store  *store.Store
	engine *gin.Engine
}

// New wires the gin engine with logging, recovery, and all routes.
func New(n *cluster.Node, st *store.Store, m *metrics.Metrics, log *logrus.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(Logger(log), Recovery(log))

	s := &Server{node: n, store: st, engine: engine}

	engine.GET("/health", s.health)
	engine.GET("/status", s.status)
	engine.GET("/metrics", gin.WrapH(
		promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))

	return s
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// health is a readiness probe.
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"node":   s.node.ID(),
		"status": "ok",
	})
}

// status reports the node's view of the cluster.
func (s *Server) status(c *gin.Context) {
	peers := make([]gin.H, 0, len(s.node.Peers))
	for _, p := range s.node.Peers {
		peers = append(peers, gin.H{"addr": p.Addr(), "alive": p.Alive()})
	}

	var leader interface{}
	if id := s.node.LeaderID(); id != 0 {
		leader = id
	}

	c.JSON(http.StatusOK, gin.H{
		"node":        s.node.ID(),
		"addr":        s.node.Addr(),
		"leader":      leader,
		"consistency": s.node.Mode(),
		"peers":       peers,
		"keys":        s.store.Len(),
	})
}
