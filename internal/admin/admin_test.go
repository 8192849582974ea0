package admin

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodesync/internal/cluster"
	"nodesync/internal/metrics"
	"nodesync/internal/store"
)

func newTestAdmin(t *testing.T) (*Server, *cluster.Node, *store.Store) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	peers := []*cluster.Peer{cluster.NewPeer("127.0.0.1", 5001)}
	node := cluster.NewNode("127.0.0.1", 5000, peers)
	st := store.New()
	return New(node, st, metrics.New(), log), node, st
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestAdmin(t)

	w := get(t, s, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(5000), body["node"])
	assert.Equal(t, "ok", body["status"])
}

func TestStatus(t *testing.T) {
	s, node, st := newTestAdmin(t)
	st.Put("a", "1")

	w := get(t, s, "/status")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Node        int    `json:"node"`
		Leader      *int   `json:"leader"`
		Consistency string `json:"consistency"`
		Keys        int    `json:"keys"`
		Peers       []struct {
			Addr  string `json:"addr"`
			Alive bool   `json:"alive"`
		} `json:"peers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, 5000, body.Node)
	assert.Nil(t, body.Leader, "no leader before the first election")
	assert.Equal(t, "eventual", body.Consistency)
	assert.Equal(t, 1, body.Keys)
	require.Len(t, body.Peers, 1)
	assert.Equal(t, "127.0.0.1:5001", body.Peers[0].Addr)
	assert.True(t, body.Peers[0].Alive)

	node.SetMode(cluster.Strong)
	w = get(t, s, "/status")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "strong", body.Consistency)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _, _ := newTestAdmin(t)

	w := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nodesync_peers_alive")
}
