// cmd/server is the node entrypoint.
//
// A node is configured entirely on the command line: its own port first,
// then the addresses of every sibling. Every node gets the full peer list.
//
// Example — 3-node cluster on loopback:
//
//	./server 5000 127.0.0.1:5001 127.0.0.1:5002
//	./server 5001 127.0.0.1:5000 127.0.0.1:5002
//	./server 5002 127.0.0.1:5000 127.0.0.1:5001
package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nodesync/internal/admin"
	"nodesync/internal/cluster"
	"nodesync/internal/metrics"
	"nodesync/internal/server"
	"nodesync/internal/store"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	var (
		host      string
		adminAddr string
	)

	root := &cobra.Command{
		Use:          "server <port> [peer_host:peer_port ...]",
		Short:        "Replicated in-memory key-value store node",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(log, host, adminAddr, args)
		},
	}
	root.Flags().StringVar(&host, "host", "127.0.0.1", "Bind address")
	root.Flags().StringVar(&adminAddr, "admin-addr", "",
		"HTTP admin listen address (disabled when empty)")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(log *logrus.Logger, host, adminAddr string, args []string) error {
	port, err := strconv.Atoi(args[0])
	if err != nil || port <= 0 {
		return fmt.Errorf("invalid port %q", args[0])
	}

	peers := make([]*cluster.Peer, 0, len(args)-1)
	for _, spec := range args[1:] {
		p, err := cluster.ParsePeer(spec)
		if err != nil {
			return err
		}
		peers = append(peers, p)
	}

	st := store.New()
	node := cluster.NewNode(host, port, peers)
	m := metrics.New()
	repl := cluster.NewReplicator(node, m, log)
	mon := cluster.NewMonitor(node, m, log)
	srv := server.New(node, st, repl, m, log)

	peerAddrs := make([]string, len(peers))
	for i, p := range peers {
		peerAddrs[i] = p.Addr()
	}
	log.WithFields(logrus.Fields{
		"node":  node.ID(),
		"addr":  node.Addr(),
		"peers": peerAddrs,
	}).Info("node starting")

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go mon.Run(ctx)

	if adminAddr != "" {
		adm := admin.New(node, st, m, log)
		go func() {
			if err := adm.Run(adminAddr); err != nil {
				log.WithError(err).Error("admin server stopped")
			}
		}()
		log.WithField("addr", adminAddr).Info("admin surface enabled")
	}

	ln, err := net.Listen("tcp", node.Addr())
	if err != nil {
		return fmt.Errorf("bind %s: %w", node.Addr(), err)
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	err = srv.Serve(ln)
	if ctx.Err() != nil {
		log.WithField("node", node.ID()).Info("node shutting down")
		return nil
	}
	return err
}
