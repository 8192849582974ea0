// cmd/bench is the latency probe and ad-hoc CLI.
//
// Usage:
//
//	bench run --server 127.0.0.1:5000 --requests 50
//	bench set mykey myvalue --server 127.0.0.1:5000
//	bench get mykey
//	bench leader
//
// `run` measures SET round-trip latency under eventual and then strong
// consistency against a single node.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"nodesync/internal/client"
)

var (
	serverAddr string
	timeout    time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "bench",
		Short: "Latency probe and CLI for the key-value cluster",
	}

	root.PersistentFlags().StringVarP(&serverAddr, "server", "s",
		"127.0.0.1:5000", "Node address")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second,
		"Per-command timeout")

	root.AddCommand(runCmd(), setCmd(), getCmd(), leaderCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ─── run ──────────────────────────────────────────────────────────────────────

func runCmd() *cobra.Command {
	var requests int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Measure SET latency under eventual and strong consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(serverAddr, timeout)

			for _, mode := range []string{"eventual", "strong"} {
				fmt.Printf("Running %s consistency test...\n", mode)
				latencies, err := benchmark(c, mode, requests)
				if err != nil {
					return err
				}
				report(mode, latencies)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&requests, "requests", "n", 50, "SET commands per mode")
	return cmd
}

func benchmark(c *client.Client, mode string, requests int) ([]time.Duration, error) {
	if err := c.SetConsistency(mode); err != nil {
		return nil, err
	}

	latencies := make([]time.Duration, 0, requests)
	for i := 0; i < requests; i++ {
		start := time.Now()
		_, err := c.Set(fmt.Sprintf("key%d", i), fmt.Sprintf("value%d", i))
		elapsed := time.Since(start)
		if err != nil && err != client.ErrQuorumFailed {
			return nil, err
		}
		latencies = append(latencies, elapsed)
	}
	return latencies, nil
}

func report(mode string, latencies []time.Duration) {
	var total, max time.Duration
	for _, l := range latencies {
		total += l
		if l > max {
			max = l
		}
	}
	avg := total / time.Duration(len(latencies))
	fmt.Printf("%s consistency: avg %s, max %s over %d requests\n",
		mode, avg, max, len(latencies))
}

// ─── one-shot commands ────────────────────────────────────────────────────────

func setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a key through whichever node --server points at",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(serverAddr, timeout)
			resp, err := c.Set(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Read a key from the connected node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(serverAddr, timeout)
			v, err := c.Get(args[0])
			if err == client.ErrKeyNotFound {
				fmt.Printf("key %q not found\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		},
	}
}

func leaderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leader",
		Short: "Report the connected node's believed leader",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(serverAddr, timeout)
			id, err := c.Leader()
			if err != nil {
				return err
			}
			if id == 0 {
				fmt.Println("no leader elected")
				return nil
			}
			fmt.Println(id)
			return nil
		},
	}
}
