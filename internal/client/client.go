// Package client is a small line-protocol client used by the bench tool and
// the cluster tests. Each call opens one connection, sends one command, and
// reads one response, mirroring how external clients drive a node.
package client

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"nodesync/internal/protocol"
)

// Sentinel errors mapped from wire responses.
var (
	ErrKeyNotFound       = errors.New("key not found")
	ErrLeaderUnavailable = errors.New("leader unavailable")
	ErrQuorumFailed      = errors.New("quorum not reached")
)

// Client talks to a single node address.
type Client struct {
	addr    string
	timeout time.Duration
}

// New creates a Client. timeout bounds dial, send, and response read of each
// round-trip.
func New(addr string, timeout time.Duration) *Client {
	return &Client{addr: addr, timeout: timeout}
}

// Raw sends one command line and returns the raw response including its
// trailing newline.
func (c *Client) Raw(command string) (string, error) {
	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return "", errors.Wrapf(err, "dial %s", c.addr)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", errors.Wrap(err, "set deadline")
	}
	if _, err := fmt.Fprintf(conn, "%s\n", command); err != nil {
		return "", errors.Wrapf(err, "send to %s", c.addr)
	}

	resp, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return "", errors.Wrapf(err, "read response from %s", c.addr)
	}
	return resp, nil
}

// Ping checks node liveness.
func (c *Client) Ping() error {
	resp, err := c.Raw("PING")
	if err != nil {
		return err
	}
	if resp != protocol.RespPong {
		return errors.Errorf("unexpected ping response %q", resp)
	}
	return nil
}

// Set writes a key and returns the leader's acknowledgement line.
func (c *Client) Set(key, value string) (string, error) {
	resp, err := c.Raw(fmt.Sprintf("SET %s %s", key, value))
	if err != nil {
		return "", err
	}
	switch {
	case strings.HasPrefix(resp, "OK:"):
		return resp, nil
	case resp == protocol.RespQuorumFailed:
		return "", ErrQuorumFailed
	case resp == protocol.RespLeaderUnavailable:
		return "", ErrLeaderUnavailable
	default:
		return "", errors.Errorf("set %s: unexpected response %q", key, resp)
	}
}

// Get reads a key from the node it is connected to. Reads are always local
// to that node, so a follower may lag the leader briefly.
func (c *Client) Get(key string) (string, error) {
	resp, err := c.Raw(fmt.Sprintf("GET %s", key))
	if err != nil {
		return "", err
	}
	if resp == protocol.RespKeyNotFound {
		return "", ErrKeyNotFound
	}
	if !strings.HasPrefix(resp, "VALUE: ") {
		return "", errors.Errorf("get %s: unexpected response %q", key, resp)
	}
	return strings.TrimSuffix(strings.TrimPrefix(resp, "VALUE: "), "\n"), nil
}

// Leader returns the node's believed leader id, or 0 when no leader has
// been elected yet.
func (c *Client) Leader() (int, error) {
	resp, err := c.Raw("LEADER")
	if err != nil {
		return 0, err
	}
	field := strings.TrimSuffix(strings.TrimPrefix(resp, "LEADER "), "\n")
	if field == "None" {
		return 0, nil
	}
	id, err := strconv.Atoi(field)
	if err != nil {
		return 0, errors.Errorf("unexpected leader response %q", resp)
	}
	return id, nil
}

// SetConsistency switches the consistency mode on the connected node.
func (c *Client) SetConsistency(mode string) error {
	resp, err := c.Raw(fmt.Sprintf("CONSISTENCY %s", mode))
	if err != nil {
		return err
	}
	if !strings.HasPrefix(resp, "OK: consistency set to") {
		return errors.Errorf("consistency %s: unexpected response %q", mode, resp)
	}
	return nil
}
