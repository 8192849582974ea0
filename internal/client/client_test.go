package client

import (
	"bufio"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubServer answers every line with the response chosen by respond.
func stubServer(t *testing.T, respond func(line string) string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				sc := bufio.NewScanner(c)
				for sc.Scan() {
					if _, err := io.WriteString(c, respond(sc.Text())); err != nil {
						return
					}
				}
			}(conn)
		}
	}()
	return ln.Addr().String()
}

func fixed(resp string) func(string) string {
	return func(string) string { return resp }
}

func TestSetResponses(t *testing.T) {
	c := New(stubServer(t, fixed("OK: a set by leader 5002\n")), time.Second)
	resp, err := c.Set("a", "1")
	require.NoError(t, err)
	assert.Equal(t, "OK: a set by leader 5002\n", resp)

	c = New(stubServer(t, fixed("FAIL: quorum not reached\n")), time.Second)
	_, err = c.Set("a", "1")
	assert.Equal(t, ErrQuorumFailed, err)

	c = New(stubServer(t, fixed("ERROR: Leader unavailable\n")), time.Second)
	_, err = c.Set("a", "1")
	assert.Equal(t, ErrLeaderUnavailable, err)
}

func TestGetResponses(t *testing.T) {
	c := New(stubServer(t, fixed("VALUE: hello world\n")), time.Second)
	v, err := c.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "hello world", v)

	c = New(stubServer(t, fixed("ERROR: Key not found\n")), time.Second)
	_, err = c.Get("a")
	assert.Equal(t, ErrKeyNotFound, err)
}

func TestLeaderResponses(t *testing.T) {
	c := New(stubServer(t, fixed("LEADER 5002\n")), time.Second)
	id, err := c.Leader()
	require.NoError(t, err)
	assert.Equal(t, 5002, id)

	c = New(stubServer(t, fixed("LEADER None\n")), time.Second)
	id, err = c.Leader()
	require.NoError(t, err)
	assert.Equal(t, 0, id)
}

func TestPing(t *testing.T) {
	c := New(stubServer(t, fixed("PONG\n")), time.Second)
	assert.NoError(t, c.Ping())
}

func TestCommandsSentVerbatim(t *testing.T) {
	seen := make(chan string, 1)
	addr := stubServer(t, func(line string) string {
		seen <- line
		return "PONG\n"
	})

	_, err := New(addr, time.Second).Raw("SET a hello world")
	require.NoError(t, err)
	assert.Equal(t, "SET a hello world", <-seen)
}

func TestDialFailure(t *testing.T) {
	// A port nothing listens on.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = New(addr, 500*time.Millisecond).Raw("PING")
	assert.Error(t, err)
}
