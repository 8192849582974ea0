package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{"ping", "PING", Command{Kind: Ping, Raw: "PING"}},
		{"ping lowercase", "ping", Command{Kind: Ping, Raw: "ping"}},
		{"leader", "LEADER", Command{Kind: Leader, Raw: "LEADER"}},
		{"consistency", "CONSISTENCY strong",
			Command{Kind: Consistency, Mode: "strong", Raw: "CONSISTENCY strong"}},
		{"consistency no arg", "CONSISTENCY",
			Command{Kind: Consistency, Raw: "CONSISTENCY"}},
		{"get", "GET a", Command{Kind: Get, Key: "a", Raw: "GET a"}},
		{"get no key", "GET", Command{Kind: Unknown, Raw: "GET"}},
		{"get too many args", "GET a b", Command{Kind: Unknown, Raw: "GET a b"}},
		{"set", "SET a 1", Command{Kind: Set, Key: "a", Val: "1", Raw: "SET a 1"}},
		{"set value keeps rest of line", "SET a hello world",
			Command{Kind: Set, Key: "a", Val: "hello world", Raw: "SET a hello world"}},
		{"set missing value", "SET a", Command{Kind: Set, Raw: "SET a"}},
		{"set mixed case verb", "sEt a 1",
			Command{Kind: Set, Key: "a", Val: "1", Raw: "sEt a 1"}},
		{"repl_set", "REPL_SET a 1",
			Command{Kind: ReplSet, Key: "a", Val: "1", Raw: "REPL_SET a 1"}},
		{"unknown verb", "FOO bar", Command{Kind: Unknown, Raw: "FOO bar"}},
		{"empty", "", Command{Kind: Unknown, Raw: ""}},
		{"whitespace only", "   ", Command{Kind: Unknown, Raw: ""}},
		{"trailing whitespace stripped", "PING  \r", Command{Kind: Ping, Raw: "PING"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.line))
		})
	}
}

func TestResponses(t *testing.T) {
	assert.Equal(t, "LEADER None\n", RespLeader(0))
	assert.Equal(t, "LEADER 5002\n", RespLeader(5002))
	assert.Equal(t, "VALUE: 9\n", RespValue("9"))
	assert.Equal(t, "OK: x set by leader 5002\n", RespSetOK("x", 5002))
	assert.Equal(t, "OK: consistency set to strong\n", RespConsistencyOK("strong"))
}

func TestKindVerb(t *testing.T) {
	assert.Equal(t, "SET", Set.Verb())
	assert.Equal(t, "REPL_SET", ReplSet.Verb())
	assert.Equal(t, "UNKNOWN", Unknown.Verb())
}
