package command

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/jward/arbor/internal/position"
	"github.com/jward/arbor/internal/projector"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	tests := map[string]Kind{
		"modeChanged":    ModeChanged,
		"nodeActivated":  NodeActivated,
		"nodeHoverStart": NodeHoverStart,
		"nodeHoverEnd":   NodeHoverEnd,
		"treeModeChange": ModeChanged,
		"nodeClick":      NodeActivated,
		"nodeMouseEnter": NodeHoverStart,
		"nodeMouseLeave": NodeHoverEnd,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("nodeWiggle")
	var ue *UnknownError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "nodeWiggle", ue.Value)
}

func TestKind_NeedsPosition(t *testing.T) {
	t.Parallel()
	assert.True(t, NodeActivated.NeedsPosition())
	assert.True(t, NodeHoverStart.NeedsPosition())
	assert.False(t, NodeHoverEnd.NeedsPosition())
	assert.False(t, ModeChanged.NeedsPosition())
}

func TestCommand_UnmarshalLegacy(t *testing.T) {
	t.Parallel()

	var c Command
	err := json.Unmarshal([]byte(`{
		"command": "nodeClick",
		"anchorLineCharacterJson": "{\"line\":0,\"character\":9}",
		"activeLineCharacterJson": "{\"line\":0,\"character\":10}"
	}`), &c)
	require.NoError(t, err)
	assert.Equal(t, NodeActivated, c.Kind)
	require.NoError(t, c.Validate())

	p, err := c.Pair()
	require.NoError(t, err)
	assert.Equal(t, position.Pair{
		Anchor: protocol.Position{Line: 0, Character: 9},
		Active: protocol.Position{Line: 0, Character: 10},
	}, p)
}

func TestCommand_UnmarshalUnknownKindDefersError(t *testing.T) {
	t.Parallel()

	var c Command
	require.NoError(t, json.Unmarshal([]byte(`{"command":"dance"}`), &c))
	assert.Equal(t, Kind("dance"), c.Kind)

	var ue *UnknownError
	assert.ErrorAs(t, c.Validate(), &ue)
}

func TestCommand_TraversalMode(t *testing.T) {
	t.Parallel()

	m, err := Command{Kind: ModeChanged, Mode: "forEachChild"}.TraversalMode()
	require.NoError(t, err)
	assert.Equal(t, projector.Semantic, m)

	bad := Command{Kind: ModeChanged, Mode: "sideways"}
	var ue *UnknownError
	require.ErrorAs(t, bad.Validate(), &ue)
	assert.Equal(t, "traversal mode", ue.Field)
}

func TestCommand_PairMalformed(t *testing.T) {
	t.Parallel()

	tests := []Command{
		{Kind: NodeActivated},
		{Kind: NodeActivated, Anchor: `{"line":0,"character":1}`},
		{Kind: NodeHoverStart, Anchor: `{"line":0}`, Active: `{"line":0,"character":1}`},
		{Kind: NodeHoverStart, Anchor: `not json`, Active: `{"line":0,"character":1}`},
	}
	for _, c := range tests {
		_, err := c.Pair()
		var mpe *position.MalformedPositionError
		assert.ErrorAs(t, err, &mpe, "%+v", c)
	}
}

func TestCommand_ValidateRequiresPositionPair(t *testing.T) {
	t.Parallel()

	for _, k := range []Kind{NodeActivated, NodeHoverStart} {
		var mpe *position.MalformedPositionError
		assert.ErrorAs(t, Command{Kind: k}.Validate(), &mpe, "%s without pair", k)
		assert.ErrorAs(t, Command{Kind: k, Anchor: `{"line":0,"character":1}`, Active: `[]`}.Validate(), &mpe, "%s with bad active", k)

		ok := WithPair(k, position.Pair{Active: protocol.Position{Character: 2}})
		assert.NoError(t, ok.Validate(), k)
	}

	// Hover end and mode changes carry no pair.
	assert.NoError(t, Command{Kind: NodeHoverEnd}.Validate())
	assert.NoError(t, ChangeMode(projector.Semantic).Validate())
}

func TestCommand_MarshalRoundTrip(t *testing.T) {
	t.Parallel()

	p := position.Pair{
		Anchor: protocol.Position{Line: 3, Character: 14},
		Active: protocol.Position{Line: 4, Character: 0},
	}
	data, err := json.Marshal(WithPair(NodeHoverStart, p))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"command": "nodeHoverStart",
		"anchorLineCharacterJson": "{\"line\":3,\"character\":14}",
		"activeLineCharacterJson": "{\"line\":4,\"character\":0}"
	}`, string(data))

	var back Command
	require.NoError(t, json.Unmarshal(data, &back))
	got, err := back.Pair()
	require.NoError(t, err)
	assert.Equal(t, p, got)

	data, err = json.Marshal(ChangeMode(projector.Structural))
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"modeChanged","treeMode":"structural"}`, string(data))
}
