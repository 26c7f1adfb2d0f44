// Package command defines the messages a renderer sends back about its
// presentation tree.
package command

import (
	"encoding/json"
	"fmt"

	"github.com/jward/arbor/internal/position"
	"github.com/jward/arbor/internal/projector"
)

// Kind names a command.
type Kind string

const (
	ModeChanged    Kind = "modeChanged"
	NodeActivated  Kind = "nodeActivated"
	NodeHoverStart Kind = "nodeHoverStart"
	NodeHoverEnd   Kind = "nodeHoverEnd"
)

// legacyKinds maps the names older renderers post onto the current kinds.
var legacyKinds = map[string]Kind{
	"treeModeChange": ModeChanged,
	"nodeClick":      NodeActivated,
	"nodeMouseEnter": NodeHoverStart,
	"nodeMouseLeave": NodeHoverEnd,
}

// ParseKind resolves a command name, accepting legacy names.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case ModeChanged, NodeActivated, NodeHoverStart, NodeHoverEnd:
		return k, nil
	}
	if k, ok := legacyKinds[s]; ok {
		return k, nil
	}
	return "", &UnknownError{Field: "command", Value: s}
}

// NeedsPosition reports whether commands of kind k must carry a position pair.
func (k Kind) NeedsPosition() bool {
	return k == NodeActivated || k == NodeHoverStart
}

// UnknownError reports a command or traversal mode name outside the
// vocabulary.
type UnknownError struct {
	Field string
	Value string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("command: unknown %s %q", e.Field, e.Value)
}

// Command is one renderer message. Field names follow the wire format.
type Command struct {
	Kind   Kind   `json:"command"`
	Mode   string `json:"treeMode,omitempty"`
	Anchor string `json:"anchorLineCharacterJson,omitempty"`
	Active string `json:"activeLineCharacterJson,omitempty"`
}

// UnmarshalJSON decodes a command and normalizes legacy kind names. Unknown
// kinds decode without error and are rejected at dispatch.
func (c *Command) UnmarshalJSON(data []byte) error {
	type wire Command
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if k, ok := legacyKinds[string(w.Kind)]; ok {
		w.Kind = k
	}
	*c = Command(w)
	return nil
}

// Validate checks the kind, the traversal mode of mode changes, and the
// position pair of kinds that need one. A missing or malformed pair is a
// *position.MalformedPositionError.
func (c Command) Validate() error {
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return err
	}
	if c.Kind == ModeChanged {
		if _, err := c.TraversalMode(); err != nil {
			return err
		}
	}
	if c.Kind.NeedsPosition() {
		if _, err := c.Pair(); err != nil {
			return err
		}
	}
	return nil
}

// TraversalMode parses the mode carried by a modeChanged command.
func (c Command) TraversalMode() (projector.Mode, error) {
	m, err := projector.ParseMode(c.Mode)
	if err != nil {
		return "", &UnknownError{Field: "traversal mode", Value: c.Mode}
	}
	return m, nil
}

// Pair decodes the command's position pair. Missing or malformed data is a
// *position.MalformedPositionError.
func (c Command) Pair() (position.Pair, error) {
	return position.ParsePair(c.Anchor, c.Active)
}

// WithPair returns a command of kind k carrying p.
func WithPair(k Kind, p position.Pair) Command {
	s := p.Serialize()
	return Command{Kind: k, Anchor: s.Anchor, Active: s.Active}
}

// ChangeMode returns a modeChanged command for m.
func ChangeMode(m projector.Mode) Command {
	return Command{Kind: ModeChanged, Mode: string(m)}
}
