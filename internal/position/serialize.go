package position

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"go.lsp.dev/protocol"
)

// MalformedPositionError reports serialized coordinate data that could not be
// decoded. It is scoped to a single command: callers log it and drop the
// command.
type MalformedPositionError struct {
	Input string
	Err   error
}

func (e *MalformedPositionError) Error() string {
	return fmt.Sprintf("position: malformed coordinate %q: %v", e.Input, e.Err)
}

func (e *MalformedPositionError) Unwrap() error { return e.Err }

// Serialized is the transport form of a Pair: each coordinate encoded as a
// JSON object {"line":L,"character":C}.
type Serialized struct {
	Anchor string `json:"anchor"`
	Active string `json:"active"`
}

// Serialize encodes one coordinate.
func Serialize(pos protocol.Position) string {
	// protocol.Position marshals as {"line":..,"character":..}; it cannot fail.
	data, _ := json.Marshal(pos)
	return string(data)
}

// Serialize encodes both coordinates of the pair.
func (p Pair) Serialize() Serialized {
	return Serialized{Anchor: Serialize(p.Anchor), Active: Serialize(p.Active)}
}

// wireCoord uses pointers so that missing fields are detectable.
type wireCoord struct {
	Line      *int64 `json:"line"`
	Character *int64 `json:"character"`
}

// Deserialize decodes one coordinate produced by Serialize. Anything else,
// including missing or unknown fields, negative or fractional values, and
// trailing data, yields a *MalformedPositionError.
func Deserialize(s string) (protocol.Position, error) {
	malformed := func(err error) (protocol.Position, error) {
		return protocol.Position{}, &MalformedPositionError{Input: s, Err: err}
	}
	if s == "" {
		return malformed(errors.New("empty input"))
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.DisallowUnknownFields()
	var c wireCoord
	if err := dec.Decode(&c); err != nil {
		return malformed(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return malformed(errors.New("trailing data"))
	}
	if c.Line == nil || c.Character == nil {
		return malformed(errors.New("line and character are required"))
	}
	if !inRange(*c.Line) || !inRange(*c.Character) {
		return malformed(errors.New("coordinate out of range"))
	}
	return protocol.Position{Line: uint32(*c.Line), Character: uint32(*c.Character)}, nil
}

// ParsePair decodes a serialized anchor and active coordinate.
func ParsePair(anchor, active string) (Pair, error) {
	a, err := Deserialize(anchor)
	if err != nil {
		return Pair{}, err
	}
	b, err := Deserialize(active)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Anchor: a, Active: b}, nil
}

// Parse decodes a Serialized pair.
func (s Serialized) Parse() (Pair, error) {
	return ParsePair(s.Anchor, s.Active)
}

func inRange(v int64) bool {
	return v >= 0 && v <= math.MaxUint32
}
