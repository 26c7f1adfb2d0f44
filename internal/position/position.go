// Package position converts between byte offsets into a document and the
// line/character coordinates editors speak, and serializes coordinate pairs
// for transport to the renderer and back.
//
// Characters are counted in UTF-16 code units, matching the Language Server
// Protocol convention used by go.lsp.dev/protocol.
package position

import (
	"fmt"
	"sort"
	"unicode/utf16"

	"go.lsp.dev/protocol"
)

// Index maps byte offsets of a single text to line/character coordinates.
// An Index is immutable and safe for concurrent use.
type Index struct {
	text       string
	lineStarts []int // byte offset of the first byte of each line
}

// NewIndex builds a line index over text.
func NewIndex(text string) *Index {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Index{text: text, lineStarts: starts}
}

// Position converts a byte offset to a line/character coordinate. The offset
// may equal the text length (end of document).
func (ix *Index) Position(offset int) (protocol.Position, error) {
	if offset < 0 || offset > len(ix.text) {
		return protocol.Position{}, fmt.Errorf("position: offset %d outside text of length %d", offset, len(ix.text))
	}
	// Last line whose start is <= offset.
	line := sort.Search(len(ix.lineStarts), func(i int) bool {
		return ix.lineStarts[i] > offset
	}) - 1
	start := ix.lineStarts[line]
	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(utf16Len(ix.text[start:offset])),
	}, nil
}

// Offset converts a coordinate back to a byte offset. Lines past the end clamp
// to the end of the text; characters past the end of a line clamp to the end
// of that line.
func (ix *Index) Offset(pos protocol.Position) int {
	if int(pos.Line) >= len(ix.lineStarts) {
		return len(ix.text)
	}
	start := ix.lineStarts[pos.Line]
	end := len(ix.text)
	if int(pos.Line)+1 < len(ix.lineStarts) {
		end = ix.lineStarts[pos.Line+1] - 1 // exclude the newline
	}

	units := 0
	for i, r := range ix.text[start:end] {
		if units >= int(pos.Character) {
			return start + i
		}
		units += utf16RuneLen(r)
	}
	return end
}

// Pair returns the Position Pair for the byte range [start, end).
func (ix *Index) Pair(start, end int) (Pair, error) {
	anchor, err := ix.Position(start)
	if err != nil {
		return Pair{}, err
	}
	active, err := ix.Position(end)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Anchor: anchor, Active: active}, nil
}

// Pair is an ordered (anchor, active) coordinate pair. For a syntax node the
// anchor is its start and the active end is its end.
type Pair struct {
	Anchor protocol.Position
	Active protocol.Position
}

// Range returns the pair as a range with Start <= End.
func (p Pair) Range() protocol.Range {
	if Less(p.Active, p.Anchor) {
		return protocol.Range{Start: p.Active, End: p.Anchor}
	}
	return protocol.Range{Start: p.Anchor, End: p.Active}
}

// Less reports whether a is strictly before b.
func Less(a, b protocol.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character < b.Character
}

// Contains reports whether inner lies wholly inside outer. Touching bounds
// count as inside.
func Contains(outer, inner protocol.Range) bool {
	return !Less(inner.Start, outer.Start) && !Less(outer.End, inner.End)
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16RuneLen(r)
	}
	return n
}

func utf16RuneLen(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
