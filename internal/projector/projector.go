// Package projector converts a syntax tree into a presentation tree: the
// nested, serializable records a renderer draws. A projection is a pure
// function of the tree, the traversal mode and the selection set.
package projector

import (
	"fmt"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/jward/arbor/internal/position"
	"github.com/jward/arbor/internal/syntax"
)

// MaxExcerpt is the maximum length, in characters, of a node excerpt.
const MaxExcerpt = 50

// spanNesting bounds how many nodes a parse may stack per byte of text, and
// maxNesting caps the bound for large documents. A walk deeper than either is
// a provider fabricating nodes.
const (
	spanNesting = 64
	maxNesting  = 1 << 16
)

// Mode selects which child enumeration a projection walks.
type Mode string

const (
	// Structural visits every child the grammar produces.
	Structural Mode = "structural"
	// Semantic visits the filtered children a provider yields.
	Semantic Mode = "semantic"
)

// ParseMode parses a traversal mode name. The names used by older renderers,
// getChildren and forEachChild, are accepted as aliases.
func ParseMode(s string) (Mode, error) {
	switch s {
	case string(Structural), "getChildren":
		return Structural, nil
	case string(Semantic), "forEachChild":
		return Semantic, nil
	}
	return "", fmt.Errorf("projector: unknown traversal mode %q", s)
}

// Valid reports whether m is one of the two traversal modes.
func (m Mode) Valid() bool {
	return m == Structural || m == Semantic
}

// Style classifies a presentation node for highlighting.
type Style string

const (
	Normal   Style = "normal"
	Selected Style = "selected"
)

// Node is one presentation tree node. Nodes are built fresh by every
// projection and never modified afterwards.
type Node struct {
	Label    string              `json:"name"`
	Title    string              `json:"title"`
	Excerpt  string              `json:"desc"`
	Style    Style               `json:"style"`
	Position position.Serialized `json:"position"`
	Children []*Node             `json:"children"` // never nil
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// MalformedTreeError reports a syntax tree that cannot be projected.
type MalformedTreeError struct {
	Reason string
}

func (e *MalformedTreeError) Error() string {
	return "projector: malformed tree: " + e.Reason
}

func malformed(format string, args ...any) error {
	return &MalformedTreeError{Reason: fmt.Sprintf(format, args...)}
}

// Project walks tree depth-first under mode and returns the presentation
// tree. A node is Selected iff its range contains at least one of selections.
func Project(tree *syntax.Tree, mode Mode, selections []protocol.Range) (*Node, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("projector: unknown traversal mode %q", mode)
	}
	if tree == nil || tree.Root == nil {
		return nil, malformed("no root node")
	}

	p := &projection{
		text:       tree.Text,
		index:      position.NewIndex(tree.Text),
		mode:       mode,
		selections: normalize(selections),
		ancestors:  make(map[uintptr]bool),
		maxDepth:   min(spanNesting*(len(tree.Text)+1), maxNesting),
	}
	return p.visit(tree.Root, 0)
}

// projection holds the per-call state of one Project invocation.
type projection struct {
	text       string
	index      *position.Index
	mode       Mode
	selections []protocol.Range
	ancestors  map[uintptr]bool
	maxDepth   int
}

func (p *projection) visit(n syntax.Node, depth int) (*Node, error) {
	start, end := n.Start(), n.End()
	if depth > p.maxDepth {
		return nil, malformed("nesting deeper than %d at %d..%d", p.maxDepth, start, end)
	}
	if start < 0 || end > len(p.text) {
		return nil, malformed("offsets %d..%d outside document of length %d", start, end, len(p.text))
	}
	if start > end {
		return nil, malformed("start %d after end %d", start, end)
	}
	kind := n.Kind()
	if kind.Name == "" {
		return nil, malformed("node at %d..%d has no kind", start, end)
	}

	id := n.ID()
	if p.ancestors[id] {
		return nil, malformed("cycle at %s %d..%d", kind.Label(), start, end)
	}
	p.ancestors[id] = true
	defer delete(p.ancestors, id)

	pair, err := p.index.Pair(start, end)
	if err != nil {
		return nil, malformed("%v", err)
	}

	children, err := p.children(n)
	if err != nil {
		return nil, err
	}

	out := &Node{
		Label:    kind.Label(),
		Title:    fmt.Sprintf("pos: %d, end: %d", start, end),
		Excerpt:  Excerpt(p.text[start:end]),
		Style:    p.style(pair.Range()),
		Position: pair.Serialize(),
		Children: make([]*Node, 0, len(children)),
	}
	for _, c := range children {
		child, err := p.visit(c, depth+1)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, child)
	}
	return out, nil
}

func (p *projection) children(n syntax.Node) ([]syntax.Node, error) {
	var children []syntax.Node
	switch p.mode {
	case Structural:
		children = n.StructuralChildren()
	case Semantic:
		n.SemanticChildren(func(c syntax.Node) {
			children = append(children, c)
		})
	}
	for i, c := range children {
		if c == nil {
			return nil, malformed("nil child %d of %s %d..%d", i, n.Kind().Label(), n.Start(), n.End())
		}
	}
	return children, nil
}

func (p *projection) style(r protocol.Range) Style {
	for _, sel := range p.selections {
		if position.Contains(r, sel) {
			return Selected
		}
	}
	return Normal
}

// normalize orders each selection's endpoints so a backwards selection tests
// the same as a forwards one.
func normalize(selections []protocol.Range) []protocol.Range {
	out := make([]protocol.Range, len(selections))
	for i, sel := range selections {
		if position.Less(sel.End, sel.Start) {
			sel.Start, sel.End = sel.End, sel.Start
		}
		out[i] = sel
	}
	return out
}

// Excerpt escapes newlines in src as the two characters `\n` and truncates
// the result to MaxExcerpt characters. An escape that does not fit is dropped
// whole.
func Excerpt(src string) string {
	var b strings.Builder
	n := 0
	for _, r := range src {
		if r == '\n' {
			if n+2 > MaxExcerpt {
				break
			}
			b.WriteString(`\n`)
			n += 2
			continue
		}
		if n+1 > MaxExcerpt {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
