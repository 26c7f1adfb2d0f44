// Package syntax defines the contract arbor requires from a syntax tree
// provider and implements it on top of tree-sitter.
//
// A Node exposes two child enumerations. StructuralChildren returns every
// child the grammar produces, including anonymous tokens such as keywords and
// punctuation. SemanticChildren walks only the children a reader cares about
// (named nodes, minus kinds hidden by a KindFilter). The two are not required
// to agree.
package syntax

import (
	"context"
	"fmt"
	"strconv"
)

// Kind identifies the grammar production of a node.
type Kind struct {
	Name  string
	Named bool // false for anonymous tokens such as "(" or "function"
}

// Label returns the display label of a kind: named kinds render as their
// grammar name, anonymous tokens as their quoted text.
func (k Kind) Label() string {
	if k.Named {
		return k.Name
	}
	return strconv.Quote(k.Name)
}

// Node is a read-only syntax tree node. Offsets are byte offsets into the
// document text, End exclusive.
type Node interface {
	// ID identifies the node for cycle detection; distinct live nodes have
	// distinct IDs.
	ID() uintptr
	Kind() Kind
	Start() int
	End() int
	// StructuralChildren returns every child in source order.
	StructuralChildren() []Node
	// SemanticChildren calls visit once per semantic child, in order.
	SemanticChildren(visit func(Node))
}

// Tree is a parsed document.
type Tree struct {
	Text     string
	Language string
	Root     Node
}

// Config selects how a document is parsed.
type Config struct {
	// Language is a canonical language name (see Languages).
	Language string
}

// Provider parses document text into a Tree. Implementations may block and
// must honour ctx cancellation.
type Provider interface {
	Parse(ctx context.Context, text string, cfg Config) (*Tree, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, text string, cfg Config) (*Tree, error)

// Parse implements Provider.
func (f ProviderFunc) Parse(ctx context.Context, text string, cfg Config) (*Tree, error) {
	return f(ctx, text, cfg)
}

// ProviderUnavailableError reports that no provider could be resolved or
// configured for a language.
type ProviderUnavailableError struct {
	Language string
	Err      error
}

func (e *ProviderUnavailableError) Error() string {
	if e.Language == "" {
		return fmt.Sprintf("syntax: provider unavailable: %v", e.Err)
	}
	return fmt.Sprintf("syntax: provider unavailable for %q: %v", e.Language, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }
