package syntax

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"unsafe"

	sitter "github.com/smacker/go-tree-sitter"
)

var errUnsupportedLanguage = errors.New("unsupported language")

// KindFilter decides which named node kinds semantic traversal hides. It is
// consulted once per parse with the distinct named kinds present in the tree.
type KindFilter interface {
	HiddenKinds(ctx context.Context, language string, kinds []string) (map[string]bool, error)
}

// TreeSitter is a Provider backed by tree-sitter grammars.
type TreeSitter struct {
	filter KindFilter
}

// Option configures a TreeSitter provider.
type Option func(*TreeSitter)

// WithKindFilter installs the filter that decides hidden kinds for semantic
// traversal. Without one, semantic children are exactly the named children.
func WithKindFilter(f KindFilter) Option {
	return func(p *TreeSitter) {
		p.filter = f
	}
}

// NewTreeSitter creates a tree-sitter provider.
func NewTreeSitter(opts ...Option) *TreeSitter {
	p := &TreeSitter{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse implements Provider.
func (p *TreeSitter) Parse(ctx context.Context, text string, cfg Config) (*Tree, error) {
	lang, ok := GrammarForLanguage(cfg.Language)
	if !ok {
		return nil, &ProviderUnavailableError{Language: cfg.Language, Err: errUnsupportedLanguage}
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("syntax: parse %s: %w", cfg.Language, err)
	}
	root := tree.RootNode()

	// Hidden kinds are resolved up front so that walking the tree never
	// touches the filter's shared state.
	var hidden map[string]bool
	if p.filter != nil {
		hidden, err = p.filter.HiddenKinds(ctx, cfg.Language, namedKinds(root))
		if err != nil {
			return nil, &ProviderUnavailableError{Language: cfg.Language, Err: err}
		}
	}

	t := &tsTree{tree: tree, hidden: hidden}
	return &Tree{Text: text, Language: cfg.Language, Root: t.wrap(root)}, nil
}

// namedKinds returns the sorted distinct named kinds under root.
func namedKinds(root *sitter.Node) []string {
	seen := make(map[string]bool)
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		seen[n.Type()] = true
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)

	kinds := make([]string, 0, len(seen))
	for k := range seen {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// tsTree keeps the underlying tree reachable for as long as any of its nodes
// are.
type tsTree struct {
	tree   *sitter.Tree
	hidden map[string]bool
}

func (t *tsTree) wrap(n *sitter.Node) tsNode {
	return tsNode{node: n, tree: t}
}

type tsNode struct {
	node *sitter.Node
	tree *tsTree
}

func (n tsNode) ID() uintptr { return uintptr(unsafe.Pointer(n.node)) }

func (n tsNode) Kind() Kind {
	return Kind{Name: n.node.Type(), Named: n.node.IsNamed()}
}

func (n tsNode) Start() int { return int(n.node.StartByte()) }

func (n tsNode) End() int { return int(n.node.EndByte()) }

func (n tsNode) StructuralChildren() []Node {
	count := int(n.node.ChildCount())
	children := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		children = append(children, n.tree.wrap(n.node.Child(i)))
	}
	return children
}

func (n tsNode) SemanticChildren(visit func(Node)) {
	for i := 0; i < int(n.node.NamedChildCount()); i++ {
		child := n.node.NamedChild(i)
		if n.tree.hidden[child.Type()] {
			continue
		}
		visit(n.tree.wrap(child))
	}
}
