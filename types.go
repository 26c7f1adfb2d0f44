package arbor

import (
	"log"

	"github.com/jward/arbor/filters"
	"github.com/jward/arbor/internal/command"
	"github.com/jward/arbor/internal/filter"
	"github.com/jward/arbor/internal/journal"
	"github.com/jward/arbor/internal/position"
	"github.com/jward/arbor/internal/projector"
	"github.com/jward/arbor/internal/syntax"
)

// Public type aliases for internal types used in the Manager API. These are
// Go type aliases (=), identical to the internal types at compile time.
// External consumers use these names; no conversion is needed.

// Syntax trees.
type Provider = syntax.Provider
type ProviderFunc = syntax.ProviderFunc
type ParseConfig = syntax.Config
type Tree = syntax.Tree
type SyntaxNode = syntax.Node
type Kind = syntax.Kind
type Resolver = syntax.Resolver
type ProviderUnavailableError = syntax.ProviderUnavailableError

// Presentation trees.
type Mode = projector.Mode
type Style = projector.Style
type Node = projector.Node
type MalformedTreeError = projector.MalformedTreeError

const (
	Structural = projector.Structural
	Semantic   = projector.Semantic

	Normal   = projector.Normal
	Selected = projector.Selected
)

// Positions.
type Pair = position.Pair
type SerializedPair = position.Serialized
type MalformedPositionError = position.MalformedPositionError

// Commands.
type Command = command.Command
type CommandKind = command.Kind
type UnknownCommandError = command.UnknownError

const (
	ModeChangedCommand    = command.ModeChanged
	NodeActivatedCommand  = command.NodeActivated
	NodeHoverStartCommand = command.NodeHoverStart
	NodeHoverEndCommand   = command.NodeHoverEnd
)

// Refresh journal.
type JournalStore = journal.Store
type JournalEntry = journal.Entry
type Outcome = journal.Outcome

// ParseMode parses a traversal mode name, accepting the legacy names
// getChildren and forEachChild.
func ParseMode(s string) (Mode, error) {
	return projector.ParseMode(s)
}

// NodeCommand returns a command of kind k carrying the position pair p.
func NodeCommand(k CommandKind, p Pair) Command {
	return command.WithPair(k, p)
}

// ModeCommand returns a modeChanged command for m.
func ModeCommand(m Mode) Command {
	return command.ChangeMode(m)
}

// NewResolver returns a language resolver with extension overrides, for use
// with WithResolver.
func NewResolver(overrides map[string]string) *Resolver {
	return syntax.NewResolver(overrides)
}

// NewTreeSitter returns the tree-sitter Provider. Semantic traversal hides
// the kinds chosen by the embedded default filter script, which logs to
// logger (log.Default() when nil).
func NewTreeSitter(logger *log.Logger) Provider {
	if logger == nil {
		logger = log.Default()
	}
	rt := filter.NewRuntime("", filters.Default, filter.WithFS(filters.FS), filter.WithLogger(logger))
	return syntax.NewTreeSitter(syntax.WithKindFilter(rt))
}

// OpenJournal opens (creating if needed) a refresh journal database, for use
// with WithJournal.
func OpenJournal(path string) (*JournalStore, error) {
	return journal.Open(path)
}
