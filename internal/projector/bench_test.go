package projector

import (
	"context"
	"testing"

	"go.lsp.dev/protocol"

	"github.com/jward/arbor/internal/syntax"
)

// benchGoSource is a realistic Go file with functions, structs, interfaces,
// and method calls, large enough that projection cost dominates setup.
const benchGoSource = `package bench

import (
	"fmt"
	"strings"
)

// Logger defines a logging interface.
type Logger interface {
	Log(msg string)
	Logf(format string, args ...interface{})
}

// Config holds application configuration.
type Config struct {
	Name     string
	Debug    bool
	MaxRetry int
	Tags     []string
}

// Validate checks the config for correctness.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.MaxRetry < 0 {
		return fmt.Errorf("max_retry must be non-negative")
	}
	return nil
}

// HasTag reports whether the config includes the given tag.
func (c *Config) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type App struct {
	config *Config
	log    Logger
}

func NewApp(cfg *Config, log Logger) *App {
	return &App{config: cfg, log: log}
}

func (a *App) Run(args []string) error {
	if err := a.config.Validate(); err != nil {
		return err
	}
	joined := strings.Join(args, " ")
	a.log.Logf("running %s with %q", a.config.Name, joined)
	return nil
}
`

func parseBench(b *testing.B) *syntax.Tree {
	b.Helper()
	tree, err := syntax.NewTreeSitter().Parse(context.Background(), benchGoSource, syntax.Config{Language: "go"})
	if err != nil {
		b.Fatal(err)
	}
	return tree
}

func BenchmarkProject_Structural(b *testing.B) {
	tree := parseBench(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Project(tree, Structural, nil); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkProject_SemanticWithSelection measures the selection-heavy path:
// every node is compared against the cursor range.
func BenchmarkProject_SemanticWithSelection(b *testing.B) {
	tree := parseBench(b)
	sel := []protocol.Range{{
		Start: protocol.Position{Line: 58, Character: 12},
		End:   protocol.Position{Line: 58, Character: 20},
	}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Project(tree, Semantic, sel); err != nil {
			b.Fatal(err)
		}
	}
}
