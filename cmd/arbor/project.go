package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/jward/arbor/internal/position"
	"github.com/jward/arbor/internal/projector"
	"github.com/jward/arbor/internal/syntax"
)

var (
	flagMode     string
	flagSelect   []string
	flagLanguage string
)

var projectCmd = &cobra.Command{
	Use:   "project <file>",
	Short: "Print the presentation tree of a file",
	Long: `Parses a file and prints its presentation tree once, the same tree an editor session would render.

Selections use zero-based line:character positions, as editors report them:
  --select 3:4-3:9   a range
  --select 3:4       an empty selection (cursor)`,
	Args: cobra.ExactArgs(1),
	RunE: runProject,
}

func init() {
	projectCmd.Flags().StringVar(&flagMode, "mode", "", "traversal mode: structural|semantic (default from config)")
	projectCmd.Flags().StringArrayVar(&flagSelect, "select", nil, "selection as line:char[-line:char] (repeatable)")
	projectCmd.Flags().StringVar(&flagLanguage, "language", "", "language override, e.g. typescript")
}

func runProject(cmd *cobra.Command, args []string) error {
	result, err := project(cmd.Context(), args[0])
	if err != nil {
		return outputError("project", err)
	}
	return outputResult(CLIResult{Command: "project", Results: result})
}

func project(ctx context.Context, file string) (*CLIProjection, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	path, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("resolving file path %q: %w", file, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}

	mode := cfg.Mode()
	if flagMode != "" {
		if mode, err = projector.ParseMode(flagMode); err != nil {
			return nil, err
		}
	}

	ix := position.NewIndex(string(data))
	selections := make([]protocol.Range, 0, len(flagSelect))
	for _, s := range flagSelect {
		r, err := parseSelection(s)
		if err != nil {
			return nil, err
		}
		if err := checkSelection(ix, r); err != nil {
			return nil, fmt.Errorf("invalid selection %q: %w", s, err)
		}
		selections = append(selections, r)
	}

	lang := flagLanguage
	if lang == "" {
		var ok bool
		if lang, ok = syntax.NewResolver(cfg.Languages).Resolve("", path); !ok {
			return nil, fmt.Errorf("no language for %s (use --language)", file)
		}
	}

	tree, err := newProvider(cfg, newLogger(true)).Parse(ctx, string(data), syntax.Config{Language: lang})
	if err != nil {
		return nil, err
	}
	root, err := projector.Project(tree, mode, selections)
	if err != nil {
		return nil, err
	}

	return &CLIProjection{
		URI:        uri.File(path),
		Language:   lang,
		Mode:       mode,
		Selections: selections,
		NodeCount:  root.Count(),
		Tree:       root,
	}, nil
}

// parseSelection parses "line:char-line:char" or a single "line:char" cursor.
func parseSelection(s string) (protocol.Range, error) {
	startText, endText, isRange := strings.Cut(s, "-")
	start, err := parseLineChar(startText)
	if err != nil {
		return protocol.Range{}, fmt.Errorf("invalid selection %q: %w", s, err)
	}
	end := start
	if isRange {
		if end, err = parseLineChar(endText); err != nil {
			return protocol.Range{}, fmt.Errorf("invalid selection %q: %w", s, err)
		}
	}
	return protocol.Range{Start: start, End: end}, nil
}

func parseLineChar(s string) (protocol.Position, error) {
	lineText, charText, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return protocol.Position{}, fmt.Errorf("expected line:char, got %q", s)
	}
	line, err := strconv.ParseUint(lineText, 10, 32)
	if err != nil {
		return protocol.Position{}, fmt.Errorf("line %q must be a non-negative integer", lineText)
	}
	char, err := strconv.ParseUint(charText, 10, 32)
	if err != nil {
		return protocol.Position{}, fmt.Errorf("character %q must be a non-negative integer", charText)
	}
	return protocol.Position{Line: uint32(line), Character: uint32(char)}, nil
}

// checkSelection rejects positions that do not name a character boundary in
// the document: lines past the end, or characters past the end of a line.
func checkSelection(ix *position.Index, r protocol.Range) error {
	for _, p := range []protocol.Position{r.Start, r.End} {
		back, err := ix.Position(ix.Offset(p))
		if err != nil || back != p {
			return fmt.Errorf("%d:%d is outside the document", p.Line, p.Character)
		}
	}
	return nil
}
