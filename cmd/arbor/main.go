package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/arbor"
	"github.com/jward/arbor/internal/config"
	"github.com/jward/arbor/internal/filter"
	"github.com/jward/arbor/internal/syntax"
)

var (
	flagConfig string
	flagFormat string
	flagColor  string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "arbor",
	Short:         "Syntax tree visualizer for editors",
	Long:          "Arbor projects tree-sitter syntax trees into presentation trees, keeps them in sync with the editor, and routes node interactions back to the source.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		return validateColor(flagColor)
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .arbor/config.yaml relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto", "colorize text output: auto|always|never")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(journalCmd)
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding .git.
			return startDir
		}
		dir = parent
	}
}

// resolveConfigPath returns the config path from the --config flag or the
// default under the repo root.
func resolveConfigPath(repoRoot string) string {
	if flagConfig != "" {
		if filepath.IsAbs(flagConfig) {
			return flagConfig
		}
		return filepath.Join(repoRoot, flagConfig)
	}
	return config.File(repoRoot)
}

// loadConfig loads the config for the repository containing the working
// directory.
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return config.Load(resolveConfigPath(findRepoRoot(cwd)))
}

// newLogger returns the diagnostics logger. stdout may carry protocol traffic
// or results, so logs always go to stderr.
func newLogger(quiet bool) *log.Logger {
	var w io.Writer = os.Stderr
	if quiet {
		w = io.Discard
	}
	return log.New(w, "arbor: ", log.LstdFlags)
}

// newProvider builds the tree-sitter provider with the configured semantic
// filter. A configured script is read from disk, otherwise the embedded
// default is used.
func newProvider(cfg *config.Config, logger *log.Logger) syntax.Provider {
	path := cfg.FilterPath()
	if path == "" {
		return arbor.NewTreeSitter(logger)
	}
	rt := filter.NewRuntime(filepath.Dir(path), filepath.Base(path), filter.WithLogger(logger))
	return syntax.NewTreeSitter(syntax.WithKindFilter(rt))
}
