package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jward/arbor"
	"github.com/jward/arbor/internal/journal"
	"github.com/jward/arbor/internal/rpc"
	"github.com/jward/arbor/internal/syntax"
)

var (
	flagQuiet   bool
	flagJournal string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the editor bridge on stdio",
	Long:  "Speaks JSON-RPC 2.0 with LSP framing on stdin/stdout. Editors mirror documents and selections, open visualization sessions, and receive presentation trees.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&flagQuiet, "quiet", false, "discard diagnostics instead of writing them to stderr")
	serveCmd.Flags().StringVar(&flagJournal, "journal", "", "record refreshes to this SQLite database (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(flagQuiet)

	mopts := []arbor.Option{
		arbor.WithDefaultMode(cfg.Mode()),
		arbor.WithResolver(syntax.NewResolver(cfg.Languages)),
	}

	journalPath := cfg.JournalPath()
	if flagJournal != "" {
		journalPath = flagJournal
	}
	if journalPath != "" {
		if err := os.MkdirAll(filepath.Dir(journalPath), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(journalPath), err)
		}
		store, err := journal.Open(journalPath)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer store.Close()
		mopts = append(mopts, arbor.WithJournal(store))
		logger.Printf("journal: %s", journalPath)
	}

	srv := rpc.NewServer(newProvider(cfg, logger),
		rpc.WithLogger(logger),
		rpc.WithManagerOptions(mopts...),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx, rpc.Stdio(os.Stdin, os.Stdout))
}
