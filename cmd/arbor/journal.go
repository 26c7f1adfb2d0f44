package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/arbor/internal/journal"
)

var (
	flagURI     string
	flagLimit   int
	flagSummary bool
	flagDB      string
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recorded refreshes",
	Long:  "Reads the refresh journal written by 'arbor serve' and lists recent refreshes, newest first, or per-document outcome counts with --summary.",
	Args:  cobra.NoArgs,
	RunE:  runJournal,
}

func init() {
	journalCmd.Flags().StringVar(&flagURI, "uri", "", "only show refreshes of this document URI")
	journalCmd.Flags().IntVar(&flagLimit, "limit", 20, "maximum number of refreshes to show (0 = all)")
	journalCmd.Flags().BoolVar(&flagSummary, "summary", false, "show outcome counts per document")
	journalCmd.Flags().StringVar(&flagDB, "db", "", "journal database path (default from config)")
}

func runJournal(cmd *cobra.Command, args []string) error {
	store, err := openJournal()
	if err != nil {
		return outputError("journal", err)
	}
	defer store.Close()

	if flagSummary {
		sums, err := store.Summarize()
		if err != nil {
			return outputError("journal", err)
		}
		out := make([]CLIJournalSummary, len(sums))
		for i, s := range sums {
			out[i] = toCLIJournalSummary(s)
		}
		total := len(out)
		return outputResult(CLIResult{Command: "journal", Results: out, TotalCount: &total})
	}

	entries, err := store.Recent(flagURI, flagLimit)
	if err != nil {
		return outputError("journal", err)
	}
	out := make([]CLIRefresh, len(entries))
	for i, e := range entries {
		out[i] = toCLIRefresh(e)
	}
	total := len(out)
	return outputResult(CLIResult{Command: "journal", Results: out, TotalCount: &total})
}

// openJournal opens the journal named by --db or the config. It never creates
// a database; a missing one means the server has not journaled yet.
func openJournal() (*journal.Store, error) {
	path := flagDB
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.JournalPath()
	}
	if path == "" {
		return nil, fmt.Errorf("journal disabled (set journal in config or pass --db)")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("journal not found: %s (run 'arbor serve' with journaling first)", path)
	}
	return journal.Open(path)
}
