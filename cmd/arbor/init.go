package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/arbor/internal/config"
	"github.com/jward/arbor/internal/projector"
)

var (
	flagForce       bool
	flagInitMode    string
	flagInitJournal string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long:  "Writes .arbor/config.yaml at the repo root (or the --config path) with the default traversal mode and, optionally, a refresh journal.",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&flagForce, "force", false, "overwrite an existing config file")
	initCmd.Flags().StringVar(&flagInitMode, "mode", string(projector.Structural), "default traversal mode: structural|semantic")
	initCmd.Flags().StringVar(&flagInitJournal, "journal", "", "journal database path, relative to the config directory")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	path := resolveConfigPath(findRepoRoot(cwd))
	if err := writeConfig(path, flagInitMode, flagInitJournal, flagForce); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}

// writeConfig validates and saves a new config at path. An existing file is
// kept unless force is set.
func writeConfig(path, mode, journalPath string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config already exists: %s (use --force to overwrite)", path)
	}
	cfg := config.Default()
	cfg.DefaultMode = mode
	cfg.Journal = journalPath
	if err := cfg.Validate(); err != nil {
		return err
	}
	return config.Save(cfg, path)
}
