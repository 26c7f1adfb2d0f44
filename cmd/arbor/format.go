package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/jward/arbor/internal/journal"
	"github.com/jward/arbor/internal/projector"
)

// styles holds the color formatters for text output.
type styles struct {
	label    *color.Color
	selected *color.Color
	title    *color.Color
	excerpt  *color.Color
	failed   *color.Color
}

// newStyles creates color formatters. enabled=false yields plain text.
func newStyles(enabled bool) *styles {
	s := &styles{
		label:    color.New(color.Bold),
		selected: color.New(color.Bold, color.FgHiGreen),
		title:    color.New(color.FgHiBlue),
		excerpt:  color.New(color.FgYellow),
		failed:   color.New(color.FgRed),
	}
	if !enabled {
		s.label.DisableColor()
		s.selected.DisableColor()
		s.title.DisableColor()
		s.excerpt.DisableColor()
		s.failed.DisableColor()
	}
	return s
}

// colorEnabled applies --color. auto leaves the decision to fatih/color,
// which checks for a terminal and NO_COLOR.
func colorEnabled() bool {
	switch flagColor {
	case "always":
		return true
	case "never":
		return false
	}
	return !color.NoColor
}

// writeTree prints a presentation tree, one node per line, indented by
// depth. Selected nodes are marked with '*'.
func (s *styles) writeTree(w io.Writer, root *projector.Node) {
	var walk func(n *projector.Node, depth int)
	walk = func(n *projector.Node, depth int) {
		indent := strings.Repeat("  ", depth)
		label := s.label.Sprint(n.Label)
		marker := " "
		if n.Style == projector.Selected {
			label = s.selected.Sprint(n.Label)
			marker = s.selected.Sprint("*")
		}
		line := fmt.Sprintf("%s%s%s  %s", marker, indent, label, s.title.Sprintf("[%s]", n.Title))
		if n.Excerpt != "" {
			line += "  " + s.excerpt.Sprint(n.Excerpt)
		}
		fmt.Fprintln(w, line)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	if root != nil {
		walk(root, 0)
	}
}

// writeRefreshes formats journal entries as aligned columns.
func (s *styles) writeRefreshes(w io.Writer, refreshes []CLIRefresh) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEQ\tOUTCOME\tMODE\tNODES\tDURATION\tURI")
	for _, r := range refreshes {
		outcome := r.Outcome
		if outcome == string(journal.Failed) {
			outcome = s.failed.Sprint(outcome)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\t%dms\t%s\n",
			r.ID, r.Seq, outcome, r.Mode, r.NodeCount, r.DurationMS, r.URI)
	}
	tw.Flush()

	for _, r := range refreshes {
		if r.Error != "" {
			fmt.Fprintf(w, "#%d: %s\n", r.ID, s.failed.Sprint(r.Error))
		}
	}
}

// formatJournalSummaryText formats per-document outcome counts.
func formatJournalSummaryText(w io.Writer, sums []CLIJournalSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "URI\tTOTAL\tLAST SEQ\tOUTCOMES")
	for _, sum := range sums {
		outcomes := make([]string, 0, len(sum.Counts))
		for o := range sum.Counts {
			outcomes = append(outcomes, o)
		}
		sort.Strings(outcomes)
		parts := make([]string, len(outcomes))
		for i, o := range outcomes {
			parts[i] = fmt.Sprintf("%s=%d", o, sum.Counts[o])
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", sum.URI, sum.Total, sum.LastSeq, strings.Join(parts, " "))
	}
	tw.Flush()
}

// outputResultText writes a CLIResult in human-readable text format to stdout.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)
	s := newStyles(colorEnabled())

	switch v := result.Results.(type) {
	case *CLIProjection:
		s.writeTree(w, v.Tree)
	case []CLIRefresh:
		s.writeRefreshes(w, v)
	case []CLIJournalSummary:
		formatJournalSummaryText(w, v)
	default:
		// Fallback: marshal as JSON for unknown types.
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return nil
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

var validColors = []string{"auto", "always", "never"}

func validateColor(mode string) error {
	for _, c := range validColors {
		if mode == c {
			return nil
		}
	}
	return fmt.Errorf("invalid color mode %q: must be one of %s", mode, strings.Join(validColors, ", "))
}
