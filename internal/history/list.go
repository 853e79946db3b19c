package history

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// OutputFormat specifies how to format the entry list output
type OutputFormat string

const (
	// OutputFormatDefault uses a table format with truncated messages
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete entries as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// Now is the clock used for relative ages. Replaced in tests.
var Now = time.Now

// ErrNoLog is returned when the log file does not exist yet
var ErrNoLog = errors.New("no automation log found")

// List reads the log at path, applies criteria and writes the result to w.
// A session reference in criteria is resolved against the log first. Entries
// are sorted by time (stable, so same-second entries keep file order).
// Stray lines before the first entry are reported to stderr and skipped.
func List(path string, format OutputFormat, criteria *Criteria, w io.Writer) error {
	if format != OutputFormatDefault && format != OutputFormatJSONL {
		return fmt.Errorf("unknown output format: %s", format)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w at %s", ErrNoLog, path)
		}
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	entries, skipped, err := Read(f)
	if err != nil {
		return err
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "⚠️  Skipping %d malformed line(s) in %s\n", skipped, path)
	}

	if criteria != nil && criteria.HasFilters() {
		c := *criteria
		if c.Session != "" {
			if c.Session, err = ResolveSession(entries, c.Session); err != nil {
				return err
			}
		}

		var kept []Entry
		for _, e := range entries {
			if c.Matches(e) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.Before(entries[j].Time)
	})

	switch format {
	case OutputFormatJSONL:
		return FormatJSONL(w, entries)
	default:
		FormatTable(w, entries, path, Now())
		return nil
	}
}
