package history

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// FormatTable writes entries as a formatted table to the provided writer.
// Columns: TIME, LEVEL, SESSION, AGE and MESSAGE (first line, truncated).
// Returns the number of entries formatted.
func FormatTable(w io.Writer, entries []Entry, source string, now time.Time) int {
	if len(entries) == 0 {
		fmt.Fprintf(w, "No log entries found in '%s'\n", source)
		return 0
	}

	fmt.Fprintf(w, "Log entries from '%s':\n\n", source)

	fmt.Fprintf(w, "%-19s %-5s %-8s %-8s %s\n",
		"TIME", "LEVEL", "SESSION", "AGE", "MESSAGE")
	fmt.Fprintf(w, "%-19s %-5s %-8s %-8s %s\n",
		"-------------------", "-----", "--------", "--------", "------------------------------------------------------------")

	for _, e := range entries {
		fmt.Fprintf(w, "%-19s %-5s %-8s %-8s %s\n",
			e.Time.Local().Format(time.DateTime),
			e.Level,
			formatSession(e.Session),
			formatAge(e.Time, now),
			formatMessage(e.Message),
		)
	}

	noun := "entry"
	if len(entries) != 1 {
		noun = "entries"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(entries), noun)

	return len(entries)
}

// FormatJSONL writes entries as line-delimited JSON, one object per line,
// for processing with tools like jq.
func FormatJSONL(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// formatSession truncates a session id to 8 characters for compact display
func formatSession(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatMessage shows the first non-empty line, at most 60 characters.
// Empty messages return "-".
func formatMessage(msg string) string {
	var firstLine string
	for _, line := range strings.Split(msg, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			firstLine = trimmed
			break
		}
	}

	if firstLine == "" {
		return "-"
	}
	return truncate(firstLine, 60)
}

// formatAge renders how long before now t was, e.g. "2m ago"
func formatAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := now.Sub(t)
	switch {
	case diff < 0:
		return "future"
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
