// Package history reads back the automation log written by internal/logging.
//
// Each entry is a line of the form "[timestamp] [LEVEL] message". Lines that
// do not start a new entry continue the previous one, so multi-line messages
// such as git status summaries survive the round trip. Entries are tagged with
// the session that logged them, taken from the "Session <id> started" line
// every process writes first.
package history

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/dyluth/daykit/internal/logging"
)

// Entry is one parsed log entry
type Entry struct {
	Time    time.Time     `json:"time"`
	Level   logging.Level `json:"level"`
	Message string        `json:"message"`
	Session string        `json:"session,omitempty"`
}

var (
	entryLine   = regexp.MustCompile(`^\[([^\]]+)\] \[(INFO|WARN|ERROR)\] (.*)$`)
	sessionLine = regexp.MustCompile(`^Session ([0-9a-f-]{36}) started$`)
)

// maxLineSize bounds a single log line; gh pr create lines carry the full PR body
const maxLineSize = 1024 * 1024

// ParseLine parses a single entry line
func ParseLine(line string) (Entry, error) {
	m := entryLine.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, fmt.Errorf("not a log entry: %q", truncate(line, 40))
	}

	ts, err := time.Parse(logging.TimeFormat, m[1])
	if err != nil {
		return Entry{}, fmt.Errorf("invalid timestamp %q: %w", m[1], err)
	}

	return Entry{Time: ts, Level: logging.Level(m[2]), Message: m[3]}, nil
}

// Read parses every entry in r. Continuation lines are joined to the entry
// before them; continuation lines before the first entry are counted in skipped.
func Read(r io.Reader) (entries []Entry, skipped int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	session := ""
	for scanner.Scan() {
		line := scanner.Text()

		entry, parseErr := ParseLine(line)
		if parseErr != nil {
			if len(entries) == 0 {
				if strings.TrimSpace(line) != "" {
					skipped++
				}
				continue
			}
			last := &entries[len(entries)-1]
			last.Message += "\n" + line
			continue
		}

		if m := sessionLine.FindStringSubmatch(entry.Message); m != nil {
			session = m[1]
		}
		entry.Session = session
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return entries, skipped, fmt.Errorf("failed to read log: %w", err)
	}
	return entries, skipped, nil
}

// truncate shortens s to n runes, ending in "..." when cut
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n-3]) + "..."
	}
	return s
}
