package history

import (
	"errors"
	"fmt"
	"strings"
)

// MinSessionPrefix is the minimum length for session id prefixes
const MinSessionPrefix = 6

// LastSession selects the most recent session in the log
const LastSession = "last"

// Sessions returns the distinct session ids in order of first appearance
func Sessions(entries []Entry) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range entries {
		if e.Session != "" && !seen[e.Session] {
			seen[e.Session] = true
			ids = append(ids, e.Session)
		}
	}
	return ids
}

// ResolveSession resolves a session id, a unique prefix of one, or "last"
// to a full session id present in entries.
func ResolveSession(entries []Entry, ref string) (string, error) {
	sessions := Sessions(entries)

	if ref == LastSession {
		if len(sessions) == 0 {
			return "", &NotFoundError{Ref: ref}
		}
		return sessions[len(sessions)-1], nil
	}

	// Full UUIDs must match exactly
	if len(ref) == 36 && strings.Count(ref, "-") == 4 {
		for _, id := range sessions {
			if id == ref {
				return id, nil
			}
		}
		return "", &NotFoundError{Ref: ref}
	}

	if len(ref) < MinSessionPrefix {
		return "", fmt.Errorf("session prefix must be at least %d characters (got %d)", MinSessionPrefix, len(ref))
	}

	var matches []string
	for _, id := range sessions {
		if strings.HasPrefix(id, ref) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Ref: ref}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{Ref: ref, Matches: matches}
	}
}

// NotFoundError indicates no session matched the reference
type NotFoundError struct {
	Ref string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no session found matching '%s'", e.Ref)
}

// AmbiguousError indicates several sessions matched a prefix
type AmbiguousError struct {
	Ref     string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous session prefix '%s' matches %d sessions", e.Ref, len(e.Matches))
}

// FormatAmbiguousError lists the matching sessions (up to 10, then "...and N more")
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ambiguous session prefix '%s' matches %d sessions:\n", err.Ref, len(err.Matches))

	displayCount := min(len(err.Matches), 10)
	for _, id := range err.Matches[:displayCount] {
		fmt.Fprintf(&b, "  %s\n", id)
	}
	if len(err.Matches) > 10 {
		fmt.Fprintf(&b, "  ...and %d more\n", len(err.Matches)-10)
	}

	b.WriteString("\nUse a longer prefix to identify the session.")
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError
func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
