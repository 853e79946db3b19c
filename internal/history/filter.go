package history

import (
	"strings"
	"time"

	"github.com/dyluth/daykit/internal/logging"
)

// Criteria defines filtering criteria for log entries.
// All filters are ANDed together - an entry must match ALL criteria to pass.
type Criteria struct {
	Since    time.Time     // zero = no lower bound
	Until    time.Time     // zero = no upper bound
	MinLevel logging.Level // empty = every level
	Session  string        // session id or unique prefix, empty = every session
	Contains string        // case-insensitive substring of the message, empty = no filter
}

// Matches returns true if the entry matches all filter criteria.
// Session must already be resolved to a full id.
func (c *Criteria) Matches(e Entry) bool {
	if !c.Since.IsZero() && e.Time.Before(c.Since) {
		return false
	}
	if !c.Until.IsZero() && e.Time.After(c.Until) {
		return false
	}

	if c.MinLevel != "" && e.Level.Rank() < c.MinLevel.Rank() {
		return false
	}

	if c.Session != "" && e.Session != c.Session {
		return false
	}

	if c.Contains != "" && !strings.Contains(strings.ToLower(e.Message), strings.ToLower(c.Contains)) {
		return false
	}

	return true
}

// HasFilters returns true if any filters are active
func (c *Criteria) HasFilters() bool {
	return !c.Since.IsZero() ||
		!c.Until.IsZero() ||
		c.MinLevel != "" ||
		c.Session != "" ||
		c.Contains != ""
}
