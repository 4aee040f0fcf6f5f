// Package limiter windows a row set after sorting: skip, limit, or keep the
// last N rows.
package limiter

import (
	"fmt"
)

// Config holds the record-limiting parameters.
type Config struct {
	Limit  int // Show only this many records (0 = unlimited)
	Offset int // Skip the first N records (0 = no skip)
	Tail   int // Show only the last N records (0 = disabled); mutually exclusive with Limit
}

// Validate checks for conflicting flag combinations and returns an error if invalid.
// Limit and Tail are mutually exclusive; Offset is ignored when Tail is set.
func (c Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("--limit must be non-negative, got %d", c.Limit)
	}
	if c.Offset < 0 {
		return fmt.Errorf("--offset must be non-negative, got %d", c.Offset)
	}
	if c.Tail < 0 {
		return fmt.Errorf("--tail must be non-negative, got %d", c.Tail)
	}
	if c.Limit > 0 && c.Tail > 0 {
		return fmt.Errorf("--limit and --tail are mutually exclusive")
	}
	return nil
}

// IsActive returns true if any limiting is configured.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0 || c.Tail > 0
}

// Window returns the [start, end) bounds of the rows kept out of n.
func (c Config) Window(n int) (start, end int) {
	if !c.IsActive() {
		return 0, n
	}
	if c.Tail > 0 {
		start = n - c.Tail
		if start < 0 {
			start = 0
		}
		return start, n
	}
	start = min(max(c.Offset, 0), n)
	end = n
	if c.Limit > 0 && start+c.Limit < n {
		end = start + c.Limit
	}
	return start, end
}

// Apply returns the window of rows selected by c. The result shares the
// backing array with rows.
func Apply[T any](c Config, rows []T) []T {
	start, end := c.Window(len(rows))
	return rows[start:end]
}

// Summary describes the window for status lines, e.g. "rows 11-20 of 57".
// It is empty when nothing is cut.
func (c Config) Summary(n int) string {
	start, end := c.Window(n)
	if start == 0 && end == n {
		return ""
	}
	if start == end {
		return fmt.Sprintf("no rows of %d", n)
	}
	return fmt.Sprintf("rows %d-%d of %d", start+1, end, n)
}
