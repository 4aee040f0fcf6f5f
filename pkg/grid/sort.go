package grid

import (
	"fmt"
	"strings"
)

// Direction is a sort direction.
type Direction int

const (
	// Ascending is the default direction, smallest first.
	Ascending Direction = iota
	// Descending sorts largest first.
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts asc/ascending and desc/descending, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("unknown sort direction %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	v, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// SortEntry is one active sort key.
type SortEntry struct {
	Column    ColumnKey `json:"column" yaml:"column" toml:"column"`
	Direction Direction `json:"direction" yaml:"direction" toml:"direction"`
}

// SortState is the caller-owned sort configuration of a table. Entries are
// kept in click order; earlier entries take precedence.
type SortState struct {
	Entries   []SortEntry `json:"entries" yaml:"entries" toml:"entries"`
	MultiSort bool        `json:"multiSort" yaml:"multi_sort" toml:"multi_sort"`
	Disabled  bool        `json:"disabled" yaml:"disabled" toml:"disabled"`
}

// SortSink receives the state produced by a column click.
type SortSink func(SortState)

// Lookup returns the entry for column and its position in Entries.
func (s SortState) Lookup(column ColumnKey) (SortEntry, int, bool) {
	for i, e := range s.Entries {
		if e.Column == column {
			return e, i, true
		}
	}
	return SortEntry{}, -1, false
}

// Clone returns a copy that shares no backing array with s.
func (s SortState) Clone() SortState {
	out := s
	if s.Entries != nil {
		out.Entries = append([]SortEntry(nil), s.Entries...)
	}
	return out
}

// NextSortState returns the state that results from clicking a column header.
//
// A click proposes ascending order, or flips an existing ascending entry to
// descending. Without multi-sort the proposal replaces everything. With
// multi-sort an unsorted column is appended, an ascending one is flipped in
// place and a descending one is removed, so three clicks cycle a column
// through ascending, descending and unsorted. Disabled states are returned
// unchanged. The input is never modified.
func NextSortState(state SortState, clicked ColumnKey) SortState {
	if state.Disabled {
		return state
	}

	existing, idx, found := state.Lookup(clicked)
	proposed := SortEntry{Column: clicked, Direction: Ascending}
	if found && existing.Direction == Ascending {
		proposed.Direction = Descending
	}

	next := state.Clone()
	if !state.MultiSort {
		next.Entries = []SortEntry{proposed}
		return next
	}

	switch {
	case !found:
		next.Entries = append(next.Entries, proposed)
	case existing.Direction == Descending:
		next.Entries = append(next.Entries[:idx], next.Entries[idx+1:]...)
	default:
		next.Entries[idx] = proposed
	}
	return next
}

// OnColumnClick applies NextSortState and delivers the result to sink. It is
// a no-op returning state when sorting is disabled or nobody listens.
func OnColumnClick(state SortState, clicked ColumnKey, sink SortSink) SortState {
	if state.Disabled || sink == nil {
		return state
	}
	next := NextSortState(state, clicked)
	sink(next)
	return next
}
