package tui

import (
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/gridx/internal/limiter"
	"github.com/oakwood-commons/gridx/internal/ui"
	"github.com/oakwood-commons/gridx/pkg/grid"
)

// Config holds host-provided settings for running or rendering a table.
type Config struct {
	Width     int
	Height    int
	NoColor   bool
	Theme     *ui.Theme
	ThemeName string // Alternative to Theme: a theme from the loaded configuration (dark, light, mono)

	// Sort is the initial sort. MultiSort and DisableSort override the
	// matching fields of Sort.
	Sort        []grid.SortEntry
	MultiSort   bool
	DisableSort bool

	// ThrottleInterval spaces resize-driven layout passes; 0 uses the
	// default.
	ThrottleInterval time.Duration

	// Limit windows the rows after the initial sort.
	Limit limiter.Config

	ShowHelp  bool
	Loading   bool
	StartKeys []string // Replayed before a snapshot is rendered
	Logger    logr.Logger

	// SortProcessing starts the table with a sort in flight.
	SortProcessing bool
}

// DefaultConfig returns a baseline config with the same defaults as the CLI.
func DefaultConfig() Config {
	cfg := Config{}
	embedded, err := ui.EmbeddedDefaultConfig()
	if err != nil {
		return cfg
	}
	b := embedded.UI.Behavior
	cfg.MultiSort = ui.BoolOr(b.MultiSort, false)
	cfg.DisableSort = ui.BoolOr(b.DisableSort, false)
	cfg.ShowHelp = ui.BoolOr(b.ShowHelp, false)
	cfg.ThrottleInterval = time.Duration(ui.IntOr(b.ThrottleMs, 0)) * time.Millisecond
	cfg.ThemeName = strings.TrimSpace(embedded.UI.Theme.Default)
	return cfg
}

// Apply applies the config to the UI globals.
func (c Config) Apply() {
	// ThemeName takes precedence over Theme if both are set
	if c.ThemeName != "" {
		if err := ui.SetThemeByName(c.ThemeName); err != nil {
			// an unknown name falls back to the default palette so the table
			// still renders
			ui.SetTheme(ui.DefaultTheme())
		}
	} else if c.Theme != nil {
		ui.SetTheme(*c.Theme)
	}
}

// SortState builds the initial sort state.
func (c Config) SortState() grid.SortState {
	st := grid.SortState{
		Entries:   append([]grid.SortEntry(nil), c.Sort...),
		MultiSort: c.MultiSort,
		Disabled:  c.DisableSort,
	}
	if !st.MultiSort && len(st.Entries) > 1 {
		st.Entries = st.Entries[:1]
	}
	return st
}

// WithSort returns a copy of c starting from st.
func (c Config) WithSort(st grid.SortState) Config {
	c.Sort = append([]grid.SortEntry(nil), st.Entries...)
	c.MultiSort = st.MultiSort
	c.DisableSort = st.Disabled
	return c
}
