// Package tui is the public entry point for embedding gridx tables: an
// interactive Bubble Tea program, fullscreen snapshots, and static renders
// for pipes and reports.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/oakwood-commons/gridx/internal/cel"
	"github.com/oakwood-commons/gridx/internal/formatter"
	"github.com/oakwood-commons/gridx/internal/limiter"
	"github.com/oakwood-commons/gridx/internal/ui"
	"github.com/oakwood-commons/gridx/internal/ui/table"
	"github.com/oakwood-commons/gridx/pkg/grid"
)

// defaultFallbackTermWidth is used when terminal size cannot be detected.
const defaultFallbackTermWidth = 120

// Table is the data handed to Run and the renderers.
type Table struct {
	Title   string
	Columns []grid.ColumnSpec
	Rows    []grid.Record
}

// DetectTerminalSize returns the best-effort terminal width and height by probing
// stdout, stderr, and stdin, then falling back to the COLUMNS environment variable.
// If detection fails completely, returns generous defaults (120, 24) to avoid
// overly narrow output in CI or non-TTY environments.
func DetectTerminalSize() (width int, height int) {
	fds := []uintptr{os.Stdout.Fd(), os.Stderr.Fd(), os.Stdin.Fd()}
	for _, fd := range fds {
		if w, h, err := term.GetSize(int(fd)); err == nil && (w > 0 || h > 0) {
			return w, h
		}
	}
	if col := os.Getenv("COLUMNS"); col != "" {
		if w, err := strconv.Atoi(col); err == nil && w > 0 {
			return w, 0
		}
	}
	return defaultFallbackTermWidth, 24
}

// NewModel builds the application model for t. When cfg.Limit is active the
// window is taken from the rows in their initial sort order.
func NewModel(t Table, cfg Config) (*ui.Model, error) {
	if err := cfg.Limit.Validate(); err != nil {
		return nil, err
	}
	cfg.Apply()
	eval, err := cel.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("create CEL evaluator: %w", err)
	}
	st := cfg.SortState()
	rows := t.Rows
	if cfg.Limit.IsActive() {
		rows = sortedTable(t, st, cfg.Limit).Rows
	}
	return ui.New(ui.Options{
		Title: windowTitle(t.Title, cfg.Limit, len(t.Rows)),
		Table: table.Options{
			Columns:        t.Columns,
			Rows:           rows,
			Sort:           st,
			Loading:        cfg.Loading,
			SortProcessing: cfg.SortProcessing,
			NoColor:        cfg.NoColor,
			Logger:         cfg.Logger,
			Interval:       cfg.ThrottleInterval,
		},
		Evaluator: eval,
		ShowHelp:  cfg.ShowHelp,
		Logger:    cfg.Logger,
	})
}

// Run starts the interactive table. It returns when the user quits or ctx
// is cancelled. Host applications can pass tea.ProgramOption values to
// control IO.
func Run(ctx context.Context, t Table, cfg Config, opts ...tea.ProgramOption) error {
	m, err := NewModel(t, cfg)
	if err != nil {
		return err
	}
	return ui.RunModel(ctx, m, cfg.Width, cfg.Height, opts...)
}

// RenderSnapshot renders the fullscreen interactive view once, after
// replaying cfg.StartKeys, and returns it as a string.
func RenderSnapshot(t Table, cfg Config) (string, error) {
	m, err := NewModel(t, cfg)
	if err != nil {
		return "", err
	}
	return ui.RenderSnapshot(m, ui.ModelSnapshotConfig{
		Width:   cfg.Width,
		Height:  cfg.Height,
		NoColor: cfg.NoColor,
		Keys:    cfg.StartKeys,
	}), nil
}

// RenderTable renders t as a static table sorted by the configured state.
// A zero width uses the terminal width.
func RenderTable(t Table, cfg Config) string {
	cfg.Apply()
	st := cfg.SortState()
	return formatter.RenderTable(sortedTable(t, st, cfg.Limit), formatter.TableOptions{
		Width:   cfg.Width,
		NoColor: cfg.NoColor,
		Title:   windowTitle(t.Title, cfg.Limit, len(t.Rows)),
		Loading: cfg.Loading,
	})
}

// Render writes t in the given output format: table, tree, yaml, json or toml.
// Structured formats describe the resolved layout and include the sorted
// rows.
func Render(t Table, format string, cfg Config) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if !formatter.ValidOutput(format) {
		return "", fmt.Errorf("unknown output format %q (use table, tree, yaml, json or toml)", format)
	}
	if err := cfg.Limit.Validate(); err != nil {
		return "", err
	}
	if format == formatter.OutputTable {
		return RenderTable(t, cfg), nil
	}
	width := cfg.Width
	if width <= 0 {
		width, _ = DetectTerminalSize()
	}
	st := cfg.SortState()
	report := formatter.BuildLayoutReport(sortedTable(t, st, cfg.Limit), windowTitle(t.Title, cfg.Limit, len(t.Rows)), width, true)
	return formatter.FormatReport(report, format)
}

// ApplyClicks replays header clicks on the configured sort state, the way a
// user clicking the column headers in order would. Unknown columns are an
// error.
func ApplyClicks(t Table, cfg Config, clicks []grid.ColumnKey) (grid.SortState, error) {
	st := cfg.SortState()
	known := make(map[grid.ColumnKey]bool, len(t.Columns))
	for _, c := range t.Columns {
		known[c.Key] = true
	}
	for i, k := range clicks {
		if !known[k] {
			return st, &grid.ConfigurationError{Column: k, Index: i, Reason: "click on unknown column"}
		}
		st = grid.NextSortState(st, k)
	}
	return st, nil
}

func sortedTable(t Table, st grid.SortState, lim limiter.Config) formatter.Table {
	rows := append([]grid.Record(nil), t.Rows...)
	if !st.Disabled {
		grid.SortRecords(rows, st.Entries)
	}
	return formatter.Table{Columns: t.Columns, Rows: limiter.Apply(lim, rows), Sort: st}
}

func windowTitle(title string, lim limiter.Config, total int) string {
	summary := lim.Summary(total)
	switch {
	case summary == "":
		return title
	case title == "":
		return summary
	default:
		return fmt.Sprintf("%s (%s)", title, summary)
	}
}

// WithIO returns tea.ProgramOptions to set custom input/output.
func WithIO(in io.Reader, out io.Writer) []tea.ProgramOption {
	opts := []tea.ProgramOption{}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	return opts
}
