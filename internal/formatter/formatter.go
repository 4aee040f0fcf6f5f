package formatter

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"reflect"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/oakwood-commons/gridx/pkg/grid"
)

var (
	defaultHeaderFG   = lipgloss.Color("12")
	defaultHeaderBG   = lipgloss.Color("236")
	defaultSortColor  = lipgloss.Color("11")
	defaultValueColor = lipgloss.Color("248")
	defaultSeparator  = lipgloss.Color("240")

	headerStyle    lipgloss.Style
	sortStyle      lipgloss.Style
	valueStyle     lipgloss.Style
	separatorStyle lipgloss.Style
)

// TableColors controls the rendered colors for static tables.
// Nil fields fall back to the defaults (ANSI 256 codes).
type TableColors struct {
	HeaderFG       color.Color
	HeaderBG       color.Color
	SortColor      color.Color
	ValueColor     color.Color
	SeparatorColor color.Color
}

func applyTableTheme(tc TableColors) {
	pick := func(c, def color.Color) color.Color {
		if c == nil {
			return def
		}
		return c
	}
	headerStyle = lipgloss.NewStyle().Bold(true).
		Foreground(pick(tc.HeaderFG, defaultHeaderFG)).
		Background(pick(tc.HeaderBG, defaultHeaderBG))
	sortStyle = headerStyle.Foreground(pick(tc.SortColor, defaultSortColor))
	valueStyle = lipgloss.NewStyle().Foreground(pick(tc.ValueColor, defaultValueColor))
	separatorStyle = lipgloss.NewStyle().Foreground(pick(tc.SeparatorColor, defaultSeparator))
}

// SetTableTheme overrides the global table styles. Callers can pass zero-valued
// fields to fall back to formatter defaults.
func SetTableTheme(tc TableColors) {
	applyTableTheme(tc)
}

//nolint:gochecknoinits // initialize default table theme for package consumers
func init() {
	applyTableTheme(TableColors{})
}

// Stringify returns a single-line representation of a cell value.
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return escapeControl(t)
	case bool, int, int64, float64:
		return fmt.Sprint(t)
	case map[string]any, []any:
		// compact JSON reads better than Go's map[...] syntax
		if b, err := json.Marshal(t); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", t)
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() { //nolint:exhaustive // only complex types need JSON marshaling
		case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
			if b, err := json.Marshal(v); err == nil {
				return string(b)
			}
		}
		return fmt.Sprintf("%v", v)
	}
}

// CellText formats the value of column in record for a table cell.
func CellText(record grid.Record, column grid.ColumnKey) string {
	v, ok := record[column]
	if !ok {
		return ""
	}
	switch v.(type) {
	case string, map[string]any, []any:
		return Stringify(v)
	default:
		return escapeControl(record.Text(column))
	}
}

// escapeControl flattens line breaks and tabs so table rows stay single-line.
func escapeControl(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return strings.ReplaceAll(s, "\t", " ")
}

// truncate shortens s to maxLen cells, ending in an ellipsis when there is
// room for one.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen < 2 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "…")
}

// padRight left-aligns s within width cells.
func padRight(s string, width int) string {
	s = truncate(s, width)
	return runewidth.FillRight(s, width)
}

// padLeft right-aligns s within width cells.
func padLeft(s string, width int) string {
	s = truncate(s, width)
	return runewidth.FillLeft(s, width)
}

// align pads s according to a column's alignment.
func align(s string, width int, alignment string) string {
	if alignment == "right" {
		return padLeft(s, width)
	}
	return padRight(s, width)
}

// visibleWidth measures rendered text, ignoring ANSI sequences.
func visibleWidth(s string) int {
	return lipgloss.Width(s)
}

// TerminalWidth returns the width of stdout, or a default if detection fails.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 120 // sensible default
	}
	return width
}
