package formatter

import (
	"strconv"
	"strings"

	"github.com/oakwood-commons/gridx/pkg/grid"
)

const (
	ascendingArrow  = "▲"
	descendingArrow = "▼"
	loadingMarker   = "…"
)

// TableOptions configures static table rendering.
type TableOptions struct {
	// Width is the container width in cells. If 0, uses terminal width.
	Width int

	// NoColor disables color output.
	NoColor bool

	// Title is printed above the header when set.
	Title string

	// Loading marks the header as still waiting for data.
	Loading bool

	// MaxRows limits the number of body rows; 0 renders all of them.
	MaxRows int
}

// Table is what RenderTable draws: resolved columns, their rows and the
// active sort state used for header indicators.
type Table struct {
	Columns []grid.ColumnSpec
	Rows    []grid.Record
	Sort    grid.SortState
}

// SortIndicator returns the header marker for column: an arrow for its
// direction, followed by its priority when more than one column is sorted.
func SortIndicator(state grid.SortState, column grid.ColumnKey) string {
	entry, idx, ok := state.Lookup(column)
	if !ok {
		return ""
	}
	arrow := ascendingArrow
	if entry.Direction == grid.Descending {
		arrow = descendingArrow
	}
	if state.MultiSort && len(state.Entries) > 1 {
		return arrow + strconv.Itoa(idx+1)
	}
	return arrow
}

// HeaderLabel is the column title with its sort indicator appended.
func HeaderLabel(col grid.ColumnSpec, state grid.SortState) string {
	label := col.Header()
	if ind := SortIndicator(state, col.Key); ind != "" {
		label += " " + ind
	}
	return label
}

// Layout resolves the columns for a container of the given width and applies
// the result to one head track and one track per row. Every track receives
// the same template, so header and body cells line up.
func Layout(columns []grid.ColumnSpec, width, rows int) (grid.ColumnsSizes, *grid.Track, []*grid.Track, bool) {
	w := float64(width)
	// static rendering has no earlier measurement, so the scale is 1
	sizes := grid.Resolve(columns, w, w)
	head := &grid.Track{}
	bodies := make([]*grid.Track, rows)
	targets := make([]grid.Target, rows)
	for i := range bodies {
		bodies[i] = &grid.Track{}
		targets[i] = bodies[i]
	}
	overflowing := grid.Apply(sizes, w, head, targets)
	return sizes, head, bodies, overflowing
}

// RenderTable draws t as a header, a rule and one line per row. Column widths
// come from the grid resolver; when the columns overflow the width, cells keep
// their resolved sizes and the lines run wider than the container.
func RenderTable(t Table, opts TableOptions) string {
	if len(t.Columns) == 0 {
		return ""
	}
	width := opts.Width
	if width <= 0 {
		width = TerminalWidth()
	}

	rows := t.Rows
	if opts.MaxRows > 0 && len(rows) > opts.MaxRows {
		rows = rows[:opts.MaxRows]
	}
	_, head, bodies, _ := Layout(t.Columns, width, len(rows))

	var b strings.Builder
	if opts.Title != "" {
		b.WriteString(opts.Title + "\n")
	}

	headWidths := head.CellWidths(width)
	b.WriteString(renderHeaderLine(t, headWidths, opts) + "\n")

	total := 0
	for _, w := range headWidths {
		total += w
	}
	rule := strings.Repeat("─", total)
	if !opts.NoColor {
		rule = separatorStyle.Render(rule)
	}
	b.WriteString(rule + "\n")

	for i, rec := range rows {
		cells := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			cells[j] = CellText(rec, col.Key)
		}
		line := renderLine(t.Columns, cells, bodies[i].CellWidths(width))
		if !opts.NoColor {
			line = valueStyle.Render(line)
		}
		b.WriteString(strings.TrimRight(line, " ") + "\n")
	}
	return b.String()
}

func renderHeaderLine(t Table, widths []int, opts TableOptions) string {
	var b strings.Builder
	for i, col := range t.Columns {
		w := widths[i]
		if w <= 0 {
			continue
		}
		content := contentWidth(w, i == len(t.Columns)-1)
		label := col.Header()
		ind := SortIndicator(t.Sort, col.Key)
		if opts.Loading && i == len(t.Columns)-1 {
			ind = strings.TrimSpace(ind + " " + loadingMarker)
		}

		if ind == "" {
			cell := align(label, content, col.Align)
			if !opts.NoColor {
				cell = headerStyle.Render(cell)
			}
			b.WriteString(cell)
		} else {
			// keep the indicator visible and shorten the title instead
			room := content - visibleWidth(ind) - 1
			text := strings.TrimSpace(truncate(label, room) + " " + ind)
			if opts.NoColor {
				b.WriteString(align(text, content, col.Align))
			} else {
				b.WriteString(renderIndicatorCell(text, ind, content, col.Align))
			}
		}
		b.WriteString(strings.Repeat(" ", w-content))
	}
	return strings.TrimRight(b.String(), " ")
}

// renderIndicatorCell styles the title and the sort indicator separately.
func renderIndicatorCell(text, ind string, width int, alignment string) string {
	title := strings.TrimSuffix(text, ind)
	pad := width - visibleWidth(text)
	if pad < 0 {
		pad = 0
	}
	styled := headerStyle.Render(title) + sortStyle.Render(ind)
	if alignment == "right" {
		return headerStyle.Render(strings.Repeat(" ", pad)) + styled
	}
	return styled + headerStyle.Render(strings.Repeat(" ", pad))
}

func renderLine(columns []grid.ColumnSpec, cells []string, widths []int) string {
	var b strings.Builder
	for i, col := range columns {
		b.WriteString(Cell(cells[i], widths[i], col.Align, i == len(columns)-1))
	}
	return b.String()
}

// Cell pads text into a column of width cells. Every column but the last
// keeps one trailing cell as a gutter; zero-width columns render nothing.
func Cell(text string, width int, alignment string, last bool) string {
	if width <= 0 {
		return ""
	}
	content := contentWidth(width, last)
	return align(text, content, alignment) + strings.Repeat(" ", width-content)
}

// contentWidth reserves one cell of every column but the last as a gutter.
func contentWidth(width int, last bool) int {
	if last || width < 2 {
		return width
	}
	return width - 1
}
