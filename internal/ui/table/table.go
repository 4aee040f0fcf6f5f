// Package table is the interactive data-table component. Column widths, the
// overflow decision and sort transitions come from a grid.Controller; this
// package turns them into a Bubble Tea model with a sticky header, a cursor,
// a filter and horizontal scrolling.
package table

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/oakwood-commons/gridx/internal/formatter"
	"github.com/oakwood-commons/gridx/pkg/grid"
)

// headerLines is the header row plus the rule below it.
const headerLines = 2

// LayoutMsg carries a deferred layout pass back onto the event loop.
type LayoutMsg struct {
	run func()
}

// SortChangedMsg is emitted after a header click changed the sort state.
type SortChangedMsg struct {
	State grid.SortState
}

// FilterFunc selects the rows matching query.
type FilterFunc func(query string, rows []grid.Record) ([]grid.Record, error)

// Options configures a Model.
type Options struct {
	Columns []grid.ColumnSpec
	Rows    []grid.Record
	Sort    grid.SortState
	Loading bool
	NoColor bool
	Filter  FilterFunc
	Logger  logr.Logger

	// SortProcessing marks a sort as in flight: sorted headers show the
	// spinner and row and mouse input is ignored until it is cleared.
	SortProcessing bool

	// Clock and Interval drive the resize throttle. Zero values use the
	// real clock and the default interval.
	Clock    clock.WithDelayedExecution
	Interval time.Duration
}

// Styles are the lipgloss styles used by View.
type Styles struct {
	Header   lipgloss.Style
	Focused  lipgloss.Style
	Sort     lipgloss.Style
	Cell     lipgloss.Style
	Selected lipgloss.Style
	Rule     lipgloss.Style
}

// DefaultStyles returns the default table styles.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Focused:  lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("14")),
		Sort:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		Cell:     lipgloss.NewStyle(),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")),
		Rule:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Model is the table component. It must be used through a pointer.
type Model struct {
	ctrl   *grid.Controller
	head   *grid.Track
	bodies []*grid.Track

	columns  []grid.ColumnSpec
	rows     []grid.Record // sorted, unfiltered
	filtered []grid.Record
	filter   string
	filterFn FilterFunc

	cursor   int
	offset   int
	xOffset  int
	focusCol int
	originY  int

	width      int
	height     int
	mounted    bool
	loading    bool
	processing bool
	spinner    spinner.Model

	keys    KeyMap
	styles  Styles
	noColor bool

	send func(tea.Msg)
	log  logr.Logger
}

// New builds a table. It is laid out on the first SetSize.
func New(opts Options) (*Model, error) {
	m := &Model{
		head:       &grid.Track{},
		columns:    opts.Columns,
		rows:       append([]grid.Record(nil), opts.Rows...),
		filterFn:   opts.Filter,
		loading:    opts.Loading,
		processing: opts.SortProcessing,
		keys:       DefaultKeyMap(),
		styles:     DefaultStyles(),
		log:        opts.Logger,
	}
	if m.log.GetSink() == nil {
		m.log = logr.Discard()
	}
	if m.filterFn == nil {
		m.filterFn = func(query string, rows []grid.Record) ([]grid.Record, error) {
			return SubstringFilter(m.columns)(query, rows)
		}
	}
	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot
	m.SetNoColor(opts.NoColor)

	measure := func() float64 { return float64(m.width) }
	ctrl, err := grid.NewController(grid.Config{
		Columns:   opts.Columns,
		Sort:      opts.Sort,
		Container: measure,
		Viewport:  measure,
		Head:      m.head,
		Rows:      m.targets,
		OnSortChange: func(s grid.SortState) {
			m.applySort(s)
		},
		Logger:   m.log.WithName("grid"),
		Clock:    opts.Clock,
		Interval: opts.Interval,
		Dispatch: m.dispatch,
	})
	if err != nil {
		return nil, err
	}
	m.ctrl = ctrl
	if !opts.Sort.Disabled {
		grid.SortRecords(m.rows, opts.Sort.Entries)
	}
	_ = m.applyFilter()
	return m, nil
}

// SubstringFilter matches rows whose cells contain the query, ignoring case.
func SubstringFilter(columns []grid.ColumnSpec) FilterFunc {
	return func(query string, rows []grid.Record) ([]grid.Record, error) {
		q := strings.ToLower(query)
		var out []grid.Record
		for _, r := range rows {
			for _, c := range columns {
				if strings.Contains(strings.ToLower(formatter.CellText(r, c.Key)), q) {
					out = append(out, r)
					break
				}
			}
		}
		return out, nil
	}
}

// SetSender routes deferred layout passes through send, normally
// tea.Program.Send. Without a sender they run on the timer goroutine and no
// settling pass follows them.
func (m *Model) SetSender(send func(tea.Msg)) {
	m.send = send
}

func (m *Model) dispatch(run func()) {
	if m.send == nil {
		run()
		return
	}
	// Send blocks until the program reads the message.
	go m.send(LayoutMsg{run: run})
}

func (m *Model) targets() []grid.Target {
	out := make([]grid.Target, len(m.bodies))
	for i, b := range m.bodies {
		out[i] = b
	}
	return out
}

// Init starts the loading spinner when needed.
func (m *Model) Init() tea.Cmd {
	if m.loading || m.processing {
		return m.spinner.Tick
	}
	return nil
}

// SetSize sets the table dimensions. The first call mounts the table; later
// calls go through the resize throttle.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	rows := m.bodyHeight()
	if len(m.bodies) != rows {
		m.bodies = make([]*grid.Track, rows)
		for i := range m.bodies {
			m.bodies[i] = &grid.Track{}
		}
	}
	if !m.mounted {
		m.mounted = true
		m.ctrl.Mount()
	} else {
		before := m.ctrl.Measurement().PreviousContainerWidth
		m.ctrl.Resize()
		m.settle(before)
		// new body tracks need the current template right away
		m.ctrl.Relayout()
	}
	m.clampScroll()
}

// settle asks for one more pass after a pass that saw a new width, so the
// auto-width scale returns to one once the terminal stops changing size.
func (m *Model) settle(before float64) {
	if m.ctrl.Measurement().PreviousContainerWidth != before {
		m.ctrl.Resize()
	}
}

// SetOrigin records the screen row of the header so mouse clicks can be
// mapped to columns.
func (m *Model) SetOrigin(y int) {
	m.originY = y
}

func (m *Model) bodyHeight() int {
	h := m.height - headerLines
	if h < 1 {
		return 1
	}
	return h
}

// Teardown cancels pending layout work.
func (m *Model) Teardown() {
	m.ctrl.Teardown()
}

// SetRows replaces the rows and reapplies the current sort and filter.
func (m *Model) SetRows(rows []grid.Record) {
	m.rows = append([]grid.Record(nil), rows...)
	st := m.ctrl.SortState()
	if !st.Disabled {
		grid.SortRecords(m.rows, st.Entries)
	}
	_ = m.applyFilter()
}

// SetColumns replaces the columns and lays the table out again.
func (m *Model) SetColumns(columns []grid.ColumnSpec) error {
	if err := m.ctrl.SetColumns(columns); err != nil {
		return err
	}
	m.columns = columns
	if m.focusCol >= len(columns) {
		m.focusCol = max(len(columns)-1, 0)
	}
	m.clampScroll()
	return nil
}

// Columns returns the current columns.
func (m *Model) Columns() []grid.ColumnSpec {
	return m.columns
}

// SetLoading toggles the header spinner.
func (m *Model) SetLoading(loading bool) tea.Cmd {
	was := m.loading || m.processing
	m.loading = loading
	if loading && !was {
		return m.spinner.Tick
	}
	return nil
}

// SetSortProcessing marks a sort as in flight. While set, sorted headers
// show the spinner and cursor, row and mouse input is ignored; column focus
// and horizontal scroll still work.
func (m *Model) SetSortProcessing(processing bool) tea.Cmd {
	was := m.loading || m.processing
	m.processing = processing
	if processing && !was {
		return m.spinner.Tick
	}
	return nil
}

// SortProcessing reports whether a sort is in flight.
func (m *Model) SortProcessing() bool {
	return m.processing
}

// Loading reports whether the spinner is shown.
func (m *Model) Loading() bool {
	return m.loading
}

// SetFilter sets the filter query and reapplies filtering.
func (m *Model) SetFilter(query string) error {
	prev := m.filter
	m.filter = strings.TrimSpace(query)
	if err := m.applyFilter(); err != nil {
		m.filter = prev
		_ = m.applyFilter()
		return err
	}
	return nil
}

// Filter returns the current filter query.
func (m *Model) Filter() string {
	return m.filter
}

// ClearFilter removes the filter and shows all rows.
func (m *Model) ClearFilter() {
	m.filter = ""
	_ = m.applyFilter()
}

func (m *Model) applyFilter() error {
	if m.filter == "" {
		m.filtered = m.rows
	} else {
		rows, err := m.filterFn(m.filter, m.rows)
		if err != nil {
			return err
		}
		m.filtered = rows
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(len(m.filtered)-1, 0)
	}
	m.clampScroll()
	return nil
}

// Rows returns the rows currently shown, in display order.
func (m *Model) Rows() []grid.Record {
	return m.filtered
}

// AllRows returns all rows, sorted but unfiltered.
func (m *Model) AllRows() []grid.Record {
	return m.rows
}

// Cursor returns the selected row index.
func (m *Model) Cursor() int {
	return m.cursor
}

// SetCursor selects row pos, clamped to the visible rows.
func (m *Model) SetCursor(pos int) {
	m.cursor = pos
	m.clampScroll()
}

// SelectedRow returns the selected row, or nil when there are no rows.
func (m *Model) SelectedRow() grid.Record {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	return m.filtered[m.cursor]
}

// FocusedColumn returns the index of the column keyboard sorting applies to.
func (m *Model) FocusedColumn() int {
	return m.focusCol
}

// XOffset returns the horizontal scroll position in cells.
func (m *Model) XOffset() int {
	return m.xOffset
}

// Controller exposes the layout controller.
func (m *Model) Controller() *grid.Controller {
	return m.ctrl
}

// SortState returns the current sort state.
func (m *Model) SortState() grid.SortState {
	return m.ctrl.SortState()
}

// Keys returns the key map, for help rendering.
func (m *Model) Keys() KeyMap {
	return m.keys
}

// ToggleMultiSort switches between single and multi-column sorting. Leaving
// multi-sort keeps only the primary entry.
func (m *Model) ToggleMultiSort() grid.SortState {
	st := m.ctrl.SortState()
	st.MultiSort = !st.MultiSort
	if !st.MultiSort && len(st.Entries) > 1 {
		st.Entries = st.Entries[:1]
	}
	m.ctrl.SetSortState(st)
	m.applySort(st)
	return st
}

// Click runs a header click for column through the controller.
func (m *Model) Click(column grid.ColumnKey) grid.SortState {
	return m.ctrl.HandleColumnClick(column)
}

func (m *Model) applySort(s grid.SortState) {
	grid.SortRecords(m.rows, s.Entries)
	_ = m.applyFilter()
	m.log.V(1).Info("sort applied", "entries", len(s.Entries), "rows", len(m.rows))
}

// cellWidths returns the head widths for the current width.
func (m *Model) cellWidths() []int {
	return m.head.CellWidths(m.width)
}

// ColumnAt maps a screen column to a table column, accounting for the
// horizontal scroll offset.
func (m *Model) ColumnAt(x int) (grid.ColumnKey, int, bool) {
	pos := x + m.xOffset
	start := 0
	for i, w := range m.cellWidths() {
		if i >= len(m.columns) {
			break
		}
		if w > 0 && pos >= start && pos < start+w {
			return m.columns[i].Key, i, true
		}
		start += w
	}
	return "", -1, false
}

// Update handles messages and updates the table state.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LayoutMsg:
		if msg.run != nil {
			before := m.ctrl.Measurement().PreviousContainerWidth
			msg.run()
			m.settle(before)
		}
		m.clampScroll()
		return m, nil

	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.loading && !m.processing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseClickMsg:
		if m.processing || msg.Button != tea.MouseLeft {
			return m, nil
		}
		switch {
		case msg.Y == m.originY:
			key, idx, ok := m.ColumnAt(msg.X)
			if !ok {
				return m, nil
			}
			m.focusCol = idx
			return m, m.clickCmd(key)
		case msg.Y >= m.originY+headerLines:
			row := m.offset + msg.Y - m.originY - headerLines
			if row < len(m.filtered) {
				m.cursor = row
			}
		}
		return m, nil

	case tea.MouseWheelMsg:
		if m.processing {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseWheelUp:
			m.moveCursor(-1)
		case tea.MouseWheelDown:
			m.moveCursor(1)
		}
		return m, nil

	case tea.KeyPressMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	if m.processing && !key.Matches(msg, m.keys.PrevCol, m.keys.NextCol, m.keys.ScrollL, m.keys.ScrollR) {
		return nil
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.bodyHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.bodyHeight())
	case key.Matches(msg, m.keys.Top):
		m.SetCursor(0)
	case key.Matches(msg, m.keys.Bottom):
		m.SetCursor(len(m.filtered) - 1)
	case key.Matches(msg, m.keys.PrevCol):
		m.focusColumn(m.focusCol - 1)
	case key.Matches(msg, m.keys.NextCol):
		m.focusColumn(m.focusCol + 1)
	case key.Matches(msg, m.keys.ScrollL):
		m.scrollBy(-max(m.width/4, 1))
	case key.Matches(msg, m.keys.ScrollR):
		m.scrollBy(max(m.width/4, 1))
	case key.Matches(msg, m.keys.MultiSort):
		st := m.ToggleMultiSort()
		return func() tea.Msg { return SortChangedMsg{State: st} }
	case key.Matches(msg, m.keys.Sort):
		if m.focusCol < len(m.columns) {
			return m.clickCmd(m.columns[m.focusCol].Key)
		}
	}
	return nil
}

func (m *Model) clickCmd(column grid.ColumnKey) tea.Cmd {
	if !m.ctrl.SortEnabled() {
		return nil
	}
	st := m.Click(column)
	return func() tea.Msg { return SortChangedMsg{State: st} }
}

func (m *Model) moveCursor(delta int) {
	m.SetCursor(m.cursor + delta)
}

func (m *Model) focusColumn(idx int) {
	if len(m.columns) == 0 {
		return
	}
	m.focusCol = min(max(idx, 0), len(m.columns)-1)

	// bring the focused column into view
	widths := m.cellWidths()
	if m.focusCol >= len(widths) {
		return
	}
	start := 0
	for i := 0; i < m.focusCol; i++ {
		start += widths[i]
	}
	end := start + widths[m.focusCol]
	switch {
	case start < m.xOffset:
		m.xOffset = start
	case end > m.xOffset+m.width:
		m.xOffset = end - m.width
	}
	m.clampScroll()
}

func (m *Model) scrollBy(delta int) {
	m.xOffset += delta
	m.clampScroll()
}

func (m *Model) totalWidth() int {
	total := 0
	for _, w := range m.cellWidths() {
		total += w
	}
	return total
}

func (m *Model) clampScroll() {
	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	h := m.bodyHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if maxOffset := max(len(m.filtered)-h, 0); m.offset > maxOffset {
		m.offset = maxOffset
	}
	if m.offset < 0 {
		m.offset = 0
	}

	maxX := max(m.totalWidth()-m.width, 0)
	if !m.ctrl.Overflowing() {
		maxX = 0
	}
	m.xOffset = min(max(m.xOffset, 0), maxX)
}

// SetNoColor enables/disables color output.
func (m *Model) SetNoColor(noColor bool) {
	m.noColor = noColor
	if noColor {
		m.styles = Styles{
			Header:   lipgloss.NewStyle().Bold(true),
			Focused:  lipgloss.NewStyle().Bold(true).Underline(true),
			Sort:     lipgloss.NewStyle().Bold(true),
			Cell:     lipgloss.NewStyle(),
			Selected: lipgloss.NewStyle().Reverse(true),
			Rule:     lipgloss.NewStyle(),
		}
	} else {
		m.styles = DefaultStyles()
	}
}

// SetColors sets custom theme colors. Nil colors keep the current style.
func (m *Model) SetColors(headerFG, sortFG, selectedFG, selectedBG color.Color) {
	if m.noColor {
		return
	}
	if headerFG != nil {
		m.styles.Header = m.styles.Header.Foreground(headerFG)
	}
	if sortFG != nil {
		m.styles.Sort = m.styles.Sort.Foreground(sortFG)
	}
	if selectedFG != nil {
		m.styles.Selected = m.styles.Selected.Foreground(selectedFG)
	}
	if selectedBG != nil {
		m.styles.Selected = m.styles.Selected.Background(selectedBG)
	}
}

// View renders the header, the rule and the visible rows.
func (m *Model) View() string {
	if !m.mounted || len(m.columns) == 0 {
		return ""
	}
	widths := m.cellWidths()
	st := m.ctrl.SortState()
	total := m.totalWidth()

	var b strings.Builder
	b.WriteString(m.clip(m.renderHeader(widths, st), total))
	b.WriteString("\n")
	b.WriteString(m.styles.Rule.Render(strings.Repeat("─", min(total, m.width))))

	end := min(m.offset+m.bodyHeight(), len(m.filtered))
	for i := m.offset; i < end; i++ {
		track := m.bodies[i-m.offset]
		line := m.renderRow(m.filtered[i], track.CellWidths(m.width))
		line = m.clip(line, total)
		if i == m.cursor {
			line = m.styles.Selected.Render(line)
		} else {
			line = m.styles.Cell.Render(line)
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	if len(m.filtered) == 0 {
		b.WriteString("\n")
		if m.loading {
			b.WriteString(m.spinner.View() + " loading")
		} else {
			b.WriteString("no rows")
		}
	}
	return b.String()
}

func (m *Model) renderHeader(widths []int, st grid.SortState) string {
	var b strings.Builder
	sortable := m.ctrl.SortEnabled()
	for i, col := range m.columns {
		if i >= len(widths) || widths[i] <= 0 {
			continue
		}
		last := i == len(m.columns)-1
		label := col.Header()
		ind := formatter.SortIndicator(st, col.Key)
		if ind != "" {
			label += " " + ind
			if m.processing {
				label += " " + strings.TrimSpace(m.spinner.View())
			}
		}
		cell := formatter.Cell(label, widths[i], col.Align, last)
		style := m.styles.Header
		if sortable && i == m.focusCol {
			style = m.styles.Focused
		}
		if ind != "" {
			style = m.styles.Sort.Inherit(style)
		}
		b.WriteString(style.Render(cell))
	}
	line := b.String()
	if m.loading {
		line += " " + m.spinner.View()
	}
	return line
}

func (m *Model) renderRow(rec grid.Record, widths []int) string {
	var b strings.Builder
	for i, col := range m.columns {
		if i >= len(widths) {
			break
		}
		b.WriteString(formatter.Cell(formatter.CellText(rec, col.Key), widths[i], col.Align, i == len(m.columns)-1))
	}
	return b.String()
}

// clip cuts the visible window out of an overflowing line.
func (m *Model) clip(line string, total int) string {
	if total <= m.width && m.xOffset == 0 {
		return line
	}
	return ansi.Cut(line, m.xOffset, m.xOffset+m.width)
}

// Height returns the rendered height of the table (including header).
func (m *Model) Height() int {
	return lipgloss.Height(m.View())
}

// Width returns the rendered width of the table.
func (m *Model) Width() int {
	return lipgloss.Width(m.View())
}

// String returns a string representation for debugging.
func (m *Model) String() string {
	return fmt.Sprintf("Table[rows=%d, filtered=%d, cursor=%d, filter=%q, template=%q]",
		len(m.rows), len(m.filtered), m.cursor, m.filter, m.ctrl.Template().String())
}
