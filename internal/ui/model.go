// Package ui hosts the interactive gridx application: a title, the table
// component, a filter input, a status line and the help footer.
package ui

import (
	"encoding/json"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/gridx/internal/cel"
	"github.com/oakwood-commons/gridx/internal/ui/table"
	"github.com/oakwood-commons/gridx/pkg/grid"
)

// Options configures the application model.
type Options struct {
	Title     string
	Table     table.Options
	Evaluator *cel.Evaluator
	ShowHelp  bool
	Logger    logr.Logger
}

// Model is the root Bubble Tea model. It must be used through a pointer.
type Model struct {
	title string
	table *table.Model
	keys  table.KeyMap

	help      help.Model
	filter    textinput.Model
	filtering bool

	status    string
	statusErr bool

	eval    *cel.Evaluator
	theme   Theme
	noColor bool

	width    int
	height   int
	quitting bool
	log      logr.Logger

	// copy writes to the system clipboard; tests replace it.
	copy func(string) error
}

var _ tea.Model = (*Model)(nil)

// New builds the application model around a new table.
func New(opts Options) (*Model, error) {
	m := &Model{
		title:   strings.TrimSpace(opts.Title),
		eval:    opts.Evaluator,
		noColor: opts.Table.NoColor,
		log:     opts.Logger,
		copy:    clipboard.WriteAll,
	}
	if m.log.GetSink() == nil {
		m.log = logr.Discard()
	}
	tblOpts := opts.Table
	tblOpts.Logger = m.log.WithName("table")
	if tblOpts.Filter == nil {
		tblOpts.Filter = m.filterRows
	}
	tbl, err := table.New(tblOpts)
	if err != nil {
		return nil, err
	}
	m.table = tbl
	m.keys = tbl.Keys()

	m.help = help.New()
	m.help.ShowAll = opts.ShowHelp

	m.filter = textinput.New()
	m.filter.Prompt = "filter: "
	m.filter.Placeholder = "text, or a CEL expression over _ (e.g. _.age > 30)"
	m.filter.CharLimit = 256

	m.ApplyTheme(CurrentTheme())
	return m, nil
}

// Table returns the table component.
func (m *Model) Table() *table.Model {
	return m.table
}

// Status returns the status line text and whether it reports an error.
func (m *Model) Status() (string, bool) {
	return m.status, m.statusErr
}

// Filtering reports whether the filter input has focus.
func (m *Model) Filtering() bool {
	return m.filtering
}

// Quitting reports whether the user asked to quit.
func (m *Model) Quitting() bool {
	return m.quitting
}

// ApplyTheme colors the table and the chrome with th.
func (m *Model) ApplyTheme(th Theme) {
	m.theme = th
	m.table.SetNoColor(m.noColor)
	if m.noColor {
		return
	}
	m.table.SetColors(th.HeaderFG, th.SortFG, th.SelectedFG, th.SelectedBG)
	keyStyle := lipgloss.NewStyle().Foreground(th.HelpKey)
	descStyle := lipgloss.NewStyle().Foreground(th.HelpValue)
	m.help.Styles.ShortKey = keyStyle
	m.help.Styles.FullKey = keyStyle
	m.help.Styles.ShortDesc = descStyle
	m.help.Styles.FullDesc = descStyle
}

// isExpression reports whether a filter query should go through CEL.
func isExpression(query string) bool {
	q := strings.TrimSpace(query)
	return strings.HasPrefix(q, "_") || strings.Contains(q, "_.") || strings.Contains(q, "_[")
}

func (m *Model) filterRows(query string, rows []grid.Record) ([]grid.Record, error) {
	if m.eval != nil && isExpression(query) {
		return m.eval.Filter(query, rows)
	}
	return table.SubstringFilter(m.table.Columns())(query, rows)
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.table.Init()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case table.SortChangedMsg:
		m.setStatus(describeSort(msg.State), false)
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if m.filtering {
			return m, m.updateFilter(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, m.quit()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.layout()
			return m, nil
		case key.Matches(msg, m.keys.Filter):
			m.filtering = true
			m.filter.SetValue(m.table.Filter())
			m.filter.SetCursor(len(m.filter.Value()))
			m.layout()
			return m, m.filter.Focus()
		case key.Matches(msg, m.keys.Copy):
			m.copySelected()
			return m, nil
		case key.Matches(msg, m.keys.Clear):
			if m.table.Filter() != "" {
				m.table.ClearFilter()
				m.setStatus("filter cleared", false)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.table.Teardown()
	return tea.Quit
}

func (m *Model) updateFilter(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.closeFilter()
		return nil
	case "enter":
		query := m.filter.Value()
		m.closeFilter()
		m.runFilter(query)
		return nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	// plain text filters as you type; expressions wait for enter
	if q := m.filter.Value(); !isExpression(q) {
		m.runFilter(q)
	}
	return cmd
}

func (m *Model) closeFilter() {
	m.filtering = false
	m.filter.Blur()
	m.layout()
}

func (m *Model) runFilter(query string) {
	if err := m.table.SetFilter(query); err != nil {
		m.log.V(1).Info("filter rejected", "query", query, "error", err.Error())
		m.setStatus(fmt.Sprintf("filter error: %v", err), true)
		return
	}
	if m.table.Filter() == "" {
		m.setStatus("", false)
		return
	}
	m.setStatus(fmt.Sprintf("%d of %d rows", len(m.table.Rows()), len(m.table.AllRows())), false)
}

// copySelected puts the selected row on the clipboard as JSON.
func (m *Model) copySelected() {
	row := m.table.SelectedRow()
	if row == nil {
		return
	}
	data, err := json.Marshal(row)
	if err == nil {
		err = m.copy(string(data))
	}
	if err != nil {
		m.setStatus(fmt.Sprintf("copy failed: %v", err), true)
		return
	}
	m.setStatus("copied row to clipboard", false)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// describeSort renders a sort state for the status line.
func describeSort(st grid.SortState) string {
	if len(st.Entries) == 0 {
		return "sort cleared"
	}
	parts := make([]string, len(st.Entries))
	for i, e := range st.Entries {
		parts[i] = fmt.Sprintf("%s %s", e.Column, e.Direction)
	}
	return "sorted by " + strings.Join(parts, ", ")
}

func (m *Model) titleHeight() int {
	if m.title == "" {
		return 0
	}
	return 1
}

// layout hands the space left by the title and the footer to the table.
func (m *Model) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.help.SetWidth(m.width)
	m.filter.SetWidth(max(m.width-len(m.filter.Prompt)-1, 1))
	tableHeight := m.height - m.titleHeight() - lipgloss.Height(m.footer())
	m.table.SetOrigin(m.titleHeight())
	m.table.SetSize(m.width, max(tableHeight, 3))
}

func (m *Model) footer() string {
	status := m.status
	if !m.noColor && status != "" {
		fg := m.theme.StatusFG
		if m.statusErr {
			fg = m.theme.StatusError
		}
		status = lipgloss.NewStyle().Foreground(fg).Render(status)
	}
	bottom := m.help.View(m.keys)
	if m.filtering {
		bottom = m.filter.View()
	}
	return status + "\n" + bottom
}

// Render returns the screen content without the terminal settings that View
// attaches.
func (m *Model) Render() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	if m.title != "" {
		title := m.title
		if !m.noColor {
			title = lipgloss.NewStyle().Bold(true).Foreground(m.theme.TitleFG).Render(title)
		}
		b.WriteString(title + "\n")
	}
	body := m.table.View()
	b.WriteString(body)
	// keep the footer on the last lines of the screen
	used := m.titleHeight() + lipgloss.Height(body) + lipgloss.Height(m.footer())
	if pad := m.height - used; pad > 0 {
		b.WriteString(strings.Repeat("\n", pad))
	}
	b.WriteString("\n" + m.footer())
	return b.String()
}

// View implements tea.Model.
func (m *Model) View() tea.View {
	v := tea.NewView(m.Render())
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

// SetLoading toggles the header spinner and returns the tick command that
// drives it.
func (m *Model) SetLoading(loading bool) tea.Cmd {
	return m.table.SetLoading(loading)
}

// SetSortProcessing marks a sort as in flight; see table.Model.
func (m *Model) SetSortProcessing(processing bool) tea.Cmd {
	return m.table.SetSortProcessing(processing)
}

// SetRows replaces the table rows.
func (m *Model) SetRows(rows []grid.Record) {
	m.table.SetRows(rows)
}
