package table

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/oakwood-commons/gridx/pkg/grid"
)

func people() []grid.Record {
	return []grid.Record{
		{"id": 3, "name": "carol"},
		{"id": 1, "name": "alice"},
		{"id": 2, "name": "Bob"},
	}
}

func peopleColumns() []grid.ColumnSpec {
	return []grid.ColumnSpec{
		{Key: "id", Width: grid.Fixed(10)},
		{Key: "name", Title: "Name"},
	}
}

func newFakeClock() *testingclock.FakeClock {
	return testingclock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func makeModel(t *testing.T, sort grid.SortState) *Model {
	t.Helper()
	m, err := New(Options{
		Columns: peopleColumns(),
		Rows:    people(),
		Sort:    sort,
		NoColor: true,
		Clock:   newFakeClock(),
	})
	require.NoError(t, err)
	m.SetSize(40, 10)
	return m
}

func ids(rows []grid.Record) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r["id"].(int)
	}
	return out
}

func plainLines(view string) []string {
	return strings.Split(ansi.Strip(view), "\n")
}

func press(m *Model, code rune, text string) tea.Cmd {
	_, cmd := m.Update(tea.KeyPressMsg{Code: code, Text: text})
	return cmd
}

func TestTable_MountLaysOutColumns(t *testing.T) {
	m := makeModel(t, grid.SortState{})
	assert.Equal(t, grid.ColumnsSizes{10, 30}, m.Controller().Sizes())
	assert.False(t, m.Controller().Overflowing())

	lines := plainLines(m.View())
	require.Len(t, lines, 5)
	assert.Equal(t, "id        Name", strings.TrimRight(lines[0], " "))
	assert.Equal(t, strings.Repeat("─", 40), lines[1])
	assert.Equal(t, "3         carol", strings.TrimRight(lines[2], " "))
}

func TestTable_InitialSortIsApplied(t *testing.T) {
	m := makeModel(t, grid.SortState{Entries: []grid.SortEntry{{Column: "id", Direction: grid.Descending}}})
	assert.Equal(t, []int{3, 2, 1}, ids(m.Rows()))
	assert.Contains(t, plainLines(m.View())[0], "id ▼")
}

func TestTable_KeyboardSort(t *testing.T) {
	m := makeModel(t, grid.SortState{})

	cmd := press(m, 's', "s")
	require.NotNil(t, cmd)
	msg, ok := cmd().(SortChangedMsg)
	require.True(t, ok)
	assert.Equal(t, []grid.SortEntry{{Column: "id", Direction: grid.Ascending}}, msg.State.Entries)
	assert.Equal(t, []int{1, 2, 3}, ids(m.Rows()))

	press(m, 's', "s")
	assert.Equal(t, []int{3, 2, 1}, ids(m.Rows()))

	press(m, tea.KeyRight, "")
	assert.Equal(t, 1, m.FocusedColumn())
	press(m, tea.KeyEnter, "")
	assert.Equal(t, []int{1, 2, 3}, ids(m.Rows()), "names sort ignoring case")
	assert.Equal(t, []grid.SortEntry{{Column: "name"}}, m.SortState().Entries)
}

func TestTable_MultiSortToggle(t *testing.T) {
	m := makeModel(t, grid.SortState{})
	press(m, 'm', "m")
	assert.True(t, m.SortState().MultiSort)

	press(m, 's', "s")
	press(m, tea.KeyRight, "")
	press(m, 's', "s")
	assert.Len(t, m.SortState().Entries, 2)
	header := plainLines(m.View())[0]
	assert.Contains(t, header, "id ▲1")
	assert.Contains(t, header, "Name ▲2")

	press(m, 'm', "m")
	st := m.SortState()
	assert.False(t, st.MultiSort)
	assert.Equal(t, []grid.SortEntry{{Column: "id"}}, st.Entries)
}

func TestTable_MouseHeaderClick(t *testing.T) {
	m := makeModel(t, grid.SortState{})
	m.SetOrigin(1)

	_, cmd := m.Update(tea.MouseClickMsg{X: 15, Y: 1, Button: tea.MouseLeft})
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.FocusedColumn())
	assert.Equal(t, []grid.SortEntry{{Column: "name"}}, m.SortState().Entries)

	_, cmd = m.Update(tea.MouseClickMsg{X: 2, Y: 1, Button: tea.MouseRight})
	assert.Nil(t, cmd)

	// body click selects the row
	m.Update(tea.MouseClickMsg{X: 2, Y: 4, Button: tea.MouseLeft})
	assert.Equal(t, 1, m.Cursor())
}

func TestTable_SortingDisabled(t *testing.T) {
	m := makeModel(t, grid.SortState{Disabled: true})
	assert.Nil(t, press(m, 's', "s"))
	_, cmd := m.Update(tea.MouseClickMsg{X: 2, Y: 0, Button: tea.MouseLeft})
	assert.Nil(t, cmd)
	assert.Empty(t, m.SortState().Entries)
	assert.Equal(t, []int{3, 1, 2}, ids(m.Rows()))
}

func TestTable_OverflowScrollsHorizontally(t *testing.T) {
	m, err := New(Options{
		Columns: []grid.ColumnSpec{{Key: "a", Width: grid.Fixed(30)}, {Key: "b", Width: grid.Fixed(30)}},
		Rows:    []grid.Record{{"a": "left", "b": "right"}},
		NoColor: true,
		Clock:   newFakeClock(),
	})
	require.NoError(t, err)
	m.SetSize(40, 6)
	require.True(t, m.Controller().Overflowing())
	assert.Equal(t, 0, m.XOffset())

	press(m, tea.KeyRight, "")
	assert.Equal(t, 20, m.XOffset())
	for _, line := range plainLines(m.View()) {
		assert.LessOrEqual(t, lipgloss.Width(line), 40)
	}
	assert.Contains(t, plainLines(m.View())[2], "right")

	key, idx, ok := m.ColumnAt(15)
	require.True(t, ok)
	assert.Equal(t, grid.ColumnKey("b"), key)
	assert.Equal(t, 1, idx)

	press(m, tea.KeyLeft, "")
	assert.Equal(t, 0, m.XOffset())
}

func TestTable_ResizeIsThrottledAndSettles(t *testing.T) {
	clk := newFakeClock()
	m, err := New(Options{Columns: peopleColumns(), Rows: people(), NoColor: true, Clock: clk})
	require.NoError(t, err)
	msgs := make(chan tea.Msg, 4)
	m.SetSender(func(msg tea.Msg) { msgs <- msg })

	next := func() tea.Msg {
		t.Helper()
		select {
		case msg := <-msgs:
			return msg
		case <-time.After(time.Second):
			t.Fatal("no layout message")
			return nil
		}
	}

	m.SetSize(40, 10)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	assert.Equal(t, grid.ColumnsSizes{10, 30}, m.Controller().Sizes(), "resize inside the interval waits")

	clk.Step(50 * time.Millisecond)
	m.Update(next())
	// auto share scaled by 80/40 while the width is still moving
	assert.Equal(t, grid.ColumnsSizes{10, 140}, m.Controller().Sizes())
	assert.True(t, m.Controller().Overflowing())

	clk.Step(50 * time.Millisecond)
	m.Update(next())
	assert.Equal(t, grid.ColumnsSizes{10, 70}, m.Controller().Sizes())
	assert.False(t, m.Controller().Overflowing())
	assert.Equal(t, 80.0, m.Controller().Measurement().PreviousContainerWidth)

	m.Teardown()
	m.Update(tea.WindowSizeMsg{Width: 20, Height: 10})
	clk.Step(time.Second)
	select {
	case <-msgs:
		t.Fatal("layout after teardown")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestTable_FilterAndCursor(t *testing.T) {
	m := makeModel(t, grid.SortState{})
	require.NoError(t, m.SetFilter("AL"))
	require.Len(t, m.Rows(), 1)
	assert.Equal(t, "alice", m.SelectedRow()["name"])
	assert.Len(t, m.AllRows(), 3)

	m.ClearFilter()
	assert.Len(t, m.Rows(), 3)

	press(m, tea.KeyDown, "")
	press(m, tea.KeyDown, "")
	press(m, tea.KeyDown, "")
	assert.Equal(t, 2, m.Cursor(), "cursor stops at the last row")
	press(m, 'g', "g")
	assert.Equal(t, 0, m.Cursor())

	m.SetFilter("nobody")
	assert.Nil(t, m.SelectedRow())
	assert.Contains(t, ansi.Strip(m.View()), "no rows")
}

func TestTable_FilterErrorKeepsPreviousQuery(t *testing.T) {
	m, err := New(Options{
		Columns: peopleColumns(),
		Rows:    people(),
		Clock:   newFakeClock(),
		Filter: func(query string, rows []grid.Record) ([]grid.Record, error) {
			if query == "bad" {
				return nil, assert.AnError
			}
			return rows[:1], nil
		},
	})
	require.NoError(t, err)
	require.NoError(t, m.SetFilter("ok"))
	require.Error(t, m.SetFilter("bad"))
	assert.Equal(t, "ok", m.Filter())
	assert.Len(t, m.Rows(), 1)
}

func TestTable_VerticalScrollKeepsHeader(t *testing.T) {
	var rows []grid.Record
	for i := 0; i < 20; i++ {
		rows = append(rows, grid.Record{"id": i, "name": "row"})
	}
	m, err := New(Options{Columns: peopleColumns(), Rows: rows, NoColor: true, Clock: newFakeClock()})
	require.NoError(t, err)
	m.SetSize(40, 5)

	press(m, 'G', "G")
	assert.Equal(t, 19, m.Cursor())
	lines := plainLines(m.View())
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "id"), "header stays on top")
	assert.True(t, strings.HasPrefix(lines[4], "19"))
}

func TestTable_SetColumnsAndLoading(t *testing.T) {
	m := makeModel(t, grid.SortState{})
	press(m, tea.KeyRight, "")

	require.NoError(t, m.SetColumns([]grid.ColumnSpec{{Key: "id"}}))
	assert.Equal(t, grid.ColumnsSizes{40}, m.Controller().Sizes())
	assert.Equal(t, 0, m.FocusedColumn())

	err := m.SetColumns([]grid.ColumnSpec{{Key: "id"}, {Key: "id"}})
	require.Error(t, err)
	assert.True(t, grid.IsConfigurationError(err))

	assert.NotNil(t, m.SetLoading(true))
	assert.Nil(t, m.SetLoading(true))
	assert.True(t, m.Loading())
	assert.NotNil(t, m.Init())
	m.SetLoading(false)
	assert.Nil(t, m.Init())
}

func TestTable_ColorsAndDebugString(t *testing.T) {
	m := makeModel(t, grid.SortState{})
	m.SetNoColor(false)
	m.SetColors(lipgloss.Color("12"), lipgloss.Color("11"), lipgloss.Color("15"), lipgloss.Color("8"))
	assert.Contains(t, ansi.Strip(m.View()), "carol")
	assert.Contains(t, m.String(), "rows=3")
	assert.Positive(t, m.Height())
	assert.Positive(t, m.Width())
}

func TestTable_SortProcessingHoldsInput(t *testing.T) {
	m := makeModel(t, grid.SortState{Entries: []grid.SortEntry{{Column: "id"}}})
	require.NotNil(t, m.SetSortProcessing(true))
	assert.True(t, m.SortProcessing())
	assert.NotNil(t, m.Init())

	frame := strings.TrimSpace(ansi.Strip(m.spinner.View()))
	require.NotEmpty(t, frame)
	header := plainLines(m.View())[0]
	assert.Contains(t, header, "id ▲ "+frame)
	assert.NotContains(t, header, "Name "+frame)

	assert.Nil(t, press(m, 's', "s"))
	press(m, 'j', "j")
	_, cmd := m.Update(tea.MouseClickMsg{X: 15, Y: 0, Button: tea.MouseLeft})
	assert.Nil(t, cmd)
	m.Update(tea.MouseClickMsg{X: 2, Y: 4, Button: tea.MouseLeft})
	m.Update(tea.MouseWheelMsg{Button: tea.MouseWheelDown})
	assert.Equal(t, 0, m.Cursor())
	assert.Equal(t, []grid.SortEntry{{Column: "id"}}, m.SortState().Entries)

	// column focus still moves
	press(m, tea.KeyRight, "")
	assert.Equal(t, 1, m.FocusedColumn())

	assert.Nil(t, m.SetSortProcessing(false))
	assert.NotContains(t, plainLines(m.View())[0], frame)
	press(m, 'j', "j")
	assert.Equal(t, 1, m.Cursor())
}
