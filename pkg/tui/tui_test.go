package tui

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/oakwood-commons/gridx/internal/limiter"
	"github.com/oakwood-commons/gridx/pkg/grid"
)

func sampleTable() Table {
	return Table{
		Title: "Fleet",
		Columns: []grid.ColumnSpec{
			{Key: "host", Title: "Host", Width: grid.Fixed(12)},
			{Key: "cpu", Title: "CPU", Align: "right", Width: grid.Fixed(6)},
			{Key: "role", Title: "Role"},
		},
		Rows: []grid.Record{
			{"host": "web-2", "cpu": 71, "role": "frontend"},
			{"host": "db-1", "cpu": 12, "role": "database"},
			{"host": "web-1", "cpu": 55, "role": "frontend"},
		},
	}
}

func TestRenderTable_SortsRows(t *testing.T) {
	cfg := Config{Width: 40, NoColor: true, Sort: []grid.SortEntry{{Column: "cpu", Direction: grid.Descending}}}
	out := RenderTable(sampleTable(), cfg)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected title, header, rule and 3 rows, got %d lines:\n%s", len(lines), out)
	}
	if lines[0] != "Fleet" {
		t.Errorf("title line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "CPU ▼") {
		t.Errorf("header should mark the sorted column: %q", lines[1])
	}
	for i, host := range []string{"web-2", "web-1", "db-1"} {
		if !strings.HasPrefix(lines[3+i], host) {
			t.Errorf("row %d = %q, want prefix %q", i, lines[3+i], host)
		}
	}
}

func TestRenderTable_DisabledSortKeepsOrder(t *testing.T) {
	cfg := Config{Width: 40, NoColor: true, DisableSort: true, Sort: []grid.SortEntry{{Column: "host"}}}
	out := RenderTable(sampleTable(), cfg)
	if !strings.Contains(out, "web-2") || strings.Index(out, "web-2") > strings.Index(out, "db-1") {
		t.Errorf("rows should keep their input order:\n%s", out)
	}
}

func TestRender_JSONReport(t *testing.T) {
	out, err := Render(sampleTable(), "JSON", Config{Width: 40, Sort: []grid.SortEntry{{Column: "host"}}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	var report struct {
		Template string `json:"template"`
		Columns  []struct {
			Key   string `json:"key"`
			Cells int    `json:"cells"`
		} `json:"columns"`
		Rows []map[string]any `json:"rows"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Template != "12fr 6fr 22fr" {
		t.Errorf("template = %q", report.Template)
	}
	if got := report.Rows[0]["host"]; got != "db-1" {
		t.Errorf("first row host = %v, want db-1", got)
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	if _, err := Render(sampleTable(), "csv", Config{Width: 40}); err == nil {
		t.Fatal("expected an error for csv")
	}
}

func TestApplyClicks(t *testing.T) {
	tbl := sampleTable()

	st, err := ApplyClicks(tbl, Config{}, []grid.ColumnKey{"cpu", "cpu"})
	if err != nil {
		t.Fatalf("ApplyClicks: %v", err)
	}
	want := []grid.SortEntry{{Column: "cpu", Direction: grid.Descending}}
	if diff := cmp.Diff(want, st.Entries); diff != "" {
		t.Errorf("single-sort clicks (-want +got):\n%s", diff)
	}

	st, err = ApplyClicks(tbl, Config{MultiSort: true}, []grid.ColumnKey{"role", "cpu", "cpu", "cpu"})
	if err != nil {
		t.Fatalf("ApplyClicks: %v", err)
	}
	want = []grid.SortEntry{{Column: "role"}}
	if diff := cmp.Diff(want, st.Entries); diff != "" {
		t.Errorf("a third click removes the column (-want +got):\n%s", diff)
	}

	st, _ = ApplyClicks(tbl, Config{DisableSort: true}, []grid.ColumnKey{"cpu"})
	if len(st.Entries) != 0 {
		t.Errorf("disabled sorting must ignore clicks, got %v", st.Entries)
	}

	if _, err := ApplyClicks(tbl, Config{}, []grid.ColumnKey{"nope"}); !grid.IsConfigurationError(err) {
		t.Errorf("expected a configuration error, got %v", err)
	}
}

func TestConfig_SortStateAndWithSort(t *testing.T) {
	cfg := Config{Sort: []grid.SortEntry{{Column: "a"}, {Column: "b"}}}
	if got := cfg.SortState().Entries; len(got) != 1 {
		t.Errorf("single-sort keeps only the primary entry, got %v", got)
	}

	st := grid.SortState{MultiSort: true, Entries: []grid.SortEntry{{Column: "a"}, {Column: "b", Direction: grid.Descending}}}
	back := cfg.WithSort(st).SortState()
	if diff := cmp.Diff(st, back); diff != "" {
		t.Errorf("WithSort round trip (-want +got):\n%s", diff)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ThemeName != "dark" {
		t.Errorf("ThemeName = %q, want dark", cfg.ThemeName)
	}
	if cfg.ThrottleInterval.Milliseconds() != 50 {
		t.Errorf("ThrottleInterval = %v", cfg.ThrottleInterval)
	}
	if cfg.MultiSort || cfg.DisableSort {
		t.Error("sorting defaults should be single-column and enabled")
	}
}

func TestRenderSnapshot(t *testing.T) {
	cfg := Config{Width: 40, Height: 10, NoColor: true, StartKeys: []string{"s"}}
	out, err := RenderSnapshot(sampleTable(), cfg)
	if err != nil {
		t.Fatalf("RenderSnapshot: %v", err)
	}
	lines := strings.Split(out, "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "Host ▲") {
		t.Errorf("header = %q", lines[1])
	}
	if !strings.HasPrefix(lines[3], "db-1") {
		t.Errorf("first row = %q", lines[3])
	}
}

func TestNewModel_RejectsBadColumns(t *testing.T) {
	tbl := sampleTable()
	tbl.Columns = append(tbl.Columns, grid.ColumnSpec{Key: "host"})
	if _, err := NewModel(tbl, Config{}); !grid.IsConfigurationError(err) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}

func TestWithIO_ReturnsOptions(t *testing.T) {
	in := bytes.NewBufferString("")
	out := bytes.NewBuffer(nil)

	if opts := WithIO(in, out); len(opts) != 2 {
		t.Errorf("expected 2 options, got %d", len(opts))
	}
	if opts := WithIO(nil, nil); len(opts) != 0 {
		t.Errorf("expected 0 options for nil inputs, got %d", len(opts))
	}
	if opts := WithIO(nil, out); len(opts) != 1 {
		t.Errorf("expected 1 option for output only, got %d", len(opts))
	}
}

func TestRenderTable_LimitWindowsSortedRows(t *testing.T) {
	cfg := Config{
		Width:   40,
		NoColor: true,
		Sort:    []grid.SortEntry{{Column: "cpu", Direction: grid.Descending}},
		Limit:   limiter.Config{Limit: 2},
	}
	out := RenderTable(sampleTable(), cfg)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected title, header, rule and 2 rows, got %d lines:\n%s", len(lines), out)
	}
	if lines[0] != "Fleet (rows 1-2 of 3)" {
		t.Errorf("title line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[4], "web-1") {
		t.Errorf("second row = %q, want web-1", lines[4])
	}
}

func TestRender_InvalidLimit(t *testing.T) {
	if _, err := Render(sampleTable(), "json", Config{Width: 40, Limit: limiter.Config{Limit: 1, Tail: 1}}); err == nil {
		t.Fatal("expected an error for --limit with --tail")
	}
	if _, err := NewModel(sampleTable(), Config{Limit: limiter.Config{Offset: -1}}); err == nil {
		t.Fatal("expected an error for a negative offset")
	}
}

func TestNewModel_TailUsesInitialSort(t *testing.T) {
	m, err := NewModel(sampleTable(), Config{Sort: []grid.SortEntry{{Column: "host"}}, Limit: limiter.Config{Tail: 1}})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	rows := m.Table().Rows()
	if len(rows) != 1 || rows[0]["host"] != "web-2" {
		t.Errorf("rows = %v, want only web-2", rows)
	}
}
