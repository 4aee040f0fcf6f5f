package loader

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/oakwood-commons/gridx/internal/cel"
	"github.com/oakwood-commons/gridx/pkg/grid"
)

// Definition is a table as read from a file: column layout, initial sort and rows.
type Definition struct {
	Title       string           `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Columns     []ColumnDef      `json:"columns" yaml:"columns" toml:"columns"`
	Sort        []grid.SortEntry `json:"sort,omitempty" yaml:"sort,omitempty" toml:"sort,omitempty"`
	MultiSort   bool             `json:"multi_sort,omitempty" yaml:"multi_sort,omitempty" toml:"multi_sort,omitempty"`
	DisableSort bool             `json:"disable_sort,omitempty" yaml:"disable_sort,omitempty" toml:"disable_sort,omitempty"`
	Rows        []grid.Record    `json:"rows" yaml:"rows" toml:"rows"`
	Format      Format           `json:"-" yaml:"-" toml:"-"`
}

// ColumnDef is the serialized form of a grid.ColumnSpec.
type ColumnDef struct {
	Key   string   `json:"key" yaml:"key" toml:"key"`
	Title string   `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Align string   `json:"align,omitempty" yaml:"align,omitempty" toml:"align,omitempty"`
	Width WidthDef `json:"width" yaml:"width" toml:"width"`
}

// WidthDef is the serialized form of a grid.WidthSpec. Expr is a CEL
// expression over the integer variable "columns".
type WidthDef struct {
	Kind  grid.WidthKind `json:"-" yaml:"-" toml:"-"`
	Fixed float64        `json:"fixed,omitempty" yaml:"fixed,omitempty" toml:"fixed,omitempty"`
	Expr  string         `json:"expr,omitempty" yaml:"expr,omitempty" toml:"expr,omitempty"`
}

func (w WidthDef) String() string {
	switch w.Kind {
	case grid.WidthFixed:
		return strconv.FormatFloat(w.Fixed, 'f', -1, 64)
	case grid.WidthComputed:
		return w.Expr
	default:
		return "auto"
	}
}

// ColumnSpecs compiles the column definitions. Width expressions are compiled
// with eval, which may be nil when no column uses one. All problems are
// collected and returned together.
func (d *Definition) ColumnSpecs(eval *cel.Evaluator) ([]grid.ColumnSpec, error) {
	specs := make([]grid.ColumnSpec, 0, len(d.Columns))
	var errs error
	for i, c := range d.Columns {
		spec := grid.ColumnSpec{Key: grid.ColumnKey(c.Key), Title: c.Title, Align: c.Align}
		switch c.Width.Kind {
		case grid.WidthFixed:
			spec.Width = grid.Fixed(c.Width.Fixed)
		case grid.WidthComputed:
			if eval == nil {
				errs = multierr.Append(errs, &grid.ConfigurationError{Column: spec.Key, Index: i, Reason: "width expression needs an evaluator"})
				continue
			}
			fn, err := eval.CompileWidth(c.Width.Expr)
			if err != nil {
				errs = multierr.Append(errs, &grid.ConfigurationError{Column: spec.Key, Index: i, Reason: err.Error()})
				continue
			}
			spec.Width = grid.ComputedExpr(c.Width.Expr, fn)
		default:
			spec.Width = grid.Auto()
		}
		specs = append(specs, spec)
	}
	if errs != nil {
		return nil, errs
	}
	if err := grid.ValidateColumns(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

// SortState returns the initial sort state described by the definition.
func (d *Definition) SortState() grid.SortState {
	return grid.SortState{
		Entries:   append([]grid.SortEntry(nil), d.Sort...),
		MultiSort: d.MultiSort,
		Disabled:  d.DisableSort,
	}
}

// ParseSortEntry parses "key", "key:asc" or "key:desc".
func ParseSortEntry(s string) (grid.SortEntry, error) {
	key, dir, found := strings.Cut(strings.TrimSpace(s), ":")
	key = strings.TrimSpace(key)
	if key == "" {
		return grid.SortEntry{}, fmt.Errorf("sort entry %q has no column", s)
	}
	entry := grid.SortEntry{Column: grid.ColumnKey(key)}
	if found {
		d, err := grid.ParseDirection(dir)
		if err != nil {
			return grid.SortEntry{}, fmt.Errorf("sort entry %q: %w", s, err)
		}
		entry.Direction = d
	}
	return entry, nil
}

func fromMap(m map[string]interface{}) (*Definition, error) {
	def := &Definition{}
	var errs error

	if v, ok := m["title"]; ok {
		def.Title = fmt.Sprint(v)
	}
	def.MultiSort = truthy(m["multi_sort"])
	def.DisableSort = truthy(m["disable_sort"])

	if raw, ok := m["columns"]; ok {
		list, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("columns must be a list, got %T", raw)
		}
		for i, item := range list {
			col, err := parseColumn(item)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("columns[%d]: %w", i, err))
				continue
			}
			def.Columns = append(def.Columns, col)
		}
	}

	if raw, ok := m["sort"]; ok {
		list, ok := raw.([]interface{})
		if !ok {
			list = []interface{}{raw}
		}
		for i, item := range list {
			entry, err := parseSortValue(item)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("sort[%d]: %w", i, err))
				continue
			}
			def.Sort = append(def.Sort, entry)
		}
	}

	if raw, ok := m["rows"]; ok {
		list, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("rows must be a list, got %T", raw)
		}
		rows, err := toRecords(list)
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		def.Rows = rows
	}

	if errs != nil {
		return nil, errs
	}
	return def, nil
}

func parseColumn(item interface{}) (ColumnDef, error) {
	switch v := item.(type) {
	case string:
		return ColumnDef{Key: v}, nil
	case map[string]interface{}:
		col := ColumnDef{}
		if k, ok := v["key"]; ok {
			col.Key = fmt.Sprint(k)
		}
		if t, ok := v["title"]; ok {
			col.Title = fmt.Sprint(t)
		}
		if a, ok := v["align"]; ok {
			col.Align = fmt.Sprint(a)
		}
		w, err := parseWidth(v["width"])
		if err != nil {
			return col, err
		}
		col.Width = w
		return col, nil
	default:
		return ColumnDef{}, fmt.Errorf("column must be a key or a mapping, got %T", item)
	}
}

// parseWidth accepts nil/"auto" (auto), a number or numeric string (fixed),
// {fixed: n}, {expr: "..."} or any other string as an expression.
func parseWidth(raw interface{}) (WidthDef, error) {
	switch v := raw.(type) {
	case nil:
		return WidthDef{Kind: grid.WidthAuto}, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" || strings.EqualFold(s, "auto") {
			return WidthDef{Kind: grid.WidthAuto}, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return WidthDef{Kind: grid.WidthFixed, Fixed: f}, nil
		}
		return WidthDef{Kind: grid.WidthComputed, Expr: s}, nil
	case map[string]interface{}:
		if e, ok := v["expr"]; ok {
			expr := strings.TrimSpace(fmt.Sprint(e))
			if expr == "" {
				return WidthDef{}, fmt.Errorf("width expr is empty")
			}
			return WidthDef{Kind: grid.WidthComputed, Expr: expr}, nil
		}
		if f, ok := v["fixed"]; ok {
			n, ok := number(f)
			if !ok {
				return WidthDef{}, fmt.Errorf("width fixed must be a number, got %T", f)
			}
			return WidthDef{Kind: grid.WidthFixed, Fixed: n}, nil
		}
		return WidthDef{}, fmt.Errorf("width mapping needs fixed or expr")
	default:
		n, ok := number(v)
		if !ok {
			return WidthDef{}, fmt.Errorf("unsupported width %v (%T)", raw, raw)
		}
		return WidthDef{Kind: grid.WidthFixed, Fixed: n}, nil
	}
}

func parseSortValue(item interface{}) (grid.SortEntry, error) {
	switch v := item.(type) {
	case string:
		return ParseSortEntry(v)
	case map[string]interface{}:
		col, _ := v["column"].(string)
		if col == "" {
			return grid.SortEntry{}, fmt.Errorf("sort entry has no column")
		}
		entry := grid.SortEntry{Column: grid.ColumnKey(col)}
		if dir, ok := v["direction"]; ok {
			d, err := grid.ParseDirection(fmt.Sprint(dir))
			if err != nil {
				return grid.SortEntry{}, err
			}
			entry.Direction = d
		}
		return entry, nil
	default:
		return grid.SortEntry{}, fmt.Errorf("sort entry must be a string or mapping, got %T", item)
	}
}

func toRecords(list []interface{}) ([]grid.Record, error) {
	rows := make([]grid.Record, 0, len(list))
	var errs error
	for i, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("rows[%d]: expected a mapping, got %T", i, item))
			continue
		}
		rec := make(grid.Record, len(m))
		for k, v := range m {
			rec[grid.ColumnKey(k)] = v
		}
		rows = append(rows, rec)
	}
	return rows, errs
}

// inferColumns lists every key used by rows as an auto column, in document
// order where the format preserves it and sorted otherwise.
func inferColumns(input string, format Format, rows []grid.Record) []ColumnDef {
	keys := orderedRowKeys(input, format)
	if keys == nil {
		seen := map[string]bool{}
		for _, r := range rows {
			for k := range r {
				if !seen[string(k)] {
					seen[string(k)] = true
					keys = append(keys, string(k))
				}
			}
		}
		sort.Strings(keys)
	}
	cols := make([]ColumnDef, len(keys))
	for i, k := range keys {
		cols[i] = ColumnDef{Key: k}
	}
	return cols
}

func number(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float64:
		f = n
	case float32:
		f = float64(n)
	default:
		return 0, false
	}
	return f, !math.IsNaN(f)
}

func truthy(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		ok, _ := strconv.ParseBool(b)
		return ok
	default:
		return false
	}
}
