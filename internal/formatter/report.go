package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Output formats understood by FormatReport.
const (
	OutputTable = "table"
	OutputYAML  = "yaml"
	OutputJSON  = "json"
	OutputTOML  = "toml"
	OutputTree  = "tree"
)

// ValidOutput reports whether format is a known output format.
func ValidOutput(format string) bool {
	switch strings.ToLower(format) {
	case OutputTable, OutputYAML, OutputJSON, OutputTOML, OutputTree:
		return true
	}
	return false
}

// LayoutReport describes how a table was laid out for a given width.
type LayoutReport struct {
	Title       string           `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Width       float64          `json:"width" yaml:"width" toml:"width"`
	Overflowing bool             `json:"overflowing" yaml:"overflowing" toml:"overflowing"`
	Template    string           `json:"template" yaml:"template" toml:"template"`
	Columns     []ColumnLayout   `json:"columns" yaml:"columns" toml:"columns"`
	Sort        []SortReport     `json:"sort,omitempty" yaml:"sort,omitempty" toml:"sort,omitempty"`
	MultiSort   bool             `json:"multiSort" yaml:"multi_sort" toml:"multi_sort"`
	SortEnabled bool             `json:"sortEnabled" yaml:"sort_enabled" toml:"sort_enabled"`
	Rows        []map[string]any `json:"rows,omitempty" yaml:"rows,omitempty" toml:"rows,omitempty"`
}

// ColumnLayout is one column of a LayoutReport.
type ColumnLayout struct {
	Key   string  `json:"key" yaml:"key" toml:"key"`
	Title string  `json:"title" yaml:"title" toml:"title"`
	Spec  string  `json:"spec" yaml:"spec" toml:"spec"`
	Size  float64 `json:"size" yaml:"size" toml:"size"`
	Cells int     `json:"cells" yaml:"cells" toml:"cells"`
}

// SortReport is one active sort entry of a LayoutReport.
type SortReport struct {
	Column    string `json:"column" yaml:"column" toml:"column"`
	Direction string `json:"direction" yaml:"direction" toml:"direction"`
}

// BuildLayoutReport resolves t for width and describes the result. Rows are
// included in their current order when withRows is set.
func BuildLayoutReport(t Table, title string, width int, withRows bool) LayoutReport {
	sizes, head, _, overflowing := Layout(t.Columns, width, 0)
	cells := head.CellWidths(width)

	report := LayoutReport{
		Title:       title,
		Width:       float64(width),
		Overflowing: overflowing,
		Template:    head.Template.String(),
		MultiSort:   t.Sort.MultiSort,
		SortEnabled: !t.Sort.Disabled,
	}
	for i, col := range t.Columns {
		report.Columns = append(report.Columns, ColumnLayout{
			Key:   string(col.Key),
			Title: col.Header(),
			Spec:  col.Width.String(),
			Size:  sizes[i],
			Cells: cells[i],
		})
	}
	for _, e := range t.Sort.Entries {
		report.Sort = append(report.Sort, SortReport{Column: string(e.Column), Direction: e.Direction.String()})
	}
	if withRows {
		for _, rec := range t.Rows {
			row := make(map[string]any, len(t.Columns))
			for _, col := range t.Columns {
				if v, ok := rec[col.Key]; ok && v != nil {
					row[string(col.Key)] = v
				}
			}
			report.Rows = append(report.Rows, row)
		}
	}
	return report
}

// FormatReport serializes a report as yaml, json, toml or an ASCII tree.
func FormatReport(report LayoutReport, format string) (string, error) {
	switch strings.ToLower(format) {
	case OutputYAML:
		return FormatYAML(report, 2)
	case OutputJSON:
		b, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b) + "\n", nil
	case OutputTOML:
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		enc.SetIndentTables(true)
		if err := enc.Encode(report); err != nil {
			return "", err
		}
		return buf.String(), nil
	case OutputTree:
		return FormatReportTree(report), nil
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
}

// FormatYAML renders v as YAML. Multi-line strings are emitted as literal
// blocks so newlines survive.
func FormatYAML(v interface{}, indent int) (string, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return "", err
	}
	applyLiteralStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if indent <= 0 {
		indent = 2
	}
	enc.SetIndent(indent)
	if err := enc.Encode(&node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func applyLiteralStyle(n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && strings.Contains(n.Value, "\n") {
		n.Style = yaml.LiteralStyle
	}
	for _, c := range n.Content {
		applyLiteralStyle(c)
	}
}
