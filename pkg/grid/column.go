// Package grid resolves data-table column widths and sort state.
//
// The package is free of any terminal or rendering concern: callers describe
// columns, hand in measured widths, and receive widths, a fraction template,
// an overflow flag and the next sort state. The Bubble Tea table component and
// the static formatter are both built on top of it.
package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MinColumnWidth is the smallest width budgeted for a Fixed or Computed column
// when the remaining space for Auto columns is calculated.
const MinColumnWidth = 6

// ColumnKey identifies a column. Keys are unique within one table.
type ColumnKey string

// WidthKind selects how a column's width is determined.
type WidthKind int

const (
	// WidthAuto columns share whatever space the concrete columns leave over.
	WidthAuto WidthKind = iota
	// WidthFixed columns have a literal width.
	WidthFixed
	// WidthComputed columns derive their width from the column count.
	WidthComputed
)

// String returns the lowercase name of the kind.
func (k WidthKind) String() string {
	switch k {
	case WidthFixed:
		return "fixed"
	case WidthComputed:
		return "computed"
	default:
		return "auto"
	}
}

// WidthFunc computes a column width from the total number of columns.
// Negative or non-finite results are a caller bug and are not sanitized.
type WidthFunc func(columnCount int) float64

// WidthSpec is a tagged union of Fixed, Auto and Computed widths.
// The zero value is Auto.
type WidthSpec struct {
	kind  WidthKind
	fixed float64
	fn    WidthFunc
	expr  string
}

// Fixed returns a literal width.
func Fixed(width float64) WidthSpec {
	return WidthSpec{kind: WidthFixed, fixed: width}
}

// Auto returns a width that absorbs a share of the leftover space.
func Auto() WidthSpec {
	return WidthSpec{kind: WidthAuto}
}

// Computed returns a width derived from the column count.
func Computed(fn WidthFunc) WidthSpec {
	return WidthSpec{kind: WidthComputed, fn: fn}
}

// ComputedExpr is Computed with the source expression kept for reporting.
func ComputedExpr(expr string, fn WidthFunc) WidthSpec {
	return WidthSpec{kind: WidthComputed, fn: fn, expr: expr}
}

// Kind reports which variant the spec holds.
func (w WidthSpec) Kind() WidthKind { return w.kind }

// FixedWidth returns the literal width of a Fixed spec and zero otherwise.
func (w WidthSpec) FixedWidth() float64 { return w.fixed }

// Func returns the function of a Computed spec.
func (w WidthSpec) Func() WidthFunc { return w.fn }

// Expr returns the expression a Computed spec was compiled from, if any.
func (w WidthSpec) Expr() string { return w.expr }

// raw returns the unclamped width of the spec, or -1 for Auto.
func (w WidthSpec) raw(columnCount int) float64 {
	switch w.kind {
	case WidthFixed:
		return w.fixed
	case WidthComputed:
		return w.fn(columnCount)
	default:
		return -1
	}
}

func (w WidthSpec) String() string {
	switch w.kind {
	case WidthFixed:
		return strconv.FormatFloat(w.fixed, 'f', -1, 64)
	case WidthComputed:
		if w.expr != "" {
			return "expr(" + w.expr + ")"
		}
		return "computed"
	default:
		return "auto"
	}
}

// ColumnSpec describes one table column.
type ColumnSpec struct {
	Key   ColumnKey
	Width WidthSpec
	// Title is the header text; the key is used when empty.
	Title string
	// Align is "left" (default) or "right".
	Align string
}

// Header returns the text shown in the column header.
func (c ColumnSpec) Header() string {
	if t := strings.TrimSpace(c.Title); t != "" {
		return t
	}
	return string(c.Key)
}

// ColumnsSizes holds resolved widths in the same order as the columns they
// were resolved from.
type ColumnsSizes []float64

// Sum returns the total width.
func (s ColumnsSizes) Sum() float64 {
	total := 0.0
	for _, v := range s {
		total += v
	}
	return total
}

// Rounded returns the widths rounded to whole cells, clamped at zero.
func (s ColumnsSizes) Rounded() []int {
	out := make([]int, len(s))
	for i, v := range s {
		if v <= 0 || math.IsNaN(v) {
			continue
		}
		out[i] = int(math.Round(v))
	}
	return out
}

func (s ColumnsSizes) String() string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// MeasurementState remembers the container width seen by the previous
// resolution. Zero means nothing has been measured yet.
type MeasurementState struct {
	PreviousContainerWidth float64
}
