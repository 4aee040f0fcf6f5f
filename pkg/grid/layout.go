package grid

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Fraction is one flexible track share, the terminal analogue of a CSS "fr".
type Fraction float64

// Template is the track list applied to a header or a body row.
type Template []Fraction

// ToTemplate maps each resolved width to a fraction of the same magnitude so
// relative ratios are kept. Non-positive or NaN widths become zero tracks.
func ToTemplate(sizes ColumnsSizes) Template {
	tpl := make(Template, len(sizes))
	for i, s := range sizes {
		if s > 0 && !math.IsInf(s, 0) {
			tpl[i] = Fraction(s)
		}
	}
	return tpl
}

// String renders the template the way a grid-template-columns value reads.
func (t Template) String() string {
	parts := make([]string, len(t))
	for i, f := range t {
		parts[i] = strconv.FormatFloat(float64(f), 'f', -1, 64) + "fr"
	}
	return strings.Join(parts, " ")
}

// Distribute splits width cells across the tracks in proportion to their
// fractions. Rounding uses the largest-remainder method so the result always
// sums to width when any track is non-zero.
func (t Template) Distribute(width int) []int {
	out := make([]int, len(t))
	if width <= 0 || len(t) == 0 {
		return out
	}
	total := 0.0
	for _, f := range t {
		total += float64(f)
	}
	if total <= 0 {
		return out
	}

	type rem struct {
		idx  int
		frac float64
	}
	rems := make([]rem, len(t))
	used := 0
	for i, f := range t {
		exact := float64(f) / total * float64(width)
		out[i] = int(math.Floor(exact))
		used += out[i]
		rems[i] = rem{idx: i, frac: exact - math.Floor(exact)}
	}
	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for i := 0; used < width && i < len(rems); i++ {
		if t[rems[i].idx] <= 0 {
			continue
		}
		out[rems[i].idx]++
		used++
	}
	return out
}

// Target is something a template can be applied to: the table head or a body
// row. Implementations are owned by the caller and are only used for the
// duration of one Apply call.
type Target interface {
	SetTemplate(tpl Template)
	// SetIntrinsic switches the target between stretching to the container
	// (false) and sizing to its content (true).
	SetIntrinsic(intrinsic bool)
}

// IsOverflowing reports whether the resolved widths need more room than is
// available.
func IsOverflowing(sizes ColumnsSizes, available float64) bool {
	return sizes.Sum() > available
}

// Apply writes the template for sizes to the head and every body row so that
// header and row columns stay aligned. When the widths overflow the available
// width, every target is switched to intrinsic sizing, which lets the table
// scroll horizontally instead of compressing columns. Empty sizes leave the
// targets untouched.
func Apply(sizes ColumnsSizes, available float64, head Target, rows []Target) bool {
	if len(sizes) == 0 {
		return false
	}
	tpl := ToTemplate(sizes)
	overflowing := IsOverflowing(sizes, available)

	apply := func(t Target) {
		if t == nil {
			return
		}
		t.SetTemplate(tpl)
		t.SetIntrinsic(overflowing)
	}
	apply(head)
	for _, r := range rows {
		apply(r)
	}
	return overflowing
}

// Track is a ready-made Target that records what was applied to it.
type Track struct {
	Template  Template
	Intrinsic bool
}

// SetTemplate implements Target.
func (t *Track) SetTemplate(tpl Template) { t.Template = tpl }

// SetIntrinsic implements Target.
func (t *Track) SetIntrinsic(intrinsic bool) { t.Intrinsic = intrinsic }

// CellWidths turns the track into whole-cell column widths. Intrinsic tracks
// use their fractions as content sizes; stretched tracks share width.
func (t *Track) CellWidths(width int) []int {
	if t.Intrinsic {
		out := make([]int, len(t.Template))
		for i, f := range t.Template {
			out[i] = int(math.Round(float64(f)))
		}
		return out
	}
	return t.Template.Distribute(width)
}
