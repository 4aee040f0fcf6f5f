package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestValidateColumns(t *testing.T) {
	tests := []struct {
		name    string
		columns []ColumnSpec
		errs    []string
	}{
		{
			name: "valid mix",
			columns: []ColumnSpec{
				{Key: "a", Width: Fixed(0)},
				{Key: "b", Width: Computed(func(int) float64 { return 1 })},
				{Key: "c", Align: "right"},
			},
		},
		{name: "empty is valid"},
		{
			name:    "empty key",
			columns: []ColumnSpec{{Key: ""}},
			errs:    []string{"column 0: empty key"},
		},
		{
			name:    "duplicate key",
			columns: []ColumnSpec{{Key: "a"}, {Key: "a"}},
			errs:    []string{`column "a": duplicate key`},
		},
		{
			name:    "negative fixed",
			columns: []ColumnSpec{{Key: "a", Width: Fixed(-1)}},
			errs:    []string{"non-negative"},
		},
		{
			name:    "non-finite fixed",
			columns: []ColumnSpec{{Key: "a", Width: Fixed(math.Inf(1))}},
			errs:    []string{"not finite"},
		},
		{
			name:    "computed without function",
			columns: []ColumnSpec{{Key: "a", Width: Computed(nil)}},
			errs:    []string{"no function"},
		},
		{
			name: "several problems are all reported",
			columns: []ColumnSpec{
				{Key: "a", Width: Fixed(math.NaN())},
				{Key: "b", Align: "middle"},
			},
			errs: []string{"not finite", `unknown align "middle"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColumns(tt.columns)
			if len(tt.errs) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err))
			assert.Len(t, multierr.Errors(err), len(tt.errs))
			for _, msg := range tt.errs {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestWidthSpecString(t *testing.T) {
	assert.Equal(t, "auto", Auto().String())
	assert.Equal(t, "auto", WidthSpec{}.String())
	assert.Equal(t, "12.5", Fixed(12.5).String())
	assert.Equal(t, "computed", Computed(func(int) float64 { return 0 }).String())
	assert.Equal(t, "expr(100 / columns)", ComputedExpr("100 / columns", nil).String())
	assert.Equal(t, "fixed", Fixed(1).Kind().String())
}

func TestColumnHeader(t *testing.T) {
	assert.Equal(t, "Name", ColumnSpec{Key: "name", Title: " Name "}.Header())
	assert.Equal(t, "name", ColumnSpec{Key: "name"}.Header())
}
