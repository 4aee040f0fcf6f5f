package grid

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"
)

// ConfigurationError reports an invalid column definition.
type ConfigurationError struct {
	Column ColumnKey
	Index  int
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("column %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// ValidateColumns checks keys and width specs. Every problem found is
// returned, combined into one error.
func ValidateColumns(columns []ColumnSpec) error {
	var err error
	seen := make(map[ColumnKey]int, len(columns))
	for i, col := range columns {
		if col.Key == "" {
			err = multierr.Append(err, &ConfigurationError{Index: i, Reason: "empty key"})
			continue
		}
		if prev, ok := seen[col.Key]; ok {
			err = multierr.Append(err, &ConfigurationError{
				Column: col.Key,
				Index:  i,
				Reason: fmt.Sprintf("duplicate key (first defined at column %d)", prev),
			})
		} else {
			seen[col.Key] = i
		}
		switch col.Width.Kind() {
		case WidthFixed:
			w := col.Width.FixedWidth()
			if math.IsNaN(w) || math.IsInf(w, 0) {
				err = multierr.Append(err, &ConfigurationError{Column: col.Key, Index: i, Reason: "fixed width is not finite"})
			} else if w < 0 {
				err = multierr.Append(err, &ConfigurationError{Column: col.Key, Index: i, Reason: fmt.Sprintf("fixed width must be non-negative, got %v", w)})
			}
		case WidthComputed:
			if col.Width.Func() == nil {
				err = multierr.Append(err, &ConfigurationError{Column: col.Key, Index: i, Reason: "computed width has no function"})
			}
		}
		if col.Align != "" && col.Align != "left" && col.Align != "right" {
			err = multierr.Append(err, &ConfigurationError{Column: col.Key, Index: i, Reason: fmt.Sprintf("unknown align %q", col.Align)})
		}
	}
	return err
}
