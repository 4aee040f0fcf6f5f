package grid

// Resolve converts column specs and a measured container width into widths.
//
// Fixed and Computed columns keep their raw width. Auto columns split the
// space left after the concrete columns, each concrete column being budgeted
// at no less than MinColumnWidth. The clamp only affects that budget; the
// width reported for a concrete column is never raised to the minimum.
//
// The auto share is multiplied by containerWidth/previousContainerWidth so a
// container that is still growing or shrinking between two measurements is
// tracked proportionally. A zero previous width means no prior measurement and
// gives a factor of one.
func Resolve(columns []ColumnSpec, containerWidth, previousContainerWidth float64) ColumnsSizes {
	sizes := make(ColumnsSizes, len(columns))
	if len(columns) == 0 {
		return sizes
	}

	autoCount := 0
	existedSizesSum := 0.0
	for i, col := range columns {
		raw := col.Width.raw(len(columns))
		sizes[i] = raw
		if raw < 0 {
			autoCount++
			continue
		}
		existedSizesSum += max(raw, MinColumnWidth)
	}

	if autoCount == 0 {
		return sizes
	}

	autoWidth := (containerWidth - existedSizesSum) / float64(autoCount) * scaleFactor(containerWidth, previousContainerWidth)
	for i, raw := range sizes {
		if raw < 0 {
			sizes[i] = autoWidth
		}
	}
	return sizes
}

func scaleFactor(containerWidth, previousContainerWidth float64) float64 {
	base := previousContainerWidth
	if base == 0 {
		base = containerWidth
	}
	if base == 0 {
		return 1
	}
	return containerWidth / base
}
