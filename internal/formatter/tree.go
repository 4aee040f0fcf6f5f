package formatter

import (
	"fmt"
	"strconv"

	"github.com/xlab/treeprint"
)

// FormatReportTree renders a layout report as an ASCII tree: the resolved
// template, one branch per column, then the active sort.
func FormatReportTree(report LayoutReport) string {
	root := report.Title
	if root == "" {
		root = "table"
	}
	tree := treeprint.NewWithRoot(root)
	tree.AddMetaNode("width", strconv.FormatFloat(report.Width, 'f', -1, 64))
	tree.AddMetaNode("template", report.Template)
	if report.Overflowing {
		tree.AddMetaNode("overflowing", "scrolls horizontally")
	}

	cols := tree.AddMetaBranch(len(report.Columns), "columns")
	for _, c := range report.Columns {
		label := c.Key
		if c.Title != "" && c.Title != c.Key {
			label = fmt.Sprintf("%s (%s)", c.Key, c.Title)
		}
		b := cols.AddBranch(label)
		b.AddMetaNode("spec", c.Spec)
		b.AddMetaNode("size", strconv.FormatFloat(c.Size, 'f', -1, 64))
		b.AddMetaNode("cells", c.Cells)
	}

	switch {
	case !report.SortEnabled:
		tree.AddMetaNode("sort", "disabled")
	case len(report.Sort) == 0:
		tree.AddMetaNode("sort", "none")
	default:
		mode := "single"
		if report.MultiSort {
			mode = "multi"
		}
		s := tree.AddMetaBranch(mode, "sort")
		for i, e := range report.Sort {
			s.AddNode(fmt.Sprintf("%d. %s %s", i+1, e.Column, e.Direction))
		}
	}
	if report.Rows != nil {
		tree.AddMetaNode("rows", len(report.Rows))
	}
	return tree.String()
}
