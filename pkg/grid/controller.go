package grid

import (
	"sync"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"
)

// Config wires a Controller to its rendering surface.
type Config struct {
	Columns []ColumnSpec
	Sort    SortState

	// Container measures the width the columns are resolved against.
	Container Measurer
	// Viewport measures the visible width used for the overflow check.
	// Container is used when nil.
	Viewport Measurer
	// Head and Rows are the layout targets. Rows is called on every layout
	// pass so newly rendered rows are included.
	Head Target
	Rows func() []Target

	// OnSortChange receives the state produced by header clicks. Sorting is
	// inert when it is nil.
	OnSortChange SortSink
	// OnLayout, when set, is called after each layout pass.
	OnLayout func(sizes ColumnsSizes, overflowing bool)

	Logger   logr.Logger
	Clock    clock.WithDelayedExecution
	Interval time.Duration
	Dispatch Dispatcher
}

// Controller composes the resolver, resize scheduler, layout applier and
// sort state machine for one table.
type Controller struct {
	cfg       Config
	log       logr.Logger
	scheduler *ResizeScheduler

	mu          sync.Mutex
	columns     []ColumnSpec
	sort        SortState
	sortGen     uint64 // bumped by SetSortState
	sizes       ColumnsSizes
	template    Template
	overflowing bool
	mounted     bool
}

// NewController validates the initial columns and builds a controller. The
// table is not laid out until Mount is called.
func NewController(cfg Config) (*Controller, error) {
	if err := ValidateColumns(cfg.Columns); err != nil {
		return nil, err
	}
	c := &Controller{
		cfg:     cfg,
		log:     cfg.Logger,
		columns: cfg.Columns,
		sort:    cfg.Sort.Clone(),
	}
	if c.log.GetSink() == nil {
		c.log = logr.Discard()
	}
	c.scheduler = NewResizeScheduler(cfg.Container, c.Columns, c.applySizes, ResizeOptions{
		Clock:    cfg.Clock,
		Interval: cfg.Interval,
		Dispatch: cfg.Dispatch,
		Logger:   c.log,
	})
	return c, nil
}

// Mount performs the first, unthrottled layout pass.
func (c *Controller) Mount() {
	c.mu.Lock()
	c.mounted = true
	c.mu.Unlock()
	c.scheduler.OnMount()
}

// Teardown cancels pending layout work. The controller must not be used
// for layout afterwards.
func (c *Controller) Teardown() {
	c.mu.Lock()
	c.mounted = false
	c.mu.Unlock()
	c.scheduler.OnTeardown()
}

// Resize notifies the controller that its container may have changed size.
func (c *Controller) Resize() {
	c.scheduler.OnResize()
}

// Relayout re-applies the current widths to the targets without measuring
// again, for instance after new body rows were rendered.
func (c *Controller) Relayout() {
	c.mu.Lock()
	sizes := c.sizes
	c.mu.Unlock()
	if sizes != nil {
		c.applySizes(sizes)
	}
}

// SetColumns replaces the column set. A set that differs in identity or
// length from the current one is laid out again immediately.
func (c *Controller) SetColumns(columns []ColumnSpec) error {
	if err := ValidateColumns(columns); err != nil {
		return err
	}
	c.mu.Lock()
	changed := !sameColumns(c.columns, columns)
	c.columns = columns
	mounted := c.mounted
	c.mu.Unlock()
	if changed && mounted {
		c.scheduler.OnInputsChanged()
	}
	return nil
}

// Columns returns the current column set.
func (c *Controller) Columns() []ColumnSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.columns
}

// Sizes returns the most recently resolved widths.
func (c *Controller) Sizes() ColumnsSizes {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(ColumnsSizes(nil), c.sizes...)
}

// Template returns the most recently applied template.
func (c *Controller) Template() Template {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(Template(nil), c.template...)
}

// Overflowing reports whether the columns need more room than is visible.
func (c *Controller) Overflowing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overflowing
}

// Measurement exposes the scheduler's measurement state for diagnostics.
func (c *Controller) Measurement() MeasurementState {
	return c.scheduler.Measurement()
}

// SortState returns the sort state the controller was last given.
func (c *Controller) SortState() SortState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sort.Clone()
}

// SetSortState threads the caller's authoritative state back in.
func (c *Controller) SetSortState(s SortState) {
	c.mu.Lock()
	c.sort = s.Clone()
	c.sortGen++
	c.mu.Unlock()
}

// SortEntry returns the active entry for column, if any, and its priority.
func (c *Controller) SortEntry(column ColumnKey) (SortEntry, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sort.Lookup(column)
}

// SortEnabled reports whether header clicks can change the sort.
func (c *Controller) SortEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.sort.Disabled && c.cfg.OnSortChange != nil
}

// HandleColumnClick runs a header click through the sort state machine and
// delivers the result to OnSortChange. A sink that answers with
// SetSortState keeps its state; the returned value is the state in effect
// after the click.
func (c *Controller) HandleColumnClick(column ColumnKey) SortState {
	c.mu.Lock()
	state := c.sort.Clone()
	gen := c.sortGen
	c.mu.Unlock()

	next := OnColumnClick(state, column, c.cfg.OnSortChange)
	c.log.V(1).Info("column click", "column", string(column), "entries", len(next.Entries), "multiSort", next.MultiSort)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sortGen == gen {
		c.sort = next.Clone()
	}
	return c.sort.Clone()
}

func (c *Controller) applySizes(sizes ColumnsSizes) {
	available := 0.0
	switch {
	case c.cfg.Viewport != nil:
		available = c.cfg.Viewport()
	case c.cfg.Container != nil:
		available = c.cfg.Container()
	}
	var rows []Target
	if c.cfg.Rows != nil {
		rows = c.cfg.Rows()
	}
	overflowing := Apply(sizes, available, c.cfg.Head, rows)

	c.mu.Lock()
	c.sizes = sizes
	c.template = ToTemplate(sizes)
	c.overflowing = overflowing
	c.mu.Unlock()

	if c.cfg.OnLayout != nil {
		c.cfg.OnLayout(sizes, overflowing)
	}
}

func sameColumns(a, b []ColumnSpec) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	if &a[0] != &b[0] {
		return false
	}
	return true
}
