package ui

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/term"

	"github.com/oakwood-commons/gridx/internal/ui/table"
)

// Default screen size used when the terminal cannot be measured.
const (
	DefaultWidth  = 80
	DefaultHeight = 24
)

// TerminalSize returns the size of stdout, or the defaults when stdout is
// not a terminal.
func TerminalSize() (int, int) {
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && h > 0 {
		return w, h
	}
	return DefaultWidth, DefaultHeight
}

// RunModel starts the Bubble Tea program for m. Width/height greater than
// zero pin the window size; otherwise the terminal reports it. Deferred
// table layout passes are sent through the program so they run on its
// event loop.
func RunModel(ctx context.Context, m *Model, width, height int, opts ...tea.ProgramOption) error {
	if width > 0 || height > 0 {
		w, h := TerminalSize()
		if width <= 0 {
			width = w
		}
		if height <= 0 {
			height = h
		}
		opts = append(opts, tea.WithWindowSize(width, height))
	}
	opts = append(opts, tea.WithContext(ctx))

	prog := tea.NewProgram(m, opts...)
	m.Table().SetSender(prog.Send)
	defer m.Table().Teardown()

	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("run table: %w", err)
	}
	return nil
}

// ModelSnapshotConfig configures a one-shot render of the application screen.
type ModelSnapshotConfig struct {
	Width   int
	Height  int
	NoColor bool
	// Keys are replayed before rendering, e.g. "right", "s", "down".
	Keys []string
}

// RenderSnapshot lays m out at the configured size, replays the keys and
// returns the screen as text.
func RenderSnapshot(m *Model, cfg ModelSnapshotConfig) string {
	width, height := cfg.Width, cfg.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	ApplyKeys(m, cfg.Keys)
	view := m.Render()
	m.Table().Teardown()
	if cfg.NoColor {
		view = ansi.Strip(view)
	}
	return view
}

// ApplyKeys feeds named key presses to m. Commands are not run; a sort
// change is reported to m directly.
func ApplyKeys(m *Model, keys []string) {
	for _, k := range keys {
		msg, ok := keyPress(k)
		if !ok {
			continue
		}
		before := m.Table().SortState()
		m.Update(msg)
		if after := m.Table().SortState(); !cmp.Equal(before, after) {
			m.Update(table.SortChangedMsg{State: after})
		}
	}
}

var namedKeys = map[string]rune{
	"up":     tea.KeyUp,
	"down":   tea.KeyDown,
	"left":   tea.KeyLeft,
	"right":  tea.KeyRight,
	"enter":  tea.KeyEnter,
	"esc":    tea.KeyEscape,
	"home":   tea.KeyHome,
	"end":    tea.KeyEnd,
	"pgup":   tea.KeyPgUp,
	"pgdown": tea.KeyPgDown,
	"tab":    tea.KeyTab,
	"space":  tea.KeySpace,
}

func keyPress(name string) (tea.KeyPressMsg, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return tea.KeyPressMsg{}, false
	}
	if code, ok := namedKeys[strings.ToLower(name)]; ok {
		return tea.KeyPressMsg{Code: code}, true
	}
	r := []rune(name)
	if len(r) != 1 {
		return tea.KeyPressMsg{}, false
	}
	return tea.KeyPressMsg{Code: r[0], Text: name}, true
}
