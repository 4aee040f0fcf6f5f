package ui

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/gridx/internal/formatter"
)

// Theme defines the colors used by the table and the surrounding chrome.
type Theme struct {
	TitleFG     color.Color // Title line
	HeaderFG    color.Color // Column titles
	HeaderBG    color.Color // Column title background (static output)
	SortFG      color.Color // Active sort indicators
	ValueFG     color.Color // Cell text
	SelectedFG  color.Color // Selected row foreground
	SelectedBG  color.Color // Selected row background
	SeparatorFG color.Color // Rule under the header
	StatusFG    color.Color // Status line text
	StatusError color.Color // Status line errors
	HelpKey     color.Color // Help key labels
	HelpValue   color.Color // Help descriptions
}

var (
	mu           sync.Mutex
	currentTheme *Theme
	loadedThemes = map[string]Theme{}
)

// fallbackTheme is used when the embedded configuration cannot be read.
func fallbackTheme() Theme {
	return Theme{
		TitleFG:     lipgloss.Color("81"),
		HeaderFG:    lipgloss.Color("81"),
		HeaderBG:    lipgloss.Color("236"),
		SortFG:      lipgloss.Color("214"),
		ValueFG:     lipgloss.Color("250"),
		SelectedFG:  lipgloss.Color("255"),
		SelectedBG:  lipgloss.Color("24"),
		SeparatorFG: lipgloss.Color("238"),
		StatusFG:    lipgloss.Color("81"),
		StatusError: lipgloss.Color("203"),
		HelpKey:     lipgloss.Color("81"),
		HelpValue:   lipgloss.Color("245"),
	}
}

// DefaultTheme returns the default palette of the embedded configuration.
func DefaultTheme() Theme {
	cfg, err := EmbeddedDefaultConfig()
	if err != nil {
		return fallbackTheme()
	}
	name := strings.TrimSpace(cfg.UI.Theme.Default)
	if name == "" {
		name = "dark"
	}
	if tc, ok := cfg.UI.Themes[name]; ok {
		return ThemeFromConfig(tc)
	}
	return fallbackTheme()
}

// SetTheme overrides the global theme and pushes it to the static renderer.
func SetTheme(t Theme) {
	mu.Lock()
	currentTheme = &t
	mu.Unlock()
	formatter.SetTableTheme(formatter.TableColors{
		HeaderFG:       t.HeaderFG,
		HeaderBG:       t.HeaderBG,
		SortColor:      t.SortFG,
		ValueColor:     t.ValueFG,
		SeparatorColor: t.SeparatorFG,
	})
}

// CurrentTheme returns the configured theme.
func CurrentTheme() Theme {
	mu.Lock()
	defer mu.Unlock()
	if currentTheme == nil {
		t := DefaultTheme()
		currentTheme = &t
	}
	return *currentTheme
}

// InitializeThemes loads the themes of cfg. It must run before
// SetThemeByName.
func InitializeThemes(cfg ConfigFile) error {
	if len(cfg.UI.Themes) == 0 {
		return fmt.Errorf("no themes found in configuration")
	}
	themes := make(map[string]Theme, len(cfg.UI.Themes)+1)
	for name, tc := range cfg.UI.Themes {
		themes[name] = ThemeFromConfig(tc)
	}
	if _, ok := themes["dark"]; !ok {
		themes["dark"] = fallbackTheme()
	}
	mu.Lock()
	loadedThemes = themes
	mu.Unlock()
	return nil
}

// SetThemeByName selects a loaded theme.
func SetThemeByName(name string) error {
	mu.Lock()
	th, ok := loadedThemes[name]
	empty := len(loadedThemes) == 0
	mu.Unlock()
	if ok {
		SetTheme(th)
		return nil
	}
	if empty {
		return fmt.Errorf("no themes loaded; call InitializeThemes() before SetThemeByName()")
	}
	return fmt.Errorf("unknown theme %q (available: %s)", name, strings.Join(ThemeNames(), ", "))
}

// ThemeNames lists the loaded themes in name order.
func ThemeNames() []string {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, 0, len(loadedThemes))
	for name := range loadedThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ColorValue stores a color token (number or name) and marshals numerics as YAML ints.
type ColorValue string

func (c ColorValue) MarshalYAML() (interface{}, error) {
	if c == "" {
		return "", nil
	}
	s := string(c)
	if _, err := strconv.Atoi(s); err == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: s}, nil
	}
	return s, nil
}

func (c *ColorValue) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		*c = ""
		return nil
	}
	*c = ColorValue(value.Value)
	return nil
}

// ThemeConfig is the YAML form of a Theme; colors accept ints or strings.
type ThemeConfig struct {
	TitleFG     ColorValue `yaml:"title_fg,omitempty"`
	HeaderFG    ColorValue `yaml:"header_fg,omitempty"`
	HeaderBG    ColorValue `yaml:"header_bg,omitempty"`
	SortFG      ColorValue `yaml:"sort_fg,omitempty"`
	ValueFG     ColorValue `yaml:"value_fg,omitempty"`
	SelectedFG  ColorValue `yaml:"selected_fg,omitempty"`
	SelectedBG  ColorValue `yaml:"selected_bg,omitempty"`
	SeparatorFG ColorValue `yaml:"separator_fg,omitempty"`
	StatusFG    ColorValue `yaml:"status_fg,omitempty"`
	StatusError ColorValue `yaml:"status_error,omitempty"`
	HelpKey     ColorValue `yaml:"help_key,omitempty"`
	HelpValue   ColorValue `yaml:"help_value,omitempty"`
}

// ThemeFromConfig builds a Theme, keeping the fallback colors for empty fields.
func ThemeFromConfig(cfg ThemeConfig) Theme {
	th := fallbackTheme()
	set := func(val ColorValue, dst *color.Color) {
		if val != "" {
			*dst = lipgloss.Color(string(val))
		}
	}
	set(cfg.TitleFG, &th.TitleFG)
	set(cfg.HeaderFG, &th.HeaderFG)
	set(cfg.HeaderBG, &th.HeaderBG)
	set(cfg.SortFG, &th.SortFG)
	set(cfg.ValueFG, &th.ValueFG)
	set(cfg.SelectedFG, &th.SelectedFG)
	set(cfg.SelectedBG, &th.SelectedBG)
	set(cfg.SeparatorFG, &th.SeparatorFG)
	set(cfg.StatusFG, &th.StatusFG)
	set(cfg.StatusError, &th.StatusError)
	set(cfg.HelpKey, &th.HelpKey)
	set(cfg.HelpValue, &th.HelpValue)
	return th
}

func mergeThemeConfig(base, override ThemeConfig) ThemeConfig {
	out := base
	pick := func(dst *ColorValue, val ColorValue) {
		if val != "" {
			*dst = val
		}
	}
	pick(&out.TitleFG, override.TitleFG)
	pick(&out.HeaderFG, override.HeaderFG)
	pick(&out.HeaderBG, override.HeaderBG)
	pick(&out.SortFG, override.SortFG)
	pick(&out.ValueFG, override.ValueFG)
	pick(&out.SelectedFG, override.SelectedFG)
	pick(&out.SelectedBG, override.SelectedBG)
	pick(&out.SeparatorFG, override.SeparatorFG)
	pick(&out.StatusFG, override.StatusFG)
	pick(&out.StatusError, override.StatusError)
	pick(&out.HelpKey, override.HelpKey)
	pick(&out.HelpValue, override.HelpValue)
	return out
}
