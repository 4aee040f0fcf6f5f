package ui

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

var (
	embeddedConfigOnce sync.Once
	embeddedConfig     ConfigFile
	embeddedConfigErr  error
)

// AboutConfig contains application metadata. Version fields are filled in
// from build info at runtime.
type AboutConfig struct {
	Name          string `yaml:"name,omitempty"`
	Description   string `yaml:"description,omitempty"`
	Version       string `yaml:"version,omitempty"`
	GoVersion     string `yaml:"go_version,omitempty"`
	BuildOS       string `yaml:"build_os,omitempty"`
	BuildArch     string `yaml:"build_arch,omitempty"`
	GitCommit     string `yaml:"git_commit,omitempty"`
	License       string `yaml:"license,omitempty"`
	RepositoryURL string `yaml:"repository_url,omitempty"`
}

// AppConfig is the app section of the config file.
type AppConfig struct {
	About AboutConfig `yaml:"about,omitempty"`
}

// ThemeSelectionConfig holds theme selection configuration.
type ThemeSelectionConfig struct {
	Default string `yaml:"default,omitempty"`
}

// BehaviorConfig holds table interaction settings.
type BehaviorConfig struct {
	MultiSort   *bool `yaml:"multi_sort,omitempty"`
	DisableSort *bool `yaml:"disable_sort,omitempty"`
	ThrottleMs  *int  `yaml:"throttle_ms,omitempty"`
	ShowHelp    *bool `yaml:"show_help,omitempty"`
}

// SnapshotConfig sets the size used when rendering without a terminal.
type SnapshotConfig struct {
	Width  *int `yaml:"width,omitempty"`
	Height *int `yaml:"height,omitempty"`
}

// Config is the ui section of the config file.
type Config struct {
	Theme    ThemeSelectionConfig   `yaml:"theme,omitempty"`
	Behavior BehaviorConfig         `yaml:"behavior,omitempty"`
	Snapshot SnapshotConfig         `yaml:"snapshot,omitempty"`
	Themes   map[string]ThemeConfig `yaml:"themes,omitempty"`
}

// ConfigFile is the full configuration document.
type ConfigFile struct {
	App AppConfig `yaml:"app"`
	UI  Config    `yaml:"ui"`
}

// DefaultConfigYAML returns a copy of the embedded default config YAML bytes.
func DefaultConfigYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// EmbeddedDefaultConfig parses and returns the embedded default configuration.
func EmbeddedDefaultConfig() (ConfigFile, error) {
	embeddedConfigOnce.Do(func() {
		if len(embeddedDefaultConfig) == 0 {
			embeddedConfigErr = fmt.Errorf("embedded default config is empty")
			return
		}
		if err := yaml.Unmarshal(embeddedDefaultConfig, &embeddedConfig); err != nil {
			embeddedConfigErr = fmt.Errorf("decode embedded default config: %w", err)
			return
		}
		if embeddedConfig.UI.Themes == nil {
			embeddedConfig.UI.Themes = map[string]ThemeConfig{}
		}
	})
	return embeddedConfig, embeddedConfigErr
}

// MergeConfig lays override on top of base. Unset fields in override keep
// the base value; themes are merged per field.
func MergeConfig(base, override ConfigFile) ConfigFile {
	out := base
	a, o := &out.App.About, override.App.About
	setString(&a.Name, o.Name)
	setString(&a.Description, o.Description)
	setString(&a.License, o.License)
	setString(&a.RepositoryURL, o.RepositoryURL)

	setString(&out.UI.Theme.Default, override.UI.Theme.Default)

	b, ob := &out.UI.Behavior, override.UI.Behavior
	if ob.MultiSort != nil {
		b.MultiSort = ob.MultiSort
	}
	if ob.DisableSort != nil {
		b.DisableSort = ob.DisableSort
	}
	if ob.ThrottleMs != nil {
		b.ThrottleMs = ob.ThrottleMs
	}
	if ob.ShowHelp != nil {
		b.ShowHelp = ob.ShowHelp
	}
	if override.UI.Snapshot.Width != nil {
		out.UI.Snapshot.Width = override.UI.Snapshot.Width
	}
	if override.UI.Snapshot.Height != nil {
		out.UI.Snapshot.Height = override.UI.Snapshot.Height
	}

	themes := make(map[string]ThemeConfig, len(base.UI.Themes)+len(override.UI.Themes))
	for name, th := range base.UI.Themes {
		themes[name] = th
	}
	for name, th := range override.UI.Themes {
		themes[name] = mergeThemeConfig(themes[name], th)
	}
	out.UI.Themes = themes
	return out
}

func setString(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

// BoolOr returns *p, or def when p is nil.
func BoolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// IntOr returns *p, or def when p is nil.
func IntOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
