package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/gridx/internal/formatter"
	"github.com/oakwood-commons/gridx/internal/ui"
	"github.com/oakwood-commons/gridx/pkg/settings"
)

// configLoader centralizes config loading so callers avoid duplicating merge logic.
type configLoader struct {
	defaults func() (ui.ConfigFile, error)
	readFile func(string) ([]byte, error)
}

var cfgLoader = configLoader{defaults: ui.EmbeddedDefaultConfig, readFile: os.ReadFile}

func loadMergedConfig(cfgPath string) (ui.ConfigFile, error) {
	return cfgLoader.loadMergedConfig(cfgPath)
}

// loadMergedConfig lays the user file at cfgPath (if any) over the embedded
// defaults. Unknown keys in the user file are an error so typos surface.
func (l configLoader) loadMergedConfig(cfgPath string) (ui.ConfigFile, error) {
	base, err := l.defaults()
	if err != nil {
		return ui.ConfigFile{}, fmt.Errorf("load default config: %w", err)
	}
	merged := base
	if cfgPath != "" {
		raw, err := l.readFile(cfgPath)
		if err != nil {
			return base, fmt.Errorf("read config file %s: %w", cfgPath, err)
		}
		var override ui.ConfigFile
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&override); err != nil && !errors.Is(err, io.EOF) {
			return base, fmt.Errorf("parse config file %s: %w", cfgPath, err)
		}
		merged = ui.MergeConfig(base, override)
	}
	applyBuildData(&merged)
	return merged, nil
}

// applyBuildData fills the about block from the running binary.
func applyBuildData(cfg *ui.ConfigFile) {
	about := &cfg.App.About
	if about.Name == "" {
		about.Name = settings.CliBinaryName
	}
	about.Version = settings.VersionInformation.BuildVersion
	about.GitCommit = settings.VersionInformation.Commit
	about.GoVersion = runtime.Version()
	about.BuildOS = runtime.GOOS
	about.BuildArch = runtime.GOARCH
}

// resolveConfigPath returns the explicit path if set, otherwise
// $XDG_CONFIG_HOME/gridx/config.yaml or ~/.config/gridx/config.yaml if
// present.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	xdg := os.Getenv("XDG_CONFIG_HOME")
	candidate := ""
	if xdg != "" {
		candidate = filepath.Join(xdg, settings.CliBinaryName, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", settings.CliBinaryName, "config.yaml")
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}

// formatConfig serializes the merged config as yaml, json or toml.
func formatConfig(cfg ui.ConfigFile, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" || format == formatter.OutputYAML {
		return formatter.FormatYAML(cfg, 2)
	}
	// json and toml go through the YAML shape so both use the same keys
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	var generic map[string]interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("decode config: %w", err)
	}
	switch format {
	case formatter.OutputJSON:
		b, err := json.MarshalIndent(generic, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal config: %w", err)
		}
		return string(b) + "\n", nil
	case formatter.OutputTOML:
		b, err := toml.Marshal(generic)
		if err != nil {
			return "", fmt.Errorf("marshal config: %w", err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("invalid output for config: %s (use yaml|json|toml)", format)
	}
}
