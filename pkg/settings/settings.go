// Package settings carries build metadata and the per-invocation options of
// the gridx CLI.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "gridx"

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build, including the commit hash,
// build version, and build timestamp.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Input describes where the table definition comes from.
type Input struct {
	Path      string // Empty when reading stdin
	FromStdin bool
}

// Run holds configuration settings for a single execution of gridx.
type Run struct {
	MinLogLevel int8
	Input       Input
	Output      string
	Interactive bool
	Width       int
	Height      int
	ConfigPath  string
	ThemeName   string
	NoColor     bool
	ExitOnError bool
}

// NewCliParams returns the defaults used before flags are parsed: table
// output, info logging, and exit on the first error.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		Output:      "table",
		ExitOnError: true,
	}
}

// Source names the input for log lines and error messages.
func (r *Run) Source() string {
	if r == nil || r.Input.FromStdin || r.Input.Path == "" {
		return "<stdin>"
	}
	return r.Input.Path
}
