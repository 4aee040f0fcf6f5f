// Package cmd implements the gridx command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/gridx/internal/cel"
	"github.com/oakwood-commons/gridx/internal/formatter"
	"github.com/oakwood-commons/gridx/internal/limiter"
	"github.com/oakwood-commons/gridx/internal/ui"
	"github.com/oakwood-commons/gridx/pkg/grid"
	"github.com/oakwood-commons/gridx/pkg/loader"
	"github.com/oakwood-commons/gridx/pkg/logger"
	"github.com/oakwood-commons/gridx/pkg/settings"
	"github.com/oakwood-commons/gridx/pkg/tui"
)

// errShowHelp is returned by loadDefinition when there is no input at all.
var errShowHelp = errors.New("no input provided")

var (
	interactive    bool
	output         string
	configOutput   string
	title          string
	themeName      string
	configFile     string
	debug          bool
	noColor        bool
	renderSnapshot bool
	startKeys      []string
	sortFlags      []string
	clickFlags     []string
	multiSort      bool
	noSort         bool
	snapshotWidth  int
	snapshotHeight int
	limitRecords   int
	offsetRecords  int
	tailRecords    int
)

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName + " [file]",
	Short: cliShortHelp(),
	Long: cliShortHelp() + `

The input is a YAML, JSON or TOML table definition (columns, sort, rows) or a
bare list of row objects. Without a file the definition is read from stdin.

Column widths are fixed cells, "auto" (shares the remaining space), or a CEL
expression over the number of columns, e.g. "96 / columns".`,
	Example: `  gridx fleet.yaml
  gridx fleet.yaml -i
  gridx fleet.yaml --sort cpu:desc --width 100
  gridx fleet.yaml --multi-sort --click role --click cpu -o json
  kubectl get pods -o json | jq .items | gridx -i`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTable,
}

func rootPersistentPreRun(cmd *cobra.Command, args []string) {
	// debug => zap.DebugLevel (-1), else zap.InfoLevel (0)
	var level int8
	if debug {
		level = logger.DebugLevel
	}
	lgr := logger.Get(level)
	lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())

	run := settings.NewCliParams()
	run.MinLogLevel = level
	run.Output = output
	run.Interactive = interactive
	run.Width = snapshotWidth
	run.Height = snapshotHeight
	run.ConfigPath = resolveConfigPath(configFile)
	run.ThemeName = themeName
	run.NoColor = noColor
	if cmd == rootCmd {
		if len(args) > 0 {
			run.Input.Path = args[0]
		} else {
			run.Input.FromStdin = true
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithLogger(ctx, lgr)
	cmd.SetContext(settings.IntoContext(ctx, run))
}

func runTable(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	run := settings.OrDefault(ctx)
	lgr := logger.Component(ctx, "cli")

	if !run.Interactive && !renderSnapshot && !formatter.ValidOutput(run.Output) {
		return fmt.Errorf("unknown output format %q (use table, tree, yaml, json or toml)", run.Output)
	}

	window := limiter.Config{Limit: limitRecords, Offset: offsetRecords, Tail: tailRecords}
	if err := window.Validate(); err != nil {
		return fmt.Errorf("record limiting: %w", err)
	}

	cfgFile, err := loadMergedConfig(run.ConfigPath)
	if err != nil {
		return err
	}
	if err := ui.InitializeThemes(cfgFile); err != nil {
		return err
	}

	def, err := loadDefinition(cmd.InOrStdin(), args)
	if errors.Is(err, errShowHelp) {
		return cmd.Help()
	}
	if err != nil {
		return err
	}

	eval, err := cel.NewEvaluator()
	if err != nil {
		return fmt.Errorf("create CEL evaluator: %w", err)
	}
	cols, err := def.ColumnSpecs(eval)
	if err != nil {
		return fmt.Errorf("%s: %w", run.Source(), err)
	}
	tbl := tui.Table{Title: def.Title, Columns: cols, Rows: def.Rows}
	if title != "" {
		tbl.Title = title
	}
	lgr.V(1).Info("table loaded", "source", run.Source(), "format", def.Format, "columns", len(cols), "rows", len(def.Rows))

	tcfg, err := buildTableConfig(ctx, cmd, run, cfgFile, def)
	if err != nil {
		return err
	}
	tcfg.Limit = window
	if len(clickFlags) > 0 {
		keys := make([]grid.ColumnKey, len(clickFlags))
		for i, c := range clickFlags {
			keys[i] = grid.ColumnKey(strings.TrimSpace(c))
		}
		st, err := tui.ApplyClicks(tbl, tcfg, keys)
		if err != nil {
			return err
		}
		lgr.V(1).Info("header clicks applied", "clicks", len(keys), "sort", st.Entries)
		tcfg = tcfg.WithSort(st)
	}

	out := cmd.OutOrStdout()
	switch {
	case run.Interactive:
		opts, cleanup := getProgramOptions(ctx)
		defer cleanup()
		return tui.Run(ctx, tbl, tcfg, opts...)
	case renderSnapshot:
		tcfg.Width, tcfg.Height = resolveSnapshotSize(run.Width, run.Height, cfgFile.UI.Snapshot)
		screen, err := tui.RenderSnapshot(tbl, tcfg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, screen)
		return err
	default:
		rendered, err := tui.Render(tbl, run.Output, tcfg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, rendered)
		return err
	}
}

// loadDefinition reads the table from the file argument or from stdin when
// it is piped.
func loadDefinition(stdin io.Reader, args []string) (*loader.Definition, error) {
	if len(args) > 0 {
		return loader.LoadFile(args[0])
	}
	if !stdinIsPiped() {
		return nil, errShowHelp
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, errShowHelp
	}
	def, err := loader.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("<stdin>: %w", err)
	}
	return def, nil
}

// buildTableConfig layers the table settings: config file, then the
// definition, then flags.
func buildTableConfig(ctx context.Context, cmd *cobra.Command, run *settings.Run, cfgFile ui.ConfigFile, def *loader.Definition) (tui.Config, error) {
	b := cfgFile.UI.Behavior
	tcfg := tui.Config{
		Width:       run.Width,
		Height:      run.Height,
		NoColor:     run.NoColor,
		MultiSort:   ui.BoolOr(b.MultiSort, false) || def.MultiSort,
		DisableSort: ui.BoolOr(b.DisableSort, false) || def.DisableSort,
		ShowHelp:    ui.BoolOr(b.ShowHelp, false),
		Sort:        def.Sort,
		StartKeys:   startKeys,
		Logger:      logger.Component(ctx, "table"),
	}
	if ms := ui.IntOr(b.ThrottleMs, 0); ms > 0 {
		tcfg.ThrottleInterval = time.Duration(ms) * time.Millisecond
	}

	if len(sortFlags) > 0 {
		entries := make([]grid.SortEntry, 0, len(sortFlags))
		for _, s := range sortFlags {
			e, err := loader.ParseSortEntry(s)
			if err != nil {
				return tcfg, err
			}
			entries = append(entries, e)
		}
		tcfg.Sort = entries
		if len(entries) > 1 {
			tcfg.MultiSort = true
		}
	}
	if cmd.Flags().Changed("multi-sort") {
		tcfg.MultiSort = multiSort
	}
	if cmd.Flags().Changed("no-sort") {
		tcfg.DisableSort = noSort
	}

	name := strings.TrimSpace(cfgFile.UI.Theme.Default)
	if run.ThemeName != "" {
		name = run.ThemeName
	}
	if err := ui.SetThemeByName(name); err != nil {
		if run.ThemeName != "" {
			return tcfg, err
		}
		// a config default naming a missing theme falls back quietly
		ui.SetTheme(ui.DefaultTheme())
		name = ""
	}
	tcfg.ThemeName = name
	return tcfg, nil
}

// resolveSnapshotSize picks the snapshot size: flags, then the terminal,
// then the configured defaults.
func resolveSnapshotSize(flagWidth, flagHeight int, snap ui.SnapshotConfig) (int, int) {
	width, height := flagWidth, flagHeight
	if width <= 0 || height <= 0 {
		if w, h, err := termGetSize(int(os.Stdout.Fd())); err == nil {
			if width <= 0 {
				width = w
			}
			if height <= 0 {
				height = h
			}
		}
	}
	if width <= 0 {
		width = ui.IntOr(snap.Width, ui.DefaultWidth)
	}
	if height <= 0 {
		height = ui.IntOr(snap.Height, ui.DefaultHeight)
	}
	return width, height
}

func cliShortHelp() string {
	name, desc := settings.CliBinaryName, "terminal data tables"
	if cfg, err := ui.EmbeddedDefaultConfig(); err == nil {
		if cfg.App.About.Name != "" {
			name = cfg.App.About.Name
		}
		if cfg.App.About.Description != "" {
			desc = cfg.App.About.Description
		}
	}
	return fmt.Sprintf("%s - %s", name, desc)
}

// cliVersionString builds the version line for `gridx version` and --version.
func cliVersionString() string {
	v := settings.VersionInformation
	cfg := ui.ConfigFile{}
	applyBuildData(&cfg)
	return fmt.Sprintf("%s %s (commit %s, built %s, %s %s/%s)",
		cfg.App.About.Name, v.BuildVersion, v.Commit, v.BuildTime,
		cfg.App.About.GoVersion, cfg.App.About.BuildOS, cfg.App.About.BuildArch)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print " + settings.CliBinaryName + " version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), cliVersionString())
		return err
	},
}

// configCmd groups configuration-related subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage " + settings.CliBinaryName + " configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the merged configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		run := settings.OrDefault(cmd.Context())
		cfg, err := loadMergedConfig(run.ConfigPath)
		if err != nil {
			return err
		}
		out, err := formatConfig(cfg, configOutput)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

var configThemesCmd = &cobra.Command{
	Use:     "themes",
	Aliases: []string{"theme"},
	Short:   "List available themes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		run := settings.OrDefault(cmd.Context())
		cfg, err := loadMergedConfig(run.ConfigPath)
		if err != nil {
			return err
		}
		if err := ui.InitializeThemes(cfg); err != nil {
			return err
		}
		def := cfg.UI.Theme.Default
		if def == "" {
			def = "dark"
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Available themes (default: %s):\n", def)
		for _, name := range ui.ThemeNames() {
			fmt.Fprintf(w, " - %s\n", name)
		}
		return nil
	},
}

func init() { //nolint:gochecknoinits
	rootCmd.PersistentPreRun = rootPersistentPreRun
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "start the interactive table")
	rootCmd.Flags().StringVarP(&output, "output", "o", formatter.OutputTable, "output format: table|tree|yaml|json|toml (tree/yaml/json/toml describe the resolved layout)")
	rootCmd.Flags().StringVar(&title, "title", "", "title shown above the table (overrides the definition)")
	rootCmd.Flags().StringArrayVar(&sortFlags, "sort", nil, "initial sort as column[:asc|desc]; repeat for a multi-column sort")
	rootCmd.Flags().StringArrayVar(&clickFlags, "click", nil, "replay a click on a column header before rendering; repeatable")
	rootCmd.Flags().BoolVar(&multiSort, "multi-sort", false, "header clicks add columns to the sort instead of replacing it")
	rootCmd.Flags().BoolVar(&noSort, "no-sort", false, "disable sorting")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable color output")
	rootCmd.Flags().StringVar(&themeName, "theme", "", "theme name (default from config; see 'gridx config themes')")
	rootCmd.Flags().BoolVar(&renderSnapshot, "snapshot", false, "render a single interactive screen and exit; honors --width/--height")
	rootCmd.Flags().StringArrayVar(&startKeys, "press", nil, "keys replayed before a snapshot, e.g. --press right --press s")
	rootCmd.Flags().IntVar(&snapshotWidth, "width", 0, "output width in cells (default: terminal width)")
	rootCmd.Flags().IntVar(&snapshotHeight, "height", 0, "output height in rows (snapshot and interactive)")
	rootCmd.Flags().IntVar(&limitRecords, "limit", 0, "show only the first N rows after sorting")
	rootCmd.Flags().IntVar(&offsetRecords, "offset", 0, "skip the first N rows after sorting")
	rootCmd.Flags().IntVar(&tailRecords, "tail", 0, "show only the last N rows after sorting (mutually exclusive with --limit; ignores --offset)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "", "path to a YAML config file (themes, behavior)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write debug logs to stderr")

	rootCmd.Version = cliVersionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd)

	configCmd.PersistentFlags().StringVarP(&configOutput, "output", "o", "yaml", "output format: yaml|json|toml")
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configThemesCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command. An interrupt cancels the running table.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
