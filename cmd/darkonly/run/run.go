package run

import (
	"context"
	"fmt"
	"io"

	"github.com/flarebyte/darkonly/internal/config"
	"github.com/flarebyte/darkonly/internal/discover"
	"github.com/flarebyte/darkonly/internal/filter"
	"github.com/flarebyte/darkonly/internal/logging"
	"github.com/flarebyte/darkonly/internal/migrate"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	cfgPath       string
	flagRoot      string
	flagExts      []string
	flagAttrs     []string
	flagMarker    string
	flagGitignore bool
	flagFollow    bool
	flagFilter    string
	flagDryRun    bool
	flagCheck     bool
	flagReport    string
	flagVerbose   bool
)

// Bind registers the migration flags on cmd and makes it run the migration.
func Bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&cfgPath, "config", "c", "", "Path to config file (.cue)")
	f.StringVar(&flagRoot, "root", "", "Source directory (default: <project root>/src)")
	f.StringSliceVar(&flagExts, "ext", nil, "File extensions to rewrite (default .tsx,.jsx)")
	f.StringSliceVar(&flagAttrs, "attr", nil, "Attributes holding class strings (default className)")
	f.StringVar(&flagMarker, "marker", "", "Variant prefix to collapse (default dark:)")
	f.BoolVar(&flagGitignore, "gitignore", false, "Skip files matched by .gitignore")
	f.BoolVar(&flagFollow, "follow-symlinks", false, "Walk into symlinked directories")
	f.StringVar(&flagFilter, "filter", "", "Lua predicate over `locator` selecting files to rewrite")
	f.BoolVar(&flagDryRun, "dry-run", false, "Report changes without writing files")
	f.BoolVar(&flagCheck, "check", false, "Dry run that exits 2 when any file would change")
	f.StringVar(&flagReport, "report", "", "Write a YAML report to this path")
	f.BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging on stderr")

	cmd.Args = cobra.NoArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(flagVerbose)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		opts, err := resolveOptions(cmd.Flags(), log)
		if err != nil {
			return err
		}
		return execute(cmd.Context(), opts, flagCheck, cmd.OutOrStdout())
	}
}

func execute(ctx context.Context, opts migrate.Options, check bool, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sum, err := migrate.Run(ctx, opts, w)
	return evaluateRunExit(sum, err, check)
}

// resolveOptions layers defaults, the optional config file and explicitly
// set flags, in that order.
func resolveOptions(flags *pflag.FlagSet, log *zap.Logger) (migrate.Options, error) {
	var cfg config.Config
	if cfgPath != "" {
		c, err := config.Load(cfgPath)
		if err != nil {
			return migrate.Options{}, err
		}
		cfg = c
		log.Debug("config loaded", zap.String("path", cfgPath))
	}

	opts := migrate.Options{Logger: log}
	root := ""
	if cfg.Discovery.HasRoot {
		root = cfg.Discovery.Root
	}
	if flags.Changed("root") {
		root = flagRoot
	}
	resolved, err := migrate.ResolveRoot(root)
	if err != nil {
		return migrate.Options{}, fmt.Errorf("failed to resolve source directory: %w", err)
	}
	opts.Root = resolved

	opts.Discovery = discover.Options{}
	if cfg.Discovery.HasExtensions {
		opts.Discovery.Extensions = cfg.Discovery.Extensions
	}
	if cfg.Discovery.HasGitignore {
		opts.Discovery.Gitignore = cfg.Discovery.Gitignore
	}
	if cfg.Discovery.HasFollowSymlinks {
		opts.Discovery.FollowSymlinks = cfg.Discovery.FollowSymlinks
	}
	if flags.Changed("ext") {
		opts.Discovery.Extensions = flagExts
	}
	if flags.Changed("gitignore") {
		opts.Discovery.Gitignore = flagGitignore
	}
	if flags.Changed("follow-symlinks") {
		opts.Discovery.FollowSymlinks = flagFollow
	}

	if cfg.Rewrite.HasMarker {
		opts.Marker = cfg.Rewrite.Marker
	}
	if flags.Changed("marker") {
		opts.Marker = flagMarker
	}
	if cfg.Rewrite.HasAttributes {
		opts.Attributes = cfg.Rewrite.Attributes
	}
	if flags.Changed("attr") {
		opts.Attributes = flagAttrs
	}

	inline := ""
	if cfg.Filter.HasInline {
		inline = cfg.Filter.Inline
	}
	if flags.Changed("filter") {
		inline = flagFilter
	}
	if inline != "" {
		var fopts filter.Options
		if cfg.Filter.HasTimeoutMs {
			fopts.TimeoutMs = cfg.Filter.TimeoutMs
		}
		pred, err := filter.New(inline, fopts)
		if err != nil {
			return migrate.Options{}, err
		}
		opts.Filter = pred
		log.Debug("filter enabled", zap.String("inline", inline))
	}

	if cfg.HasDryRun {
		opts.DryRun = cfg.DryRun
	}
	if flags.Changed("dry-run") {
		opts.DryRun = flagDryRun
	}
	if flagCheck {
		opts.DryRun = true
	}

	if cfg.Report.HasOut {
		opts.ReportOut = cfg.Report.Out
	}
	if flags.Changed("report") {
		opts.ReportOut = flagReport
	}
	return opts, nil
}
