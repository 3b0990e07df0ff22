package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/semlint/analysis"
	"github.com/c360studio/semlint/config"
	"github.com/c360studio/semlint/output"
	"github.com/c360studio/semlint/rules"
	"github.com/c360studio/semlint/source"
)

// checkOptions holds the flag overrides for the check command. A flag
// that was not set on the command line leaves the loaded configuration
// untouched.
type checkOptions struct {
	format  string
	failOn  string
	ruleIDs []string
	workers int
	include []string
	exclude []string
	natsURL string
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Analyze source files against the registered style rules",
		Long: `Check loads every named file, directory, or glob, parses each file
into its structural view, and evaluates the enabled rules. Unreadable
or unparseable files become error findings instead of aborting the run.

With no paths, the current directory is walked for supported files.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()

			cfg, err := loadConfig(root, logger)
			if err != nil {
				return err
			}
			if err := applyCheckOverrides(cmd, cfg, opts); err != nil {
				return err
			}

			return runCheck(cmd, cfg, args, logger)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Report format (text, json)")
	cmd.Flags().StringVar(&opts.failOn, "fail-on", "", "Minimum severity causing exit 1 (info, warning, error, never)")
	cmd.Flags().StringSliceVar(&opts.ruleIDs, "rules", nil, "Rule ids to run (default: all registered)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Analysis worker count (0 = CPU count)")
	cmd.Flags().StringSliceVar(&opts.include, "include", nil, "Only analyze paths matching these globs")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "Skip paths matching these globs")
	cmd.Flags().StringVar(&opts.natsURL, "nats-url", "", "NATS server URL for publishing findings and run history")

	return cmd
}

func applyCheckOverrides(cmd *cobra.Command, cfg *config.Config, opts *checkOptions) error {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = opts.format
	}
	if flags.Changed("fail-on") {
		cfg.Output.FailOn = opts.failOn
	}
	if flags.Changed("rules") {
		cfg.Rules.Enabled = opts.ruleIDs
	}
	if flags.Changed("workers") {
		cfg.Analysis.Workers = opts.workers
	}
	if flags.Changed("include") {
		cfg.Analysis.Include = opts.include
	}
	if flags.Changed("exclude") {
		cfg.Analysis.Exclude = opts.exclude
	}
	if flags.Changed("nats-url") {
		cfg.NATS.URL = opts.natsURL
	}
	return cfg.Validate()
}

func runCheck(cmd *cobra.Command, cfg *config.Config, args []string, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if len(args) == 0 {
		args = []string{"."}
	}

	files, err := analysis.ResolveFiles(args, analysis.ResolveOptions{
		Registry: source.DefaultRegistry,
		Include:  cfg.Analysis.Include,
		Exclude:  cfg.Analysis.Exclude,
	})
	if err != nil {
		return err
	}

	runner := analysis.NewRunner(analysis.RunnerConfig{
		Loader:  source.NewLoader(source.DefaultRegistry, logger),
		Engine:  analysis.NewEngine(rules.DefaultRegistry, cfg.RuleOptions(), logger),
		Workers: cfg.Analysis.Workers,
		Enabled: cfg.Rules.Enabled,
		Logger:  logger,
	})

	run, err := runner.Run(ctx, files)
	if err != nil {
		return err
	}

	if err := output.Write(cmd.OutOrStdout(), run, cfg.Output.Format); err != nil {
		return err
	}

	if cfg.NATS.URL != "" {
		publishRun(ctx, cfg, run, logger)
	}

	minSeverity, enabled := cfg.FailOnSeverity()
	if enabled && run.Totals.Reaches(minSeverity) {
		return errThresholdExceeded
	}
	return nil
}
