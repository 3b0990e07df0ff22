package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/semlint/analysis"
	"github.com/c360studio/semlint/config"
	"github.com/c360studio/semlint/metrics"
	"github.com/c360studio/semlint/output"
	"github.com/c360studio/semlint/rules"
	"github.com/c360studio/semlint/source"
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	var (
		metricsAddr string
		natsURL     string
	)

	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Analyze a tree and re-analyze files as they change",
		Long: `Watch performs a full analysis of the root directory, then watches it
for changes and re-analyzes changed files until interrupted. Findings
are rendered per run; with a NATS URL configured they are also
published, and each run is stored in the history bucket.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()

			cfg, err := loadConfig(root, logger)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("nats-url") {
				cfg.NATS.URL = natsURL
			}

			watchRoot := "."
			if len(args) == 1 {
				watchRoot = args[0]
			}
			info, err := os.Stat(watchRoot)
			if err != nil {
				return fmt.Errorf("stat watch root: %w", err)
			}
			if !info.IsDir() {
				return fmt.Errorf("not a directory: %s", watchRoot)
			}

			return runWatch(cmd, cfg, watchRoot, metricsAddr, logger)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address to serve Prometheus metrics (e.g. :9090)")
	cmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server URL for publishing findings and run history")

	return cmd
}

func runWatch(cmd *cobra.Command, cfg *config.Config, watchRoot, metricsAddr string, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	collector := metrics.NewCollector()
	if metricsAddr != "" {
		stop, err := serveMetrics(metricsAddr, collector, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	runner := analysis.NewRunner(analysis.RunnerConfig{
		Loader:  source.NewLoader(source.DefaultRegistry, logger),
		Engine:  analysis.NewEngine(rules.DefaultRegistry, cfg.RuleOptions(), logger),
		Workers: cfg.Analysis.Workers,
		Enabled: cfg.Rules.Enabled,
		Logger:  logger,
	})

	analyze := func(paths []string) error {
		run, err := runner.Run(ctx, paths)
		if err != nil {
			return err
		}
		if err := output.Write(cmd.OutOrStdout(), run, cfg.Output.Format); err != nil {
			return err
		}
		collector.ObserveRun(run)
		if cfg.NATS.URL != "" {
			publishRun(ctx, cfg, run, logger)
		}
		return nil
	}

	// Initial full pass over the tree.
	files, err := analysis.ResolveFiles([]string{watchRoot}, analysis.ResolveOptions{
		Registry: source.DefaultRegistry,
		Include:  cfg.Analysis.Include,
		Exclude:  cfg.Analysis.Exclude,
	})
	if err != nil {
		return err
	}
	if err := analyze(files); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	watcher, err := source.NewWatcher(source.WatcherConfig{
		Root:     watchRoot,
		Registry: source.DefaultRegistry,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Stop()

	fmt.Fprintf(cmd.OutOrStdout(), "watching %s for changes\n", watchRoot)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Watch stopped")
			return nil

		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			paths := changedPaths(watchRoot, drainEvents(watcher.Events(), event), logger)
			if len(paths) == 0 {
				continue
			}
			if err := analyze(paths); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}

// drainEvents collects every event already queued behind the first so
// one editor save producing several changes becomes one run.
func drainEvents(ch <-chan source.WatchEvent, first source.WatchEvent) []source.WatchEvent {
	events := []source.WatchEvent{first}
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, event)
		default:
			return events
		}
	}
}

// changedPaths turns watch events into analyzable paths. Deletions are
// logged and dropped: there is nothing left to analyze.
func changedPaths(root string, events []source.WatchEvent, logger *slog.Logger) []string {
	seen := make(map[string]bool, len(events))
	paths := make([]string, 0, len(events))
	for _, event := range events {
		if event.Operation == source.OpDelete {
			logger.Info("File deleted", "path", event.Path)
			continue
		}
		full := filepath.Join(root, event.Path)
		if seen[full] {
			continue
		}
		seen[full] = true
		paths = append(paths, full)
	}
	return paths
}

// serveMetrics starts the Prometheus endpoint and returns a shutdown
// function.
func serveMetrics(addr string, collector *metrics.Collector, logger *slog.Logger) (func(), error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "addr", addr, "error", err)
		}
	}()

	logger.Info("Metrics server listening", "addr", addr)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
