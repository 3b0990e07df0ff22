package analysis

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/c360studio/semlint/report"
	"github.com/c360studio/semlint/source"
)

// Runner analyzes a set of files on a worker pool. Workers write into
// slots indexed by input position, so the merged run is deterministic
// no matter which worker finished first.
type Runner struct {
	loader  *source.Loader
	engine  *Engine
	workers int
	enabled []string
	logger  *slog.Logger
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// Loader loads and parses files. Nil uses a loader over
	// source.DefaultRegistry.
	Loader *source.Loader

	// Engine evaluates rules. Nil uses a default engine.
	Engine *Engine

	// Workers is the pool size. Zero or negative uses the CPU count.
	Workers int

	// Enabled lists the rule ids to run. Empty runs every rule.
	Enabled []string

	// Logger is used for per-file diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// NewRunner creates a runner from the config.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Loader == nil {
		cfg.Loader = source.NewLoader(nil, cfg.Logger)
	}
	if cfg.Engine == nil {
		cfg.Engine = NewEngine(nil, nil, cfg.Logger)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{
		loader:  cfg.Loader,
		engine:  cfg.Engine,
		workers: cfg.Workers,
		enabled: cfg.Enabled,
		logger:  cfg.Logger,
	}
}

// Run loads and analyzes every path. A file that cannot be read or
// parsed contributes a report with a single error finding instead of
// aborting the run. Cancellation is cooperative and checked between
// files: the partial run is returned together with the context error.
func (r *Runner) Run(ctx context.Context, paths []string) (*report.Run, error) {
	if err := r.engine.Validate(r.enabled); err != nil {
		return nil, err
	}

	run := report.NewRun()

	reports := make([]*report.Report, len(paths))
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := r.workers
	if workers > len(paths) {
		workers = len(paths)
	}
	if workers < 1 {
		workers = 1
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					return
				}
				reports[idx] = r.analyzeOne(ctx, paths[idx])
			}
		}()
	}

feed:
	for i := range paths {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	for _, rep := range reports {
		if rep == nil {
			continue
		}
		run.AddReport(*rep)
	}
	run.Finish()

	if err := ctx.Err(); err != nil {
		return run, err
	}
	return run, nil
}

// analyzeOne produces the report for a single file. Load and parse
// failures become a report with one error finding carrying no rule id.
func (r *Runner) analyzeOne(ctx context.Context, path string) *report.Report {
	file, err := r.loader.Load(ctx, path)
	if err != nil {
		r.logger.Warn("failed to load source file",
			"path", path,
			"error", err)
		return errorReport(path, err.Error())
	}

	rep, err := r.engine.Analyze(file, r.enabled)
	if err != nil {
		return errorReport(path, "analysis failed: "+err.Error())
	}
	return rep
}

// errorReport wraps a file-level failure as a report whose single
// finding carries no rule id.
func errorReport(path, message string) *report.Report {
	return &report.Report{
		Path: path,
		Findings: []report.Finding{{
			Path:     path,
			Severity: report.SeverityError,
			Message:  message,
		}},
		Totals: report.Totals{Error: 1},
	}
}
