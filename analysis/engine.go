// Package analysis evaluates rules over parsed source files and runs
// whole file sets in parallel.
package analysis

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/c360studio/semlint/report"
	"github.com/c360studio/semlint/rules"
	"github.com/c360studio/semlint/source"
)

// Engine evaluates registered rules over one file at a time. It holds
// no per-run state, so one engine may serve any number of workers.
type Engine struct {
	registry *rules.Registry
	opts     *rules.Options
	logger   *slog.Logger
}

// NewEngine creates an engine. A nil registry uses
// rules.DefaultRegistry, nil options use rules.DefaultOptions, and a
// nil logger uses slog.Default().
func NewEngine(registry *rules.Registry, opts *rules.Options, logger *slog.Logger) *Engine {
	if registry == nil {
		registry = rules.DefaultRegistry
	}
	if opts == nil {
		opts = rules.DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{registry: registry, opts: opts, logger: logger}
}

// Validate checks that every enabled rule id is registered.
func (e *Engine) Validate(enabled []string) error {
	for _, id := range enabled {
		if _, ok := e.registry.Get(id); !ok {
			return fmt.Errorf("unknown rule id %q", id)
		}
	}
	return nil
}

// Analyze runs the enabled rules over one file in registration order
// and returns the aggregated, sorted report. An empty enabled list
// runs every registered rule. A crashing rule contributes a single
// error finding and the remaining rules still run.
func (e *Engine) Analyze(file *source.File, enabled []string) (*report.Report, error) {
	toRun, err := e.selectRules(enabled)
	if err != nil {
		return nil, err
	}

	rep := &report.Report{Path: file.Path}
	for _, rule := range toRun {
		rep.Findings = append(rep.Findings, e.evaluate(rule, file)...)
	}

	sortFindings(rep.Findings)
	for _, f := range rep.Findings {
		rep.Totals.Add(f.Severity)
	}
	return rep, nil
}

// selectRules resolves enabled ids to rules in registration order.
func (e *Engine) selectRules(enabled []string) ([]rules.Rule, error) {
	if len(enabled) == 0 {
		return e.registry.All(), nil
	}

	want := make(map[string]bool, len(enabled))
	for _, id := range enabled {
		want[id] = true
	}

	var toRun []rules.Rule
	for _, rule := range e.registry.All() {
		if want[rule.ID()] {
			toRun = append(toRun, rule)
			delete(want, rule.ID())
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for id := range want {
			missing = append(missing, id)
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("unknown rule id %q", missing[0])
	}
	return toRun, nil
}

// evaluate runs one rule, containing a panic as an error finding so a
// broken rule cannot abort the run.
func (e *Engine) evaluate(rule rules.Rule, file *source.File) (findings []report.Finding) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("rule crashed",
				"rule", rule.ID(),
				"path", file.Path,
				"panic", r)
			findings = []report.Finding{{
				Path:     file.Path,
				RuleID:   rule.ID(),
				Severity: report.SeverityError,
				Message:  fmt.Sprintf("rule crashed: %v", r),
			}}
		}
	}()
	return rule.Evaluate(file, e.opts)
}

// sortFindings orders findings by line, column, then rule id.
func sortFindings(findings []report.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.RuleID < b.RuleID
	})
}
