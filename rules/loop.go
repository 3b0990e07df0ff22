package rules

import (
	"fmt"

	"github.com/c360studio/semlint/report"
	"github.com/c360studio/semlint/source"
)

func init() {
	DefaultRegistry.MustRegister(&LoopRule{})
}

// LoopRule flags loops that issue an asynchronous operation per
// iteration with no batching construct anywhere in the unit. One
// finding is produced per loop, at the loop, naming the first
// asynchronous callee found inside it.
type LoopRule struct{}

// ID returns the rule identifier.
func (r *LoopRule) ID() string {
	return "unbatched-async-loop"
}

// Description returns a one-line summary.
func (r *LoopRule) Description() string {
	return "asynchronous work inside loops should be batched or concurrency-limited"
}

// Severity returns the default severity.
func (r *LoopRule) Severity() report.Severity {
	return report.SeverityInfo
}

// Evaluate marks loops containing async calls in units without a
// batching call.
func (r *LoopRule) Evaluate(file *source.File, opts *Options) []report.Finding {
	severity := opts.SeverityFor(r.ID(), r.Severity())

	batched := make(map[int]bool)
	for _, call := range file.Calls {
		if matchAny(opts.BatchPatterns, call.Callee) {
			batched[call.Unit] = true
		}
	}

	firstAsync := make(map[int]string, len(file.Loops))
	for _, call := range file.Calls {
		if call.Loop < 0 || call.Loop >= len(file.Loops) {
			continue
		}
		if !call.Await && !matchAny(opts.AsyncPatterns, call.Callee) {
			continue
		}
		if batched[call.Unit] {
			continue
		}
		if _, seen := firstAsync[call.Loop]; !seen {
			firstAsync[call.Loop] = call.Callee
		}
	}

	var findings []report.Finding
	for i, loop := range file.Loops {
		callee, ok := firstAsync[i]
		if !ok {
			continue
		}
		findings = append(findings, report.Finding{
			Path:     file.Path,
			RuleID:   r.ID(),
			Severity: severity,
			Line:     loop.Span.Start.Line,
			Column:   loop.Span.Start.Column,
			Message: fmt.Sprintf("loop issues asynchronous call %q every iteration; batch the work or limit concurrency",
				callee),
		})
	}
	return findings
}
