package rules

import (
	"github.com/c360studio/semlint/report"
	"github.com/c360studio/semlint/source"
)

func init() {
	DefaultRegistry.MustRegister(&FailureRule{})
}

// FailureRule flags failure handlers that swallow the error: the body
// neither rethrows nor returns an error value and either does nothing
// or only calls logging functions.
type FailureRule struct{}

// ID returns the rule identifier.
func (r *FailureRule) ID() string {
	return "swallowed-failure"
}

// Description returns a one-line summary.
func (r *FailureRule) Description() string {
	return "failure handlers should rethrow or return the error, not drop it"
}

// Severity returns the default severity.
func (r *FailureRule) Severity() report.Severity {
	return report.SeverityError
}

// Evaluate checks every failure handler in the file.
func (r *FailureRule) Evaluate(file *source.File, opts *Options) []report.Finding {
	severity := opts.SeverityFor(r.ID(), r.Severity())

	var findings []report.Finding
	for _, handler := range file.Handlers {
		if handler.Rethrows || handler.ReturnsErr {
			continue
		}

		if handler.Statements == 0 {
			findings = append(findings, report.Finding{
				Path:     file.Path,
				RuleID:   r.ID(),
				Severity: severity,
				Line:     handler.Span.Start.Line,
				Column:   handler.Span.Start.Column,
				Message:  "failure handler is empty; the error is silently dropped",
			})
			continue
		}

		if handler.Statements == len(handler.StmtCalls) && allLogging(handler.StmtCalls, opts) {
			findings = append(findings, report.Finding{
				Path:     file.Path,
				RuleID:   r.ID(),
				Severity: severity,
				Line:     handler.Span.Start.Line,
				Column:   handler.Span.Start.Column,
				Message:  "failure handler only logs; the error is neither rethrown nor returned",
			})
		}
	}
	return findings
}

// allLogging reports whether every call matches the logging patterns.
func allLogging(callees []string, opts *Options) bool {
	if len(callees) == 0 {
		return false
	}
	for _, callee := range callees {
		if !matchAny(opts.LogPatterns, callee) {
			return false
		}
	}
	return true
}
