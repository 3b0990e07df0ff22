package rules

import (
	"fmt"

	"github.com/c360studio/semlint/report"
	"github.com/c360studio/semlint/source"
)

func init() {
	DefaultRegistry.MustRegister(&ConcatRule{})
}

// ConcatRule flags query or command sinks receiving an argument built
// by string concatenation or interpolation. This is a structural proxy
// for injection risk: which callees count as sinks comes from the
// configured name patterns, not from semantic analysis.
type ConcatRule struct{}

// ID returns the rule identifier.
func (r *ConcatRule) ID() string {
	return "unsafe-query-concat"
}

// Description returns a one-line summary.
func (r *ConcatRule) Description() string {
	return "query and command sinks should receive parameterized inputs, not concatenated strings"
}

// Severity returns the default severity.
func (r *ConcatRule) Severity() report.Severity {
	return report.SeverityError
}

// Evaluate checks every call against the sink patterns.
func (r *ConcatRule) Evaluate(file *source.File, opts *Options) []report.Finding {
	severity := opts.SeverityFor(r.ID(), r.Severity())

	var findings []report.Finding
	for _, call := range file.Calls {
		if !matchAny(opts.SinkPatterns, call.Callee) {
			continue
		}
		for _, arg := range call.Args {
			if !arg.Concat {
				continue
			}
			findings = append(findings, report.Finding{
				Path:     file.Path,
				RuleID:   r.ID(),
				Severity: severity,
				Line:     call.Span.Start.Line,
				Column:   call.Span.Start.Column,
				Message: fmt.Sprintf("argument to %q is built by string concatenation; use parameterized inputs",
					call.Callee),
			})
			break
		}
	}
	return findings
}
