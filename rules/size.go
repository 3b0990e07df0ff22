package rules

import (
	"fmt"

	"github.com/c360studio/semlint/report"
	"github.com/c360studio/semlint/source"
)

func init() {
	DefaultRegistry.MustRegister(&SizeRule{})
}

// SizeRule flags logical units that grew past the statement or branch
// thresholds. A unit exactly at a threshold passes.
type SizeRule struct{}

// ID returns the rule identifier.
func (r *SizeRule) ID() string {
	return "unit-size"
}

// Description returns a one-line summary.
func (r *SizeRule) Description() string {
	return "functions should stay below the statement and branch thresholds"
}

// Severity returns the default severity.
func (r *SizeRule) Severity() report.Severity {
	return report.SeverityInfo
}

// Evaluate checks every unit against both thresholds.
func (r *SizeRule) Evaluate(file *source.File, opts *Options) []report.Finding {
	severity := opts.SeverityFor(r.ID(), r.Severity())

	var findings []report.Finding
	for _, unit := range file.Units {
		if unit.Statements > opts.MaxUnitStatements {
			findings = append(findings, report.Finding{
				Path:     file.Path,
				RuleID:   r.ID(),
				Severity: severity,
				Line:     unit.Span.Start.Line,
				Column:   unit.Span.Start.Column,
				Message: fmt.Sprintf("function %q has %d statements, more than the maximum of %d; consider splitting it",
					unit.Name, unit.Statements, opts.MaxUnitStatements),
			})
		}
		if unit.Branches > opts.MaxBranches {
			findings = append(findings, report.Finding{
				Path:     file.Path,
				RuleID:   r.ID(),
				Severity: severity,
				Line:     unit.Span.Start.Line,
				Column:   unit.Span.Start.Column,
				Message: fmt.Sprintf("function %q has %d branch points, more than the maximum of %d; consider splitting it",
					unit.Name, unit.Branches, opts.MaxBranches),
			})
		}
	}
	return findings
}
