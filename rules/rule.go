// Package rules defines the rule contract, the rule registry, and the
// built-in rule evaluators.
//
// A rule is a pure structural check over one parsed source file. Rules
// are stateless: evaluating the same rule twice over the same file
// yields identical findings. All tunable behavior comes in through
// Options so concurrent runs never share mutable state.
package rules

import (
	"github.com/c360studio/semlint/report"
	"github.com/c360studio/semlint/source"
)

// Rule is one checkable principle.
type Rule interface {
	// ID returns the stable rule identifier used in findings,
	// configuration, and output.
	ID() string

	// Description returns a one-line human-readable summary.
	Description() string

	// Severity returns the severity findings carry unless overridden
	// through Options.
	Severity() report.Severity

	// Evaluate checks one file and returns zero or more findings.
	// Implementations must be deterministic and must not retain or
	// mutate the file.
	Evaluate(file *source.File, opts *Options) []report.Finding
}
