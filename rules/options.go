package rules

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/semlint/report"
)

// Options carries every tunable threshold and pattern set. One
// immutable Options value is shared across all rules and workers in a
// run.
type Options struct {
	// MinIdentLength is the shortest identifier length the naming rule
	// accepts without consulting the allowlist.
	MinIdentLength int

	// ShortAllowlist holds conventional short names (loop indices,
	// receiver-style abbreviations) exempt from the length check.
	ShortAllowlist map[string]bool

	// MaxUnitStatements is the largest statement count the size rule
	// accepts. A unit exactly at the threshold passes.
	MaxUnitStatements int

	// MaxBranches is the largest branch count the size rule accepts.
	MaxBranches int

	// SinkPatterns name callees that execute queries or commands.
	SinkPatterns []string

	// AsyncPatterns name callees treated as asynchronous even without
	// an await marker.
	AsyncPatterns []string

	// BatchPatterns name callees that batch or limit concurrent work.
	// A unit containing one is exempt from the async-loop rule.
	BatchPatterns []string

	// LogPatterns name callees that only record a message.
	LogPatterns []string

	// Severity overrides the default severity per rule id.
	Severity map[string]report.Severity
}

// DefaultOptions returns the built-in thresholds and pattern sets.
func DefaultOptions() *Options {
	return &Options{
		MinIdentLength: 2,
		ShortAllowlist: map[string]bool{
			"i": true, "j": true, "k": true, "n": true,
			"x": true, "y": true, "e": true,
			"id": true, "ok": true, "db": true, "tx": true, "fn": true,
		},
		MaxUnitStatements: 40,
		MaxBranches:       10,
		SinkPatterns: []string{
			"*query*", "*exec*", "*sql*", "*system*", "*popen*",
		},
		AsyncPatterns: []string{
			"*async*", "*.then",
		},
		BatchPatterns: []string{
			"*batch*", "*bulk*", "*gather*", "*chunk*",
			"*waitgroup*", "*errgroup*", "*promise.all*",
		},
		LogPatterns: []string{
			"log*", "print*", "console.*", "fmt.print*",
			"*.log", "*.debug", "*.info", "*.warn", "*.warning",
			"*.error", "*.trace",
		},
		Severity: map[string]report.Severity{},
	}
}

// SeverityFor returns the configured severity for a rule id, falling
// back to the rule's own default.
func (o *Options) SeverityFor(id string, fallback report.Severity) report.Severity {
	if o == nil || o.Severity == nil {
		return fallback
	}
	if s, ok := o.Severity[id]; ok {
		return s
	}
	return fallback
}

// matchAny reports whether a lowercased callee name matches any of the
// glob patterns. Patterns use doublestar syntax; a bad pattern simply
// does not match, validation happens at configuration load.
func matchAny(patterns []string, name string) bool {
	name = strings.ToLower(name)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(strings.ToLower(pattern), name); err == nil && ok {
			return true
		}
	}
	return false
}
