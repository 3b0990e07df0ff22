package rules

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/c360studio/semlint/report"
	"github.com/c360studio/semlint/source"
)

func init() {
	DefaultRegistry.MustRegister(&CrudRule{})
}

// actionVerbs groups verbs that name the same operation. Verbs within
// one group are interchangeable; a file should pick one per group.
var actionVerbs = [][]string{
	{"get", "fetch", "retrieve", "read", "load"},
	{"create", "add", "insert", "make"},
	{"update", "set", "modify", "edit"},
	{"delete", "remove", "destroy"},
}

// CrudRule flags units whose action verb deviates from the dominant
// verb used for the same operation in the file. Dominance is a
// majority vote per verb group; a tied vote is reported as ambiguous
// at info severity.
type CrudRule struct{}

// ID returns the rule identifier.
func (r *CrudRule) ID() string {
	return "crud-consistency"
}

// Description returns a one-line summary.
func (r *CrudRule) Description() string {
	return "functions performing the same operation should share one action verb"
}

// Severity returns the default severity.
func (r *CrudRule) Severity() report.Severity {
	return report.SeverityWarning
}

// Evaluate runs the majority vote per verb group.
func (r *CrudRule) Evaluate(file *source.File, opts *Options) []report.Finding {
	severity := opts.SeverityFor(r.ID(), r.Severity())

	type member struct {
		unit source.Unit
		verb string
	}

	var findings []report.Finding
	for _, group := range actionVerbs {
		var members []member
		counts := make(map[string]int)
		for _, unit := range file.Units {
			for _, verb := range group {
				if hasVerbPrefix(unit.Name, verb) {
					members = append(members, member{unit: unit, verb: verb})
					counts[verb]++
					break
				}
			}
		}
		if len(counts) < 2 {
			continue
		}

		max := 0
		for _, c := range counts {
			if c > max {
				max = c
			}
		}
		var dominant []string
		for _, verb := range group {
			if counts[verb] == max {
				dominant = append(dominant, verb)
			}
		}

		if len(dominant) == 1 {
			for _, m := range members {
				if m.verb == dominant[0] {
					continue
				}
				findings = append(findings, report.Finding{
					Path:     file.Path,
					RuleID:   r.ID(),
					Severity: severity,
					Line:     m.unit.Span.Start.Line,
					Column:   m.unit.Span.Start.Column,
					Message: fmt.Sprintf("function %q uses verb %q where this file mostly uses %q (%d of %d)",
						m.unit.Name, m.verb, dominant[0], max, len(members)),
				})
			}
			continue
		}

		// No majority. Every unit in the group is part of the
		// ambiguity.
		tied := quotedList(dominant)
		for _, m := range members {
			findings = append(findings, report.Finding{
				Path:     file.Path,
				RuleID:   r.ID(),
				Severity: report.SeverityInfo,
				Line:     m.unit.Span.Start.Line,
				Column:   m.unit.Span.Start.Column,
				Message: fmt.Sprintf("ambiguous action naming: %s are used equally often in this file; pick one verb",
					tied),
			})
		}
	}
	return findings
}

// hasVerbPrefix reports whether a unit name starts with the verb
// followed by a word boundary: end of name, an underscore, a digit, or
// an uppercase letter. "settings" does not start with the verb "set".
func hasVerbPrefix(name, verb string) bool {
	if len(name) < len(verb) {
		return false
	}
	if !strings.EqualFold(name[:len(verb)], verb) {
		return false
	}
	if len(name) == len(verb) {
		return true
	}
	next := rune(name[len(verb)])
	return next == '_' || unicode.IsUpper(next) || unicode.IsDigit(next)
}

func quotedList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return strings.Join(quoted, " and ")
}
