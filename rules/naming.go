package rules

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/c360studio/semlint/report"
	"github.com/c360studio/semlint/source"
)

func init() {
	DefaultRegistry.MustRegister(&NamingRule{})
}

// NamingRule flags identifiers too short to read and identifiers that
// mix snake_case and camelCase spellings of the same name within one
// file.
type NamingRule struct{}

// ID returns the rule identifier.
func (r *NamingRule) ID() string {
	return "naming-clarity"
}

// Description returns a one-line summary.
func (r *NamingRule) Description() string {
	return "identifiers should be descriptive and consistently cased"
}

// Severity returns the default severity.
func (r *NamingRule) Severity() report.Severity {
	return report.SeverityWarning
}

// Evaluate checks identifier length and casing consistency.
func (r *NamingRule) Evaluate(file *source.File, opts *Options) []report.Finding {
	severity := opts.SeverityFor(r.ID(), r.Severity())

	var findings []report.Finding
	for _, ident := range file.Identifiers {
		if utf8.RuneCountInString(ident.Name) >= opts.MinIdentLength {
			continue
		}
		if opts.ShortAllowlist[strings.ToLower(ident.Name)] {
			continue
		}
		findings = append(findings, report.Finding{
			Path:      file.Path,
			RuleID:    r.ID(),
			Severity:  severity,
			Line:      ident.Span.Start.Line,
			Column:    ident.Span.Start.Column,
			EndLine:   ident.Span.End.Line,
			EndColumn: ident.Span.End.Column,
			Message:   fmt.Sprintf("identifier %q is shorter than %d characters", ident.Name, opts.MinIdentLength),
		})
	}

	return append(findings, r.mixedCasing(file, severity)...)
}

// casingGroup collects the distinct spellings sharing one normalized
// name.
type casingGroup struct {
	counts map[string]int
	order  []string
}

// mixedCasing flags identifiers whose normalized form also appears in
// the file under a different snake/camel spelling. The most frequent
// spelling wins; every other spelling is flagged.
func (r *NamingRule) mixedCasing(file *source.File, severity report.Severity) []report.Finding {
	groups := make(map[string]*casingGroup)
	for _, ident := range file.Identifiers {
		key := normalizeIdent(ident.Name)
		if key == "" {
			continue
		}
		g := groups[key]
		if g == nil {
			g = &casingGroup{counts: make(map[string]int)}
			groups[key] = g
		}
		if g.counts[ident.Name] == 0 {
			g.order = append(g.order, ident.Name)
		}
		g.counts[ident.Name]++
	}

	var findings []report.Finding
	for _, ident := range file.Identifiers {
		g := groups[normalizeIdent(ident.Name)]
		if g == nil || len(g.order) < 2 || !mixesSnakeAndCamel(g.order) {
			continue
		}
		dominant := g.dominant()
		if ident.Name == dominant {
			continue
		}
		findings = append(findings, report.Finding{
			Path:      file.Path,
			RuleID:    r.ID(),
			Severity:  severity,
			Line:      ident.Span.Start.Line,
			Column:    ident.Span.Start.Column,
			EndLine:   ident.Span.End.Line,
			EndColumn: ident.Span.End.Column,
			Message:   fmt.Sprintf("identifier %q mixes naming styles with %q used elsewhere in this file", ident.Name, dominant),
		})
	}
	return findings
}

// dominant returns the most frequent spelling, first registered wins
// ties.
func (g *casingGroup) dominant() string {
	best := ""
	bestCount := -1
	for _, form := range g.order {
		if g.counts[form] > bestCount {
			best = form
			bestCount = g.counts[form]
		}
	}
	return best
}

// normalizeIdent lowers an identifier and strips underscores so
// snake_case and camelCase spellings of the same name collide.
func normalizeIdent(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}

// mixesSnakeAndCamel reports whether the spellings disagree on
// underscore use. Spellings differing only in letter case, such as an
// exported and unexported pair, are not a style mix.
func mixesSnakeAndCamel(forms []string) bool {
	snake, plain := false, false
	for _, form := range forms {
		if strings.Contains(form, "_") {
			snake = true
		} else {
			plain = true
		}
	}
	return snake && plain
}
