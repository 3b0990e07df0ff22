package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semlint/report"
	"github.com/c360studio/semlint/source"
)

func TestNamingRule_ShortIdentifier(t *testing.T) {
	rule := &NamingRule{}
	file := &source.File{
		Path: "svc.go",
		Identifiers: []source.Identifier{
			{Name: "q", Kind: source.IdentVariable, Span: at(3, 2), Unit: 0},
			{Name: "i", Kind: source.IdentVariable, Span: at(4, 2), Unit: 0},
			{Name: "query", Kind: source.IdentVariable, Span: at(5, 2), Unit: 0},
		},
	}

	findings := rule.Evaluate(file, DefaultOptions())
	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, "naming-clarity", f.RuleID)
	assert.Equal(t, report.SeverityWarning, f.Severity)
	assert.Equal(t, 3, f.Line)
	assert.Contains(t, f.Message, `"q"`)
}

func TestNamingRule_LengtheningRemovesFinding(t *testing.T) {
	rule := &NamingRule{}
	opts := DefaultOptions()

	short := &source.File{
		Path:        "a.go",
		Identifiers: []source.Identifier{{Name: "q", Span: at(1, 1), Unit: -1}},
	}
	require.Len(t, rule.Evaluate(short, opts), 1)

	descriptive := &source.File{
		Path:        "a.go",
		Identifiers: []source.Identifier{{Name: "qt", Span: at(1, 1), Unit: -1}},
	}
	assert.Empty(t, rule.Evaluate(descriptive, opts))
}

func TestNamingRule_AllowlistIsConfigurable(t *testing.T) {
	rule := &NamingRule{}
	opts := DefaultOptions()
	opts.ShortAllowlist = map[string]bool{"q": true}

	file := &source.File{
		Path:        "a.go",
		Identifiers: []source.Identifier{{Name: "q", Span: at(1, 1), Unit: -1}},
	}
	assert.Empty(t, rule.Evaluate(file, opts))
}

func TestNamingRule_MixedCasing(t *testing.T) {
	rule := &NamingRule{}
	file := &source.File{
		Path: "svc.py",
		Identifiers: []source.Identifier{
			{Name: "user_id", Span: at(2, 1), Unit: 0},
			{Name: "user_id", Span: at(5, 1), Unit: 1},
			{Name: "userId", Span: at(9, 1), Unit: 2},
		},
	}

	findings := rule.Evaluate(file, DefaultOptions())
	require.Len(t, findings, 1)
	assert.Equal(t, 9, findings[0].Line)
	assert.Contains(t, findings[0].Message, `"userId"`)
	assert.Contains(t, findings[0].Message, `"user_id"`)
}

func TestNamingRule_CasePairsNotFlagged(t *testing.T) {
	// An exported and unexported pair differs only in letter case,
	// which is not a snake/camel mix.
	rule := &NamingRule{}
	file := &source.File{
		Path: "svc.go",
		Identifiers: []source.Identifier{
			{Name: "parseConfig", Span: at(2, 1), Unit: 0},
			{Name: "ParseConfig", Span: at(8, 1), Unit: 1},
		},
	}
	assert.Empty(t, rule.Evaluate(file, DefaultOptions()))
}

func TestNamingRule_SeverityOverride(t *testing.T) {
	rule := &NamingRule{}
	opts := DefaultOptions()
	opts.Severity["naming-clarity"] = report.SeverityError

	file := &source.File{
		Path:        "a.go",
		Identifiers: []source.Identifier{{Name: "q", Span: at(1, 1), Unit: -1}},
	}
	findings := rule.Evaluate(file, opts)
	require.Len(t, findings, 1)
	assert.Equal(t, report.SeverityError, findings[0].Severity)
}
