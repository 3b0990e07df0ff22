package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semlint/report"
	"github.com/c360studio/semlint/source"
)

func TestConcatRule_FlagsConcatToSink(t *testing.T) {
	rule := &ConcatRule{}
	file := &source.File{
		Path: "repo.go",
		Calls: []source.Call{
			{
				Callee: "db.query",
				Args:   []source.Arg{{Text: `"SELECT * FROM t WHERE id = " + id`, Concat: true}},
				Span:   at(4, 3), Unit: 0, Loop: -1,
			},
			{
				Callee: "db.query",
				Args:   []source.Arg{{Text: `"SELECT * FROM t WHERE id = ?"`}, {Text: "id"}},
				Span:   at(9, 3), Unit: 0, Loop: -1,
			},
			{
				Callee: "render",
				Args:   []source.Arg{{Text: `"Hello " + name`, Concat: true}},
				Span:   at(12, 3), Unit: 0, Loop: -1,
			},
		},
	}

	findings := rule.Evaluate(file, DefaultOptions())
	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, "unsafe-query-concat", f.RuleID)
	assert.Equal(t, report.SeverityError, f.Severity)
	assert.Equal(t, 4, f.Line)
	assert.Contains(t, f.Message, "db.query")
}

func TestConcatRule_OneFindingPerCall(t *testing.T) {
	rule := &ConcatRule{}
	file := &source.File{
		Path: "repo.go",
		Calls: []source.Call{
			{
				Callee: "cursor.execute",
				Args: []source.Arg{
					{Text: `"one" + a`, Concat: true},
					{Text: `"two" + b`, Concat: true},
				},
				Span: at(1, 1), Unit: 0, Loop: -1,
			},
		},
	}
	assert.Len(t, rule.Evaluate(file, DefaultOptions()), 1)
}

func TestConcatRule_CustomSinkPatterns(t *testing.T) {
	rule := &ConcatRule{}
	opts := DefaultOptions()
	opts.SinkPatterns = []string{"render"}

	file := &source.File{
		Path: "view.go",
		Calls: []source.Call{
			{Callee: "render", Args: []source.Arg{{Text: `"a" + b`, Concat: true}}, Span: at(2, 1), Unit: 0, Loop: -1},
			{Callee: "db.query", Args: []source.Arg{{Text: `"a" + b`, Concat: true}}, Span: at(5, 1), Unit: 0, Loop: -1},
		},
	}
	findings := rule.Evaluate(file, opts)
	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].Line)
}
