package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semlint/report"
	"github.com/c360studio/semlint/source"
)

func TestLoopRule_AwaitInLoop(t *testing.T) {
	rule := &LoopRule{}
	file := &source.File{
		Path:  "sync.py",
		Loops: []source.Loop{{Span: at(3, 5), Unit: 0, Parent: -1}},
		Calls: []source.Call{
			{Callee: "push_item", Span: at(4, 9), Await: true, Unit: 0, Loop: 0},
		},
	}

	findings := rule.Evaluate(file, DefaultOptions())
	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, "unbatched-async-loop", f.RuleID)
	assert.Equal(t, report.SeverityInfo, f.Severity)
	assert.Equal(t, 3, f.Line)
	assert.Contains(t, f.Message, "push_item")
}

func TestLoopRule_BatchCallSuppresses(t *testing.T) {
	rule := &LoopRule{}
	file := &source.File{
		Path:  "sync.py",
		Loops: []source.Loop{{Span: at(3, 5), Unit: 0, Parent: -1}},
		Calls: []source.Call{
			{Callee: "push_item", Span: at(4, 9), Await: true, Unit: 0, Loop: 0},
			{Callee: "asyncio.gather", Span: at(6, 5), Await: true, Unit: 0, Loop: -1},
		},
	}
	assert.Empty(t, rule.Evaluate(file, DefaultOptions()))
}

func TestLoopRule_AsyncPatternWithoutAwait(t *testing.T) {
	rule := &LoopRule{}
	file := &source.File{
		Path:  "Job.java",
		Loops: []source.Loop{{Span: at(5, 9), Unit: 0, Parent: -1}},
		Calls: []source.Call{
			{Callee: "client.sendasync", Span: at(6, 13), Unit: 0, Loop: 0},
		},
	}

	findings := rule.Evaluate(file, DefaultOptions())
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "client.sendasync")
}

func TestLoopRule_OneFindingPerLoop(t *testing.T) {
	rule := &LoopRule{}
	file := &source.File{
		Path:  "sync.js",
		Loops: []source.Loop{{Span: at(2, 3), Unit: 0, Parent: -1}},
		Calls: []source.Call{
			{Callee: "fetchone", Span: at(3, 5), Await: true, Unit: 0, Loop: 0},
			{Callee: "fetchtwo", Span: at(4, 5), Await: true, Unit: 0, Loop: 0},
		},
	}

	findings := rule.Evaluate(file, DefaultOptions())
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "fetchone")
}

func TestLoopRule_SyncCallsIgnored(t *testing.T) {
	rule := &LoopRule{}
	file := &source.File{
		Path:  "calc.go",
		Loops: []source.Loop{{Span: at(2, 2), Unit: 0, Parent: -1}},
		Calls: []source.Call{
			{Callee: "sum.add", Span: at(3, 3), Unit: 0, Loop: 0},
			{Callee: "flush", Span: at(8, 2), Await: true, Unit: 0, Loop: -1},
		},
	}
	assert.Empty(t, rule.Evaluate(file, DefaultOptions()))
}

func TestLoopRule_NestedLoopsFlaggedIndependently(t *testing.T) {
	rule := &LoopRule{}
	file := &source.File{
		Path: "matrix.js",
		Loops: []source.Loop{
			{Span: at(2, 3), Unit: 0, Parent: -1},
			{Span: at(3, 5), Unit: 0, Parent: 0},
		},
		Calls: []source.Call{
			{Callee: "visit", Span: at(4, 7), Await: true, Unit: 0, Loop: 1},
		},
	}

	findings := rule.Evaluate(file, DefaultOptions())
	require.Len(t, findings, 1)
	assert.Equal(t, 3, findings[0].Line, "the innermost loop carries the finding")
}
