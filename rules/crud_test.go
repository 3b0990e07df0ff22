package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semlint/report"
	"github.com/c360studio/semlint/source"
)

func crudFile(names ...string) *source.File {
	file := &source.File{Path: "store.go"}
	for i, name := range names {
		file.Units = append(file.Units, source.Unit{Name: name, Span: at(i+1, 1)})
	}
	return file
}

func TestCrudRule_MajorityFlagsOutlier(t *testing.T) {
	rule := &CrudRule{}
	file := crudFile("getUser", "getOrder", "fetchInvoice")

	findings := rule.Evaluate(file, DefaultOptions())
	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, "crud-consistency", f.RuleID)
	assert.Equal(t, report.SeverityWarning, f.Severity)
	assert.Equal(t, 3, f.Line)
	assert.Contains(t, f.Message, `"fetch"`)
	assert.Contains(t, f.Message, `"get"`)
}

func TestCrudRule_TieReportedAsInfo(t *testing.T) {
	rule := &CrudRule{}
	file := crudFile("getUser", "fetchOrder")

	findings := rule.Evaluate(file, DefaultOptions())
	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.Equal(t, report.SeverityInfo, f.Severity)
		assert.Contains(t, f.Message, "ambiguous")
	}
}

func TestCrudRule_ConsistentFileClean(t *testing.T) {
	rule := &CrudRule{}
	file := crudFile("getUser", "getOrder", "createUser", "deleteUser")
	assert.Empty(t, rule.Evaluate(file, DefaultOptions()))
}

func TestCrudRule_SnakeCaseNames(t *testing.T) {
	rule := &CrudRule{}
	file := crudFile("get_user", "get_order", "retrieve_invoice")

	findings := rule.Evaluate(file, DefaultOptions())
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, `"retrieve"`)
}

func TestCrudRule_WordBoundary(t *testing.T) {
	// "settings" must not be read as the verb "set".
	rule := &CrudRule{}
	file := crudFile("settings", "setTimeout", "updateClock")

	findings := rule.Evaluate(file, DefaultOptions())
	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.Equal(t, report.SeverityInfo, f.Severity)
		assert.NotEqual(t, 1, f.Line, "settings should not participate")
	}
}

func TestCrudRule_GroupsVotedIndependently(t *testing.T) {
	rule := &CrudRule{}
	file := crudFile("getUser", "getOrder", "fetchInvoice", "removeUser", "removeOrder", "deleteInvoice")

	findings := rule.Evaluate(file, DefaultOptions())
	require.Len(t, findings, 2)
	assert.Contains(t, findings[0].Message, `"fetch"`)
	assert.Contains(t, findings[1].Message, `"delete"`)
}
