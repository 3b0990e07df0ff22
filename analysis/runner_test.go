package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semlint/report"

	_ "github.com/c360studio/semlint/source/golang"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const cleanSource = `package fixture

func addNumbers(first, second int) int {
	return first + second
}
`

const shortIdentSource = `package fixture

func process(data []int) int {
	q := 0
	for _, item := range data {
		q += item
	}
	return q
}
`

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	clean := writeFixture(t, dir, "clean.go", cleanSource)
	messy := writeFixture(t, dir, "messy.go", shortIdentSource)

	runner := NewRunner(RunnerConfig{Logger: quietLogger()})
	run, err := runner.Run(context.Background(), []string{clean, messy})
	require.NoError(t, err)

	assert.Equal(t, 2, run.Files)
	assert.Equal(t, 1, run.FilesWithFindings)
	require.Len(t, run.Reports, 2)
	assert.Equal(t, clean, run.Reports[0].Path)
	assert.Equal(t, messy, run.Reports[1].Path)

	assert.Empty(t, run.Reports[0].Findings)
	require.NotEmpty(t, run.Reports[1].Findings)
	assert.Equal(t, "naming-clarity", run.Reports[1].Findings[0].RuleID)

	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CompletedAt.IsZero())
}

func TestRunner_ReportsFollowInputOrder(t *testing.T) {
	dir := t.TempDir()
	first := writeFixture(t, dir, "zeta.go", cleanSource)
	second := writeFixture(t, dir, "alpha.go", cleanSource)

	runner := NewRunner(RunnerConfig{Workers: 4, Logger: quietLogger()})
	run, err := runner.Run(context.Background(), []string{first, second})
	require.NoError(t, err)

	require.Len(t, run.Reports, 2)
	assert.Equal(t, first, run.Reports[0].Path)
	assert.Equal(t, second, run.Reports[1].Path)
}

func TestRunner_UnreadableFileBecomesFinding(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.go")

	runner := NewRunner(RunnerConfig{Logger: quietLogger()})
	run, err := runner.Run(context.Background(), []string{missing})
	require.NoError(t, err)

	require.Len(t, run.Reports, 1)
	require.Len(t, run.Reports[0].Findings, 1)
	f := run.Reports[0].Findings[0]
	assert.Empty(t, f.RuleID)
	assert.Equal(t, report.SeverityError, f.Severity)
	assert.Contains(t, f.Message, "missing.go")
	assert.Equal(t, 1, run.Totals.Error)
}

func TestRunner_ParseFailureBecomesFinding(t *testing.T) {
	dir := t.TempDir()
	broken := writeFixture(t, dir, "broken.go", "package fixture\n\nfunc broken( {\n")

	runner := NewRunner(RunnerConfig{Logger: quietLogger()})
	run, err := runner.Run(context.Background(), []string{broken})
	require.NoError(t, err)

	require.Len(t, run.Reports, 1)
	require.Len(t, run.Reports[0].Findings, 1)
	f := run.Reports[0].Findings[0]
	assert.Empty(t, f.RuleID)
	assert.Equal(t, report.SeverityError, f.Severity)
}

func TestRunner_Cancellation(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "clean.go", cleanSource)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(RunnerConfig{Logger: quietLogger()})
	run, err := runner.Run(ctx, []string{path, path, path})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, run)
	assert.Zero(t, run.Files)
}

func TestRunner_UnknownRuleID(t *testing.T) {
	runner := NewRunner(RunnerConfig{Enabled: []string{"no-such-rule"}, Logger: quietLogger()})
	_, err := runner.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-rule")
}
