package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semlint/config"
	"github.com/c360studio/semlint/report"
)

const cleanSource = `package svc

func addNumbers(first int, second int) int {
	total := first + second
	return total
}
`

const shortIdentSource = `package svc

func process(q string) string {
	result := q + "!"
	return result
}
`

const concatSource = `package store

func lookupUser(db userStore, userID string) error {
	_, err := db.Query("SELECT * FROM users WHERE id = " + userID)
	return err
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeConfig writes an explicit config file so tests never pick up
// configuration discovered outside the temp directory.
func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	return writeFile(t, dir, "semlint.yaml", body)
}

func TestCheck_CleanTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "calc.go", cleanSource)
	cfgPath := writeConfig(t, dir, "output:\n  fail_on: error\n")

	out, err := runCLI(t, "check", dir, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 files analyzed, 0 with findings: no findings")
}

func TestCheck_WarningBelowThreshold(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "svc.go", shortIdentSource)
	cfgPath := writeConfig(t, dir, "output:\n  fail_on: error\n")

	out, err := runCLI(t, "check", dir, "--config", cfgPath)
	require.NoError(t, err, "warnings must not trip the error threshold")
	assert.Contains(t, out, `identifier "q" is shorter than 2 characters (naming-clarity)`)
	assert.Contains(t, out, "1 warning")
}

func TestCheck_ThresholdExceeded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "store.go", concatSource)
	cfgPath := writeConfig(t, dir, "output:\n  fail_on: error\n")

	out, err := runCLI(t, "check", dir, "--config", cfgPath)
	assert.ErrorIs(t, err, errThresholdExceeded)
	assert.Contains(t, out, "unsafe-query-concat")
	assert.Contains(t, out, "1 error")
}

func TestCheck_FailOnNever(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "store.go", concatSource)
	cfgPath := writeConfig(t, dir, "output:\n  fail_on: error\n")

	out, err := runCLI(t, "check", dir, "--config", cfgPath, "--fail-on", "never")
	require.NoError(t, err)

	// Findings are still rendered, they just never affect the exit.
	assert.Contains(t, out, "unsafe-query-concat")
}

func TestCheck_FailOnWarning(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "svc.go", shortIdentSource)
	cfgPath := writeConfig(t, dir, "output:\n  fail_on: error\n")

	_, err := runCLI(t, "check", dir, "--config", cfgPath, "--fail-on", "warning")
	assert.ErrorIs(t, err, errThresholdExceeded)
}

func TestCheck_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "svc.go", shortIdentSource)
	cfgPath := writeConfig(t, dir, "output:\n  fail_on: error\n")

	out, err := runCLI(t, "check", dir, "--config", cfgPath, "--format", "json")
	require.NoError(t, err)

	var run report.Run
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.Equal(t, 1, run.Files)
	assert.Equal(t, 1, run.Totals.Warning)
	require.Len(t, run.Reports, 1)
	require.NotEmpty(t, run.Reports[0].Findings)
	assert.Equal(t, "naming-clarity", run.Reports[0].Findings[0].RuleID)
}

func TestCheck_UnknownRuleID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "calc.go", cleanSource)
	cfgPath := writeConfig(t, dir, "output:\n  fail_on: error\n")

	_, err := runCLI(t, "check", dir, "--config", cfgPath, "--rules", "no-such-rule")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown rule id "no-such-rule"`)
}

func TestCheck_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "calc.go", cleanSource)
	cfgPath := writeConfig(t, dir, "rules:\n  min_ident_length: 0\n")

	_, err := runCLI(t, "check", dir, "--config", cfgPath)
	require.Error(t, err)
	assert.True(t, config.IsConfigError(err))
	assert.Contains(t, err.Error(), "min_ident_length")
}

func TestCheck_UnparseableFileBecomesFinding(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.go", "package broken\n\nfunc oops( {\n")
	cfgPath := writeConfig(t, dir, "output:\n  fail_on: error\n")

	out, err := runCLI(t, "check", dir, "--config", cfgPath)
	assert.ErrorIs(t, err, errThresholdExceeded)
	assert.Contains(t, out, "broken.go")
	assert.Contains(t, out, "error:")
}

func TestCheck_SeverityOverrideFromConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "svc.go", shortIdentSource)
	cfgPath := writeConfig(t, dir, "rules:\n  severity:\n    naming-clarity: error\n")

	_, err := runCLI(t, "check", dir, "--config", cfgPath)
	assert.ErrorIs(t, err, errThresholdExceeded,
		"overriding naming-clarity to error severity must trip the default threshold")
}
