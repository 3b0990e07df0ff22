package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with the given arguments and returns
// the combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := rootCmd()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"check", "watch", "rules", "history", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "semlint version "+Version)
}

func TestRulesCmd(t *testing.T) {
	out, err := runCLI(t, "rules")
	require.NoError(t, err)

	for _, id := range []string{
		"naming-clarity",
		"unit-size",
		"crud-consistency",
		"unsafe-query-concat",
		"swallowed-failure",
		"unbatched-async-loop",
	} {
		assert.Contains(t, out, id)
	}
}
