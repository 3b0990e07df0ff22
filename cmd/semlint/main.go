// Package main provides the semlint binary entry point.
// Semlint is a style linter that parses source files into a structural
// view and evaluates configurable rules against them.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	// Register language frontends via init()
	_ "github.com/c360studio/semlint/source/golang"
	_ "github.com/c360studio/semlint/source/java"
	_ "github.com/c360studio/semlint/source/javascript"
	_ "github.com/c360studio/semlint/source/python"

	"github.com/c360studio/semlint/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semlint"
)

// errThresholdExceeded marks a run whose findings reached the fail-on
// severity. It separates exit status 1 (findings) from 2 (failure).
var errThresholdExceeded = errors.New("findings at or above the fail-on threshold")

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		if errors.Is(err, errThresholdExceeded) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

// rootOptions carries the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "semlint",
		Short: "Structural style linter for source trees",
		Long: `Semlint parses source files into a structural view and evaluates
style rules against them: identifier naming, unit size, action-verb
consistency, unsafe query construction, swallowed failures, and
unbatched asynchronous loops.

Findings print one per line with file position, severity, and rule id.
The exit status is 0 when no finding reaches the fail-on threshold,
1 when one does, and 2 on operational failure.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(opts.logLevel)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newCheckCmd(opts),
		newWatchCmd(opts),
		newRulesCmd(),
		newHistoryCmd(opts),
		versionCmd(),
	)

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

// setupLogging configures the default slog logger. Diagnostics go to
// stderr so stdout stays parseable report output.
func setupLogging(logLevel string) *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// loadConfig loads layered configuration and applies the explicit
// config path when given.
func loadConfig(opts *rootOptions, logger *slog.Logger) (*config.Config, error) {
	loader := config.NewLoader(logger)
	return loader.Load(opts.configPath)
}
