// Package config provides configuration loading and management for
// semlint.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/semlint/report"
	"github.com/c360studio/semlint/rules"
)

// Config represents the complete semlint configuration.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Rules    RulesConfig    `yaml:"rules"`
	Output   OutputConfig   `yaml:"output"`
	NATS     NATSConfig     `yaml:"nats"`
}

// AnalysisConfig configures file discovery and the worker pool.
type AnalysisConfig struct {
	// Include restricts analysis to paths matching these globs
	// (empty = every supported file).
	Include []string `yaml:"include"`
	// Exclude drops paths matching these globs.
	Exclude []string `yaml:"exclude"`
	// Workers is the analysis pool size (0 = CPU count).
	Workers int `yaml:"workers"`
}

// RulesConfig configures which rules run and their thresholds.
type RulesConfig struct {
	// Enabled lists the rule ids to run (empty = all registered).
	Enabled []string `yaml:"enabled"`
	// MinIdentLength is the shortest acceptable identifier length.
	MinIdentLength int `yaml:"min_ident_length"`
	// ShortNameAllowlist exempts conventional short names.
	ShortNameAllowlist []string `yaml:"short_name_allowlist"`
	// MaxUnitStatements is the statement threshold per function.
	MaxUnitStatements int `yaml:"max_unit_statements"`
	// MaxBranches is the branch threshold per function.
	MaxBranches int `yaml:"max_branches"`
	// SinkPatterns name callees that execute queries or commands.
	SinkPatterns []string `yaml:"sink_patterns"`
	// AsyncPatterns name callees treated as asynchronous.
	AsyncPatterns []string `yaml:"async_patterns"`
	// BatchPatterns name callees that batch or limit concurrency.
	BatchPatterns []string `yaml:"batch_patterns"`
	// LogPatterns name callees that only record a message.
	LogPatterns []string `yaml:"log_patterns"`
	// Severity overrides the default severity per rule id
	// (info|warning|error).
	Severity map[string]string `yaml:"severity"`
}

// OutputConfig configures report rendering and the exit threshold.
type OutputConfig struct {
	// Format is the report format (text|json).
	Format string `yaml:"format"`
	// FailOn is the minimum severity causing a non-zero exit
	// (info|warning|error|never).
	FailOn string `yaml:"fail_on"`
}

// NATSConfig configures finding publication and run history.
type NATSConfig struct {
	// URL is the NATS server URL (empty = publishing disabled).
	URL string `yaml:"url"`
	// Subject is the subject findings are published to.
	Subject string `yaml:"subject"`
	// HistoryBucket is the KV bucket storing run history.
	HistoryBucket string `yaml:"history_bucket"`
}

// DefaultConfig returns a Config mirroring the built-in rule options.
func DefaultConfig() *Config {
	opts := rules.DefaultOptions()

	allow := make([]string, 0, len(opts.ShortAllowlist))
	for name := range opts.ShortAllowlist {
		allow = append(allow, name)
	}
	sort.Strings(allow)

	return &Config{
		Analysis: AnalysisConfig{
			Workers: 0, // CPU count
		},
		Rules: RulesConfig{
			MinIdentLength:     opts.MinIdentLength,
			ShortNameAllowlist: allow,
			MaxUnitStatements:  opts.MaxUnitStatements,
			MaxBranches:        opts.MaxBranches,
			SinkPatterns:       opts.SinkPatterns,
			AsyncPatterns:      opts.AsyncPatterns,
			BatchPatterns:      opts.BatchPatterns,
			LogPatterns:        opts.LogPatterns,
			Severity:           map[string]string{},
		},
		Output: OutputConfig{
			Format: "text",
			FailOn: "error",
		},
		NATS: NATSConfig{
			URL:           "",
			Subject:       "semlint.finding",
			HistoryBucket: "SEMLINT_RUNS",
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Analysis.Workers < 0 {
		return &ConfigError{Field: "analysis.workers", Reason: "must not be negative"}
	}
	if err := validatePatterns("analysis.include", c.Analysis.Include); err != nil {
		return err
	}
	if err := validatePatterns("analysis.exclude", c.Analysis.Exclude); err != nil {
		return err
	}

	if c.Rules.MinIdentLength < 1 {
		return &ConfigError{Field: "rules.min_ident_length", Reason: "must be at least 1"}
	}
	if c.Rules.MaxUnitStatements < 1 {
		return &ConfigError{Field: "rules.max_unit_statements", Reason: "must be at least 1"}
	}
	if c.Rules.MaxBranches < 1 {
		return &ConfigError{Field: "rules.max_branches", Reason: "must be at least 1"}
	}
	for field, patterns := range map[string][]string{
		"rules.sink_patterns":  c.Rules.SinkPatterns,
		"rules.async_patterns": c.Rules.AsyncPatterns,
		"rules.batch_patterns": c.Rules.BatchPatterns,
		"rules.log_patterns":   c.Rules.LogPatterns,
	} {
		if err := validatePatterns(field, patterns); err != nil {
			return err
		}
	}
	for id, value := range c.Rules.Severity {
		if _, err := report.ParseSeverity(value); err != nil {
			return &ConfigError{
				Field:  "rules.severity." + id,
				Reason: fmt.Sprintf("unknown severity %q", value),
			}
		}
	}

	switch c.Output.Format {
	case "text", "json":
	default:
		return &ConfigError{
			Field:  "output.format",
			Reason: fmt.Sprintf("unknown format %q, expected text or json", c.Output.Format),
		}
	}
	switch c.Output.FailOn {
	case "info", "warning", "error", "never":
	default:
		return &ConfigError{
			Field:  "output.fail_on",
			Reason: fmt.Sprintf("unknown threshold %q, expected info, warning, error, or never", c.Output.FailOn),
		}
	}

	return nil
}

// validatePatterns rejects malformed glob patterns.
func validatePatterns(field string, patterns []string) error {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return &ConfigError{
				Field:  field,
				Reason: fmt.Sprintf("malformed pattern %q", pattern),
			}
		}
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence
// for non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Analysis
	if len(other.Analysis.Include) > 0 {
		c.Analysis.Include = other.Analysis.Include
	}
	if len(other.Analysis.Exclude) > 0 {
		c.Analysis.Exclude = other.Analysis.Exclude
	}
	if other.Analysis.Workers != 0 {
		c.Analysis.Workers = other.Analysis.Workers
	}

	// Rules
	if len(other.Rules.Enabled) > 0 {
		c.Rules.Enabled = other.Rules.Enabled
	}
	if other.Rules.MinIdentLength != 0 {
		c.Rules.MinIdentLength = other.Rules.MinIdentLength
	}
	if len(other.Rules.ShortNameAllowlist) > 0 {
		c.Rules.ShortNameAllowlist = other.Rules.ShortNameAllowlist
	}
	if other.Rules.MaxUnitStatements != 0 {
		c.Rules.MaxUnitStatements = other.Rules.MaxUnitStatements
	}
	if other.Rules.MaxBranches != 0 {
		c.Rules.MaxBranches = other.Rules.MaxBranches
	}
	if len(other.Rules.SinkPatterns) > 0 {
		c.Rules.SinkPatterns = other.Rules.SinkPatterns
	}
	if len(other.Rules.AsyncPatterns) > 0 {
		c.Rules.AsyncPatterns = other.Rules.AsyncPatterns
	}
	if len(other.Rules.BatchPatterns) > 0 {
		c.Rules.BatchPatterns = other.Rules.BatchPatterns
	}
	if len(other.Rules.LogPatterns) > 0 {
		c.Rules.LogPatterns = other.Rules.LogPatterns
	}
	if len(other.Rules.Severity) > 0 {
		c.Rules.Severity = other.Rules.Severity
	}

	// Output
	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}
	if other.Output.FailOn != "" {
		c.Output.FailOn = other.Output.FailOn
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}
	if other.NATS.HistoryBucket != "" {
		c.NATS.HistoryBucket = other.NATS.HistoryBucket
	}
}

// RuleOptions converts the rules section into evaluator options. The
// config must be validated first.
func (c *Config) RuleOptions() *rules.Options {
	allow := make(map[string]bool, len(c.Rules.ShortNameAllowlist))
	for _, name := range c.Rules.ShortNameAllowlist {
		allow[strings.ToLower(name)] = true
	}

	severity := make(map[string]report.Severity, len(c.Rules.Severity))
	for id, value := range c.Rules.Severity {
		if s, err := report.ParseSeverity(value); err == nil {
			severity[id] = s
		}
	}

	return &rules.Options{
		MinIdentLength:    c.Rules.MinIdentLength,
		ShortAllowlist:    allow,
		MaxUnitStatements: c.Rules.MaxUnitStatements,
		MaxBranches:       c.Rules.MaxBranches,
		SinkPatterns:      c.Rules.SinkPatterns,
		AsyncPatterns:     c.Rules.AsyncPatterns,
		BatchPatterns:     c.Rules.BatchPatterns,
		LogPatterns:       c.Rules.LogPatterns,
		Severity:          severity,
	}
}

// FailOnSeverity returns the exit threshold. The second return is
// false when findings never fail the run.
func (c *Config) FailOnSeverity() (report.Severity, bool) {
	if c.Output.FailOn == "never" {
		return report.SeverityError, false
	}
	s, err := report.ParseSeverity(c.Output.FailOn)
	if err != nil {
		return report.SeverityError, true
	}
	return s, true
}
