package report

import "fmt"

// Finding is one reported rule violation with its location and severity.
// RuleID is empty for file-level failures (unreadable or unparseable
// files) that are surfaced as findings rather than attributed to a rule.
type Finding struct {
	// Path is the analyzed file, relative to the working directory.
	Path string `json:"path"`

	// RuleID identifies the rule that produced the finding.
	RuleID string `json:"ruleId,omitempty"`

	// Severity classifies the finding.
	Severity Severity `json:"severity"`

	// Location in source. Line and Column are 1-based; a zero line
	// marks a file-level finding with no specific position.
	Line      int `json:"line"`
	Column    int `json:"column"`
	EndLine   int `json:"endLine,omitempty"`
	EndColumn int `json:"endColumn,omitempty"`

	// Message is the human-readable description.
	Message string `json:"message"`
}

// String renders the finding in the conventional path:line:col format.
func (f Finding) String() string {
	if f.Line == 0 {
		return fmt.Sprintf("%s: %s: %s", f.Path, f.Severity, f.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", f.Path, f.Line, f.Column, f.Severity, f.Message)
}
