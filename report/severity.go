package report

import "fmt"

// Severity classifies how serious a finding is.
// The ordering is significant: Info < Warning < Error.
type Severity int

const (
	// SeverityInfo marks advisory findings that never fail a run by default.
	SeverityInfo Severity = iota

	// SeverityWarning marks findings that deserve attention.
	SeverityWarning

	// SeverityError marks findings that fail a run under the default threshold.
	SeverityError
)

var severityNames = map[Severity]string{
	SeverityInfo:    "info",
	SeverityWarning: "warning",
	SeverityError:   "error",
}

var severityValues = map[string]Severity{
	"info":    SeverityInfo,
	"warning": SeverityWarning,
	"error":   SeverityError,
}

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// ParseSeverity converts a severity name into a Severity value.
func ParseSeverity(name string) (Severity, error) {
	s, ok := severityValues[name]
	if !ok {
		return 0, fmt.Errorf("unknown severity: %q", name)
	}
	return s, nil
}

// MarshalText implements encoding.TextMarshaler so severities
// serialize as their names in both JSON and YAML.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
