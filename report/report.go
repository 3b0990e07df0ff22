package report

// Totals counts findings by severity.
type Totals struct {
	Info    int `json:"info"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
}

// Add counts one finding of the given severity.
func (t *Totals) Add(s Severity) {
	switch s {
	case SeverityInfo:
		t.Info++
	case SeverityWarning:
		t.Warning++
	case SeverityError:
		t.Error++
	}
}

// Merge accumulates another Totals into this one.
func (t *Totals) Merge(other Totals) {
	t.Info += other.Info
	t.Warning += other.Warning
	t.Error += other.Error
}

// Sum returns the total number of findings across severities.
func (t Totals) Sum() int {
	return t.Info + t.Warning + t.Error
}

// Reaches reports whether any counted finding is at or above min.
func (t Totals) Reaches(min Severity) bool {
	switch min {
	case SeverityInfo:
		return t.Sum() > 0
	case SeverityWarning:
		return t.Warning+t.Error > 0
	case SeverityError:
		return t.Error > 0
	}
	return false
}

// Report holds the ordered findings for one analyzed file.
// Findings are sorted by (line, column, rule id) before the report
// is returned to callers.
type Report struct {
	Path     string    `json:"path"`
	Findings []Finding `json:"findings"`
	Totals   Totals    `json:"totals"`
}

// HasFindings reports whether the report contains any finding.
func (r *Report) HasFindings() bool {
	return len(r.Findings) > 0
}
