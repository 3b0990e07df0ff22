// Package output renders analysis runs for terminals, machines, and
// downstream NATS consumers.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/c360studio/semlint/report"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Write renders the run to w in the named format.
func Write(w io.Writer, run *report.Run, format string) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, run)
	case FormatText, "":
		return WriteText(w, run)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteText renders findings one per line in path:line:column order,
// followed by a severity count for each file with findings and a
// closing total for the run.
func WriteText(w io.Writer, run *report.Run) error {
	var sb strings.Builder

	for i := range run.Reports {
		rep := &run.Reports[i]
		if !rep.HasFindings() {
			continue
		}
		for _, f := range rep.Findings {
			sb.WriteString(f.String())
			if f.RuleID != "" {
				sb.WriteString(" (")
				sb.WriteString(f.RuleID)
				sb.WriteString(")")
			}
			sb.WriteByte('\n')
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n\n", rep.Path, DescribeTotals(rep.Totals)))
	}

	sb.WriteString(fmt.Sprintf("%d files analyzed, %d with findings: %s\n",
		run.Files, run.FilesWithFindings, DescribeTotals(run.Totals)))

	_, err := io.WriteString(w, sb.String())
	return err
}

// DescribeTotals renders severity counts, highest severity first,
// skipping zero counts.
func DescribeTotals(t report.Totals) string {
	if t.Sum() == 0 {
		return "no findings"
	}
	parts := make([]string, 0, 3)
	if t.Error > 0 {
		parts = append(parts, plural(t.Error, "error"))
	}
	if t.Warning > 0 {
		parts = append(parts, plural(t.Warning, "warning"))
	}
	if t.Info > 0 {
		parts = append(parts, fmt.Sprintf("%d info", t.Info))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
