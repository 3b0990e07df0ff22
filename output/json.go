package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/c360studio/semlint/report"
)

// WriteJSON renders the full run as indented JSON. Each file report
// carries one record per finding with path, line, column, rule id,
// severity, and message.
func WriteJSON(w io.Writer, run *report.Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}
