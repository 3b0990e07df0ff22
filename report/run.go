package report

import (
	"time"

	"github.com/google/uuid"
)

// Run aggregates the reports of one analysis pass over a set of files.
// It is the unit of history storage and metric observation.
type Run struct {
	// ID uniquely identifies the run.
	ID string `json:"id"`

	// StartedAt and CompletedAt bound the run.
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`

	// Reports holds one entry per analyzed file, in deterministic
	// path order regardless of worker scheduling.
	Reports []Report `json:"reports"`

	// Totals aggregates finding counts across all reports.
	Totals Totals `json:"totals"`

	// Files counts analyzed files; FilesWithFindings counts those
	// that produced at least one finding.
	Files             int `json:"files"`
	FilesWithFindings int `json:"filesWithFindings"`
}

// NewRun creates an empty run stamped with a fresh ID and start time.
func NewRun() *Run {
	return &Run{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
}

// AddReport appends a file report and folds its totals into the run.
func (r *Run) AddReport(rep Report) {
	r.Reports = append(r.Reports, rep)
	r.Totals.Merge(rep.Totals)
	r.Files++
	if rep.HasFindings() {
		r.FilesWithFindings++
	}
}

// Finish stamps the completion time.
func (r *Run) Finish() {
	r.CompletedAt = time.Now().UTC()
}

// Duration returns the elapsed wall time of the run.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
