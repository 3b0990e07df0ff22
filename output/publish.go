package output

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/c360studio/semlint/report"
)

// DefaultSubject is the subject findings are published to when the
// configuration does not name one.
const DefaultSubject = "semlint.finding"

// FindingMessage is the wire format for one published finding.
type FindingMessage struct {
	RunID    string `json:"run_id"`
	Path     string `json:"path"`
	RuleID   string `json:"rule_id,omitempty"`
	Severity string `json:"severity"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
}

// Publisher emits findings to a NATS subject so downstream consumers
// can track style drift across runs.
type Publisher struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewPublisher creates a publisher for the given subject. A nil
// connection is allowed and turns every publish into a no-op.
func NewPublisher(nc *nats.Conn, subject string, logger *slog.Logger) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{nc: nc, subject: subject, logger: logger}
}

// PublishRun publishes one message per finding in the run.
func (p *Publisher) PublishRun(ctx context.Context, run *report.Run) error {
	if p == nil || p.nc == nil {
		return nil // Skip publishing if no NATS client (graceful degradation)
	}

	published := 0
	for i := range run.Reports {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, f := range run.Reports[i].Findings {
			msg := FindingMessage{
				RunID:    run.ID,
				Path:     f.Path,
				RuleID:   f.RuleID,
				Severity: f.Severity.String(),
				Line:     f.Line,
				Column:   f.Column,
				Message:  f.Message,
			}
			data, err := json.Marshal(msg)
			if err != nil {
				return fmt.Errorf("marshal finding: %w", err)
			}
			if err := p.nc.Publish(p.subject, data); err != nil {
				return fmt.Errorf("publish finding: %w", err)
			}
			published++
		}
	}

	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush findings: %w", err)
	}

	p.logger.Debug("published findings",
		"run_id", run.ID,
		"count", published,
		"subject", p.subject)
	return nil
}
