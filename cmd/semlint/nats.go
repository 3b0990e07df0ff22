package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/semlint/config"
	"github.com/c360studio/semlint/output"
	"github.com/c360studio/semlint/report"
	"github.com/c360studio/semlint/storage"
)

// connectNATS connects to the configured NATS server. The
// SEMLINT_NATS_URL environment variable overrides the configured URL.
func connectNATS(url string, logger *slog.Logger) (*nats.Conn, error) {
	if envURL := os.Getenv("SEMLINT_NATS_URL"); envURL != "" {
		url = envURL
	}

	logger.Info("Connecting to NATS", "url", url)

	nc, err := nats.Connect(url,
		nats.Name(appName),
		nats.MaxReconnects(2),
		nats.ReconnectWait(time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, wrapNATSError(err, url)
	}

	return nc, nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

Set nats.url in %s or the SEMLINT_NATS_URL environment variable to
point to your NATS server, or leave it empty to disable publishing.`,
			err, url, config.ProjectConfigFile)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}

// publishRun sends the run's findings to the configured subject and
// stores the run in the history bucket. The report was already rendered
// at this point, so failures degrade to warnings instead of failing the
// command.
func publishRun(ctx context.Context, cfg *config.Config, run *report.Run, logger *slog.Logger) {
	nc, err := connectNATS(cfg.NATS.URL, logger)
	if err != nil {
		logger.Warn("Skipping NATS publish", "error", err)
		return
	}
	defer nc.Close()

	publisher := output.NewPublisher(nc, cfg.NATS.Subject, logger)
	if err := publisher.PublishRun(ctx, run); err != nil {
		logger.Warn("Failed to publish findings", "run_id", run.ID, "error", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		logger.Warn("Failed to open JetStream", "error", err)
		return
	}

	store, err := storage.NewRunStore(ctx, js, cfg.NATS.HistoryBucket)
	if err != nil {
		logger.Warn("Failed to open run history", "error", err)
		return
	}

	if err := store.Save(ctx, run); err != nil {
		logger.Warn("Failed to store run", "run_id", run.ID, "error", err)
		return
	}

	logger.Debug("Stored run history", "run_id", run.ID)
}
