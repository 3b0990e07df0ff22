package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/c360studio/semlint/config"
	"github.com/c360studio/semlint/output"
	"github.com/c360studio/semlint/storage"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var (
		format  string
		natsURL string
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List stored analysis runs, or show one run in full",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()

			cfg, err := loadConfig(root, logger)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("nats-url") {
				cfg.NATS.URL = natsURL
			}
			if cfg.NATS.URL == "" {
				return fmt.Errorf("run history requires a NATS server; set nats.url in %s or pass --nats-url", config.ProjectConfigFile)
			}

			nc, err := connectNATS(cfg.NATS.URL, logger)
			if err != nil {
				return err
			}
			defer nc.Close()

			js, err := jetstream.New(nc)
			if err != nil {
				return fmt.Errorf("open JetStream: %w", err)
			}

			store, err := storage.NewRunStore(cmd.Context(), js, cfg.NATS.HistoryBucket)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return showRun(cmd, store, args[0], format)
			}
			return listRuns(cmd, store)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Report format for a single run (text, json)")
	cmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server URL")

	return cmd
}

func listRuns(cmd *cobra.Command, store *storage.RunStore) error {
	runs, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no stored runs")
		return err
	}

	fmt.Fprintf(w, "%-36s  %-20s  %5s  %s\n", "ID", "STARTED", "FILES", "FINDINGS")
	for _, run := range runs {
		fmt.Fprintf(w, "%-36s  %-20s  %5d  %s\n",
			run.ID,
			run.StartedAt.Format(time.RFC3339),
			run.Files,
			output.DescribeTotals(run.Totals))
	}
	return nil
}

func showRun(cmd *cobra.Command, store *storage.RunStore, id, format string) error {
	run, err := store.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if format != output.FormatJSON {
		fmt.Fprintf(w, "run %s started %s took %s\n\n",
			run.ID,
			run.StartedAt.Format(time.RFC3339),
			run.Duration().Round(time.Millisecond))
	}
	return output.Write(w, run, format)
}
