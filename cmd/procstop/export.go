package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/MikeSquared-Agency/procstop/internal/analytics"
	"github.com/MikeSquared-Agency/procstop/internal/export"
	"github.com/MikeSquared-Agency/procstop/internal/hermes"
	"github.com/MikeSquared-Agency/procstop/internal/history"
	"github.com/MikeSquared-Agency/procstop/internal/store"
	"github.com/spf13/cobra"
)

func newSink(format, dir string) (export.Sink, error) {
	switch format {
	case "csv", "":
		return &export.CSVSink{Dir: dir}, nil
	case "xlsx":
		return &export.XLSXSink{Dir: dir}, nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// loadHistory reads one user's flattened history from Postgres.
func loadHistory(ctx context.Context, databaseURL, userID string, logger *slog.Logger) (*history.Tables, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := store.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return history.New(db, logger).Extract(ctx, userID)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := dirFlag
	if dir == "" {
		dir = cfg.ExportDir
	}
	sink, err := newSink(formatFlag, dir)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	tables, err := loadHistory(ctx, cfg.DatabaseURL, userFlag, slog.Default())
	if err != nil {
		return err
	}
	arts, err := export.WriteAll(ctx, sink, tables, slog.Default())
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), arts)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tables, err := loadHistory(cmd.Context(), cfg.DatabaseURL, userFlag, slog.Default())
	if err != nil {
		return err
	}
	summary, err := analytics.Summarize(tables)
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), summary)
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.NatsURL == "" {
		return fmt.Errorf("NATS_URL is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	err = client.SubscribeEvents(hermes.SubjectConversationWildcard, func(subject string, ev hermes.ConversationEvent) {
		fmt.Fprintf(out, "%s %s user=%s turn=%d mode=%s\n",
			subject, ev.ConversationID, ev.UserID, ev.Turn, ev.Mode)
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func writeReport(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
