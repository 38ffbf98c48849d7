package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/procstop/internal/api"
	"github.com/MikeSquared-Agency/procstop/internal/chat"
	"github.com/MikeSquared-Agency/procstop/internal/hermes"
	"github.com/MikeSquared-Agency/procstop/internal/history"
	"github.com/MikeSquared-Agency/procstop/internal/session"
	"github.com/MikeSquared-Agency/procstop/internal/store"
	"github.com/spf13/cobra"
)

// conversationStore is what serve needs from either store.
type conversationStore interface {
	chat.ConversationStore
	history.Finder
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()
	logger.Info("procstop starting", "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Store
	var st conversationStore
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		st = db
		logger.Info("database connected")
	} else {
		st = store.NewMemory()
		logger.Warn("DATABASE_URL not set, conversations are kept in memory only")
	}

	ext, err := newExtractor(cfg, logger)
	if err != nil {
		return err
	}
	comp, err := newCompleter(cfg)
	if err != nil {
		return err
	}
	logger.Info("models ready", "provider", cfg.LLMProvider, "model", cfg.Model)

	registry := session.NewRegistry()
	svc := chat.New(ext, comp, st, registry, logger)

	// NATS/Hermes (optional)
	var events *hermes.Client
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			return err
		}
		defer hermesClient.Close()
		svc.SetPublisher(hermesClient)
		events = hermesClient
		logger.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		logger.Warn("NATS_URL not set, running without conversation events")
	}

	sweeper := session.NewSweeper(registry, cfg.SessionIdleTimeout, logger)
	sweeper.OnEvict = svc.Evicted
	if err := sweeper.Start(cfg.SweepSchedule); err != nil {
		return err
	}
	defer sweeper.Stop()

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, svc, history.New(st, logger), logger)
	srv.SetLanguage(cfg.Language)
	if events != nil {
		srv.SetEvents(events)
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("procstop ready", "port", cfg.Port)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", "error", err)
	}
	logger.Info("procstop stopped")
	return nil
}
