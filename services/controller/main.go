package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mossline/verdant-controller/services/controller/config"
	"github.com/mossline/verdant-controller/services/controller/db"
	"github.com/mossline/verdant-controller/services/controller/engine"
	httpserver "github.com/mossline/verdant-controller/services/controller/http"
	"github.com/mossline/verdant-controller/services/controller/telemetry"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		log.Error("config error", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connection error", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	var publisher *telemetry.Publisher
	if cfg.KafkaEnabled() {
		publisher = telemetry.New(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer publisher.Close()
		log.Info("decision events enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	eng := engine.New(store, store, engine.Params{
		StartHour:   cfg.StartHour,
		RampMinutes: cfg.RampMinutes,
		Settle:      cfg.Settle,
		PPMExec:     cfg.PPMExec,
		ToleranceCM: cfg.ToleranceCM,
	}, log, nil)

	srv := httpserver.New(cfg, store, eng, publisher)
	log.Info("controller API listening", "addr", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		log.Error("server error", "err", err)
		os.Exit(1)
	}
}
