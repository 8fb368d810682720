package main

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := Load()
	if err != nil {
		log.Error("config error", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	devices := make([]*Device, 0, cfg.Devices)
	for i := 0; i < cfg.Devices; i++ {
		d := NewDevice(cfg.Plant, cfg.Stage, rng)
		devices = append(devices, d)
		log.Info("device seeded", "device", d.ID, "plant", d.Plant, "stage", d.Stage)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("simulator running", "controller", cfg.ControllerURL, "interval", cfg.Interval, "devices", len(devices))

	for {
		select {
		case <-ctx.Done():
			log.Info("simulator exiting")
			return
		case <-ticker.C:
			now := time.Now().UTC()
			for _, d := range devices {
				d.Step(rng)
				sample := d.Sample(now)

				if cfg.DryRun {
					log.Info("dry-run: would post sample", "device", d.ID, "ph", sample.PH, "ppm", sample.PPM)
					continue
				}

				decision, err := PostSample(ctx, client, cfg.ControllerURL, cfg.BearerToken, sample)
				if err != nil {
					log.Error("post failed", "device", d.ID, "err", err)
					continue
				}
				d.Apply(decision.Command)
				log.Info("decision applied",
					"device", d.ID,
					"brightness", decision.Command.LightBrightness,
					"motor", decision.Command.LightMotor,
					"ph_up", decision.Command.PHUp,
					"ph_down", decision.Command.PHDown,
					"nutrient", decision.Command.NutrientA,
				)
			}
		}
	}
}
