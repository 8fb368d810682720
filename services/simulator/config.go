package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultInterval = 10 * time.Second
	defaultDevices  = 3
	defaultPlant    = "lettuce"
	defaultStage    = "vegetative"
)

// Config holds runtime configuration for the simulator.
type Config struct {
	ControllerURL string
	BearerToken   string
	Interval      time.Duration
	Devices       int
	Plant         string
	Stage         string
	DryRun        bool
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		Interval: defaultInterval,
		Devices:  defaultDevices,
		Plant:    defaultPlant,
		Stage:    defaultStage,
	}

	cfg.ControllerURL = strings.TrimSpace(os.Getenv("CONTROLLER_URL"))
	if cfg.ControllerURL == "" {
		return cfg, errors.New("CONTROLLER_URL is required")
	}
	cfg.ControllerURL = strings.TrimRight(cfg.ControllerURL, "/")

	cfg.BearerToken = os.Getenv("API_BEARER_TOKEN")

	if v := strings.TrimSpace(os.Getenv("SIM_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid SIM_INTERVAL: %w", err)
		}
		cfg.Interval = d
	}

	if v := strings.TrimSpace(os.Getenv("SIM_DEVICES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid SIM_DEVICES: %s", v)
		}
		cfg.Devices = n
	}

	if v := strings.TrimSpace(os.Getenv("SIM_PLANT")); v != "" {
		cfg.Plant = v
	}
	if v := strings.TrimSpace(os.Getenv("SIM_STAGE")); v != "" {
		cfg.Stage = v
	}

	dryRun := strings.TrimSpace(os.Getenv("DRY_RUN"))
	cfg.DryRun = dryRun == "1" || strings.EqualFold(dryRun, "true")

	return cfg, nil
}
