package config

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
	defaultPort        = 8080
	defaultStartHour   = 6
	defaultRampMinutes = 60
	defaultSettle      = 120 * time.Second
	defaultPPMExec     = 120 * time.Second
	defaultToleranceCM = 2.0
	defaultKafkaTopic  = "verdant.decisions"
)

// Config holds environment-driven settings for the controller service.
type Config struct {
	DatabaseURL string
	Port        int
	BearerToken string

	StartHour   int
	RampMinutes int
	Settle      time.Duration
	PPMExec     time.Duration
	ToleranceCM float64

	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:        defaultPort,
		StartHour:   defaultStartHour,
		RampMinutes: defaultRampMinutes,
		Settle:      defaultSettle,
		PPMExec:     defaultPPMExec,
		ToleranceCM: defaultToleranceCM,
		KafkaTopic:  defaultKafkaTopic,
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
		cfg.Port = port
	}

	cfg.BearerToken = os.Getenv("API_BEARER_TOKEN")

	if v := os.Getenv("LIGHT_START_HOUR"); v != "" {
		hour, err := strconv.Atoi(v)
		if err != nil || hour < 0 || hour > 23 {
			return cfg, fmt.Errorf("invalid LIGHT_START_HOUR: %s", v)
		}
		cfg.StartHour = hour
	}

	if v := os.Getenv("LIGHT_RAMP_MINUTES"); v != "" {
		mins, err := strconv.Atoi(v)
		if err != nil || mins < 0 {
			return cfg, fmt.Errorf("invalid LIGHT_RAMP_MINUTES: %s", v)
		}
		cfg.RampMinutes = mins
	}

	var err error
	if cfg.Settle, err = msEnv("DOSE_SETTLE_MS", cfg.Settle); err != nil {
		return cfg, err
	}
	if cfg.PPMExec, err = msEnv("PPM_EXEC_MS", cfg.PPMExec); err != nil {
		return cfg, err
	}

	if v := os.Getenv("LIGHT_DISTANCE_TOLERANCE_CM"); v != "" {
		tol, err := strconv.ParseFloat(v, 64)
		if err != nil || tol < 0 {
			return cfg, fmt.Errorf("invalid LIGHT_DISTANCE_TOLERANCE_CM: %s", v)
		}
		cfg.ToleranceCM = tol
	}

	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("KAFKA_TOPIC")); v != "" {
		cfg.KafkaTopic = v
	}

	return cfg, nil
}

func msEnv(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms <= 0 {
		return fallback, fmt.Errorf("invalid %s: %s", name, v)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// KafkaEnabled reports whether decision events should be published.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
