package config

import (
	"os"
	"strconv"
	"time"

	"github.com/MikeSquared-Agency/vantage/internal/rules"
)

type Config struct {
	Port             int
	ModelBundle      string
	ModelLoadTimeout time.Duration
	NatsURL          string
	NatsToken        string
	DatabaseURL      string
	LogLevel         string
	APIToken         string
	SlackBotToken    string
	SlackChannel     string
	RunsDB           string
	Training         Training
}

// Training holds the defaults for synthetic generation and model fitting.
type Training struct {
	Rows        int
	Seed        int
	NoiseRate   float64
	Trees       int
	MaxDepth    int
	MinLeaf     int
	Folds       int
	MinAccuracy float64
}

func Load() Config {
	return Config{
		Port:             envInt("VANTAGE_PORT", 5001),
		ModelBundle:      envStr("VANTAGE_MODEL_BUNDLE", "ml/models/ui_model_bundle.json"),
		ModelLoadTimeout: envDuration("VANTAGE_MODEL_LOAD_TIMEOUT", 10*time.Second),
		NatsURL:          envStr("NATS_URL", ""),
		NatsToken:        envStr("NATS_TOKEN", ""),
		DatabaseURL:      envStr("DATABASE_URL", ""),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		APIToken:         envStr("VANTAGE_API_TOKEN", ""),
		SlackBotToken:    envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:     envStr("SLACK_TRAINING_CHANNEL", ""),
		RunsDB:           envStr("VANTAGE_RUNS_DB", "vantage_runs.db"),
		Training: Training{
			Rows:        envInt("VANTAGE_TRAIN_ROWS", 2000),
			Seed:        envInt("VANTAGE_TRAIN_SEED", 42),
			NoiseRate:   envFloat("VANTAGE_NOISE_RATE", rules.DefaultNoiseRate),
			Trees:       envInt("VANTAGE_TREES", 200),
			MaxDepth:    envInt("VANTAGE_MAX_DEPTH", 12),
			MinLeaf:     envInt("VANTAGE_MIN_LEAF", 3),
			Folds:       envInt("VANTAGE_CV_FOLDS", 5),
			MinAccuracy: envFloat("VANTAGE_MIN_ACCURACY", 0.85),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
