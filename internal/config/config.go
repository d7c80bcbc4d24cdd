package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	HTTPAddr       string
	AllowedOrigins []string

	RedisURL    string
	DatabaseURL string

	AIDifficulty string
	AIRandomRate float64

	SessionTTLSec    int
	OnlineGameTTLSec int

	DefaultXOPoints    int
	LeaderboardLimit   int
	RecentMatchesLimit int

	MsgCatalogDir string

	NotifyWebhookURL string
	NotifyToken      string
	NotifyTimeoutMS  int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:           ":8080",
		AIDifficulty:       "standard",
		AIRandomRate:       0.2,
		SessionTTLSec:      86400,
		OnlineGameTTLSec:   86400,
		DefaultXOPoints:    6000,
		LeaderboardLimit:   50,
		RecentMatchesLimit: 5,
		NotifyTimeoutMS:    5000,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.AllowedOrigins = splitCSV(os.Getenv("ALLOWED_ORIGINS"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("AI_DIFFICULTY")); v != "" {
		cfg.AIDifficulty = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("AI_RANDOM_RATE")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return nil, fmt.Errorf("AI_RANDOM_RATE must be within [0,1]: %q", v)
		}
		cfg.AIRandomRate = f
	}

	setPositiveInt("SESSION_TTL_SEC", &cfg.SessionTTLSec)
	setPositiveInt("ONLINE_GAME_TTL_SEC", &cfg.OnlineGameTTLSec)
	setPositiveInt("DEFAULT_XO_POINTS", &cfg.DefaultXOPoints)
	setPositiveInt("LEADERBOARD_LIMIT", &cfg.LeaderboardLimit)
	setPositiveInt("RECENT_MATCHES_LIMIT", &cfg.RecentMatchesLimit)
	setPositiveInt("NOTIFY_TIMEOUT_MS", &cfg.NotifyTimeoutMS)

	cfg.MsgCatalogDir = strings.TrimSpace(os.Getenv("MSG_CATALOG_DIR"))

	cfg.NotifyWebhookURL = strings.TrimSpace(os.Getenv("NOTIFY_WEBHOOK_URL"))
	cfg.NotifyToken = strings.TrimSpace(os.Getenv("NOTIFY_TOKEN"))

	switch cfg.AIDifficulty {
	case "standard", "medium", "normal", "maximum", "hard", "max":
	default:
		return nil, fmt.Errorf("AI_DIFFICULTY is invalid: %s", cfg.AIDifficulty)
	}
	if cfg.NotifyToken != "" && cfg.NotifyWebhookURL == "" {
		return nil, errors.New("NOTIFY_WEBHOOK_URL is required when NOTIFY_TOKEN is set")
	}

	return cfg, nil
}

func setPositiveInt(key string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func splitCSV(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
