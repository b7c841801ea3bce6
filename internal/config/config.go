package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	BitqueryAPIKey   string
	TelegramBotToken string
	APIKey           string
	Port             int

	NumBins       int
	CacheTTLMins  int
	LookbackHours int
}

func Load() *Config {
	cfg := &Config{
		BitqueryAPIKey:   os.Getenv("BITQUERY_API_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		APIKey:           strings.TrimSpace(os.Getenv("API_KEY")),
	}

	if cfg.BitqueryAPIKey == "" {
		log.Println("Warning: BITQUERY_API_KEY not set, upstream queries will fail")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, bot will be disabled")
	}

	cfg.Port = 8080
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Port = n
		}
	}

	cfg.NumBins = 50
	if v := strings.TrimSpace(os.Getenv("NUM_BINS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.NumBins = n
		}
	}

	cfg.CacheTTLMins = 10
	if v := strings.TrimSpace(os.Getenv("CACHE_TTL_MINS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheTTLMins = n
		}
	}

	cfg.LookbackHours = 240
	if v := strings.TrimSpace(os.Getenv("LOOKBACK_HOURS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LookbackHours = n
		}
	}

	return cfg
}
