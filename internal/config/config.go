package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/oneboxhq/onebox/pkg/models"
)

// Accounts are numbered IMAP_USER_1 / IMAP_PASSWORD_1 / IMAP_HOST_1 and so
// on; a slot missing its user, password or host is skipped silently.
const maxAccounts = 8

// All accounts connect over implicit TLS on the standard IMAPS port.
const imapPort = 993

// Config application configuration
type Config struct {
	// Index
	IndexPath string `env:"INDEX_PATH" envDefault:"./data/onebox.db"`

	// Query API
	HTTPAddr    string   `env:"HTTP_ADDR" envDefault:":8080"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Ingestion
	BackfillWindow    time.Duration `env:"BACKFILL_WINDOW" envDefault:"720h"` // 30 days
	ClassifyInterval  time.Duration `env:"CLASSIFY_INTERVAL" envDefault:"21s"`
	IMAPDialTimeout   time.Duration `env:"IMAP_DIAL_TIMEOUT" envDefault:"30s"`
	ReconnectAttempts int           `env:"IMAP_RECONNECT_ATTEMPTS" envDefault:"3"`

	// Notifications (optional; unset disables the channel)
	SlackWebhookURL    string `env:"SLACK_WEBHOOK_URL"`
	ExternalWebhookURL string `env:"EXTERNAL_WEBHOOK_URL"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.ClassifyInterval < 0 {
		return nil, fmt.Errorf("CLASSIFY_INTERVAL must not be negative")
	}

	return cfg, nil
}

// Accounts reads the numbered account slots from the environment.
func Accounts() []models.Account {
	var accounts []models.Account
	for i := 1; i <= maxAccounts; i++ {
		user := os.Getenv(fmt.Sprintf("IMAP_USER_%d", i))
		password := os.Getenv(fmt.Sprintf("IMAP_PASSWORD_%d", i))
		host := os.Getenv(fmt.Sprintf("IMAP_HOST_%d", i))
		if user == "" || password == "" || host == "" {
			continue
		}
		accounts = append(accounts, models.Account{
			ID:       user,
			User:     user,
			Password: password,
			Host:     host,
			Port:     imapPort,
			TLS:      true,
		})
	}
	return accounts
}
