package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	BotToken        string
	DeveloperChatID int64

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	PayPalLink  string
	ReceiptsDir string
}

// Load reads configuration from the environment, falling back to .env
func Load() (*Config, error) {
	// A missing .env file is fine, real env vars take precedence anyway.
	_ = godotenv.Load()

	getEnv := func(key, defaultValue string) string {
		if value := os.Getenv(key); value != "" {
			return value
		}
		return defaultValue
	}

	cfg := &Config{
		BotToken: getEnv("TELEGRAM_TOKEN", ""),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "medical_bot"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		PayPalLink:  getEnv("PAYPAL_ME_LINK", ""),
		ReceiptsDir: getEnv("RECEIPTS_DIR", "receipts"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	devChatID, err := strconv.ParseInt(getEnv("DEVELOPER_CHAT_ID", "0"), 10, 64)
	if err != nil || devChatID == 0 {
		return nil, fmt.Errorf("DEVELOPER_CHAT_ID must be a non-zero telegram chat id")
	}
	cfg.DeveloperChatID = devChatID

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("SMTP_PORT must be a number: %w", err)
	}
	cfg.SMTPPort = smtpPort

	return cfg, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// EmailEnabled reports whether the SMTP relay is configured
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUser != ""
}
