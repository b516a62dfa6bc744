package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the process reads from the environment.
type Config struct {
	Port         int
	DatabasePath string

	// Metadata provider
	RawgAPIKey  string
	RawgBaseURL string

	// Cover images
	ImageDir       string
	ImageCacheSize int

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from a .env file (if present) and the process
// environment. Only the provider API key is required.
func Load(logger *slog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Missing .env is fine, the system environment still applies.
		logger.Debug("No .env file loaded", slog.Any("error", err))
	}

	cfg := &Config{}

	if err := loadInt(&cfg.Port, "PORT", 8080); err != nil {
		return nil, err
	}
	loadString(&cfg.DatabasePath, "DATABASE_PATH", "backlog.db")
	if err := loadRequired(&cfg.RawgAPIKey, "RAWG_API_KEY"); err != nil {
		return nil, err
	}
	loadString(&cfg.RawgBaseURL, "RAWG_BASE_URL", "https://api.rawg.io/api")
	loadString(&cfg.ImageDir, "IMAGE_DIR", "game_images")
	if err := loadInt(&cfg.ImageCacheSize, "IMAGE_CACHE_SIZE", 128); err != nil {
		return nil, err
	}
	loadString(&cfg.LogLevel, "LOG_LEVEL", "info")
	loadString(&cfg.LogFormat, "LOG_FORMAT", "json")

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.ImageCacheSize < 1 {
		return fmt.Errorf("IMAGE_CACHE_SIZE must be positive")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json")
	}
	return nil
}

// SlogLevel maps the configured level name onto a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadString(target *string, key, defaultValue string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
}

func loadRequired(target *string, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return fmt.Errorf("required environment variable %s is not set", key)
	}
	*target = value
	return nil
}

func loadInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}
