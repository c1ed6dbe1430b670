package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Values are read by viper from a config file or environment variables.
type Config struct {
	DatabaseURL      string `mapstructure:"DATABASE_URL"`
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	GeminiAPIKey     string `mapstructure:"GEMINI_API_KEY"`
	GroqAPIKey       string `mapstructure:"GROQ_API_KEY"`
	SessionSecret    string `mapstructure:"SESSION_SECRET"`
	HTTPAddr         string `mapstructure:"HTTP_ADDR"`
	PendingDBPath    string `mapstructure:"PENDING_DB_PATH"`
	LogLevel         string `mapstructure:"LOG_LEVEL"`
}

// LoadConfig reads configuration from file or environment variables.
// The Telegram token and AI keys are optional: with no token the bot
// surface stays off, and with no keys categorization falls back to the
// keyword heuristic.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Keys must be registered for AutomaticEnv to pick them up when no
	// config file exists.
	for _, key := range []string{
		"DATABASE_URL", "TELEGRAM_BOT_TOKEN", "GEMINI_API_KEY", "GROQ_API_KEY",
		"SESSION_SECRET", "HTTP_ADDR", "PENDING_DB_PATH", "LOG_LEVEL",
	} {
		viper.SetDefault(key, "")
	}

	err = viper.ReadInConfig()
	if err != nil {
		// A missing config file is fine as long as env vars cover the
		// required values.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if config.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is not set")
	}
	if config.SessionSecret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET is not set")
	}
	if config.HTTPAddr == "" {
		config.HTTPAddr = ":8080"
	}
	// PendingDBPath intentionally gets no default: an empty path runs the
	// pending store in-memory.
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	return config, nil
}
