// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
//
// The values are read by viper from an optional app.env file and environment variables.
// Environment variables take precedence.
type Config struct {
	LedgerFile     string        `mapstructure:"LEDGER_FILE"`
	ServerAddress  string        `mapstructure:"SERVER_ADDRESS"`
	Environment    string        `mapstructure:"GO_ENV"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	MaxIDAttempts  int           `mapstructure:"MAX_ID_ATTEMPTS"`
	LockRetryDelay time.Duration `mapstructure:"LOCK_RETRY_DELAY"`
}

var defaults = map[string]any{
	"LEDGER_FILE":      "accounts.txt",
	"SERVER_ADDRESS":   "127.0.0.1:8080",
	"GO_ENV":           "production",
	"LOG_LEVEL":        "info",
	"MAX_ID_ATTEMPTS":  10,
	"LOCK_RETRY_DELAY": "50ms",
}

// Load reads configuration from path/app.env or environment variables.
//
// A missing app.env is not an error.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, err
		}
	}

	err = v.Unmarshal(&c)
	if err != nil {
		return c, err
	}

	return c, nil
}
