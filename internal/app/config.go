package app

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Output formats supported by the CLI renderers.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputCSV   = "csv"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	DisplayLocale   string `envconfig:"DISPLAY_LOCALE" default:"pt-BR"`
	DisplayCurrency string `envconfig:"DISPLAY_CURRENCY" default:"BRL"`
	OutputFormat    string `envconfig:"OUTPUT_FORMAT" default:"table"`
}

// LoadConfig reads configuration from environment variables, after loading any
// of the given dotenv files that exist. Variables already set win over files.
// Dotenv files are skipped in test mode.
func LoadConfig(dotenvFiles ...string) (*Config, error) {
	if InTestMode() {
		dotenvFiles = nil
	}
	for _, path := range dotenvFiles {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.OutputFormat) {
	case OutputTable, OutputJSON, OutputCSV:
	default:
		return errors.New("output format must be one of table, json, csv")
	}
	if strings.TrimSpace(c.DisplayLocale) == "" {
		return errors.New("display locale must be provided")
	}
	if strings.TrimSpace(c.DisplayCurrency) == "" {
		return errors.New("display currency must be provided")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
