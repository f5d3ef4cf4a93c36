// Package config loads credentials, endpoints and output defaults for the
// command line client.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the paper trading endpoint, used when nothing else is
// configured.
const DefaultBaseURL = "https://paper-api.alpaca.markets"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration.
type Config struct {
	Alpaca  Alpaca  `yaml:"alpaca"`
	Logging Logging `yaml:"logging"`
	Output  Output  `yaml:"output"`
}

// Alpaca holds credentials and endpoints for the Alpaca broker API.
type Alpaca struct {
	APIKey    string `yaml:"api_key" validate:"required"`
	APISecret string `yaml:"api_secret" validate:"required"`
	BaseURL   string `yaml:"base_url" validate:"required,url"`
	DataURL   string `yaml:"data_url" validate:"omitempty,url"`
	StreamURL string `yaml:"stream_url" validate:"omitempty,url"`
	Feed      string `yaml:"feed" validate:"omitempty,oneof=iex sip delayed_sip otc"`
}

// Logging configures the diagnostic logger.
type Logging struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Output configures how results are rendered.
type Output struct {
	Format  string `yaml:"format" validate:"omitempty,oneof=text json yaml"`
	NoColor bool   `yaml:"no_color"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// DefaultPath returns the config file used when none is given:
// $APCACLI_CONFIG, else <user config dir>/apcacli/config.yaml.
func DefaultPath() string {
	if p := os.Getenv("APCACLI_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "apcacli", "config.yaml")
}

// Load reads the YAML configuration file at path (a missing file is not an
// error), loads a .env file from the working directory if present, and then
// applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	// Variables already present in the environment win over .env.
	_ = godotenv.Load()

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// Validate checks that the configuration can be used to talk to the API.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid configuration: %s", describe(verrs[0]))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Namespace() {
	case "Config.Alpaca.APIKey":
		return "API key missing (set APCA_API_KEY_ID)"
	case "Config.Alpaca.APISecret":
		return "API secret missing (set APCA_API_SECRET_KEY)"
	}
	return fmt.Sprintf("%s failed %q check (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
}

func applyDefaults(cfg *Config) {
	if cfg.Alpaca.BaseURL == "" {
		cfg.Alpaca.BaseURL = DefaultBaseURL
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "text"
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("APCA_API_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("APCA_API_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}
	if v := os.Getenv("APCA_API_STREAM_URL"); v != "" {
		cfg.Alpaca.StreamURL = v
	}
	if v := os.Getenv("APCA_DATA_FEED"); v != "" {
		cfg.Alpaca.Feed = v
	}

	if v := os.Getenv("APCACLI_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("APCACLI_OUTPUT"); v != "" {
		cfg.Output.Format = v
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		cfg.Output.NoColor = true
	}
}
