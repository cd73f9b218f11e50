package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/tithing/internal/statement"
	"github.com/cleared-dev/tithing/internal/tithe"
)

// FileName is the conventional config file name.
const FileName = "tithing.yaml"

// Config represents the top-level tithing.yaml configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Parser   ParserConfig   `yaml:"parser"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig controls the HTTP transport.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// DefaultsConfig supplies values for optional request parameters.
type DefaultsConfig struct {
	DescContains  string `yaml:"desc_contains"`
	Rate          string `yaml:"rate"` // decimal string, kept exact
	CaseSensitive bool   `yaml:"case_sensitive"`
	Format        string `yaml:"format"`
}

// ParserConfig controls statement parsing.
type ParserConfig struct {
	AllowHeaderless bool `yaml:"allow_headerless"`
}

// LogConfig controls logger verbosity.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads a tithing.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault reads path if it exists and falls back to Default otherwise.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8000",
			MaxUploadBytes: 10 << 20,
		},
		Defaults: DefaultsConfig{
			DescContains: tithe.DefaultDescFilter,
			Rate:         tithe.DefaultRate.StringFixed(2),
			Format:       "json",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyEnv overlays TITHING_* environment variables. A .env file is loaded
// first when envPath is given, or from the working directory if present.
func ApplyEnv(cfg *Config, envPath ...string) error {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("TITHING_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TITHING_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("TITHING_RATE"); v != "" {
		cfg.Defaults.Rate = v
	}
	if v := os.Getenv("TITHING_DESC_CONTAINS"); v != "" {
		cfg.Defaults.DescContains = v
	}
	return cfg.Validate()
}

// Validate checks values that would otherwise fail on every request.
func (c *Config) Validate() error {
	if _, err := c.rate(); err != nil {
		return err
	}
	if c.Server.MaxUploadBytes < 0 {
		return fmt.Errorf("invalid config: server.max_upload_bytes must not be negative")
	}
	return nil
}

// QueryDefaults converts the defaults section for tithe.ParseQuery.
func (c *Config) QueryDefaults() tithe.Defaults {
	rate, _ := c.rate()
	return tithe.Defaults{
		DescContains:  c.Defaults.DescContains,
		CaseSensitive: c.Defaults.CaseSensitive,
		Rate:          rate,
	}
}

// ParserOptions converts the parser section for statement.Parse.
func (c *Config) ParserOptions() statement.Options {
	return statement.Options{AllowHeaderless: c.Parser.AllowHeaderless}
}

func (c *Config) rate() (decimal.Decimal, error) {
	if strings.TrimSpace(c.Defaults.Rate) == "" {
		return tithe.DefaultRate, nil
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(c.Defaults.Rate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid config: defaults.rate %q: %w", c.Defaults.Rate, err)
	}
	if !rate.IsPositive() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("invalid config: defaults.rate %s must be in (0, 1]", rate)
	}
	return rate, nil
}
