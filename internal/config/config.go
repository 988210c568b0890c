// Package config loads settings from defaults, an optional YAML file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is stripped from environment variables. LEITNER_LOG_LEVEL sets
// log-level.
const EnvPrefix = "LEITNER_"

// Config holds all application settings.
type Config struct {
	DB        string `koanf:"db" validate:"required"`
	Addr      string `koanf:"addr" validate:"required,hostname_port"`
	LogLevel  string `koanf:"log-level" validate:"required,oneof=debug info warn error"`
	LogFormat string `koanf:"log-format" validate:"required,oneof=text json"`
	ReposDir  string `koanf:"repos-dir" validate:"required"`
	// Strict makes invalid study transitions errors instead of no-ops.
	Strict bool `koanf:"strict"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DB:        "leitner.db",
		Addr:      "127.0.0.1:8080",
		LogLevel:  "info",
		LogFormat: "text",
		ReposDir:  "repos",
	}
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String("config", "", "path to a YAML config file")
	fs.String("db", d.DB, "path to the SQLite database file")
	fs.String("addr", d.Addr, "listen address for the HTTP API")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	fs.String("log-format", d.LogFormat, "log format (text, json)")
	fs.String("repos-dir", d.ReposDir, "directory for git source checkouts")
	fs.Bool("strict", d.Strict, "reject invalid study actions instead of ignoring them")
}

// Load builds the configuration. configFile may be empty; fs may be nil.
func Load(configFile string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	d := Defaults()
	for key, val := range map[string]any{
		"db":         d.DB,
		"addr":       d.Addr,
		"log-level":  d.LogLevel,
		"log-format": d.LogFormat,
		"repos-dir":  d.ReposDir,
		"strict":     d.Strict,
	} {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found", configFile)
			}
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its field rules.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// envKey maps LEITNER_LOG_LEVEL to log-level.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
}
