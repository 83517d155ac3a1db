package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Default file locations, relative to the working directory.
const (
	DefaultPath       = "config/config.yaml"
	DefaultSecretPath = "config/secret.yaml"
)

// Environment variables that override file locations and values.
const (
	EnvConfig     = "NEWSDOCS_CONFIG"
	EnvSecret     = "NEWSDOCS_SECRET"
	EnvSaveFolder = "NEWSDOCS_SAVE_FOLDER"
	EnvWebhookURL = "NEWSDOCS_WEBHOOK_URL"
	EnvHistoryDSN = "NEWSDOCS_HISTORY_DSN"
)

// ErrNotFound is returned when the main config file does not exist.
var ErrNotFound = errors.New("config file not found")

// Load reads the main config file and merges the secret file over it when
// present. Empty paths select the environment or the defaults. Precedence
// is environment variables, then the secret file, then the main file, then
// built-in defaults.
func Load(path, secretPath string) (*Config, error) {
	if path == "" {
		path = envOr(EnvConfig, DefaultPath)
	}
	if secretPath == "" {
		secretPath = envOr(EnvSecret, DefaultSecretPath)
	}

	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	secret, err := readFile(secretPath)
	if err != nil {
		return nil, err
	}
	if secret != nil {
		if err := mergo.Merge(cfg, secret, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge secret file: %w", err)
		}
	}

	applyEnv(cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// readFile loads one YAML file. Returns nil if the file doesn't exist.
func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvSaveFolder); v != "" {
		cfg.SaveFolder = v
	}
	if v := os.Getenv(EnvWebhookURL); v != "" {
		cfg.WebhookURL = v
	}
	if v := os.Getenv(EnvHistoryDSN); v != "" {
		cfg.History.DSN = v
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
