// Package config loads the server configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/formflow/formflow/export"
	"github.com/formflow/formflow/store"
	"github.com/formflow/formflow/webhook"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
	// JWTSecret enables bearer-token identity when set; otherwise the
	// upstream-asserted X-User-ID header is trusted as-is.
	JWTSecret string `yaml:"jwt_secret" json:"jwt_secret"`
	// ExportRateLimit is the maximum number of export requests per minute
	// per IP. Defaults to 10 when zero.
	ExportRateLimit int `yaml:"export_rate_limit" json:"export_rate_limit"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Driver is one of "postgres", "sqlite", "memory".
	Driver string         `yaml:"driver" json:"driver"`
	PG     store.PGConfig `yaml:"postgres" json:"postgres"`
	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string `yaml:"sqlite_path" json:"sqlite_path"`
}

// Config is the root configuration document.
type Config struct {
	Server  ServerConfig        `yaml:"server" json:"server"`
	Store   StoreConfig         `yaml:"store" json:"store"`
	Sheets  export.SheetsConfig `yaml:"sheets" json:"sheets"`
	Webhook WebhookConfig       `yaml:"webhook" json:"webhook"`
}

// WebhookConfig holds the outbound relay settings.
type WebhookConfig struct {
	// URL is the relay endpoint for record events; empty disables delivery.
	URL   string               `yaml:"url" json:"url"`
	Retry webhook.SenderConfig `yaml:"retry" json:"retry"`
}

// Default returns a Config with working defaults: in-memory store, no
// integrations.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080", ExportRateLimit: 10},
		Store:  StoreConfig{Driver: "memory", SQLitePath: "formflow.db"},
		Webhook: WebhookConfig{
			Retry: webhook.DefaultSenderConfig(),
		},
	}
}

// LoadFromFile loads configuration from a YAML file, applying defaults for
// unset values and environment overrides on top.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// Load returns the default configuration with environment overrides, for
// running without a config file.
func Load() *Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	setIfPresent := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setIfPresent("FORMFLOW_ADDR", &c.Server.Addr)
	setIfPresent("FORMFLOW_JWT_SECRET", &c.Server.JWTSecret)
	setIfPresent("FORMFLOW_STORE_DRIVER", &c.Store.Driver)
	setIfPresent("FORMFLOW_DATABASE_URL", &c.Store.PG.URL)
	setIfPresent("FORMFLOW_SQLITE_PATH", &c.Store.SQLitePath)
	setIfPresent("GOOGLE_SHEETS_CLIENT_EMAIL", &c.Sheets.ClientEmail)
	setIfPresent("GOOGLE_SHEETS_PRIVATE_KEY", &c.Sheets.PrivateKey)
	setIfPresent("ZAPIER_WEBHOOK_URL", &c.Webhook.URL)
}
