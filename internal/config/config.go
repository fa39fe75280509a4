// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// knownWeakKeys contains default/example API keys that must be rejected.
var knownWeakKeys = []string{
	"change-me",
	"secret",
	"REPLACE_WITH_YOUR_OWN_API_KEY",
}

// MinAPIKeyLength is the minimum required length for the API key.
const MinAPIKeyLength = 16

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"BLOG_DB_PATH" envDefault:"./data/blog.db"`
	APIKey     string `env:"BLOG_API_KEY,required"`
	ServerHost string `env:"BLOG_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"BLOG_SERVER_PORT" envDefault:"7701"`
	Env        string `env:"BLOG_ENV" envDefault:"development"`
	LogLevel   string `env:"BLOG_LOG_LEVEL" envDefault:"info"`

	// Site identity used by templates and the RSS feed
	SiteName        string `env:"BLOG_SITE_NAME" envDefault:"The New Heretics"`
	SiteURL         string `env:"BLOG_SITE_URL" envDefault:"http://localhost:7701"`
	SiteDescription string `env:"BLOG_SITE_DESCRIPTION" envDefault:"Essays and notes from The New Heretics"`

	// Seeding configuration
	DoSeed bool `env:"BLOG_DO_SEED" envDefault:"false"` // Create a welcome post on first run
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate API key length
	if len(cfg.APIKey) < MinAPIKeyLength {
		return nil, fmt.Errorf("BLOG_API_KEY must be at least %d bytes long, got %d bytes; "+
			"generate a secure key with: openssl rand -hex 16",
			MinAPIKeyLength, len(cfg.APIKey))
	}

	// Reject known weak/default keys
	for _, weak := range knownWeakKeys {
		if cfg.APIKey == weak {
			return nil, fmt.Errorf("BLOG_API_KEY is a known default value and must not be used; " +
				"generate a secure key with: openssl rand -hex 16")
		}
	}

	return cfg, nil
}
