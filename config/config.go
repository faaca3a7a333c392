// Package config loads the designlab server configuration from a YAML
// file, with defaults for anything omitted. Environment overrides are
// applied in cmd, not here.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level designlab configuration.
type Config struct {
	Target   string        `yaml:"target"`   // report header label
	Variants []string      `yaml:"variants"` // recognized variant IDs
	Listen   string        `yaml:"listen"`
	Session  SessionConfig `yaml:"session"`
	Browser  BrowserConfig `yaml:"browser"`
	Admin    AdminConfig   `yaml:"admin"`
	LogLevel string        `yaml:"log_level"` // debug | info | warn | error
}

// SessionConfig controls the session state database.
type SessionConfig struct {
	DBPath        string `yaml:"db_path"` // empty = in-memory state only
	RetentionDays int    `yaml:"retention_days"`
}

// BrowserConfig controls the optional live Chrome attachment.
type BrowserConfig struct {
	Attach  bool   `yaml:"attach"`
	Remote  string `yaml:"remote"` // ws:// control URL; empty = launch locally
	PageURL string `yaml:"page_url"`
	Headful bool   `yaml:"headful"`
	Stealth bool   `yaml:"stealth"`
}

// AdminConfig protects the comment list view.
type AdminConfig struct {
	// PasswordHash is a bcrypt hash; empty disables the admin view.
	PasswordHash string `yaml:"password_hash"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in anything the file omitted.
func (c *Config) ApplyDefaults() {
	if c.Target == "" {
		c.Target = "Design review"
	}
	if c.Listen == "" {
		c.Listen = ":8418"
	}
	if c.Session.RetentionDays <= 0 {
		c.Session.RetentionDays = 7
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
