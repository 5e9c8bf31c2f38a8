// Package config provides configuration management for topowatch.
//
// Config file locations (priority order):
//  1. $TOPOWATCH_CONFIG
//  2. ./topowatch.yaml
//  3. ~/.config/topowatch/config.yaml
//  4. /etc/topowatch/config.yaml
//
// Missing values are filled with defaults, so an empty file is a valid
// configuration polling a local discovery server.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultAddr         = ":3000"
	DefaultLogLevel     = "info"
	DefaultPollInterval = 1500 * time.Millisecond
	DefaultDensityMax   = 10000
	DefaultJournalPath  = "./topowatch.db"
	DefaultHTTPURL      = "http://localhost:8000/nodes/"
	DefaultHTTPTimeout  = 10 * time.Second
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, path, nil
}

// Save writes config to path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Poll.Interval <= 0 {
		c.Poll.Interval = Duration(DefaultPollInterval)
	}
	if c.View.DensityMax <= 0 {
		c.View.DensityMax = DefaultDensityMax
	}
	if c.Journal.Path == "" {
		c.Journal.Path = DefaultJournalPath
	}

	if c.Source.Kind == "" {
		c.Source.Kind = SourceHTTP
	}
	if c.Source.HTTP.URL == "" && c.Source.Kind == SourceHTTP {
		c.Source.HTTP.URL = DefaultHTTPURL
	}
	if c.Source.HTTP.Timeout <= 0 {
		c.Source.HTTP.Timeout = Duration(DefaultHTTPTimeout)
	}

	ssh := &c.Source.SSH
	if ssh.Port == 0 {
		ssh.Port = 22
	}
	if ssh.Format == "" {
		ssh.Format = "json"
	}
	if ssh.ConnectTimeout <= 0 {
		ssh.ConnectTimeout = Duration(10 * time.Second)
	}
	if ssh.CommandTimeout <= 0 {
		ssh.CommandTimeout = Duration(30 * time.Second)
	}
}

// Validate checks that the selected source is fully configured
func (c *Config) Validate() error {
	if c.Journal.Retain < 0 {
		return fmt.Errorf("journal.retain must not be negative")
	}

	src := c.Source
	switch src.Kind {
	case SourceHTTP:
		if src.HTTP.URL == "" {
			return fmt.Errorf("source.http.url is required")
		}
	case SourceFile:
		if src.File.Path == "" {
			return fmt.Errorf("source.file.path is required")
		}
	case SourceNmap:
		if len(src.Nmap.Targets) == 0 {
			return fmt.Errorf("source.nmap.targets is required")
		}
	case SourceSSH:
		if src.SSH.Host == "" || src.SSH.User == "" || src.SSH.Command == "" {
			return fmt.Errorf("source.ssh requires host, user and command")
		}
		if src.SSH.KeyFile == "" && src.SSH.PasswordEnv == "" {
			return fmt.Errorf("source.ssh requires key_file or password_env")
		}
	default:
		return fmt.Errorf("unknown source kind %q", src.Kind)
	}
	return nil
}

// Summary returns a one-line description for startup logs
func (c *Config) Summary() string {
	target := ""
	switch c.Source.Kind {
	case SourceHTTP:
		target = c.Source.HTTP.URL
	case SourceFile:
		target = c.Source.File.Path
	case SourceNmap:
		target = fmt.Sprintf("%v", c.Source.Nmap.Targets)
	case SourceSSH:
		target = fmt.Sprintf("%s@%s:%d", c.Source.SSH.User, c.Source.SSH.Host, c.Source.SSH.Port)
	}
	return fmt.Sprintf("source=%s(%s) interval=%s density_max=%d journal=%v",
		c.Source.Kind, target, c.Poll.Interval.Duration(), c.View.DensityMax, c.Journal.Enabled)
}
