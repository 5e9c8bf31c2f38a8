package adapter

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"topowatch/internal/codec"
	"topowatch/internal/domain"
)

// SSHConfig holds connection settings for a remote discovery host
type SSHConfig struct {
	Host string
	Port int
	User string

	// Password or PrivateKey (PEM) or KeyFile authenticates the session
	Password   string
	PrivateKey string
	KeyFile    string
	Passphrase string

	// KnownHostsFile verifies the host key when set. Otherwise any host key is accepted.
	KnownHostsFile string

	// Command prints a snapshot on stdout
	Command string
	// Format of the command output, "json" or "yaml"
	Format string

	ConnectionTimeout time.Duration
	CommandTimeout    time.Duration
}

// DefaultSSHConfig returns sensible defaults
func DefaultSSHConfig() SSHConfig {
	return SSHConfig{
		Port:              22,
		Format:            "json",
		ConnectionTimeout: 10 * time.Second,
		CommandTimeout:    30 * time.Second,
	}
}

// SSHSource runs a command on a remote host and decodes its output as a snapshot
type SSHSource struct {
	cfg    SSHConfig
	codec  codec.Importer
	logger *log.Logger
}

// NewSSHSource creates a new SSH snapshot source
func NewSSHSource(cfg SSHConfig, logger *log.Logger) (*SSHSource, error) {
	defaults := DefaultSSHConfig()
	if cfg.Port == 0 {
		cfg.Port = defaults.Port
	}
	if cfg.Format == "" {
		cfg.Format = defaults.Format
	}
	if cfg.ConnectionTimeout == 0 {
		cfg.ConnectionTimeout = defaults.ConnectionTimeout
	}
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = defaults.CommandTimeout
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("ssh source: host is required")
	}
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, fmt.Errorf("ssh source: command is required")
	}
	if cfg.KeyFile != "" && cfg.PrivateKey == "" {
		data, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("ssh source: read key file: %w", err)
		}
		cfg.PrivateKey = string(data)
	}

	c, err := codec.Lookup(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("ssh source: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &SSHSource{cfg: cfg, codec: c, logger: logger.With("source", "ssh")}
	if _, err := s.buildSSHConfig(); err != nil {
		return nil, fmt.Errorf("ssh source: %w", err)
	}
	return s, nil
}

// Name returns the source identifier
func (s *SSHSource) Name() string {
	return "ssh"
}

// Fetch connects, runs the command and decodes stdout
func (s *SSHSource) Fetch(ctx context.Context) (*domain.Snapshot, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("ssh %s: %w", s.cfg.Host, err)
	}
	defer client.Close()

	s.logger.Debug("running command", "host", s.cfg.Host, "command", s.cfg.Command)
	out, err := s.runCommand(ctx, client, s.cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("ssh %s: %w", s.cfg.Host, err)
	}

	snap, err := s.codec.Parse(s.Name(), strings.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("ssh %s: %w", s.cfg.Host, err)
	}
	snap.FetchedAt = time.Now()
	return snap, nil
}
