package config

import (
	"time"
)

// Source kinds
const (
	SourceHTTP = "http"
	SourceFile = "file"
	SourceNmap = "nmap"
	SourceSSH  = "ssh"
)

// Config is the root configuration structure
type Config struct {
	Version int           `yaml:"version"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Poll    PollConfig    `yaml:"poll"`
	View    ViewConfig    `yaml:"view"`
	Journal JournalConfig `yaml:"journal"`
	Source  SourceConfig  `yaml:"source"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// PollConfig controls how often the source is fetched
type PollConfig struct {
	Interval Duration `yaml:"interval"`
}

// ViewConfig holds view policy settings
type ViewConfig struct {
	// DensityMax is the visible node count above which the collapsed
	// topology is selected
	DensityMax int `yaml:"density_max"`
}

// JournalConfig holds cycle journal settings
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	// Retain is how many cycle records are kept at startup, 0 keeps all
	Retain int `yaml:"retain"`
}

// SourceConfig selects and configures the snapshot source
type SourceConfig struct {
	Kind string           `yaml:"kind"`
	HTTP HTTPSourceConfig `yaml:"http"`
	File FileSourceConfig `yaml:"file"`
	Nmap NmapSourceConfig `yaml:"nmap"`
	SSH  SSHSourceConfig  `yaml:"ssh"`
}

// HTTPSourceConfig points at a discovery server's node list
type HTTPSourceConfig struct {
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
}

// FileSourceConfig reads a snapshot file
type FileSourceConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// NmapSourceConfig configures network scanning
type NmapSourceConfig struct {
	Targets           []string `yaml:"targets"` // CIDRs, IPs or "auto"
	Ports             string   `yaml:"ports,omitempty"`
	Timeout           Duration `yaml:"timeout,omitempty"`
	ServiceDetection  *bool    `yaml:"service_detection,omitempty"` // nil = enabled
	OSDetection       bool     `yaml:"os_detection"`                // requires root
	SkipHostDiscovery bool     `yaml:"skip_host_discovery"`
	Fast              bool     `yaml:"fast"`
}

// SSHSourceConfig runs a command on a remote discovery host.
// Secrets are referenced by path or environment variable, never stored.
type SSHSourceConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	User           string   `yaml:"user"`
	KeyFile        string   `yaml:"key_file,omitempty"`
	PasswordEnv    string   `yaml:"password_env,omitempty"`
	PassphraseEnv  string   `yaml:"passphrase_env,omitempty"`
	KnownHostsFile string   `yaml:"known_hosts_file,omitempty"`
	Command        string   `yaml:"command"`
	Format         string   `yaml:"format"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
	CommandTimeout Duration `yaml:"command_timeout"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
