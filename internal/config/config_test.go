package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %s, want %s", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Poll.Interval.Duration() != 1500*time.Millisecond {
		t.Errorf("Poll.Interval = %s, want 1.5s", cfg.Poll.Interval.Duration())
	}
	if cfg.View.DensityMax != 10000 {
		t.Errorf("View.DensityMax = %d, want 10000", cfg.View.DensityMax)
	}
	if cfg.Source.Kind != SourceHTTP {
		t.Errorf("Source.Kind = %s, want %s", cfg.Source.Kind, SourceHTTP)
	}
	if cfg.Source.HTTP.URL != DefaultHTTPURL {
		t.Errorf("Source.HTTP.URL = %s, want %s", cfg.Source.HTTP.URL, DefaultHTTPURL)
	}
	if cfg.Journal.Enabled {
		t.Error("Journal should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topowatch.yaml")
	data := `
server:
  addr: ":9000"
poll:
  interval: 5s
view:
  density_max: 250
journal:
  enabled: true
  retain: 50
source:
  kind: nmap
  nmap:
    targets: ["192.168.1.0/24"]
    ports: "22,80"
    timeout: 2m
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, got, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if got != path {
		t.Errorf("path = %s, want %s", got, path)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %s, want :9000", cfg.Server.Addr)
	}
	if cfg.Poll.Interval.Duration() != 5*time.Second {
		t.Errorf("Poll.Interval = %s, want 5s", cfg.Poll.Interval.Duration())
	}
	if cfg.View.DensityMax != 250 {
		t.Errorf("View.DensityMax = %d, want 250", cfg.View.DensityMax)
	}
	if !cfg.Journal.Enabled || cfg.Journal.Retain != 50 || cfg.Journal.Path != DefaultJournalPath {
		t.Errorf("Journal = %+v", cfg.Journal)
	}
	if cfg.Source.Nmap.Timeout.Duration() != 2*time.Minute {
		t.Errorf("Nmap.Timeout = %s, want 2m", cfg.Source.Nmap.Timeout.Duration())
	}
	// Defaults still apply to unused sections
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %s, want %s", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Source.HTTP.URL != "" {
		t.Errorf("Source.HTTP.URL = %s, want empty for nmap source", cfg.Source.HTTP.URL)
	}
}

func TestLoadFromPathErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "server: [", "parse config"},
		{"bad duration", "poll:\n  interval: soon\n", "parse config"},
		{"unknown kind", "source:\n  kind: carrier-pigeon\n", "unknown source kind"},
		{"file without path", "source:\n  kind: file\n", "source.file.path"},
		{"nmap without targets", "source:\n  kind: nmap\n", "source.nmap.targets"},
		{"ssh without auth", "source:\n  kind: ssh\n  ssh:\n    host: h\n    user: u\n    command: c\n", "key_file or password_env"},
		{"negative retain", "journal:\n  retain: -1\n", "journal.retain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, _, err := LoadFromPath(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	if _, _, err := LoadFromPath(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveAndLoad(t *testing.T) {
	// Create temp directory
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	// Create and save config
	cfg := DefaultConfig()
	cfg.Source.Kind = SourceFile
	cfg.Source.File = FileSourceConfig{Path: "/var/lib/topowatch/nodes.json", Watch: true}
	cfg.Poll.Interval = Duration(3 * time.Second)

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Load config
	loaded, _, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}

	if loaded.Source.Kind != SourceFile {
		t.Errorf("Source.Kind = %s, want %s", loaded.Source.Kind, SourceFile)
	}
	if loaded.Source.File != cfg.Source.File {
		t.Errorf("Source.File = %+v, want %+v", loaded.Source.File, cfg.Source.File)
	}
	if loaded.Poll.Interval != cfg.Poll.Interval {
		t.Errorf("Poll.Interval = %s, want %s", loaded.Poll.Interval.Duration(), cfg.Poll.Interval.Duration())
	}
}

func TestFindConfigPath(t *testing.T) {
	// Create temp directory with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Set working directory to temp
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	// Should find config in working directory
	found := FindConfigPath()
	if found == "" {
		t.Error("FindConfigPath() should find config in working directory")
	}

	// Explicit path doesn't exist, should fall back
	t.Setenv(EnvConfigPath, "/nonexistent/path.yaml")
	found = FindConfigPath()
	if found == "" {
		t.Error("FindConfigPath() should fall back when env path doesn't exist")
	}

	// Explicit path wins when it exists
	explicit := filepath.Join(t.TempDir(), "explicit.yaml")
	if err := cfg.Save(explicit); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigPath, explicit)
	if found = FindConfigPath(); found != explicit {
		t.Errorf("FindConfigPath() = %s, want %s", found, explicit)
	}
}

func TestSearchPaths(t *testing.T) {
	xdg := t.TempDir()
	home := t.TempDir()
	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", home)

	paths := SearchPaths()
	wd, _ := os.Getwd()
	want := []string{
		filepath.Join(wd, ConfigFileName),
		filepath.Join(xdg, ConfigDirName, "config.yaml"),
		filepath.Join(home, ".config", ConfigDirName, "config.yaml"),
		filepath.Join("/etc", ConfigDirName, "config.yaml"),
	}
	if len(paths) != len(want) {
		t.Fatalf("SearchPaths() = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("SearchPaths()[%d] = %s, want %s", i, paths[i], want[i])
		}
	}

	t.Setenv(EnvConfigPath, "/explicit.yaml")
	if got := SearchPaths()[0]; got != "/explicit.yaml" {
		t.Errorf("SearchPaths()[0] = %s, want explicit path first", got)
	}
}

func TestFindConfigPathSkipsDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	if err := os.Mkdir(filepath.Join(tmpDir, ConfigFileName), 0755); err != nil {
		t.Fatal(err)
	}

	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	if found := FindConfigPath(); found == filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("FindConfigPath() returned directory %s", found)
	}

	xdgFile := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), ConfigDirName, "config.yaml")
	if err := DefaultConfig().Save(xdgFile); err != nil {
		t.Fatal(err)
	}
	if found := FindConfigPath(); found != xdgFile {
		t.Errorf("FindConfigPath() = %s, want %s", found, xdgFile)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	if got, want := DefaultConfigPath(), filepath.Join(xdg, ConfigDirName, "config.yaml"); got != want {
		t.Errorf("DefaultConfigPath() = %s, want %s", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "")
	if got := DefaultConfigPath(); got != ConfigFileName {
		t.Errorf("DefaultConfigPath() = %s, want %s", got, ConfigFileName)
	}
}

func TestSummary(t *testing.T) {
	cfg := DefaultConfig()
	s := cfg.Summary()
	if !strings.Contains(s, "source=http("+DefaultHTTPURL+")") {
		t.Errorf("Summary() = %s", s)
	}
	if !strings.Contains(s, "interval=1.5s") {
		t.Errorf("Summary() = %s", s)
	}
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)

	if d.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %s, want 5m", d.Duration())
	}

	// Test YAML marshaling
	marshaled, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML() error: %v", err)
	}
	if marshaled != "5m0s" {
		t.Errorf("MarshalYAML() = %v, want 5m0s", marshaled)
	}
}
