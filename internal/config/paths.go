package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "TOPOWATCH_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "topowatch.yaml"
	// ConfigDirName is the directory under the XDG and system config roots
	ConfigDirName = "topowatch"

	dirConfigFile = "config.yaml"
	systemRoot    = "/etc"
)

// SearchPaths returns every location Load considers, highest priority first:
//
//	$TOPOWATCH_CONFIG
//	./topowatch.yaml
//	$XDG_CONFIG_HOME/topowatch/config.yaml
//	~/.config/topowatch/config.yaml
//	/etc/topowatch/config.yaml
//
// Unset variables contribute no entry and duplicates are listed once.
func SearchPaths() []string {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	add(os.Getenv(EnvConfigPath))
	if abs, err := filepath.Abs(ConfigFileName); err == nil {
		add(abs)
	} else {
		add(ConfigFileName)
	}
	add(userConfigPath())
	if home := os.Getenv("HOME"); home != "" {
		add(filepath.Join(home, ".config", ConfigDirName, dirConfigFile))
	}
	add(filepath.Join(systemRoot, ConfigDirName, dirConfigFile))

	return paths
}

// FindConfigPath returns the first existing regular file in SearchPaths,
// or an empty string. A missing $TOPOWATCH_CONFIG falls through to the
// remaining locations.
func FindConfigPath() string {
	for _, p := range SearchPaths() {
		if fileExists(p) {
			return p
		}
	}
	return ""
}

// DefaultConfigPath returns where config init writes a new file: the user
// config directory when one is known, else the working directory
func DefaultConfigPath() string {
	if p := userConfigPath(); p != "" {
		return p
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", ConfigDirName, dirConfigFile)
	}
	return ConfigFileName
}

// EnsureConfigDir creates the directory holding configPath
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func userConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, ConfigDirName, dirConfigFile)
	}
	return ""
}

// fileExists rejects directories so a stray topowatch.yaml/ is skipped
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
