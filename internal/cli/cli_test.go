package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topowatch/internal/adapter"
	"topowatch/internal/config"
	"topowatch/internal/domain"
)

// execute runs the root command with args and returns stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvConfigPath, filepath.Join(t.TempDir(), "none.yaml"))
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	c := New(io.Discard)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version: dev")
}

func TestReconcileCommand(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "first.json", `[
		{"NID": 100, "D": {"name": "lan"}, "Endpoints": [1, 2]},
		{"NID": 1, "D": {"name": "alpha"}, "Edges": [{"N": 100}]},
		{"NID": 2, "D": {"name": "beta"}, "Edges": [{"N": 100}, {"N": -1}]}
	]`)
	second := writeFile(t, dir, "second.yaml", `
- NID: 100
  D: {name: lan}
- NID: 2
  D: {name: beta}
  Edges: [{N: 100}]
`)

	out, err := execute(t, "reconcile", first, second)
	require.NoError(t, err)

	var pub domain.Publication
	require.NoError(t, json.Unmarshal([]byte(out), &pub))
	assert.Equal(t, uint64(2), pub.Cycle)
	require.Len(t, pub.Nodes, 2)
	assert.Equal(t, domain.NID(100), pub.Nodes[0].NID)
	assert.Equal(t, domain.NID(2), pub.Nodes[1].NID)
	assert.Equal(t, []domain.EdgePosition{{Sid: 1, Tid: 0}}, pub.Edges)
	assert.Empty(t, pub.Shortcuts)
	assert.True(t, pub.TopologyChanged)
}

func TestReconcileCommandYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "snap.json", `[{"NID": 5, "D": {"name": "solo"}}]`)

	out, err := execute(t, "reconcile", "--format", "yaml", path)
	require.NoError(t, err)
	assert.Contains(t, out, "nid: 5")
}

func TestReconcileCommandErrors(t *testing.T) {
	_, err := execute(t, "reconcile")
	assert.Error(t, err)

	_, err = execute(t, "reconcile", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.json")

	path := writeFile(t, t.TempDir(), "snap.json", `[]`)
	_, err = execute(t, "reconcile", "--format", "xml", path)
	assert.Error(t, err)
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "topowatch.yaml", "log:\n  level: chatty\n")

	_, err := execute(t, "--config", cfgPath, "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chatty")
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "topowatch.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	_, err = execute(t, "config", "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "config", "init", "--force", path)
	require.NoError(t, err)

	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# "+path))
	assert.Contains(t, out, "density_max: 10000")
	assert.Contains(t, out, "interval: 1.5s")
}

func TestBuildSource(t *testing.T) {
	logger := log.New(io.Discard)

	t.Run("http", func(t *testing.T) {
		cfg := config.DefaultConfig().Source
		src, err := buildSource(cfg, logger)
		require.NoError(t, err)
		assert.IsType(t, &adapter.HTTPSource{}, src)
	})

	t.Run("http invalid url", func(t *testing.T) {
		cfg := config.DefaultConfig().Source
		cfg.HTTP.URL = "ftp://example.com/nodes"
		_, err := buildSource(cfg, logger)
		assert.Error(t, err)
	})

	t.Run("file", func(t *testing.T) {
		cfg := config.SourceConfig{Kind: config.SourceFile, File: config.FileSourceConfig{Path: "nodes.yaml", Watch: true}}
		src, err := buildSource(cfg, logger)
		require.NoError(t, err)
		fs, ok := src.(*adapter.FileSource)
		require.True(t, ok)
		assert.Equal(t, "nodes.yaml", fs.Path())
		assert.True(t, fs.Watching())
	})

	t.Run("nmap", func(t *testing.T) {
		disabled := false
		cfg := config.SourceConfig{Kind: config.SourceNmap, Nmap: config.NmapSourceConfig{
			Targets:          []string{"10.0.0.0/24"},
			Ports:            "22",
			ServiceDetection: &disabled,
		}}
		src, err := buildSource(cfg, logger)
		require.NoError(t, err)
		assert.Equal(t, "nmap", src.Name())
	})

	t.Run("ssh password from env", func(t *testing.T) {
		t.Setenv("TOPOWATCH_TEST_SSH_PASSWORD", "secret")
		cfg := config.DefaultConfig().Source
		cfg.Kind = config.SourceSSH
		cfg.SSH.Host = "discovery.local"
		cfg.SSH.User = "discovery"
		cfg.SSH.Command = "discovery -json"
		cfg.SSH.PasswordEnv = "TOPOWATCH_TEST_SSH_PASSWORD"
		src, err := buildSource(cfg, logger)
		require.NoError(t, err)
		assert.Equal(t, "ssh", src.Name())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := buildSource(config.SourceConfig{Kind: "pigeon"}, logger)
		assert.Error(t, err)
	})
}
