// Package cli implements the topowatch command-line interface.
//
// The commands are:
//   - serve: poll the configured source and serve the HTTP API
//   - reconcile: apply snapshot files in order and print the final graph
//   - config: show or initialize the configuration file
//   - version: print build information
//
// All commands support --verbose (-v) for debug-level logging and --config
// to name a config file explicitly. The logger is carried through the
// command's context.
package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"topowatch/internal/buildinfo"
	"topowatch/internal/config"
	"topowatch/internal/logging"
)

// CLI holds shared state for all commands
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool

	cfg     *config.Config
	cfgPath string
}

// New creates a new CLI instance logging to w
func New(w io.Writer) *CLI {
	return &CLI{Logger: logging.New(w, log.InfoLevel)}
}

// RootCommand creates the root cobra command with all subcommands registered
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "topowatch",
		Short:        "topowatch keeps a live topology graph reconciled from discovery snapshots",
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default: search "+config.EnvConfigPath+", ./"+config.ConfigFileName+", XDG, /etc)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.reconcileCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// loadConfig reads the configuration and applies its log level.
// --verbose always wins over the configured level.
func (c *CLI) loadConfig() error {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if c.configPath != "" {
		cfg, path, err = config.LoadFromPath(c.configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.verbose {
		level = log.DebugLevel
	}
	c.Logger.SetLevel(level)

	c.cfg, c.cfgPath = cfg, path
	return nil
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
			return err
		},
	}
}
