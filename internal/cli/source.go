package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"topowatch/internal/adapter"
	"topowatch/internal/config"
)

// buildSource creates the snapshot source selected by cfg.Kind
func buildSource(cfg config.SourceConfig, logger *log.Logger) (adapter.Source, error) {
	switch cfg.Kind {
	case config.SourceHTTP:
		src, err := adapter.NewHTTPSource(cfg.HTTP.URL, cfg.HTTP.Timeout.Duration())
		if err != nil {
			return nil, err
		}
		return src, nil

	case config.SourceFile:
		return adapter.NewFileSource(cfg.File.Path, cfg.File.Watch, logger), nil

	case config.SourceNmap:
		n := cfg.Nmap
		var opts []adapter.NmapOption
		if n.Fast {
			opts = append(opts, adapter.WithFastScan())
		}
		opts = append(opts,
			adapter.WithNmapLogger(logger),
			adapter.WithTimeout(n.Timeout.Duration()),
			adapter.WithOSDetection(n.OSDetection),
			adapter.WithSkipHostDiscovery(n.SkipHostDiscovery),
		)
		if n.Ports != "" {
			opts = append(opts, adapter.WithPortRange(n.Ports))
		}
		if n.ServiceDetection != nil {
			opts = append(opts, adapter.WithServiceDetection(*n.ServiceDetection))
		}
		return adapter.NewNmapSource(n.Targets, opts...), nil

	case config.SourceSSH:
		s := cfg.SSH
		sshCfg := adapter.DefaultSSHConfig()
		sshCfg.Host = s.Host
		sshCfg.Port = s.Port
		sshCfg.User = s.User
		sshCfg.KeyFile = s.KeyFile
		sshCfg.KnownHostsFile = s.KnownHostsFile
		sshCfg.Command = s.Command
		sshCfg.Format = s.Format
		sshCfg.ConnectionTimeout = s.ConnectTimeout.Duration()
		sshCfg.CommandTimeout = s.CommandTimeout.Duration()
		if s.PasswordEnv != "" {
			sshCfg.Password = os.Getenv(s.PasswordEnv)
		}
		if s.PassphraseEnv != "" {
			sshCfg.Passphrase = os.Getenv(s.PassphraseEnv)
		}
		src, err := adapter.NewSSHSource(sshCfg, logger)
		if err != nil {
			return nil, err
		}
		return src, nil

	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}
