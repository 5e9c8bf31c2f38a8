package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"topowatch/internal/adapter"
	"topowatch/internal/config"
	"topowatch/internal/handler"
	"topowatch/internal/hub"
	"topowatch/internal/logging"
	"topowatch/internal/repository"
	"topowatch/internal/repository/sqlite"
	"topowatch/internal/service"
)

// shutdownTimeout bounds graceful HTTP shutdown
const shutdownTimeout = 10 * time.Second

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		interval time.Duration
		journal  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Poll the configured source and serve the topology API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *c.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if interval > 0 {
				cfg.Poll.Interval = config.Duration(interval)
			}
			if journal != "" {
				cfg.Journal.Enabled = true
				cfg.Journal.Path = journal
			}
			return c.serve(cmd.Context(), &cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (overrides config)")
	cmd.Flags().StringVar(&journal, "journal", "", "enable the cycle journal at this SQLite path")

	return cmd
}

func (c *CLI) serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.FromContext(ctx)
	if c.cfgPath != "" {
		logger.Info("loaded config", "path", c.cfgPath)
	}
	logger.Info("starting topowatch", "summary", cfg.Summary())

	src, err := buildSource(cfg.Source, logger)
	if err != nil {
		return fmt.Errorf("build source: %w", err)
	}

	var journal repository.CycleJournal
	if cfg.Journal.Enabled {
		repo, err := sqlite.New(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer repo.Close()

		if cfg.Journal.Retain > 0 {
			removed, err := repo.Prune(ctx, cfg.Journal.Retain)
			if err != nil {
				return fmt.Errorf("prune journal: %w", err)
			}
			logger.Debug("pruned journal", "removed", removed, "retain", cfg.Journal.Retain)
		}
		logger.Info("journal opened", "path", cfg.Journal.Path)
		journal = repo
	}

	// Connect event bus to SSE hub
	bus := service.NewEventBus()
	sseHub := hub.New(logger.With("component", "hub"))
	go sseHub.Run(ctx)

	events := make(chan service.Event, 100)
	bus.Subscribe(events)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				sseHub.Broadcast(ev)
			}
		}
	}()

	svc := service.NewTopologyService(service.Options{
		Journal:    journal,
		Bus:        bus,
		Logger:     logger,
		DensityMax: cfg.View.DensityMax,
	})

	poller := adapter.NewPoller(src, cfg.Poll.Interval.Duration(), svc.Run, logger)
	poller.Start(ctx)
	defer poller.Stop()

	h := handler.NewGraphHandler(svc, logger.With("component", "http"))
	h.SetSource(src)
	h.SetPoller(poller)

	// No WriteTimeout: /events streams for the life of the connection
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.NewRouter(h, sseHub),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}
	logger.Info("server stopped")
	return nil
}
