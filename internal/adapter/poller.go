package adapter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultInterval is the poll period used when none is configured
const DefaultInterval = 1500 * time.Millisecond

// Poller drives cycles against a single source: once on start, then on
// every tick, and whenever Trigger is called
type Poller struct {
	src      Source
	interval time.Duration
	run      CycleFunc
	logger   *log.Logger

	trigger chan struct{}

	mu       sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	watching bool
}

// NewPoller creates a poller. A non-positive interval uses DefaultInterval.
func NewPoller(src Source, interval time.Duration, run CycleFunc, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Poller{
		src:      src,
		interval: interval,
		run:      run,
		logger:   logger.With("source", src.Name()),
		trigger:  make(chan struct{}, 1),
	}
}

// Start begins the polling loop. If the source is Watchable its watcher
// runs alongside and triggers a cycle on change.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, p.cancel = context.WithCancel(ctx)

	if w, ok := p.src.(Watchable); ok && w.Watching() {
		p.watching = true
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			if err := w.Watch(ctx, p.Trigger); err != nil && !errors.Is(err, context.Canceled) {
				p.logger.Error("watch stopped", "err", err)
			}
		}()
	}

	p.wg.Add(1)
	go p.loop(ctx)

	p.logger.Info("started polling loop", "interval", p.interval, "watching", p.watching)
}

// Stop cancels the loop and waits for the in-flight cycle to finish
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

// Trigger requests an immediate cycle. Requests made while one is already
// pending are coalesced.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Info describes the poller's source
func (p *Poller) Info() SourceInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return SourceInfo{
		Name:     p.src.Name(),
		Interval: p.interval.String(),
		Watching: p.watching,
	}
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	p.runOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("stopping polling loop")
			return
		case <-ticker.C:
			p.runOnce(ctx)
		case <-p.trigger:
			p.runOnce(ctx)
		}
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	err := p.run(ctx, p.src)
	switch {
	case err == nil:
	case errors.Is(err, ErrSuperseded):
		p.logger.Debug("cycle superseded")
	case ctx.Err() != nil:
	default:
		p.logger.Warn("cycle failed", "err", err)
	}
}
