package poll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
)

// poller implements the Poller interface
type poller struct {
	logger *logger.CanonicalLogger

	mu         sync.Mutex
	fetchFuncs map[string]MetaFunc
	started    bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewPoller creates a new Poller instance
func NewPoller(log *logger.CanonicalLogger) Poller {
	return &poller{
		logger:     log,
		fetchFuncs: make(map[string]MetaFunc),
	}
}

// Start begins polling every registered function until ctx is done or Stop is called
func (p *poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return errors.New("poller already started")
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	for name, meta := range p.fetchFuncs {
		p.wg.Add(1)
		go p.poll(ctx, name, meta)
	}
	return nil
}

// Stop gracefully stops the poller
func (p *poller) Stop() error {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	return nil
}

// poll runs one function on its ticker
func (p *poller) poll(ctx context.Context, name string, meta MetaFunc) {
	defer p.wg.Done()

	interval := meta.interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	p.logger.Info("started polling", zap.String("name", name), zap.Duration("interval", interval))

	if meta.Immediate {
		p.performPoll(ctx, name, meta)
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("stopping poller", zap.String("name", name))
			return
		case <-ticker.C:
			p.performPoll(ctx, name, meta)
		}
	}
}

// performPoll executes a single poll operation
func (p *poller) performPoll(ctx context.Context, name string, meta MetaFunc) {
	ctx = logger.WithLogContext(ctx, logger.NewLogContext())
	logger.AddToContext(ctx, zap.String(logger.FieldPollName, name))

	if err := meta.FetchFunc(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.AddToContext(ctx, zap.Error(err), zap.Bool(logger.FieldSuccess, false))
		p.logger.Error("poll failed", logger.GetLogContext(ctx).Fields()...)
		return
	}
	logger.AddToContext(ctx, zap.Bool(logger.FieldSuccess, true))
	p.logger.Debug("poll succeeded", logger.GetLogContext(ctx).Fields()...)
}

// RegisterFetchFunc registers a fetch function with its polling configuration
func (p *poller) RegisterFetchFunc(name string, fetchFunc FetchFunc, config PollerConfig) error {
	if name == "" || fetchFunc == nil {
		return errors.New("invalid fetch function registration")
	}
	if config.PollIntervalSeconds <= 0 {
		return fmt.Errorf("poll %q: interval must be positive", name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return fmt.Errorf("poll %q: poller already started", name)
	}
	if _, exists := p.fetchFuncs[name]; exists {
		return fmt.Errorf("poll %q already registered", name)
	}
	p.fetchFuncs[name] = MetaFunc{
		FetchFunc:    fetchFunc,
		PollerConfig: config,
	}
	p.logger.Info("fetch function registered", zap.String("name", name), zap.Int("poll_interval_seconds", config.PollIntervalSeconds))
	return nil
}
