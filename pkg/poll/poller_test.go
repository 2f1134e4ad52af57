package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
)

func TestPollerImmediateRun(t *testing.T) {
	p := NewPoller(logger.NewNop())
	var calls atomic.Int32
	require.NoError(t, p.RegisterFetchFunc("refresh", func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("ignored")
	}, PollerConfig{PollIntervalSeconds: 60, Immediate: true}))

	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, p.Stop())
	assert.EqualValues(t, 1, calls.Load())
}

func TestPollerRegistration(t *testing.T) {
	p := NewPoller(logger.NewNop())
	noop := func(ctx context.Context) error { return nil }

	assert.Error(t, p.RegisterFetchFunc("", noop, PollerConfig{PollIntervalSeconds: 1}))
	assert.Error(t, p.RegisterFetchFunc("x", nil, PollerConfig{PollIntervalSeconds: 1}))
	assert.Error(t, p.RegisterFetchFunc("x", noop, PollerConfig{}))
	require.NoError(t, p.RegisterFetchFunc("x", noop, PollerConfig{PollIntervalSeconds: 1}))
	assert.Error(t, p.RegisterFetchFunc("x", noop, PollerConfig{PollIntervalSeconds: 1}), "duplicate name")

	require.NoError(t, p.Start(context.Background()))
	assert.Error(t, p.Start(context.Background()))
	assert.Error(t, p.RegisterFetchFunc("y", noop, PollerConfig{PollIntervalSeconds: 1}))
	require.NoError(t, p.Stop())
}

func TestPollerStopsWithContext(t *testing.T) {
	p := NewPoller(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.RegisterFetchFunc("x", func(ctx context.Context) error { return nil }, PollerConfig{PollIntervalSeconds: 1}))
	require.NoError(t, p.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		_ = p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}
