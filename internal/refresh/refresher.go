package refresh

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Alwanly/service-refresh-watcher/internal/clock"
	"github.com/Alwanly/service-refresh-watcher/internal/models"
	"github.com/Alwanly/service-refresh-watcher/internal/notify"
	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
)

const cycleKey = "refresh"

// RevisionClient lists the current revisions visible for a filter in one store.
type RevisionClient interface {
	ListRevisions(ctx context.Context, store models.StoreDefinition, keyFilter, labelFilter string) (models.Snapshot, error)
}

// StateStore keeps the last observed snapshot per (store, category).
type StateStore interface {
	Get(ctx context.Context, storeID string, category models.Category) (models.Snapshot, bool, error)
	Set(ctx context.Context, storeID string, category models.Category, snapshot models.Snapshot) error
}

// Observer receives cycle outcomes, typically for metrics.
type Observer interface {
	CycleSkipped()
	CycleCompleted(outcome string, duration time.Duration)
	StoreFailed(storeID string, category models.Category)
	Notified(changes int)
}

// Cycle outcomes reported to the Observer.
const (
	OutcomeUnchanged     = "unchanged"
	OutcomeNotified      = "notified"
	OutcomeFailed        = "failed"
	OutcomePublishFailed = "publish_failed"
)

// Config holds the store list and the global polling bound.
type Config struct {
	Stores []models.StoreDefinition
	// MinInterval is the minimum time between two poll attempts.
	MinInterval time.Duration
}

type Option func(*Refresher)

func WithClock(c clock.Clock) Option {
	return func(r *Refresher) { r.clock = c }
}

func WithLogger(l *logger.CanonicalLogger) Option {
	return func(r *Refresher) { r.log = l }
}

func WithObserver(o Observer) Option {
	return func(r *Refresher) { r.observer = o }
}

func WithKeyFilterResolver(fn KeyFilterResolver) Option {
	return func(r *Refresher) { r.resolve = fn }
}

// Refresher polls the configured stores and publishes one event per cycle that
// detected a change. It is safe for concurrent use; concurrent callers share the
// cycle in flight.
type Refresher struct {
	stores      []models.StoreDefinition
	minInterval time.Duration

	client   RevisionClient
	state    StateStore
	sink     notify.Sink
	clock    clock.Clock
	log      *logger.CanonicalLogger
	observer Observer
	resolve  KeyFilterResolver

	group singleflight.Group

	mu       sync.Mutex
	lastPoll time.Time
}

// New validates cfg and returns a Refresher. Misconfiguration is reported here
// rather than at poll time.
func New(cfg Config, client RevisionClient, state StateStore, sink notify.Sink, opts ...Option) (*Refresher, error) {
	if client == nil || state == nil || sink == nil {
		return nil, fmt.Errorf("%w: revision client, state store and sink are required", ErrInvalidConfig)
	}
	if cfg.MinInterval < 0 {
		return nil, fmt.Errorf("%w: negative minimum interval %s", ErrInvalidConfig, cfg.MinInterval)
	}

	r := &Refresher{
		minInterval: cfg.MinInterval,
		client:      client,
		state:       state,
		sink:        sink,
		clock:       clock.RealClock{},
		log:         logger.NewNop(),
		observer:    nopObserver{},
		resolve:     ResolveKeyFilter,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.Component("refresher")

	stores, err := r.checkStores(cfg.Stores)
	if err != nil {
		return nil, err
	}
	r.stores = stores

	return r, nil
}

func (r *Refresher) checkStores(defs []models.StoreDefinition) ([]models.StoreDefinition, error) {
	stores := make([]models.StoreDefinition, 0, len(defs))
	seen := make(map[string]struct{}, len(defs))

	for i, def := range defs {
		def = def.WithDefaults()
		id := strings.TrimSpace(def.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: store #%d has no id", ErrInvalidConfig, i)
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: duplicate store id %q", ErrInvalidConfig, id)
		}
		seen[id] = struct{}{}

		if def.Kind != models.StoreKindMemory && strings.TrimSpace(def.Endpoint) == "" {
			return nil, fmt.Errorf("%w: store %q has no endpoint", ErrInvalidConfig, id)
		}

		configFilter := r.resolve(def, models.CategoryConfiguration)
		featureFilter := r.resolve(def, models.CategoryFeatureFlag)
		if configFilter == "" || featureFilter == "" {
			return nil, fmt.Errorf("%w: store %q resolves to an empty key filter", ErrInvalidConfig, id)
		}
		if configFilter == featureFilter {
			return nil, fmt.Errorf("%w: store %q watches %q for both configuration and feature flags", ErrInvalidConfig, id, configFilter)
		}

		for _, filter := range []string{configFilter, featureFilter} {
			if bad := malformedPatterns(filter); len(bad) > 0 {
				r.log.Warn("key filter is not a valid pattern, matching literally",
					logger.String(logger.FieldStore, id),
					logger.Strings(logger.FieldKeyFilter, bad),
				)
			}
		}

		stores = append(stores, def)
	}
	return stores, nil
}

// Refresh runs one poll cycle if the minimum interval has elapsed since the last
// attempt. It reports whether a refresh event was published. A call made while a
// cycle is running waits for that cycle and shares its result.
//
// State is committed before the event is published, so a publish failure loses that
// notification. A state write that fails for one category after another category of
// the same store was committed leaves the store partly advanced: the committed change
// is published and the other category is detected again on the next cycle.
func (r *Refresher) Refresh(ctx context.Context) (bool, error) {
	ch := r.group.DoChan(cycleKey, func() (interface{}, error) {
		return r.refresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return false, res.Err
		}
		return res.Val.(bool), nil
	}
}

// LastPoll returns the instant of the last attempted cycle, zero if none.
func (r *Refresher) LastPoll() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastPoll
}

func (r *Refresher) refresh(ctx context.Context) (bool, error) {
	now := r.clock.Now()

	r.mu.Lock()
	last := r.lastPoll
	r.mu.Unlock()

	// A clock that stepped back behind lastPoll opens the gate instead of holding it shut.
	if !last.IsZero() && !now.Before(last) && now.Sub(last) < r.minInterval {
		r.observer.CycleSkipped()
		return false, nil
	}

	defer func() {
		r.mu.Lock()
		r.lastPoll = now
		r.mu.Unlock()
	}()

	cycleID := uuid.NewString()
	ctx = logger.WithCorrelationID(ctx, cycleID)
	log := r.log.WithCycle(cycleID)
	start := time.Now()

	results := make([]storeResult, len(r.stores))
	var g errgroup.Group
	for i, store := range r.stores {
		g.Go(func() error {
			results[i] = r.pollStore(ctx, store)
			return nil
		})
	}
	_ = g.Wait()

	var (
		changes []notify.Change
		errs    []error
	)
	for i, res := range results {
		// Changes written before a store failed are committed and still reported.
		changes = append(changes, res.changes...)
		if res.err != nil {
			errs = append(errs, fmt.Errorf("store %s: %w", r.stores[i].ID, res.err))
		}
	}

	if len(r.stores) > 0 && len(errs) == len(r.stores) && len(changes) == 0 {
		r.observer.CycleCompleted(OutcomeFailed, time.Since(start))
		log.Error("refresh cycle failed for every store", logger.Int(logger.FieldFailedCount, len(errs)))
		return false, errors.Join(append([]error{ErrAllStoresFailed}, errs...)...)
	}

	if len(changes) == 0 {
		r.observer.CycleCompleted(OutcomeUnchanged, time.Since(start))
		log.Debug("refresh cycle found no change", logger.Int(logger.FieldFailedCount, len(errs)))
		return false, nil
	}

	event := notify.Event{
		ID:         uuid.NewString(),
		Source:     notify.EventSource,
		Changes:    changes,
		OccurredAt: now.UTC(),
	}
	if err := r.sink.Publish(ctx, event); err != nil {
		// The new state is already recorded: this change will not be reported again.
		r.observer.CycleCompleted(OutcomePublishFailed, time.Since(start))
		log.WithError(err).Error("failed to publish refresh event",
			logger.String(logger.FieldEventID, event.ID),
			logger.Int(logger.FieldChangedCount, len(changes)),
		)
		return false, fmt.Errorf("%w: %w", ErrPublish, err)
	}

	r.observer.Notified(len(changes))
	r.observer.CycleCompleted(OutcomeNotified, time.Since(start))
	log.Info("configuration change detected, refresh event published",
		logger.String(logger.FieldEventID, event.ID),
		logger.Int(logger.FieldChangedCount, len(changes)),
		logger.Int(logger.FieldFailedCount, len(errs)),
	)
	return true, nil
}

type storeResult struct {
	changes []notify.Change
	err     error
}

type observation struct {
	category models.Category
	snapshot models.Snapshot
}

// pollStore fetches every category of store first, so a failing category leaves
// the whole store untouched.
func (r *Refresher) pollStore(ctx context.Context, store models.StoreDefinition) storeResult {
	log := r.log.WithStore(store.ID)
	labelFilter := LabelFilter(store)

	observed := make([]observation, 0, len(models.Categories))
	for _, category := range models.Categories {
		keyFilter := r.resolve(store, category)
		snapshot, err := r.client.ListRevisions(ctx, store, keyFilter, labelFilter)
		if err != nil {
			r.observer.StoreFailed(store.ID, category)
			log.WithError(err).Error("failed to list revisions",
				logger.String(logger.FieldCategory, category.String()),
				logger.String(logger.FieldKeyFilter, keyFilter),
				logger.String(logger.FieldLabelFilter, labelFilter),
			)
			return storeResult{err: fmt.Errorf("list %s revisions: %w", category, err)}
		}
		observed = append(observed, observation{category: category, snapshot: snapshot})
	}

	var changes []notify.Change
	for _, obs := range observed {
		prev, found, err := r.state.Get(ctx, store.ID, obs.category)
		if err != nil {
			r.observer.StoreFailed(store.ID, obs.category)
			log.WithError(err).Error("failed to read refresh state", logger.String(logger.FieldCategory, obs.category.String()))
			return storeResult{changes: changes, err: fmt.Errorf("read %s state: %w", obs.category, err)}
		}

		if found && prev.Equal(obs.snapshot) {
			continue
		}

		if err := r.state.Set(ctx, store.ID, obs.category, obs.snapshot.Clone()); err != nil {
			r.observer.StoreFailed(store.ID, obs.category)
			log.WithError(err).Error("failed to write refresh state", logger.String(logger.FieldCategory, obs.category.String()))
			return storeResult{changes: changes, err: fmt.Errorf("write %s state: %w", obs.category, err)}
		}

		if !found {
			log.Debug("baseline captured",
				logger.String(logger.FieldCategory, obs.category.String()),
				logger.Int("revisions", len(obs.snapshot)),
			)
			continue
		}

		keys := obs.snapshot.Diff(prev)
		log.Info("revisions changed",
			logger.String(logger.FieldCategory, obs.category.String()),
			logger.Strings("keys", keys),
		)
		changes = append(changes, notify.Change{Store: store.ID, Category: obs.category, Keys: keys})
	}

	return storeResult{changes: changes}
}

type nopObserver struct{}

func (nopObserver) CycleSkipped()                        {}
func (nopObserver) CycleCompleted(string, time.Duration) {}
func (nopObserver) StoreFailed(string, models.Category)  {}
func (nopObserver) Notified(int)                         {}
