package usecase

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
	"github.com/Alwanly/service-refresh-watcher/internal/notify"
	"github.com/Alwanly/service-refresh-watcher/internal/refresh"
	"github.com/Alwanly/service-refresh-watcher/internal/server/watcher/dto"
	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
	"github.com/Alwanly/service-refresh-watcher/pkg/wrapper"
)

// Refresher is the refresh surface the watcher exposes over HTTP.
type Refresher interface {
	Refresh(ctx context.Context) (bool, error)
	LastPoll() time.Time
}

// Pinger checks a notification broker connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

type UseCase struct {
	Refresher Refresher
	Stores    []models.StoreDefinition
	Logger    *logger.CanonicalLogger
	brokers   []broker

	mu        sync.RWMutex
	lastEvent *notify.Event
}

type UseCaseInterface interface {
	Refresh(ctx context.Context) wrapper.JSONResult
	Status(ctx context.Context) wrapper.JSONResult
	LastEvent(ctx context.Context) wrapper.JSONResult
}

func NewUseCase(refresher Refresher, stores []models.StoreDefinition, log *logger.CanonicalLogger) *UseCase {
	if log == nil {
		log = logger.NewNop()
	}
	return &UseCase{Refresher: refresher, Stores: stores, Logger: log}
}

type broker struct {
	name   string
	pinger Pinger
}

// AddBroker reports the named broker connection in Status.
func (uc *UseCase) AddBroker(name string, p Pinger) {
	uc.brokers = append(uc.brokers, broker{name: name, pinger: p})
}

// Track records every event received on events until the channel closes or ctx is done.
func (uc *UseCase) Track(ctx context.Context, events <-chan notify.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			uc.mu.Lock()
			uc.lastEvent = &event
			uc.mu.Unlock()
		}
	}
}

func (uc *UseCase) Refresh(ctx context.Context) wrapper.JSONResult {
	changed, err := uc.Refresher.Refresh(ctx)
	logger.AddToContext(ctx, logger.Bool(logger.FieldChanged, changed))
	if err != nil {
		logger.AddToContext(ctx, logger.Err(err))
		switch {
		case errors.Is(err, refresh.ErrAllStoresFailed), errors.Is(err, refresh.ErrPublish):
			return wrapper.ResponseFailed(http.StatusBadGateway, err.Error(), dto.RefreshResponse{Changed: changed})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return wrapper.ResponseFailed(http.StatusServiceUnavailable, "refresh abandoned", nil)
		default:
			uc.Logger.WithError(err).Error("refresh failed")
			return wrapper.ResponseFailed(http.StatusInternalServerError, "refresh failed", nil)
		}
	}
	return wrapper.ResponseSuccess(http.StatusOK, dto.RefreshResponse{Changed: changed})
}

func (uc *UseCase) Status(ctx context.Context) wrapper.JSONResult {
	res := dto.StatusResponse{Stores: make([]dto.StoreStatus, 0, len(uc.Stores))}
	for _, s := range uc.Stores {
		res.Stores = append(res.Stores, dto.StoreStatus{ID: s.ID, Kind: s.Kind})
	}
	for _, b := range uc.brokers {
		st := dto.BrokerStatus{Name: b.name, Connected: true}
		if err := b.pinger.Ping(ctx); err != nil {
			st.Connected = false
			st.Error = err.Error()
		}
		res.Brokers = append(res.Brokers, st)
	}
	if last := uc.Refresher.LastPoll(); !last.IsZero() {
		last = last.UTC()
		res.LastPoll = &last
	}
	uc.mu.RLock()
	res.LastEvent = uc.lastEvent
	uc.mu.RUnlock()

	return wrapper.ResponseSuccess(http.StatusOK, res)
}

func (uc *UseCase) LastEvent(_ context.Context) wrapper.JSONResult {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	if uc.lastEvent == nil {
		return wrapper.ResponseFailed(http.StatusNotFound, "no refresh event published yet", nil)
	}
	return wrapper.ResponseSuccess(http.StatusOK, *uc.lastEvent)
}
