package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/sync/errgroup"

	"github.com/Alwanly/service-refresh-watcher/internal/config"
	"github.com/Alwanly/service-refresh-watcher/internal/metrics"
	"github.com/Alwanly/service-refresh-watcher/internal/models"
	"github.com/Alwanly/service-refresh-watcher/internal/notify"
	"github.com/Alwanly/service-refresh-watcher/internal/refresh"
	"github.com/Alwanly/service-refresh-watcher/internal/revision"
	watcherhandler "github.com/Alwanly/service-refresh-watcher/internal/server/watcher/handler"
	"github.com/Alwanly/service-refresh-watcher/internal/server/watcher/usecase"
	"github.com/Alwanly/service-refresh-watcher/internal/state"
	"github.com/Alwanly/service-refresh-watcher/pkg/database"
	"github.com/Alwanly/service-refresh-watcher/pkg/deps"
	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
	"github.com/Alwanly/service-refresh-watcher/pkg/middleware"
	"github.com/Alwanly/service-refresh-watcher/pkg/poll"
	"github.com/Alwanly/service-refresh-watcher/pkg/pubsub"
	"github.com/Alwanly/service-refresh-watcher/pkg/retry"
)

func main() {
	log, err := logger.NewLoggerFromEnv("watcher")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting watcher service")

	cfg, err := config.LoadWatcherConfig()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	stores, err := config.LoadStores(cfg.StoresFile)
	if err != nil {
		log.WithError(err).Fatal("failed to load stores", logger.String("path", cfg.StoresFile))
	}

	log.Info("configuration loaded",
		logger.String("watcher_addr", cfg.ServerAddr),
		logger.String("stores_file", cfg.StoresFile),
		logger.Int("stores", len(stores)),
		logger.Duration("refresh_interval", cfg.RefreshInterval),
		logger.String("state_backend", cfg.StateBackend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg.Connect.Jitter = true
	cfg.Connect.OnRetry = func(attempt int, backoff time.Duration, err error) {
		log.WithError(err).Warn("connection attempt failed, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("backoff", backoff),
		)
	}

	stateStore, closeState := newStateStore(ctx, cfg, log)
	defer closeState()

	natsRevisions := revision.NewNATSClient(revision.NATSConfig{Timeout: cfg.RequestTimeout}, log)
	defer natsRevisions.Close()

	router := revision.NewRouter().
		Register(models.StoreKindHTTP, revision.NewHTTPClient(revision.HTTPConfig{
			Timeout:           cfg.RequestTimeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}, log)).
		Register(models.StoreKindNATS, natsRevisions)

	broadcaster := notify.NewBroadcaster(log)
	targets := []notify.Target{{Name: "local", Sink: broadcaster}}
	type namedBroker struct {
		name   string
		broker pubsub.PubSub
	}
	var brokers []namedBroker

	if cfg.Redis != nil {
		var redisPub pubsub.PubSub
		err := retry.Do(ctx, cfg.Connect, func(ctx context.Context) error {
			var err error
			redisPub, err = pubsub.NewRedisPubSub(ctx, *cfg.Redis, log)
			return err
		})
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer redisPub.Close()
		brokers = append(brokers, namedBroker{name: "redis", broker: redisPub})
		targets = append(targets, notify.Target{Name: "redis", Sink: notify.NewPubSubSink(redisPub, cfg.NotifyChannel, log)})
		log.Info("redis notifications enabled", logger.String("addr", cfg.Redis.Addr()))
	}

	if cfg.NATSURL != "" {
		var natsPub pubsub.PubSub
		err := retry.Do(ctx, cfg.Connect, func(ctx context.Context) error {
			var err error
			natsPub, err = pubsub.NewNATSPubSub(pubsub.NATSConfig{URL: cfg.NATSURL, Name: "refresh-watcher", Timeout: cfg.RequestTimeout}, log)
			return err
		})
		if err != nil {
			log.WithError(err).Fatal("failed to connect to nats")
		}
		defer natsPub.Close()
		brokers = append(brokers, namedBroker{name: "nats", broker: natsPub})
		targets = append(targets, notify.Target{Name: "nats", Sink: notify.NewPubSubSink(natsPub, cfg.NotifyChannel, log)})
		log.Info("nats notifications enabled")
	}

	var refresher *refresh.Refresher
	collector := metrics.NewRefreshCollector(func() time.Time {
		if refresher == nil {
			return time.Time{}
		}
		return refresher.LastPoll()
	})
	m := metrics.New()
	if err := m.Register(collector.Collectors()...); err != nil {
		log.WithError(err).Fatal("failed to register metrics")
	}

	refresher, err = refresh.New(refresh.Config{
		Stores:      stores,
		MinInterval: cfg.RefreshInterval,
	}, router, stateStore, notify.NewMulti(targets...),
		refresh.WithLogger(log),
		refresh.WithObserver(collector),
	)
	if err != nil {
		log.WithError(err).Fatal("invalid refresh configuration")
	}

	app := fiber.New(fiber.Config{
		AppName:               "Refresh Watcher",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.CanonicalLoggerMiddleware(log))
	if cfg.RefreshOnRequest {
		app.Use(middleware.RefreshOnRequest(refresher, log))
	}

	uc := usecase.NewUseCase(refresher, stores, log)
	for _, b := range brokers {
		uc.AddBroker(b.name, b.broker)
	}
	events, unsubscribe := broadcaster.Subscribe(16)
	defer unsubscribe()
	go uc.Track(ctx, events)

	poller := poll.NewPoller(log)
	if cfg.BackgroundPollInterval > 0 {
		err := poller.RegisterFetchFunc("refresh", func(ctx context.Context) error {
			changed, err := refresher.Refresh(ctx)
			logger.AddToContext(ctx, logger.Bool(logger.FieldChanged, changed))
			return err
		}, poll.PollerConfig{PollIntervalSeconds: int(cfg.BackgroundPollInterval / time.Second), Immediate: true})
		if err != nil {
			log.WithError(err).Fatal("failed to register background refresh")
		}
	}

	watcherhandler.NewHandler(deps.App{
		Fiber:   app,
		Logger:  log,
		Poller:  poller,
		Metrics: m,
	}, uc)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("watcher service is running", logger.String("address", cfg.ServerAddr))
		if err := app.Listen(cfg.ServerAddr); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return poller.Start(gCtx)
	})

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info("received shutdown signal", logger.String("signal", sig.String()))
		case <-gCtx.Done():
			log.Info("context cancelled")
		}

		if err := poller.Stop(); err != nil {
			log.WithError(err).Error("error stopping poller")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Error("error during server shutdown")
		}

		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("watcher service stopped with error")
		os.Exit(1)
	}

	log.Info("watcher service stopped gracefully")
}

// newStateStore opens the configured state backend and returns it with its close function.
func newStateStore(ctx context.Context, cfg *config.WatcherConfig, log *logger.CanonicalLogger) (refresh.StateStore, func()) {
	switch cfg.StateBackend {
	case config.StateBackendMemory:
		return state.NewMemoryStore(), func() {}
	case config.StateBackendSQLite:
		db, err := database.NewSQLiteDB(cfg.StateDatabasePath, database.Options{Silent: true})
		if err != nil {
			log.WithError(err).Fatal("failed to initialize state database")
		}
		if err := database.RunMigrations(db); err != nil {
			log.WithError(err).Fatal("failed to migrate state database")
		}
		store, err := state.OpenGormStore(ctx, db, cfg.StateResetOnStart)
		if err != nil {
			log.WithError(err).Fatal("failed to reset state database")
		}
		log.Info("state database initialized",
			logger.String("path", cfg.StateDatabasePath),
			logger.Bool("reset", cfg.StateResetOnStart),
		)
		return store, func() {
			if conn, err := db.DB(); err == nil {
				_ = conn.Close()
			}
		}
	default:
		log.Fatal("unknown state backend", logger.String("state_backend", cfg.StateBackend))
		return nil, func() {}
	}
}
