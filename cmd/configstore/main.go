package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	_ "github.com/joho/godotenv/autoload"

	"github.com/Alwanly/service-refresh-watcher/internal/config"
	"github.com/Alwanly/service-refresh-watcher/internal/server/configstore/handler"
	authentication "github.com/Alwanly/service-refresh-watcher/pkg/auth"
	"github.com/Alwanly/service-refresh-watcher/pkg/database"
	"github.com/Alwanly/service-refresh-watcher/pkg/deps"
	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
	"github.com/Alwanly/service-refresh-watcher/pkg/middleware"
)

func main() {
	log, err := logger.NewLoggerFromEnv("configstore")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting configstore service")

	cfg, err := config.LoadConfigStoreConfig()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	log.Info("configuration loaded",
		logger.String("server_addr", cfg.ServerAddr),
		logger.String("database_path", cfg.DatabasePath),
	)

	auth := middleware.SetBasicAuth(&authentication.BasicAuthTConfig{
		Username:      cfg.ReaderUsername,
		Password:      cfg.ReaderPassword,
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
	})
	mid := middleware.NewAuthMiddleware(auth)
	log.Info("authentication initialized")

	db, err := database.NewSQLiteDB(cfg.DatabasePath, database.Options{})
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	log.Info("database initialized", logger.String("path", cfg.DatabasePath))

	if err := database.RunMigrations(db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}
	log.Info("database migrations applied successfully")

	app := fiber.New(fiber.Config{
		AppName:               "Config Store Service",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.CanonicalLoggerMiddleware(log))

	handler.NewHandler(deps.App{
		Fiber:      app,
		Database:   db,
		Logger:     log,
		Middleware: mid,
	}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	gErr, gCtx := errgroup.WithContext(ctx)

	gErr.Go(func() error {
		log.Info("configstore service is running", logger.String("address", cfg.ServerAddr))
		if err := app.Listen(cfg.ServerAddr); err != nil {
			cancel()
			return err
		}
		return nil
	})

	gErr.Go(func() error {
		<-gCtx.Done()

		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("failed to shutdown fiber app")
			return err
		}

		conn, err := db.DB()
		if err != nil {
			log.WithError(err).Error("failed to get database connection")
			return err
		}
		if err := conn.Close(); err != nil {
			log.WithError(err).Error("failed to close database")
			return err
		}

		return nil
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Info("shutdown signal received")
		cancel()
	}()

	if err := gErr.Wait(); err != nil {
		log.WithError(err).Fatal("configstore service encountered an error")
	}

	log.Info("configstore service stopped gracefully")
}
