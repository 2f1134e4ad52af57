package deps

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Alwanly/service-refresh-watcher/internal/metrics"
	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
	"github.com/Alwanly/service-refresh-watcher/pkg/middleware"
	"github.com/Alwanly/service-refresh-watcher/pkg/poll"
	"github.com/Alwanly/service-refresh-watcher/pkg/pubsub"
)

// App carries the shared dependencies handed to HTTP handlers. Fields a service
// does not use are left nil.
type App struct {
	Fiber      *fiber.App
	Logger     *logger.CanonicalLogger
	Database   *gorm.DB
	Middleware *middleware.AuthMiddleware
	Poller     poll.Poller
	Pub        pubsub.PubSub
	Metrics    metrics.Metrics
}
