package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
)

// Refresher runs a rate-limited configuration refresh.
type Refresher interface {
	Refresh(ctx context.Context) (bool, error)
}

// RefreshOnRequest triggers a refresh for every request it sees. The refresh runs in
// the background, so the request is never delayed nor failed by it.
func RefreshOnRequest(r Refresher, log *logger.CanonicalLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.WithoutCancel(c.UserContext())
		path := c.Path()

		go func() {
			changed, err := r.Refresh(ctx)
			if err != nil {
				log.WithError(err).Warn("refresh on request failed", logger.String("path", path))
				return
			}
			if changed {
				log.Info("refresh on request published an event", logger.String("path", path))
			}
		}()

		return c.Next()
	}
}
