package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/Alwanly/service-refresh-watcher/internal/server/watcher/usecase"
	"github.com/Alwanly/service-refresh-watcher/pkg/deps"
	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
)

type Handler struct {
	Logger  *logger.CanonicalLogger
	UseCase usecase.UseCaseInterface
}

func NewHandler(d deps.App, uc usecase.UseCaseInterface) *Handler {
	h := &Handler{
		Logger:  d.Logger,
		UseCase: uc,
	}

	d.Fiber.Get("/health", h.health)
	d.Fiber.Post("/refresh", h.refresh)
	d.Fiber.Get("/events/latest", h.lastEvent)

	if d.Metrics != nil {
		d.Fiber.Get("/metrics", adaptor.HTTPHandler(d.Metrics.HTTPHandler()))
	}

	return h
}

func (h *Handler) health(c *fiber.Ctx) error {
	return h.UseCase.Status(c.UserContext()).Send(c)
}

// refresh runs a refresh cycle now, subject to the minimum poll interval.
func (h *Handler) refresh(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "refresh"))
	return h.UseCase.Refresh(c.UserContext()).Send(c)
}

func (h *Handler) lastEvent(c *fiber.Ctx) error {
	return h.UseCase.LastEvent(c.UserContext()).Send(c)
}
