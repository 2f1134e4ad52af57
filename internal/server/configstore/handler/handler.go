package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Alwanly/service-refresh-watcher/internal/config"
	"github.com/Alwanly/service-refresh-watcher/internal/server/configstore/dto"
	"github.com/Alwanly/service-refresh-watcher/internal/server/configstore/repository"
	"github.com/Alwanly/service-refresh-watcher/internal/server/configstore/usecase"
	"github.com/Alwanly/service-refresh-watcher/pkg/deps"
	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
	"github.com/Alwanly/service-refresh-watcher/pkg/middleware"
	"github.com/Alwanly/service-refresh-watcher/pkg/validator"
	"github.com/Alwanly/service-refresh-watcher/pkg/wrapper"
)

type Handler struct {
	Logger     *logger.CanonicalLogger
	UseCase    usecase.UseCaseInterface
	Config     *config.ConfigStoreConfig
	Middleware *middleware.AuthMiddleware
}

func NewHandler(d deps.App, cfg *config.ConfigStoreConfig) *Handler {
	repo := repository.NewRepository(d.Database)

	uc := usecase.NewUseCase(usecase.UseCase{
		Repo:   repo,
		Logger: d.Logger,
	})

	h := &Handler{
		Logger:     d.Logger,
		UseCase:    uc,
		Config:     cfg,
		Middleware: d.Middleware,
	}

	// Health check endpoint (no auth required)
	d.Fiber.Get("/health", h.health)

	// Reader endpoints
	d.Fiber.Get("/revisions", d.Middleware.BasicAuth(), h.listRevisions)
	d.Fiber.Get("/kv", d.Middleware.BasicAuth(), h.getSetting)

	// Admin-protected endpoints
	d.Fiber.Put("/kv", d.Middleware.BasicAuthAdmin(), h.putSetting)
	d.Fiber.Delete("/kv", d.Middleware.BasicAuthAdmin(), h.deleteSetting)

	return h
}

func (h *Handler) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// keyLabel reads the key and label query parameters. A missing key is a client error.
func keyLabel(c *fiber.Ctx) (string, string, bool) {
	key := strings.TrimSpace(c.Query("key"))
	label := strings.TrimSpace(c.Query("label"))
	logger.AddToContext(c.UserContext(), zap.String(logger.FieldKey, key), zap.String("label", label))
	return key, label, key != ""
}

// putSetting creates or replaces a setting (admin only). The response carries the new ETag.
func (h *Handler) putSetting(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "put_setting"))

	key, label, ok := keyLabel(c)
	if !ok {
		return wrapper.ResponseFailed(fiber.StatusBadRequest, "key is required", nil).Send(c)
	}

	req := new(dto.PutSettingRequest)
	if err := c.BodyParser(req); err != nil {
		logger.AddToContext(c.UserContext(), zap.Error(err))
		return wrapper.ResponseFailed(fiber.StatusBadRequest, "Invalid request body", nil).Send(c)
	}

	if err := validator.ValidateStruct(req); err != nil {
		logger.AddToContext(c.UserContext(), zap.Error(err))
		return wrapper.ResponseFailed(fiber.StatusBadRequest, "validation failed", validator.TranslateError(err)).Send(c)
	}

	return h.UseCase.PutSetting(c.UserContext(), key, label, req).Send(c)
}

func (h *Handler) getSetting(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "get_setting"))

	key, label, ok := keyLabel(c)
	if !ok {
		return wrapper.ResponseFailed(fiber.StatusBadRequest, "key is required", nil).Send(c)
	}

	res := h.UseCase.GetSetting(c.UserContext(), key, label)
	if res.ETag != "" && strings.Trim(c.Get(fiber.HeaderIfNoneMatch), `"`) == res.ETag {
		return c.SendStatus(fiber.StatusNotModified)
	}
	return res.Send(c)
}

func (h *Handler) deleteSetting(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "delete_setting"))

	key, label, ok := keyLabel(c)
	if !ok {
		return wrapper.ResponseFailed(fiber.StatusBadRequest, "key is required", nil).Send(c)
	}

	return h.UseCase.DeleteSetting(c.UserContext(), key, label).Send(c)
}

// listRevisions returns the (key, label, etag) triples matching the key and label filters.
func (h *Handler) listRevisions(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "list_revisions"))

	query := &dto.ListRevisionsQuery{
		Key:   c.Query("key"),
		Label: c.Query("label"),
	}

	return h.UseCase.ListRevisions(c.UserContext(), query).Send(c)
}
