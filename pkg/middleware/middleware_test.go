package middleware

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authentication "github.com/Alwanly/service-refresh-watcher/pkg/auth"
	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
)

func basicHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func newAuthApp() *fiber.App {
	auth := NewAuthMiddleware(SetBasicAuth(&authentication.BasicAuthTConfig{
		Username:      "reader",
		Password:      "readerpass",
		AdminUsername: "admin",
		AdminPassword: "password",
	}))
	app := fiber.New()
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Get("/read", auth.BasicAuth(), ok)
	app.Get("/admin", auth.BasicAuthAdmin(), ok)
	return app
}

func TestBasicAuthMiddleware(t *testing.T) {
	app := newAuthApp()

	tests := []struct {
		path   string
		header string
		want   int
	}{
		{"/read", "", fiber.StatusUnauthorized},
		{"/read", "Bearer token", fiber.StatusUnauthorized},
		{"/read", basicHeader("reader", "readerpass"), fiber.StatusOK},
		{"/read", basicHeader("admin", "password"), fiber.StatusOK},
		{"/admin", basicHeader("reader", "readerpass"), fiber.StatusUnauthorized},
		{"/admin", basicHeader("admin", "password"), fiber.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", tt.path, nil)
		if tt.header != "" {
			req.Header.Set(fiber.HeaderAuthorization, tt.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tt.want, resp.StatusCode, "%s %q", tt.path, tt.header)
		if tt.want == fiber.StatusUnauthorized {
			assert.NotEmpty(t, resp.Header.Get(fiber.HeaderWWWAuthenticate))
		}
	}
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger.NewNop())})
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })

	resp, err := app.Test(httptest.NewRequest("GET", "/teapot", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

type fakeRefresher struct {
	calls chan struct{}
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context) (bool, error) {
	f.calls <- struct{}{}
	return false, f.err
}

func TestRefreshOnRequest(t *testing.T) {
	r := &fakeRefresher{calls: make(chan struct{}, 2), err: errors.New("store down")}
	app := fiber.New()
	app.Use(RefreshOnRequest(r, logger.NewNop()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "refresh failures never fail the request")

	select {
	case <-r.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh was not triggered")
	}
}

func TestCanonicalLoggerMiddlewareSetsContext(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "req-1")
		return c.Next()
	})
	app.Use(CanonicalLoggerMiddleware(logger.NewNop()))
	app.Get("/", func(c *fiber.Ctx) error {
		assert.Equal(t, "req-1", logger.GetCorrelationID(c.UserContext()))
		assert.NotNil(t, logger.GetLogContext(c.UserContext()))
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
