package handler

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alwanly/service-refresh-watcher/internal/config"
	"github.com/Alwanly/service-refresh-watcher/internal/models"
	authentication "github.com/Alwanly/service-refresh-watcher/pkg/auth"
	"github.com/Alwanly/service-refresh-watcher/pkg/database"
	"github.com/Alwanly/service-refresh-watcher/pkg/deps"
	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
	"github.com/Alwanly/service-refresh-watcher/pkg/middleware"
)

const (
	adminAuth  = "admin:password"
	readerAuth = "reader:readerpass"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "configstore.db"), database.Options{Silent: true})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	log := logger.NewNop()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(log)})
	app.Use(middleware.CanonicalLoggerMiddleware(log))

	NewHandler(deps.App{
		Fiber:    app,
		Logger:   log,
		Database: db,
		Middleware: middleware.NewAuthMiddleware(middleware.SetBasicAuth(&authentication.BasicAuthTConfig{
			Username:      "reader",
			Password:      "readerpass",
			AdminUsername: "admin",
			AdminPassword: "password",
		})),
	}, &config.ConfigStoreConfig{})
	return app
}

func do(t *testing.T, app *fiber.App, method, target, auth, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func kvURL(key, label string) string {
	q := url.Values{}
	q.Set("key", key)
	if label != "" {
		q.Set("label", label)
	}
	return "/kv?" + q.Encode()
}

type revisionsBody struct {
	Data struct {
		Items []models.Revision `json:"items"`
	} `json:"data"`
}

func listRevisions(t *testing.T, app *fiber.App, key, label string) []models.Revision {
	t.Helper()
	q := url.Values{}
	q.Set("key", key)
	q.Set("label", label)
	resp := do(t, app, http.MethodGet, "/revisions?"+q.Encode(), readerAuth, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body revisionsBody
	require.NoError(t, json.Unmarshal(raw, &body))
	return body.Data.Items
}

func TestHealth(t *testing.T) {
	resp := do(t, newTestApp(t), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSettingLifecycle(t *testing.T) {
	app := newTestApp(t)

	resp := do(t, app, http.MethodPut, kvURL("/application/db.url", ""), adminAuth, `{"value":"postgres://a"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get(fiber.HeaderETag)
	require.NotEmpty(t, etag)

	resp = do(t, app, http.MethodGet, kvURL("/application/db.url", ""), readerAuth, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, etag, resp.Header.Get(fiber.HeaderETag))

	req := httptest.NewRequest(http.MethodGet, kvURL("/application/db.url", ""), nil)
	req.Header.Set(fiber.HeaderAuthorization, "Basic "+base64.StdEncoding.EncodeToString([]byte(readerAuth)))
	req.Header.Set(fiber.HeaderIfNoneMatch, etag)
	notModified, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotModified, notModified.StatusCode)

	resp = do(t, app, http.MethodPut, kvURL("/application/db.url", ""), adminAuth, `{"value":"postgres://b"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEqual(t, etag, resp.Header.Get(fiber.HeaderETag))

	resp = do(t, app, http.MethodDelete, kvURL("/application/db.url", ""), adminAuth, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, app, http.MethodGet, kvURL("/application/db.url", ""), readerAuth, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWritesRequireAdmin(t *testing.T) {
	app := newTestApp(t)

	resp := do(t, app, http.MethodPut, kvURL("/application/a", ""), readerAuth, `{"value":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/revisions", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPutSettingValidation(t *testing.T) {
	app := newTestApp(t)

	resp := do(t, app, http.MethodPut, "/kv", adminAuth, `{"value":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing key")

	resp = do(t, app, http.MethodPut, kvURL("/application/a", ""), adminAuth, `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing value")

	resp = do(t, app, http.MethodPut, kvURL("/application/a", ""), adminAuth, `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListRevisionsFiltersByKeyAndLabel(t *testing.T) {
	app := newTestApp(t)
	for _, s := range []struct{ key, label string }{
		{"/application/a", ""},
		{"/application/a", "prod"},
		{"/application/b", ""},
		{".appconfig.featureflag/beta", ""},
	} {
		resp := do(t, app, http.MethodPut, kvURL(s.key, s.label), adminAuth, `{"value":"v"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	assert.Len(t, listRevisions(t, app, "/application/*", "*"), 3)
	assert.Len(t, listRevisions(t, app, "/application/*", `\0`), 2)

	prod := listRevisions(t, app, "/application/*", "prod")
	require.Len(t, prod, 1)
	assert.Equal(t, "prod", prod[0].Label)

	flags := listRevisions(t, app, ".appconfig.featureflag/*", "*")
	require.Len(t, flags, 1)
	assert.Equal(t, ".appconfig.featureflag/beta", flags[0].Key)

	assert.Len(t, listRevisions(t, app, "*", "*"), 4)
}
