package revision

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
)

// HTTPConfig configures an HTTPClient.
type HTTPConfig struct {
	Timeout time.Duration
	// RequestsPerSecond caps outgoing listing requests across every store. Zero disables the limit.
	RequestsPerSecond float64
}

// HTTPClient lists revisions from a configstore service over HTTP.
type HTTPClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.CanonicalLogger
}

func NewHTTPClient(cfg HTTPConfig, log *logger.CanonicalLogger) *HTTPClient {
	if log == nil {
		log = logger.NewNop()
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &HTTPClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		logger:     log.Component("http_revision_client"),
	}
}

type revisionsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Items []models.Revision `json:"items"`
	} `json:"data"`
}

func (c *HTTPClient) ListRevisions(ctx context.Context, store models.StoreDefinition, keyFilter, labelFilter string) (models.Snapshot, error) {
	conn, err := models.ParseConnection(store.Connection)
	if err != nil {
		return nil, fmt.Errorf("parse connection for store %s: %w", store.ID, err)
	}

	endpoint := strings.TrimSpace(store.Endpoint)
	if endpoint == "" {
		endpoint = conn.Get("endpoint")
	}
	if endpoint == "" {
		return nil, fmt.Errorf("store %s has no endpoint", store.ID)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("key", keyFilter)
	q.Set("label", labelFilter)
	reqURL := fmt.Sprintf("%s/revisions?%s", strings.TrimRight(endpoint, "/"), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if id := conn.Get("id"); id != "" {
		req.SetBasicAuth(id, conn.Get("secret"))
	}
	if cid := logger.GetCorrelationID(ctx); cid != "" {
		req.Header.Set("X-Request-ID", cid)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("list revisions failed with status %d: %s", resp.StatusCode, string(b))
	}

	var body revisionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode revisions response: %w", err)
	}

	c.logger.Debug("revisions listed",
		logger.String(logger.FieldStore, store.ID),
		logger.String(logger.FieldKeyFilter, keyFilter),
		logger.String(logger.FieldLabelFilter, labelFilter),
		logger.Int("revisions", len(body.Data.Items)),
	)

	if body.Data.Items == nil {
		return models.Snapshot{}, nil
	}
	return models.Snapshot(body.Data.Items), nil
}
