package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/casualty-data-service/internal/domain"
	"github.com/couchcryptid/casualty-data-service/internal/observability"
)

// maxErrorBody caps how much of a failed response body is kept for the error.
const maxErrorBody = 512

// Client performs bounded GET requests against the remote dataset sources.
type Client struct {
	httpClient *http.Client
	userAgent  string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a client whose every request is bounded by timeout.
func NewClient(timeout time.Duration, userAgent string, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		metrics:   metrics,
		logger:    logger,
	}
}

// Get fetches url and returns the full body. Failures are classified as
// *domain.NetworkError (including the timeout) or *domain.HTTPError.
// source labels the request in metrics, e.g. "csv" or "json".
func (c *Client) Get(ctx context.Context, url, source string) ([]byte, error) {
	start := time.Now()
	defer func() {
		c.metrics.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.HTTPError{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Debug("source fetched", "url", url, "source", source, "bytes", len(body), "duration", time.Since(start))
	return body, nil
}
