package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrProductNotFound indicates the catalog does not know the product.
	ErrProductNotFound = errors.New("product not found")
	// ErrNotConfigured is returned when no catalog address was given.
	ErrNotConfigured = errors.New("catalog not configured")
)

// TooManyRequestsError represents rate limiting signal from the catalog.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Client resolves unit prices of catalog products.
type Client interface {
	Price(ctx context.Context, productID string) (decimal.Decimal, error)
}

// HTTPClient implements Client via HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

type response struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
}

// NewHTTPClient creates HTTP catalog client with default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("catalog url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 3 * time.Second,
		},
	}, nil
}

// Price fetches the current unit price of productID.
func (c *HTTPClient) Price(ctx context.Context, productID string) (decimal.Decimal, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/products/", url.PathEscape(productID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return decimal.Zero, err
		}
		var data response
		if err := json.Unmarshal(body, &data); err != nil {
			return decimal.Zero, fmt.Errorf("decode catalog response: %w", err)
		}
		if !data.Price.IsPositive() {
			return decimal.Zero, fmt.Errorf("catalog returned price %s for %s", data.Price.String(), productID)
		}
		return data.Price, nil
	case http.StatusNotFound, http.StatusNoContent:
		return decimal.Zero, ErrProductNotFound
	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return decimal.Zero, TooManyRequestsError{RetryAfter: retryAfter}
	default:
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("catalog request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return decimal.Zero, fmt.Errorf("catalog error: %s", resp.Status)
	}
}

type unconfigured struct{}

func (unconfigured) Price(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, ErrNotConfigured
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
