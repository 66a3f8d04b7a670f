package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/terra-clan/domain-lists/internal/models"
	"github.com/terra-clan/domain-lists/internal/resolver"
)

// Client is a Go SDK for the domain-lists API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new domain-lists client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is an error envelope returned by the server. View is set when the
// server still rendered something, e.g. the error view of an unavailable list.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	View       *models.View
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: HTTP %d %s - %s", e.StatusCode, e.Code, e.Message)
}

// PageRequest selects one page of one list. Zero values use server defaults.
type PageRequest struct {
	Type  models.FilterType
	Sort  models.SortMetric
	Date  models.DateRange
	Limit int
	Page  int
}

func (r PageRequest) query() url.Values {
	q := url.Values{}
	if r.Type != "" {
		q.Set("type", string(r.Type))
	}
	if r.Sort != "" {
		q.Set("sort", string(r.Sort))
	}
	if r.Date != "" {
		q.Set("date", string(r.Date))
	}
	if r.Limit > 0 {
		q.Set("limit", strconv.Itoa(r.Limit))
	}
	if r.Page > 0 {
		q.Set("page", strconv.Itoa(r.Page))
	}
	return q
}

// Resolution is the list file a selection maps to
type Resolution struct {
	Filename string `json:"filename"`
	Version  int64  `json:"version"`
	URL      string `json:"url"`
}

// Options returns the selectable filter values and their defaults
func (c *Client) Options(ctx context.Context) (*resolver.Options, error) {
	var opts resolver.Options
	if err := c.get(ctx, "/api/v1/lists/options", nil, &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

// Resolve returns the list file a selection maps to
func (c *Client) Resolve(ctx context.Context, req PageRequest) (*Resolution, error) {
	var res Resolution
	if err := c.get(ctx, "/api/v1/lists/resolve", req.query(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Page fetches one rendered page of a list. When the list could not be
// loaded the returned *APIError carries the error view.
func (c *Client) Page(ctx context.Context, req PageRequest) (*models.View, error) {
	var v models.View
	if err := c.get(ctx, "/api/v1/lists", req.query(), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil, nil)
}

// get performs a GET request and decodes the envelope's data into out
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode >= 400 {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success || resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
		}
		if len(result.Data) > 0 && string(result.Data) != "null" {
			var v models.View
			if err := json.Unmarshal(result.Data, &v); err == nil {
				apiErr.View = &v
			}
		}
		return apiErr
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
