package lists

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/terra-clan/domain-lists/internal/models"
	"github.com/terra-clan/domain-lists/internal/resolver"
)

// ErrResourceUnavailable covers every way a list file can fail to load:
// transport errors, non-2xx responses and bodies without a domains list
var ErrResourceUnavailable = errors.New("resource unavailable")

// ErrMalformedList marks a response that arrived but is not a usable list file.
// It is always wrapped together with ErrResourceUnavailable.
var ErrMalformedList = errors.New("malformed list file")

const defaultMaxBodyBytes = 32 << 20

// StatusError reports a non-2xx response from the list host
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d from %s", ErrResourceUnavailable, e.StatusCode, e.URL)
}

// Unwrap lets errors.Is match ErrResourceUnavailable
func (e *StatusError) Unwrap() error {
	return ErrResourceUnavailable
}

// Reason summarises a load error for display. Unlike err.Error() it never
// contains the resource URL.
func Reason(err error) string {
	var statusErr *StatusError
	var netErr net.Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &statusErr):
		return fmt.Sprintf("HTTP %d", statusErr.StatusCode)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "request timed out"
	case errors.Is(err, ErrMalformedList):
		return ErrMalformedList.Error()
	case errors.Is(err, ErrResourceUnavailable):
		return ErrResourceUnavailable.Error()
	default:
		return "unexpected error"
	}
}

// Loader fetches resolved list files
type Loader interface {
	Load(ctx context.Context, id resolver.ResourceID) (models.ResultSet, error)
}

// HTTPLoader loads list files from one static host
type HTTPLoader struct {
	baseURL      *url.URL
	httpClient   *http.Client
	maxBodyBytes int64
}

// Option configures the loader
type Option func(*HTTPLoader)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(l *HTTPLoader) {
		l.httpClient = client
	}
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(l *HTTPLoader) {
		l.httpClient.Timeout = timeout
	}
}

// WithMaxBodyBytes caps how much of a response body is read
func WithMaxBodyBytes(n int64) Option {
	return func(l *HTTPLoader) {
		if n > 0 {
			l.maxBodyBytes = n
		}
	}
}

// NewHTTPLoader creates a loader rooted at baseURL, e.g.
// "https://example.org/Talxa.com/Lists". The base is fixed for the lifetime
// of the loader.
func NewHTTPLoader(baseURL string, opts ...Option) (*HTTPLoader, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid lists base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid lists base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid lists base URL %q: missing host", baseURL)
	}

	l := &HTTPLoader{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxBodyBytes: defaultMaxBodyBytes,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// BaseURL returns the configured base
func (l *HTTPLoader) BaseURL() string {
	return l.baseURL.String()
}

// URL returns the full, cache-busted URL for a resource
func (l *HTTPLoader) URL(id resolver.ResourceID) string {
	u := *l.baseURL
	u.Path = u.Path + "/" + id.Filename
	u.RawPath = ""
	u.RawQuery = id.Query().Encode()
	return u.String()
}

// listFile is the wire shape of a list file
type listFile struct {
	Domains *[]models.DomainRecord `json:"domains"`
}

// Load fetches and decodes one list file. No retry is attempted.
func (l *HTTPLoader) Load(ctx context.Context, id resolver.ResourceID) (models.ResultSet, error) {
	target := l.URL(id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrResourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", ErrResourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: target}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrResourceUnavailable, err)
	}
	if int64(len(body)) > l.maxBodyBytes {
		return nil, fmt.Errorf("%w: %w: response larger than %d bytes", ErrResourceUnavailable, ErrMalformedList, l.maxBodyBytes)
	}

	var file listFile
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrResourceUnavailable, ErrMalformedList, err)
	}
	if file.Domains == nil {
		return nil, fmt.Errorf("%w: %w: no domains field", ErrResourceUnavailable, ErrMalformedList)
	}

	slog.Debug("list loaded",
		"file", id.Filename,
		"records", len(*file.Domains),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return models.ResultSet(*file.Domains), nil
}

// Ping checks that the list host answers. A 404 on the directory is fine;
// transport failures and 5xx are not.
func (l *HTTPLoader) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, l.baseURL.String()+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("lists host unreachable: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("lists host returned HTTP %d", resp.StatusCode)
	}
	return nil
}
