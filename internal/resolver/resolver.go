package resolver

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/terra-clan/domain-lists/internal/models"
)

// ErrUnknownSelection is returned when a selection value has no mapping
var ErrUnknownSelection = errors.New("unknown selection")

// ResourceID identifies one list file plus the cache-busting version it
// should be requested with
type ResourceID struct {
	Filename string `json:"filename"`
	Version  int64  `json:"version"`
}

// Query returns the cache-busting query string
func (id ResourceID) Query() url.Values {
	return url.Values{"v": []string{strconv.FormatInt(id.Version, 10)}}
}

// String returns the filename with its query, e.g. "all_today_auction.json?v=1700000000000"
func (id ResourceID) String() string {
	return id.Filename + "?" + id.Query().Encode()
}

// Resolver turns filter selections into list filenames
type Resolver struct {
	tables Tables
	now    func() time.Time
}

// Option configures the resolver
type Option func(*Resolver)

// WithClock sets the clock used for cache busting
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// New creates a resolver over the given tables
func New(tables Tables, opts ...Option) *Resolver {
	r := &Resolver{
		tables: tables,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tables returns the mapping tables in use
func (r *Resolver) Tables() Tables {
	return r.tables
}

// Filename resolves a selection to its list filename without a version
func (r *Resolver) Filename(sel models.FilterSelection) (string, error) {
	typeToken, err := lookup(r.tables.Types, "type", string(sel.Type))
	if err != nil {
		return "", err
	}
	dateToken, err := lookup(r.tables.Dates, "date", string(sel.Date))
	if err != nil {
		return "", err
	}
	sortToken, err := lookup(r.tables.Sorts, "sort", string(sel.Sort))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s_%s_%s.json", typeToken, dateToken, sortToken), nil
}

// Resolve resolves a selection and stamps it with the current time so every
// fetch bypasses intermediate caches
func (r *Resolver) Resolve(sel models.FilterSelection) (ResourceID, error) {
	name, err := r.Filename(sel)
	if err != nil {
		return ResourceID{}, err
	}
	return ResourceID{
		Filename: name,
		Version:  r.now().UnixMilli(),
	}, nil
}

func lookup(table map[string]string, field, value string) (string, error) {
	token, ok := table[value]
	if !ok || token == "" {
		return "", fmt.Errorf("%w: %s %q", ErrUnknownSelection, field, value)
	}
	return token, nil
}
