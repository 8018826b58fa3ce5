// Package holidays fetches public holidays for a country and year from an
// external source, caching results with a freshness window and degrading to
// an empty list when the source is unavailable.
package holidays

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/maypok86/otter/v2"

	"github.com/fairmeet/fairmeet/pkg/constants"
)

// DefaultBaseURL is the public holiday source queried when no override is set.
const DefaultBaseURL = "https://date.nager.at/api/v3"

var (
	// ErrInvalidArgument reports a malformed country code or an out-of-range year.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrFetchExhausted marks a lookup that failed every attempt. It is logged,
	// counted, and swallowed by Holidays; callers only ever see the degraded
	// empty result.
	ErrFetchExhausted = errors.New("holiday fetch attempts exhausted")
)

// Holiday is a public holiday on a single calendar day. Date carries no
// meaningful time component; only its year, month, and day are compared.
type Holiday struct {
	Date        time.Time `json:"date"`
	Name        string    `json:"name"`
	LocalName   string    `json:"local_name,omitempty"`
	CountryCode string    `json:"country_code"`
}

// apiHoliday is the wire shape of the external source's response entries.
type apiHoliday struct {
	Date        string   `json:"date"`
	Name        string   `json:"name"`
	LocalName   string   `json:"localName"`
	CountryCode string   `json:"countryCode"`
	Fixed       bool     `json:"fixed"`
	Global      bool     `json:"global"`
	Counties    []string `json:"counties"`
	Types       []string `json:"types"`
}

// cacheEntry pairs a fetched list with the moment it was fetched. Freshness
// is re-checked against ExpiresAt on every read so an injected clock can
// simulate the passage of days in tests.
type cacheEntry struct {
	Holidays  []Holiday
	CachedAt  time.Time
	ExpiresAt time.Time
}

// degradedTTL is how long an empty result from a failed lookup is served
// before the source is tried again. Without it, a single 24-hour heatmap
// against a down source would sit through the full retry schedule once per
// hour evaluated.
const degradedTTL = time.Minute

// Client looks up public holidays with an in-memory TTL cache, an optional
// persistent store, and retry-with-backoff around the external source.
// Safe for concurrent use.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	cache      *otter.Cache[string, cacheEntry]
	store      Store
	now        func() time.Time
	baseURL    string
	scope      string
	ttl        time.Duration
	backoff    time.Duration
	attempts   uint
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the external holiday source base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the HTTP client used for fetches.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithScope sets the tenant scope that namespaces cache entries.
func WithScope(scope string) Option {
	return func(c *Client) { c.scope = scope }
}

// WithStore attaches a persistent store consulted between the in-memory
// cache and the network, and written through on successful fetches.
func WithStore(store Store) Option {
	return func(c *Client) { c.store = store }
}

// WithTTL overrides the cache freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// WithAttempts overrides the number of fetch attempts per lookup.
func WithAttempts(n uint) Option {
	return func(c *Client) { c.attempts = n }
}

// WithBackoff overrides the initial retry delay. Subsequent delays double.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithClock overrides the time source used for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewWithLogger creates a holiday Client with the given logger and options.
func NewWithLogger(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		logger:     logger,
		httpClient: &http.Client{Timeout: constants.HTTPTimeout},
		now:        time.Now,
		baseURL:    DefaultBaseURL,
		scope:      "default",
		ttl:        constants.HolidayCacheTTL,
		backoff:    constants.FetchBackoff,
		attempts:   constants.FetchAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.cache = otter.Must(&otter.Options[string, cacheEntry]{
		MaximumSize:      10_000,
		InitialCapacity:  256,
		ExpiryCalculator: otter.ExpiryWriting[string, cacheEntry](c.ttl),
	})
	return c
}

// Holidays returns the public holidays for a country and year. The lookup
// order is in-memory cache, persistent store, then the external source with
// up to attempts tries and exponential backoff. A 404 from the source is an
// authoritative empty result and is never retried. When every attempt fails
// the lookup degrades to an empty list rather than an error, so a scheduling
// request never hard-fails on holiday-source unavailability; the degradation
// is logged and counted for operational monitoring.
//
// The only error returned is ErrInvalidArgument for a malformed country code
// or an out-of-range year.
func (c *Client) Holidays(ctx context.Context, countryCode string, year int) ([]Holiday, error) {
	country, err := normalizeCountry(countryCode)
	if err != nil {
		return nil, err
	}
	if year < constants.MinYear || year > constants.MaxYear {
		return nil, fmt.Errorf("%w: year %d out of range [%d, %d]",
			ErrInvalidArgument, year, constants.MinYear, constants.MaxYear)
	}

	key := cacheKey(c.scope, country, year)
	if entry, ok := c.cache.GetIfPresent(key); ok {
		// Otter expires on wall-clock time; re-check against the injected
		// clock so freshness stays testable with simulated time.
		if c.now().Before(entry.ExpiresAt) {
			cacheHits.Inc()
			return entry.Holidays, nil
		}
		c.cache.Invalidate(key)
	}

	if c.store != nil {
		list, cachedAt, err := c.store.Load(ctx, c.scope, country, year)
		if err != nil {
			c.logger.Warn("holiday store read failed", "country", country, "year", year, "error", err)
		} else if !cachedAt.IsZero() && c.now().Sub(cachedAt) < c.ttl {
			c.cache.Set(key, cacheEntry{Holidays: list, CachedAt: cachedAt, ExpiresAt: cachedAt.Add(c.ttl)})
			storeHits.Inc()
			return list, nil
		}
	}

	list, err := c.fetch(ctx, country, year)
	if err != nil {
		degradedTotal.Inc()
		c.logger.Warn("holiday lookup degraded to empty result",
			"country", country, "year", year, "error", err)
		now := c.now()
		c.cache.Set(key, cacheEntry{Holidays: []Holiday{}, CachedAt: now, ExpiresAt: now.Add(degradedTTL)})
		return []Holiday{}, nil
	}

	now := c.now()
	c.cache.Set(key, cacheEntry{Holidays: list, CachedAt: now, ExpiresAt: now.Add(c.ttl)})
	if c.store != nil {
		if err := c.store.Upsert(ctx, c.scope, country, year, list, now); err != nil {
			c.logger.Warn("holiday store write failed", "country", country, "year", year, "error", err)
		}
	}
	return list, nil
}

// fetch calls the external source with retry and exponential backoff.
// Transient failures (network errors, non-2xx other than 404) are retried;
// a 404 short-circuits as a valid empty result.
func (c *Client) fetch(ctx context.Context, country string, year int) ([]Holiday, error) {
	url := fmt.Sprintf("%s/PublicHolidays/%d/%s", c.baseURL, year, country)

	var list []Holiday
	err := retry.Do(
		func() error {
			fetched, err := c.fetchOnce(ctx, url)
			if err != nil {
				return err
			}
			list = fetched
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.backoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying holiday fetch", "attempt", n+1, "url", url, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchExhausted, url, err)
	}
	return list, nil
}

// fetchOnce performs a single request against the holiday source.
func (c *Client) fetchOnce(ctx context.Context, url string) ([]Holiday, error) {
	fetchTotal.Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building holiday request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		fetchFailures.Inc()
		return nil, fmt.Errorf("holiday source request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close holiday response body", "error", closeErr)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// No data for this country/year. Authoritative, not a failure.
		fetchNotFound.Inc()
		return []Holiday{}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		fetchFailures.Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("holiday source HTTP %d: %s", resp.StatusCode, body)
	}

	var raw []apiHoliday
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		fetchFailures.Inc()
		return nil, fmt.Errorf("decoding holiday response: %w", err)
	}

	list := make([]Holiday, 0, len(raw))
	for _, h := range raw {
		date, err := time.Parse(time.DateOnly, h.Date)
		if err != nil {
			c.logger.Debug("skipping holiday with malformed date", "date", h.Date, "name", h.Name)
			continue
		}
		list = append(list, Holiday{
			Date:        date,
			Name:        h.Name,
			LocalName:   h.LocalName,
			CountryCode: h.CountryCode,
		})
	}
	return list, nil
}

// prefetchWorkers bounds the concurrency of batch prefetches.
const prefetchWorkers = 4

// Prefetch warms the cache for the current and next year for each country.
// Individual failures are swallowed so one country cannot abort the batch;
// failed lookups degrade inside Holidays and surface only in logs.
func (c *Client) Prefetch(ctx context.Context, countryCodes []string) {
	year := c.now().UTC().Year()

	type job struct {
		country string
		year    int
	}
	jobs := make(chan job)

	var wg sync.WaitGroup
	for i := 0; i < prefetchWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if _, err := c.Holidays(ctx, j.country, j.year); err != nil {
					c.logger.Warn("prefetch skipped", "country", j.country, "year", j.year, "error", err)
				}
			}
		}()
	}

	for _, cc := range countryCodes {
		jobs <- job{country: cc, year: year}
		jobs <- job{country: cc, year: year + 1}
	}
	close(jobs)
	wg.Wait()
}

// Match returns the holiday falling on date's calendar day, or nil. The
// comparison uses date's own location, so an instant at 23:59:59 local time
// on a holiday still matches and the UTC day is irrelevant.
func Match(date time.Time, list []Holiday) *Holiday {
	y, m, d := date.Date()
	for i := range list {
		hy, hm, hd := list[i].Date.Date()
		if hy == y && hm == m && hd == d {
			return &list[i]
		}
	}
	return nil
}

// normalizeCountry validates a two-letter country code and upper-cases it.
func normalizeCountry(code string) (string, error) {
	if len(code) != 2 {
		return "", fmt.Errorf("%w: country code %q must be exactly 2 letters", ErrInvalidArgument, code)
	}
	out := make([]byte, 2)
	for i := 0; i < 2; i++ {
		ch := code[i]
		switch {
		case ch >= 'a' && ch <= 'z':
			out[i] = ch - 'a' + 'A'
		case ch >= 'A' && ch <= 'Z':
			out[i] = ch
		default:
			return "", fmt.Errorf("%w: country code %q must be exactly 2 letters", ErrInvalidArgument, code)
		}
	}
	return string(out), nil
}

func cacheKey(scope, country string, year int) string {
	return fmt.Sprintf("%s|%s|%d", scope, country, year)
}
