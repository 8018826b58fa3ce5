// Package heatmap evaluates meeting-time fairness across all 24 hours of a
// candidate day and ranks the best hours for a group of participants.
package heatmap

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/fairmeet/fairmeet/pkg/equity"
	"github.com/fairmeet/fairmeet/pkg/holidays"
	"github.com/fairmeet/fairmeet/pkg/tzconvert"
	"github.com/fairmeet/fairmeet/pkg/workhours"
)

// Participant is one attendee of the candidate meeting. Immutable per request.
type Participant struct {
	ID       string `json:"id" yaml:"id"`
	Timezone string `json:"timezone" yaml:"timezone"`
	Country  string `json:"country" yaml:"country"`
}

// ParticipantStatus is a participant's classification at one candidate hour.
type ParticipantStatus struct {
	Participant Participant      `json:"participant"`
	LocalTime   time.Time        `json:"local_time"`
	Status      workhours.Status `json:"status"`
}

// Entry is the fairness evaluation of a single candidate hour. A full
// heatmap is the ordered sequence of 24 entries for one calendar date.
type Entry struct {
	Hour         int                 `json:"hour"`
	Instant      time.Time           `json:"instant"`
	Result       equity.Result       `json:"result"`
	Participants []ParticipantStatus `json:"participants"`
}

// Generator drives the classifier and scorer across all hours of a day.
// Completed heatmaps are cached keyed by date and participant set, so
// identical requests do not recompute. Safe for concurrent use.
type Generator struct {
	logger   *slog.Logger
	holidays *holidays.Client
	configs  workhours.ConfigSet
	cache    *otter.Cache[string, []Entry]
}

// Option configures a Generator.
type Option func(*options)

type options struct {
	cacheTTL  time.Duration
	cacheSize int
}

// WithCacheTTL overrides how long computed heatmaps are reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) { o.cacheTTL = ttl }
}

// WithCacheSize overrides the maximum number of cached heatmaps.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// New creates a Generator using the given holiday client and country
// working-hours policies.
func New(logger *slog.Logger, hc *holidays.Client, configs workhours.ConfigSet, opts ...Option) *Generator {
	o := &options{
		cacheTTL:  time.Hour,
		cacheSize: 1_000,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Generator{
		logger:   logger,
		holidays: hc,
		configs:  configs,
		cache: otter.Must(&otter.Options[string, []Entry]{
			MaximumSize:      o.cacheSize,
			InitialCapacity:  64,
			ExpiryCalculator: otter.ExpiryWriting[string, []Entry](o.cacheTTL),
		}),
	}
}

// Generate evaluates every hour of the candidate calendar date for the given
// participants and returns the 24 entries in hour order. Results for an
// identical (date, participant set) request are served from cache.
//
// Holiday-source unavailability never fails a request; the holiday client
// degrades to "no holidays" internally. The only errors returned are an
// unknown participant timezone or an invalid country code.
func (g *Generator) Generate(ctx context.Context, date time.Time, participants []Participant) ([]Entry, error) {
	key := requestKey(date, participants)
	if entries, ok := g.cache.GetIfPresent(key); ok {
		g.logger.Debug("heatmap cache hit", "key", key)
		return entries, nil
	}

	year, month, day := date.UTC().Date()
	entries := make([]Entry, 0, 24)

	for hour := 0; hour < 24; hour++ {
		instant := time.Date(year, month, day, hour, 0, 0, 0, time.UTC)

		statuses := make([]workhours.Status, 0, len(participants))
		breakdown := make([]ParticipantStatus, 0, len(participants))
		for _, p := range participants {
			status, local, err := g.evaluate(ctx, instant, p)
			if err != nil {
				return nil, fmt.Errorf("participant %q: %w", p.ID, err)
			}
			statuses = append(statuses, status)
			breakdown = append(breakdown, ParticipantStatus{Participant: p, LocalTime: local, Status: status})
		}

		entries = append(entries, Entry{
			Hour:         hour,
			Instant:      instant,
			Result:       equity.Score(statuses),
			Participants: breakdown,
		})
	}

	g.cache.Set(key, entries)
	return entries, nil
}

// evaluate classifies one participant at one absolute instant: project into
// their zone, look up holidays for the local year, and run the status rules
// against their country's policy.
func (g *Generator) evaluate(ctx context.Context, instant time.Time, p Participant) (workhours.Status, time.Time, error) {
	local, err := tzconvert.ToLocal(instant, p.Timezone)
	if err != nil {
		return workhours.Status{}, time.Time{}, err
	}

	// The local year, not the UTC year: around New Year the two differ.
	list, err := g.holidays.Holidays(ctx, p.Country, local.Year())
	if err != nil {
		return workhours.Status{}, time.Time{}, err
	}

	cfg := g.configs.For(p.Country)
	status := workhours.Determine(local, cfg, holidays.Match(local, list) != nil)
	return status, local, nil
}

// TopSuggestions returns the n highest-scoring entries, score descending
// with ties broken by hour ascending so rankings are reproducible.
func TopSuggestions(entries []Entry, n int) []Entry {
	ranked := make([]Entry, len(entries))
	copy(ranked, entries)

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Result.Score != ranked[j].Result.Score {
			return ranked[i].Result.Score > ranked[j].Result.Score
		}
		return ranked[i].Hour < ranked[j].Hour
	})

	if n < 0 {
		n = 0
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// requestKey builds the cache key for a (date, participant set) request.
// Participant IDs are sorted so ordering does not defeat the cache.
func requestKey(date time.Time, participants []Participant) string {
	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	sort.Strings(ids)
	return date.UTC().Format(time.DateOnly) + "|" + strings.Join(ids, ",")
}
