// Package main implements the fairmeet CLI for meeting-equity heatmaps.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fairmeet/fairmeet/pkg/heatmap"
	"github.com/fairmeet/fairmeet/pkg/holidays"
	"github.com/fairmeet/fairmeet/pkg/render"
	"github.com/fairmeet/fairmeet/pkg/workhours"
)

var (
	dateFlag      = flag.String("date", "", "Candidate date as YYYY-MM-DD (default: today, UTC)")
	rosterFile    = flag.String("roster", "", "YAML roster file with the participant list")
	inline        = flag.String("participants", "", "Inline roster: id;timezone;country[,id;timezone;country...]")
	countryConfig = flag.String("country-config", "", "YAML file with per-country working-hours policies")
	cacheDB       = flag.String("cache-db", "", "SQLite file for the persistent holiday cache (or set CACHE_DB)")
	baseURL       = flag.String("holiday-url", "", "Holiday source base URL (or set HOLIDAY_BASE_URL)")
	scope         = flag.String("scope", "default", "Tenant scope for holiday cache entries")
	top           = flag.Int("top", 3, "Number of suggestions to print")
	prefetch      = flag.Bool("prefetch", false, "Warm the holiday cache for the roster's countries and exit")
	verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	version       = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("fairmeet CLI v1.0.0")
		return
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *baseURL == "" {
		*baseURL = os.Getenv("HOLIDAY_BASE_URL")
	}
	if *cacheDB == "" {
		*cacheDB = os.Getenv("CACHE_DB")
	}

	participants, err := loadParticipants()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n%v\n\n", os.Args[0], err)
		flag.PrintDefaults()
		os.Exit(1)
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if *dateFlag != "" {
		date, err = time.Parse(time.DateOnly, *dateFlag)
		if err != nil {
			logger.Error("invalid -date", "value", *dateFlag, "error", err)
			os.Exit(1)
		}
	}

	configs := workhours.DefaultConfigSet()
	if *countryConfig != "" {
		configs, err = workhours.LoadConfigSet(*countryConfig)
		if err != nil {
			logger.Error("loading country config failed", "error", err)
			os.Exit(1)
		}
	}

	holidayOpts := []holidays.Option{holidays.WithScope(*scope)}
	if *baseURL != "" {
		holidayOpts = append(holidayOpts, holidays.WithBaseURL(*baseURL))
	}
	if *cacheDB != "" {
		store, err := holidays.OpenSQLiteStore(*cacheDB)
		if err != nil {
			logger.Error("opening holiday cache store failed", "path", *cacheDB, "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("closing holiday cache store failed", "error", err)
			}
		}()
		holidayOpts = append(holidayOpts, holidays.WithStore(store))
	}
	holidayClient := holidays.NewWithLogger(logger, holidayOpts...)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *prefetch {
		countries := make([]string, 0, len(participants))
		seen := make(map[string]bool)
		for _, p := range participants {
			cc := strings.ToUpper(p.Country)
			if !seen[cc] {
				seen[cc] = true
				countries = append(countries, cc)
			}
		}
		holidayClient.Prefetch(ctx, countries)
		fmt.Printf("Prefetched holidays for %d countries\n", len(countries))
		return
	}

	generator := heatmap.New(logger, holidayClient, configs)
	entries, err := generator.Generate(ctx, date, participants)
	if err != nil {
		logger.Error("heatmap generation failed", "error", err)
		os.Exit(1)
	}

	fmt.Print(render.Heatmap(date, entries))
	if *top > 0 {
		fmt.Println()
		fmt.Print(render.Suggestions(heatmap.TopSuggestions(entries, *top)))
	}
}

// loadParticipants resolves the roster from -roster or -participants.
func loadParticipants() ([]heatmap.Participant, error) {
	switch {
	case *rosterFile != "" && *inline != "":
		return nil, fmt.Errorf("-roster and -participants are mutually exclusive")
	case *rosterFile != "":
		return heatmap.LoadRoster(*rosterFile)
	case *inline != "":
		return parseInline(*inline)
	default:
		return nil, fmt.Errorf("a roster is required: pass -roster or -participants")
	}
}

// parseInline parses "id;timezone;country" triples separated by commas.
func parseInline(s string) ([]heatmap.Participant, error) {
	var participants []heatmap.Participant
	for _, field := range strings.Split(s, ",") {
		parts := strings.Split(strings.TrimSpace(field), ";")
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed participant %q: want id;timezone;country", field)
		}
		participants = append(participants, heatmap.Participant{
			ID:       parts[0],
			Timezone: parts[1],
			Country:  parts[2],
		})
	}
	return participants, nil
}
