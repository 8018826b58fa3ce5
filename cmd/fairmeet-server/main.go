// Package main implements the fairmeet web server exposing heatmap and
// suggestion endpoints.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fairmeet/fairmeet/pkg/heatmap"
	"github.com/fairmeet/fairmeet/pkg/holidays"
	"github.com/fairmeet/fairmeet/pkg/workhours"
)

var (
	portFlag = flag.String("port", "", "Port for the web server (overrides PORT)")
	verbose  = flag.Bool("verbose", false, "Enable verbose logging")
	version  = flag.Bool("version", false, "Show version")
)

type config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	HolidayBaseURL  string        `env:"HOLIDAY_BASE_URL"`
	CacheDB         string        `env:"CACHE_DB"`
	CountryConfig   string        `env:"COUNTRY_CONFIG"`
	Scope           string        `env:"CACHE_SCOPE" envDefault:"default"`
	MaxParticipants int           `env:"MAX_PARTICIPANTS" envDefault:"50"`
	RateLimit       int           `env:"RATE_LIMIT" envDefault:"30"`
	RateWindow      time.Duration `env:"RATE_WINDOW" envDefault:"1m"`
}

// rateLimiter caps each client IP to limit requests per sliding window.
// IPs whose whole window has lapsed are swept out so the map does not grow
// with every client the server has ever seen.
type rateLimiter struct {
	requests  map[string][]time.Time
	lastSweep time.Time
	limit     int
	window    time.Duration
	mu        sync.Mutex
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		requests:  make(map[string][]time.Time),
		lastSweep: time.Now(),
		limit:     limit,
		window:    window,
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	if now.Sub(rl.lastSweep) > rl.window {
		rl.sweep(cutoff)
		rl.lastSweep = now
	}

	recent := rl.requests[ip][:0]
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.limit {
		rl.requests[ip] = recent
		return false
	}

	rl.requests[ip] = append(recent, now)
	return true
}

// sweep drops IPs with no requests inside the window. Caller holds mu.
func (rl *rateLimiter) sweep(cutoff time.Time) {
	for ip, times := range rl.requests {
		idle := true
		for _, t := range times {
			if t.After(cutoff) {
				idle = false
				break
			}
		}
		if idle {
			delete(rl.requests, ip)
		}
	}
}

type server struct {
	logger    *slog.Logger
	generator *heatmap.Generator
	limiter   *rateLimiter
	cfg       config
}

func main() {
	flag.Parse()

	if *version {
		fmt.Println("fairmeet Server v1.0.0")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		logger.Error("parsing environment config failed", "error", err)
		os.Exit(1)
	}
	if *portFlag != "" {
		cfg.Port = *portFlag
	}

	configs := workhours.DefaultConfigSet()
	if cfg.CountryConfig != "" {
		var err error
		configs, err = workhours.LoadConfigSet(cfg.CountryConfig)
		if err != nil {
			logger.Error("loading country config failed", "error", err)
			os.Exit(1)
		}
	}

	holidayOpts := []holidays.Option{holidays.WithScope(cfg.Scope)}
	if cfg.HolidayBaseURL != "" {
		holidayOpts = append(holidayOpts, holidays.WithBaseURL(cfg.HolidayBaseURL))
	}
	if cfg.CacheDB != "" {
		store, err := holidays.OpenSQLiteStore(cfg.CacheDB)
		if err != nil {
			logger.Error("opening holiday cache store failed", "path", cfg.CacheDB, "error", err)
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

	srv := &server{
		logger:    logger,
		generator: heatmap.New(logger, holidayClient, configs),
		limiter:   newRateLimiter(cfg.RateLimit, cfg.RateWindow),
		cfg:       cfg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/heatmap", srv.withMiddleware(srv.handleHeatmap))
	mux.HandleFunc("/api/suggest", srv.withMiddleware(srv.handleSuggest))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.Debug("writing health response failed", "error", err)
		}
	})
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// withMiddleware applies request-ID logging and rate limiting.
func (s *server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		logger := s.logger.With("request_id", requestID, "path", r.URL.Path)

		ip := clientIP(r)
		if !s.limiter.allow(ip) {
			logger.Warn("rate limit exceeded", "ip", ip)
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		start := time.Now()
		next(w, r)
		logger.Debug("request handled", "duration", time.Since(start))
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date, participants, err := s.parseRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := s.generator.Generate(r.Context(), date, participants)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, s.logger, map[string]any{
		"date":    date.Format(time.DateOnly),
		"entries": entries,
	})
}

func (s *server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date, participants, err := s.parseRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	count := 3
	if raw := r.URL.Query().Get("count"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil || count < 1 || count > 24 {
			http.Error(w, "count must be an integer in [1, 24]", http.StatusBadRequest)
			return
		}
	}

	entries, err := s.generator.Generate(r.Context(), date, participants)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, s.logger, map[string]any{
		"date":        date.Format(time.DateOnly),
		"suggestions": heatmap.TopSuggestions(entries, count),
	})
}

// parseRequest extracts the candidate date and participant list from query
// parameters. Participants are "id;timezone;country" triples separated by
// commas.
func (s *server) parseRequest(r *http.Request) (time.Time, []heatmap.Participant, error) {
	q := r.URL.Query()

	rawDate := q.Get("date")
	if rawDate == "" {
		return time.Time{}, nil, fmt.Errorf("date is required (YYYY-MM-DD)")
	}
	date, err := time.Parse(time.DateOnly, rawDate)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", rawDate)
	}

	rawParticipants := q.Get("participants")
	if rawParticipants == "" {
		return time.Time{}, nil, fmt.Errorf("participants is required")
	}

	var participants []heatmap.Participant
	for _, field := range strings.Split(rawParticipants, ",") {
		parts := strings.Split(strings.TrimSpace(field), ";")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return time.Time{}, nil, fmt.Errorf("malformed participant %q: want id;timezone;country", field)
		}
		participants = append(participants, heatmap.Participant{
			ID:       parts[0],
			Timezone: parts[1],
			Country:  parts[2],
		})
	}
	if len(participants) > s.cfg.MaxParticipants {
		return time.Time{}, nil, fmt.Errorf("too many participants: %d > %d", len(participants), s.cfg.MaxParticipants)
	}

	return date, participants, nil
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("encoding response failed", "error", err)
	}
}
