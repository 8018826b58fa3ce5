package holidays

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fairmeet_holiday_fetch_total",
		Help: "Total count of HTTP requests issued to the holiday source",
	})
	fetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fairmeet_holiday_fetch_failures_total",
		Help: "Total count of failed holiday source requests (network errors and non-2xx other than 404)",
	})
	fetchNotFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fairmeet_holiday_fetch_not_found_total",
		Help: "Total count of 404 responses from the holiday source, treated as authoritative empty results",
	})
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fairmeet_holiday_cache_hits_total",
		Help: "Total count of holiday lookups served from the in-memory cache",
	})
	storeHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fairmeet_holiday_store_hits_total",
		Help: "Total count of holiday lookups served from the persistent store",
	})
	degradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fairmeet_holiday_degraded_total",
		Help: "Total count of holiday lookups that degraded to an empty result after exhausting retries",
	})
)
