package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Application counters, registered on the default registry served by NewServer.
var (
	// RedirectsTotal counts resolved redirect requests by outcome
	// (redirected, not_found, error).
	RedirectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linklytics_redirects_total",
		Help: "Redirect resolutions by outcome.",
	}, []string{"outcome"})

	// CacheOpsTotal counts redirect-cache operations (hit, miss, error, fill).
	CacheOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linklytics_cache_ops_total",
		Help: "Redirect cache operations by result.",
	}, []string{"op"})

	// LinksCreatedTotal counts successfully created short links.
	LinksCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linklytics_links_created_total",
		Help: "Short links created.",
	})

	// AccessesConsumedTotal counts access announcements consumed from JetStream,
	// labelled by the derived device class.
	AccessesConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linklytics_accesses_consumed_total",
		Help: "Access announcements consumed from the fan-out stream.",
	}, []string{"device"})
)
