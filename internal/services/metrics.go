package services

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	upstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odds_upstream_requests_total",
		Help: "Upstream odds feed calls by provider, feed kind and outcome.",
	}, []string{"provider", "feed", "result"})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odds_cache_lookups_total",
		Help: "Odds board cache lookups by outcome.",
	}, []string{"result"})

	ledgerOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Ledger operations by name and outcome.",
	}, []string{"op", "result"})
)

func init() {
	prometheus.MustRegister(upstreamRequests, cacheLookups, ledgerOperations)
}

// feedKind drops the day suffix so per-day feeds share one series.
func feedKind(name string) string {
	kind, _, _ := strings.Cut(name, ":")
	return kind
}

func observeLedger(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ledgerOperations.WithLabelValues(op, result).Inc()
}
