// Package metrics holds the prometheus collectors of the repair pipeline.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "alcomo"

var (
	// searchDuration measures one strategy run.
	// Labels: strategy, completed (true, false)
	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "duration_seconds",
		Help:      "Wall-clock time of one extraction search",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}, []string{"strategy", "completed"})

	// searchExpansions counts expanded search nodes.
	// Labels: strategy
	searchExpansions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "expansions_total",
		Help:      "Search nodes expanded",
	}, []string{"strategy"})

	// searchDiscarded counts correspondences removed by a search.
	// Labels: strategy
	searchDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "discarded_total",
		Help:      "Correspondences moved to the inactive side",
	}, []string{"strategy"})

	// reasonerCalls counts classifier invocations.
	// Labels: backend, kind (classify, focused)
	reasonerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reasoner",
		Name:      "calls_total",
		Help:      "Classifier invocations",
	}, []string{"backend", "kind"})

	// reasonerDuration measures classifier invocations.
	// Labels: backend
	reasonerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "reasoner",
		Name:      "duration_seconds",
		Help:      "Classifier invocation latency",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"backend"})

	// verdictCache counts complete reasoner cache lookups.
	// Labels: result (hit, miss)
	verdictCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "conflict",
		Name:      "verdict_cache_total",
		Help:      "Complete reasoner verdict cache lookups",
	}, []string{"result"})

	// storedConflicts tracks the size of the most recent conflict store.
	// Labels: order (pair, higher)
	storedConflicts = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "conflict",
		Name:      "stored",
		Help:      "Conflicts held by the conflict store",
	}, []string{"order"})
)

// RecordSearch records a finished strategy run.
func RecordSearch(strategy string, completed bool, d time.Duration, expanded, discarded int) {
	searchDuration.WithLabelValues(strategy, strconv.FormatBool(completed)).Observe(d.Seconds())
	searchExpansions.WithLabelValues(strategy).Add(float64(expanded))
	searchDiscarded.WithLabelValues(strategy).Add(float64(discarded))
}

// RecordReasonerCall records one classifier run. kind is "classify" for a
// full run and "focused" for a focused satisfiability check.
func RecordReasonerCall(backend, kind string, d time.Duration) {
	reasonerCalls.WithLabelValues(backend, kind).Inc()
	reasonerDuration.WithLabelValues(backend).Observe(d.Seconds())
}

// RecordCacheLookup records a verdict cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		verdictCache.WithLabelValues("hit").Inc()
		return
	}
	verdictCache.WithLabelValues("miss").Inc()
}

// SetStoredConflicts publishes the conflict store size.
func SetStoredConflicts(pairs, higher int) {
	storedConflicts.WithLabelValues("pair").Set(float64(pairs))
	storedConflicts.WithLabelValues("higher").Set(float64(higher))
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
