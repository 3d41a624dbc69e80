package client

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type metrics struct {
	registry  *prometheus.Registry
	requests  prometheus.CounterFunc
	successes prometheus.CounterFunc
	errors    prometheus.CounterFunc
	latency   prometheus.Histogram
}

// newMetrics exports the shared counters as read-through CounterFuncs, so a
// scrape always sees the same totals as the reporter.
func newMetrics(stats *Stats) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "requests",
			Help: "Number of requests",
		}, func() float64 { return float64(stats.requests.Load()) }),
		successes: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "successes",
			Help: "Number of successful requests",
		}, func() float64 { return float64(stats.successes.Load()) }),
		errors: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "errors",
			Help: "Number of failed requests",
		}, func() float64 { return float64(stats.errors.Load()) }),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "latency_ms",
			Help: "gRPC latency distributions in milliseconds.",
			// 50 exponential buckets ranging from 0.5 ms to 3 minutes
			Buckets: prometheus.ExponentialBuckets(0.5, 1.3, 50),
		}),
	}

	m.registry.MustRegister(m.requests, m.successes, m.errors, m.latency)
	return m
}

func (m *metrics) observe(latency time.Duration) {
	m.latency.Observe(float64(latency) / float64(time.Millisecond))
}

// serve exposes the registry on addr until the returned function is called.
func (m *metrics) serve(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("serving metrics on %s: %v", addr, err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
