package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch kinds used as the "kind" label.
const (
	KindSearch = "search"
	KindEnrich = "enrich"
	KindRobots = "robots"
)

var (
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghsearch_fetch_requests_total",
			Help: "Total number of page fetches executed",
		},
		[]string{"kind", "status"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ghsearch_fetch_duration_seconds",
			Help:    "Duration of page fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"kind"},
	)

	FetchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghsearch_fetch_bytes_total",
			Help: "Total bytes downloaded across all fetches",
		},
		[]string{"kind"},
	)

	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghsearch_searches_total",
			Help: "Total number of searches run, by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	ResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghsearch_results_total",
			Help: "Total number of result records returned",
		},
		[]string{"category"},
	)
)

// RecordFetch updates the fetch metrics. err is the transport error, if any;
// in that case status is reported as "error".
func RecordFetch(kind string, status int, bytes int, d time.Duration, err error) {
	statusStr := strconv.Itoa(status)
	if err != nil {
		statusStr = "error"
	}

	FetchRequestsTotal.WithLabelValues(kind, statusStr).Inc()
	FetchDuration.WithLabelValues(kind).Observe(d.Seconds())
	FetchBytesTotal.WithLabelValues(kind).Add(float64(bytes))
}

// RecordSearch counts one finished search.
func RecordSearch(category string, results int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	SearchesTotal.WithLabelValues(category, outcome).Inc()
	if err == nil {
		ResultsTotal.WithLabelValues(category).Add(float64(results))
	}
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Start listens on addr (e.g. ":9090") and serves /metrics in the background.
func Start(addr string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	return &Server{srv: srv, ln: ln}, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
