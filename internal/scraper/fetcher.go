package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/ghsearch/internal/bypass"
	"github.com/FranksOps/ghsearch/internal/fingerprint"
	"github.com/FranksOps/ghsearch/internal/metrics"
	"github.com/FranksOps/ghsearch/pkg/httpclient"
	"github.com/FranksOps/ghsearch/pkg/proxy"
	"github.com/FranksOps/ghsearch/pkg/ratelimit"
)

// FetchConfig configures the Fetcher.
type FetchConfig struct {
	// Timeout bounds each request. Zero means 30s.
	Timeout      time.Duration
	MaxRedirects int
	UseCookieJar bool
	MaxBodySize  int64
	Fingerprint  fingerprint.Profile
	// InsecureSkipVerify disables TLS verification. Tests only.
	InsecureSkipVerify bool
	// Limiter paces every request made by this Fetcher. Nil means unlimited.
	Limiter *ratelimit.Limiter
	Logger  *slog.Logger
}

// Request describes one page fetch.
type Request struct {
	// Kind labels the fetch in metrics, e.g. metrics.KindSearch.
	Kind   string
	URL    string
	Query  url.Values
	Header http.Header
	// Proxy routes the request. The zero Identity means a direct connection.
	Proxy proxy.Identity
}

// Response is a fetched page.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
	// Detection names the block/challenge source when StatusCode is not 200.
	Detection string
}

// Fetcher performs page fetches over a fingerprinted transport. It is safe
// for concurrent use; every request carries its own proxy in its context, so
// workers of one search can share a Fetcher.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
	logger *slog.Logger
}

// NewFetcher initializes a new Fetcher with the given configuration.
// By holding a single client across requests, cookie jars (if configured) persist for the lifetime of the Fetcher.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileGo
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	transport, err := fingerprint.Transport(fingerprint.Options{
		Profile:            cfg.Fingerprint,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		MaxBodySize:  cfg.MaxBodySize,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Fetcher{
		config: cfg,
		client: client,
		logger: cfg.Logger,
	}, nil
}

// Fetch executes a GET for req. Any HTTP status is returned as a Response;
// only transport-level failures (DNS, refused connection, timeout, proxy
// errors) are returned as errors.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	if err := f.config.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if !req.Proxy.IsZero() {
		ctx = httpclient.WithProxy(ctx, req.Proxy.URL())
	}

	start := time.Now()
	resp, err := f.client.Get(ctx, req.URL, req.Query, req.Header)
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecordFetch(req.Kind, 0, 0, elapsed, err)
		f.logger.Debug("fetch failed", "url", req.URL, "proxy", req.Proxy.String(), "err", err)
		return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
	}

	metrics.RecordFetch(req.Kind, resp.StatusCode, len(resp.Body), elapsed, nil)
	f.logger.Debug("fetched", "url", req.URL, "status", resp.StatusCode, "bytes", len(resp.Body), "duration", elapsed)

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
		Duration:   elapsed,
	}
	if resp.StatusCode != http.StatusOK {
		out.Detection = bypass.Analyze(bypass.Page{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       resp.Body,
		}, bypass.DefaultDetectors())
	}
	return out, nil
}
