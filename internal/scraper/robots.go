package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/FranksOps/ghsearch/internal/metrics"
	"github.com/FranksOps/ghsearch/pkg/proxy"
	"github.com/temoto/robotstxt"
)

// RobotsTxtAuditor fetches and caches robots.txt per host.
type RobotsTxtAuditor struct {
	fetcher *Fetcher
	logger  *slog.Logger
	mu      sync.Mutex
	cache   map[string]*robotstxt.RobotsData
}

// NewRobotsTxtAuditor creates a new instance.
func NewRobotsTxtAuditor(fetcher *Fetcher, logger *slog.Logger) *RobotsTxtAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsTxtAuditor{
		fetcher: fetcher,
		logger:  logger,
		cache:   make(map[string]*robotstxt.RobotsData),
	}
}

// IsAllowed reports whether targetURL may be fetched by userAgent. robots.txt
// is fetched through via, the same proxy the search itself uses. A missing or
// unreachable robots.txt allows everything.
func (r *RobotsTxtAuditor) IsAllowed(ctx context.Context, targetURL, userAgent string, via proxy.Identity) (bool, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false, fmt.Errorf("invalid url: %w", err)
	}

	host := u.Scheme + "://" + u.Host

	data, err := r.getOrFetch(ctx, host, userAgent, via)
	if err != nil {
		r.logger.Debug("robots.txt fetch failed, defaulting to allow", "host", host, "err", err)
		return true, nil
	}
	if data == nil {
		return true, nil
	}

	return data.FindGroup(userAgent).Test(u.Path), nil
}

func (r *RobotsTxtAuditor) getOrFetch(ctx context.Context, host, userAgent string, via proxy.Identity) (*robotstxt.RobotsData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if data, ok := r.cache[host]; ok {
		return data, nil
	}

	header := http.Header{}
	header.Set("User-Agent", userAgent)

	result, err := r.fetcher.Fetch(ctx, Request{
		Kind:   metrics.KindRobots,
		URL:    host + "/robots.txt",
		Header: header,
		Proxy:  via,
	})
	if err != nil {
		// not cached: a broken proxy should not decide for the next search
		return nil, fmt.Errorf("fetch error: %w", err)
	}

	if result.StatusCode >= 400 {
		r.cache[host] = nil
		return nil, nil
	}

	parsed, err := robotstxt.FromBytes(result.Body)
	if err != nil {
		r.cache[host] = nil
		return nil, fmt.Errorf("parse error: %w", err)
	}

	r.cache[host] = parsed
	return parsed, nil
}
