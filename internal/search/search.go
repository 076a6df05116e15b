// Package search runs a GitHub web search for one result category and, for
// repositories, enriches each result with its language breakdown.
package search

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/ghsearch/internal/metrics"
	"github.com/FranksOps/ghsearch/internal/scraper"
	"github.com/FranksOps/ghsearch/pkg/proxy"
	"github.com/FranksOps/ghsearch/pkg/useragent"
	"github.com/google/uuid"
)

// DefaultBaseURL is the site searched when WithBaseURL is not given.
const DefaultBaseURL = "https://github.com"

// renamed repositories answer with a redirect to their new location
const defaultMaxRedirects = 10

// Fetcher performs one page fetch. *scraper.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, req scraper.Request) (*scraper.Response, error)
}

// RobotsChecker reports whether a URL may be fetched.
// *scraper.RobotsTxtAuditor implements it.
type RobotsChecker interface {
	IsAllowed(ctx context.Context, targetURL, userAgent string, via proxy.Identity) (bool, error)
}

// Result is one search hit. Extra is set for repository searches only.
type Result struct {
	URL   string           `json:"url"`
	Extra *RepositoryExtra `json:"extra,omitempty"`
}

// RepositoryExtra holds the repository-only fields of a Result.
type RepositoryExtra struct {
	Owner         string            `json:"owner"`
	LanguageStats map[string]string `json:"language_stats"`
}

// Search is a configured, immutable search request.
type Search struct {
	keywords []string
	category Category
	proxies  []proxy.Identity

	baseURL    *url.URL
	fetcher    Fetcher
	workers    int
	userAgents *useragent.Pool
	robots     RobotsChecker
	selector   string
	logger     *slog.Logger
}

type options struct {
	baseURL    string
	fetcher    Fetcher
	workers    int
	userAgents []string
	robots     RobotsChecker
	selector   string
	logger     *slog.Logger
}

// Option customises a Search.
type Option func(*options)

// WithBaseURL points the search at another site root, e.g. a test server.
func WithBaseURL(raw string) Option {
	return func(o *options) { o.baseURL = raw }
}

// WithFetcher replaces the default scraper.Fetcher.
func WithFetcher(f Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithWorkers sets the enrichment concurrency. Values below 1 mean DefaultWorkers.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithUserAgent sets the User-Agent candidates. One is picked per Run and used
// for every fetch of that run.
func WithUserAgent(uas ...string) Option {
	return func(o *options) { o.userAgents = uas }
}

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRobotsCheck consults r before the search request.
func WithRobotsCheck(r RobotsChecker) Option {
	return func(o *options) { o.robots = r }
}

// WithSelector overrides DefaultSelector for result links.
func WithSelector(sel string) Option {
	return func(o *options) { o.selector = sel }
}

// New validates the category and parses the proxy list. An empty proxy list is
// accepted here and reported by Run.
func New(keywords, proxies []string, category string, opts ...Option) (*Search, error) {
	c, err := ParseCategory(category)
	if err != nil {
		return nil, err
	}

	o := options{baseURL: DefaultBaseURL, workers: DefaultWorkers, selector: DefaultSelector}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.workers < 1 {
		o.workers = DefaultWorkers
	}

	base, err := url.Parse(o.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host required", o.baseURL)
	}

	identities := make([]proxy.Identity, 0, len(proxies))
	for _, raw := range proxies {
		id, err := proxy.Parse(raw)
		if err != nil {
			return nil, err
		}
		identities = append(identities, id)
	}

	if o.fetcher == nil {
		f, err := scraper.NewFetcher(scraper.FetchConfig{
			MaxRedirects: defaultMaxRedirects,
			Logger:       o.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create fetcher: %w", err)
		}
		o.fetcher = f
	}

	return &Search{
		keywords:   append([]string(nil), keywords...),
		category:   c,
		proxies:    identities,
		baseURL:    base,
		fetcher:    o.fetcher,
		workers:    o.workers,
		userAgents: useragent.NewPool(o.userAgents),
		robots:     o.robots,
		selector:   o.selector,
		logger:     o.logger,
	}, nil
}

// Category returns the category the search was built for.
func (s *Search) Category() Category {
	return s.category
}

// Run performs the search. One proxy identity and one User-Agent are chosen
// for the whole run. Any failure aborts the run with no results.
func (s *Search) Run(ctx context.Context) (results []*Result, err error) {
	start := time.Now()
	logger := s.logger.With("search_id", uuid.New().String(), "category", s.category.String())
	defer func() {
		metrics.RecordSearch(s.category.String(), len(results), err)
	}()

	identity, err := proxy.Select(s.proxies)
	if err != nil {
		return nil, err
	}

	userAgent := s.userAgents.Pick()
	header := Headers(userAgent)
	searchURL := s.baseURL.JoinPath("search").String()

	logger.Info("starting search", "keywords", s.keywords, "proxy", identity.String())

	if s.robots != nil {
		allowed, err := s.robots.IsAllowed(ctx, searchURL, userAgent, identity)
		if err != nil {
			return nil, fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return nil, ErrDisallowedByRobots
		}
	}

	resp, err := s.fetcher.Fetch(ctx, scraper.Request{
		Kind:   metrics.KindSearch,
		URL:    searchURL,
		Query:  QueryParams(s.keywords, s.category),
		Header: header,
		Proxy:  identity,
	})
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &SearchFetchError{StatusCode: resp.StatusCode, Detection: resp.Detection}
	}

	links, err := ExtractLinks(bytes.NewReader(resp.Body), s.baseURL, s.selector)
	if err != nil {
		return nil, err
	}

	strat := strategies[s.category]
	out := make([]*Result, 0, len(links))
	for _, l := range links {
		out = append(out, strat.toResult(l))
	}
	logger.Debug("extracted results", "count", len(out))

	if strat.enrich && len(out) > 0 {
		enricher := &Enricher{
			Fetcher: s.fetcher,
			Header:  header,
			Workers: s.workers,
			Logger:  logger,
		}
		if err := enricher.Enrich(ctx, out, identity); err != nil {
			return nil, err
		}
	}

	logger.Info("search finished", "results", len(out), "duration", time.Since(start))
	return out, nil
}
