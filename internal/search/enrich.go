package search

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"

	"github.com/FranksOps/ghsearch/internal/metrics"
	"github.com/FranksOps/ghsearch/internal/scraper"
	"github.com/FranksOps/ghsearch/pkg/proxy"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent repository page fetches.
const DefaultWorkers = 10

// Enricher fills in the language stats of repository results.
type Enricher struct {
	Fetcher Fetcher
	// Header is sent with every page fetch; it is only read.
	Header  http.Header
	Workers int
	Logger  *slog.Logger
}

// Enrich fetches every repository result's page through identity and merges
// its language stats into the result in place. Results keep their order. The
// first failure cancels the remaining fetches and is returned; nothing partial
// is reported.
func (e *Enricher) Enrich(ctx context.Context, results []*Result, identity proxy.Identity) error {
	workers := e.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, res := range results {
		if res.Extra == nil {
			continue
		}
		g.Go(func() error {
			stats, err := e.languageStats(gctx, res.URL, identity)
			if err != nil {
				return err
			}
			maps.Copy(res.Extra.LanguageStats, stats)
			logger.Debug("enriched repository", "url", res.URL, "languages", len(stats))
			return nil
		})
	}

	return g.Wait()
}

func (e *Enricher) languageStats(ctx context.Context, pageURL string, identity proxy.Identity) (map[string]string, error) {
	resp, err := e.Fetcher.Fetch(ctx, scraper.Request{
		Kind:   metrics.KindEnrich,
		URL:    pageURL,
		Header: e.Header,
		Proxy:  identity,
	})
	if err != nil {
		return nil, fmt.Errorf("repository page: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &EnrichmentFetchError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Detection:  resp.Detection,
		}
	}

	return ExtractLanguageStats(bytes.NewReader(resp.Body))
}
