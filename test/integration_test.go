//go:build integration

package test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FranksOps/ghsearch/internal/fingerprint"
	"github.com/FranksOps/ghsearch/internal/scraper"
	"github.com/FranksOps/ghsearch/internal/search"
	"github.com/FranksOps/ghsearch/pkg/proxy"
	"github.com/FranksOps/ghsearch/pkg/ratelimit"
	"github.com/FranksOps/ghsearch/pkg/useragent"
)

// fakeGitHub returns a handler that serves as both the HTTP proxy and the
// github.test origin behind it.
func fakeGitHub(hits *atomic.Int32) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "User-agent: *\nDisallow: /*/pulse\n")
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>
			<div class="search-title"><a href="/openstack/nova">nova</a></div>
			<div class="search-title"><a href="/openstack/horizon">horizon</a></div>
		</body></html>`)
	})
	mux.HandleFunc("/openstack/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><div class="BorderGrid-cell">
			<h2 class="h4 mb-3">Languages</h2>
			<ul><li><span class="Progress"><span aria-label="Python 99.1"></span><span aria-label="Shell 0.9"></span></span></li></ul>
		</div></body></html>`)
	})
	return mux
}

func TestIntegration_OneProxyPerSearch(t *testing.T) {
	var hitsA, hitsB atomic.Int32
	proxyA := httptest.NewServer(fakeGitHub(&hitsA))
	defer proxyA.Close()
	proxyB := httptest.NewServer(fakeGitHub(&hitsB))
	defer proxyB.Close()

	pool, err := proxy.NewPool(proxyA.URL, proxyB.URL)
	if err != nil {
		t.Fatalf("failed to build proxy pool: %v", err)
	}
	var raw []string
	for _, id := range pool.Identities() {
		raw = append(raw, id.String())
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := ratelimit.NewLimiter(200, 0.1)
	defer limiter.Stop()

	fetcher, err := scraper.NewFetcher(scraper.FetchConfig{
		Timeout:     5 * time.Second,
		Fingerprint: fingerprint.ProfileGo,
		Limiter:     limiter,
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	s, err := search.New([]string{"openstack", "nova"}, raw, "Repositories",
		search.WithBaseURL("http://github.test"),
		search.WithFetcher(fetcher),
		search.WithUserAgent(useragent.DesktopBrowsers...),
		search.WithWorkers(2),
		search.WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("failed to create search: %v", err)
	}

	for i := 0; i < 6; i++ {
		beforeA, beforeB := hitsA.Load(), hitsB.Load()

		results, err := s.Run(context.Background())
		if err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		if len(results) != 2 || results[1].Extra.LanguageStats["Shell"] != "0.9%" {
			t.Fatalf("run %d: unexpected results %+v", i, results)
		}

		dA, dB := hitsA.Load()-beforeA, hitsB.Load()-beforeB
		if !(dA == 3 && dB == 0) && !(dA == 0 && dB == 3) {
			t.Errorf("run %d: expected all 3 requests through a single proxy, got %d and %d", i, dA, dB)
		}
	}
}

func TestIntegration_RobotsCheckThroughProxy(t *testing.T) {
	var hits atomic.Int32
	proxySrv := httptest.NewServer(fakeGitHub(&hits))
	defer proxySrv.Close()

	fetcher, err := scraper.NewFetcher(scraper.FetchConfig{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	s, err := search.New([]string{"nova"}, []string{proxySrv.URL}, "issues",
		search.WithBaseURL("http://github.test"),
		search.WithFetcher(fetcher),
		search.WithRobotsCheck(scraper.NewRobotsTxtAuditor(fetcher, nil)),
	)
	if err != nil {
		t.Fatalf("failed to create search: %v", err)
	}

	results, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 2 || results[0].Extra != nil {
		t.Errorf("unexpected issue results %+v", results)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("expected robots.txt and search through the proxy, got %d requests", n)
	}
}

func TestIntegration_BlockedSearchIsClassified(t *testing.T) {
	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "cloudflare")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `<html><body>Attention Required! | Cloudflare</body></html>`)
	}))
	defer proxySrv.Close()

	fetcher, _ := scraper.NewFetcher(scraper.FetchConfig{Timeout: 5 * time.Second})
	s, err := search.New([]string{"nova"}, []string{proxySrv.URL}, "wikis",
		search.WithBaseURL("http://github.test"),
		search.WithFetcher(fetcher),
	)
	if err != nil {
		t.Fatalf("failed to create search: %v", err)
	}

	_, err = s.Run(context.Background())
	var fetchErr *search.SearchFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected SearchFetchError, got %v", err)
	}
	if fetchErr.StatusCode != http.StatusForbidden || fetchErr.Detection != "Cloudflare" {
		t.Errorf("expected 403 classified as Cloudflare, got %+v", fetchErr)
	}
}
