package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/FranksOps/ghsearch/internal/config"
	"github.com/FranksOps/ghsearch/internal/fingerprint"
	"github.com/FranksOps/ghsearch/internal/metrics"
	"github.com/FranksOps/ghsearch/internal/output"
	"github.com/FranksOps/ghsearch/internal/report"
	"github.com/FranksOps/ghsearch/internal/scraper"
	"github.com/FranksOps/ghsearch/internal/search"
	"github.com/FranksOps/ghsearch/pkg/proxy"
	"github.com/FranksOps/ghsearch/pkg/ratelimit"
	"github.com/FranksOps/ghsearch/pkg/useragent"
	"github.com/spf13/cobra"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run one GitHub search",
		Long: `Search queries https://github.com/search for one category and prints the
result links.

Examples:
  # Repositories matching three keywords, through one proxy
  ghsearch search --type repositories --keyword openstack --keyword nova --keyword css --proxy 51.91.109.83:80

  # Read keywords, proxies and type from a JSON document
  ghsearch search --input input.json

  # Issues as CSV, with a text summary on stderr
  ghsearch search -t issues -k nova --proxy-file proxies.txt --format csv --summary text

Input document example:
  {"keywords": ["openstack", "nova", "css"], "proxies": ["51.91.109.83:80"], "type": "Repositories"}

Every option can also be set in a YAML file (--config) or through GHSEARCH_*
environment variables, e.g. GHSEARCH_WORKERS=4.`,
		Args: cobra.NoArgs,
		RunE: runSearchCmd,
	}

	// Search flags
	cmd.Flags().StringP("type", "t", "", "Result category: repositories, issues or wikis")
	cmd.Flags().StringSliceP("keyword", "k", nil, "Search keyword (repeatable, order is kept)")
	cmd.Flags().StringSlice("proxy", nil, "Proxy address host:port or URL (repeatable)")
	cmd.Flags().String("proxy-file", "", "File with one proxy address per line")
	cmd.Flags().StringP("input", "i", "", "JSON document with keywords, proxies and type")

	// Output flags
	cmd.Flags().StringP("format", "f", config.DefaultFormat, "Output format: json or csv")
	cmd.Flags().StringP("output", "o", "", "Write results to file instead of stdout")
	cmd.Flags().String("summary", "", "Print a summary to stderr: text, html or json")

	// Transport flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers, "Concurrent repository page fetches")
	cmd.Flags().Duration("timeout", config.DefaultTimeout, "Timeout for each request")
	cmd.Flags().Int("max-redirects", config.DefaultMaxRedirects, "Redirects followed per request")
	cmd.Flags().String("base-url", config.DefaultBaseURL, "Site root to search")
	cmd.Flags().String("selector", "", "CSS selector for result links")
	cmd.Flags().StringSlice("user-agent", nil, "User-Agent candidates, one is used per search (\"random\" adds the built-in desktop set)")
	cmd.Flags().String("fingerprint", config.DefaultFingerprint, "TLS fingerprint: chrome, firefox, safari, go or random")
	cmd.Flags().Float64("rps", 0, "Maximum requests per second (0 means unlimited)")
	cmd.Flags().Float64("jitter", 0, "Random extra delay as a fraction of the request interval")
	cmd.Flags().Bool("respect-robots", false, "Check robots.txt before searching")
	cmd.Flags().Int("metrics-port", 0, "Serve Prometheus metrics on this port (0 disables)")

	cmd.Flags().StringP("config", "c", "", "YAML configuration file")

	return cmd
}

func runSearchCmd(cmd *cobra.Command, _ []string) error {
	logger := setupLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
	slog.SetDefault(logger)

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runSearch(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig layers defaults, config file, input document, environment and
// flags into a Config.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	inputFile, err := cmd.Flags().GetString("input")
	if err != nil {
		return nil, err
	}

	v := config.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	return config.Load(v, configFile, inputFile)
}

// setupLogger creates a structured logger based on verbosity setting.
func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// runSearch executes one search and writes its results. Nothing is written
// unless the search succeeds.
func runSearch(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	if cfg.MetricsPort > 0 {
		srv, err := metrics.Start(fmt.Sprintf(":%d", cfg.MetricsPort), logger)
		if err != nil {
			return err
		}
		defer srv.Stop(context.Background())
		logger.Info("serving metrics", "addr", srv.Addr())
	}

	proxies, err := loadProxies(cfg, logger)
	if err != nil {
		return err
	}

	profile, err := fingerprint.ParseProfile(cfg.Fingerprint)
	if err != nil {
		return err
	}

	limiter := ratelimit.NewLimiter(cfg.RPS, cfg.Jitter)
	defer limiter.Stop()

	fetcher, err := scraper.NewFetcher(scraper.FetchConfig{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		Fingerprint:  profile,
		Limiter:      limiter,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	opts := []search.Option{
		search.WithBaseURL(cfg.BaseURL),
		search.WithFetcher(fetcher),
		search.WithWorkers(cfg.Workers),
		search.WithUserAgent(useragent.Expand(cfg.UserAgents)...),
		search.WithLogger(logger),
	}
	if cfg.Selector != "" {
		opts = append(opts, search.WithSelector(cfg.Selector))
	}
	if cfg.RespectRobots {
		opts = append(opts, search.WithRobotsCheck(scraper.NewRobotsTxtAuditor(fetcher, logger)))
	}

	s, err := search.New(cfg.Keywords, proxies, cfg.Type, opts...)
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := s.Run(ctx)
	if err != nil {
		return err
	}
	end := time.Now()

	if err := writeResults(cfg, results, stdout); err != nil {
		return err
	}

	return writeSummary(stderr, cfg.Summary, report.GenerateSummary(s.Category(), cfg.Keywords, results, start, end))
}

func writeSummary(w io.Writer, kind string, summary report.Summary) error {
	switch strings.ToLower(kind) {
	case "text":
		return report.WriteText(w, summary)
	case "html":
		return report.WriteHTML(w, summary)
	case "json":
		return report.WriteJSON(w, summary)
	}
	return nil
}

// loadProxies merges --proxy values with the proxy file, validating each.
func loadProxies(cfg *config.Config, logger *slog.Logger) ([]string, error) {
	pool, err := proxy.NewPool(cfg.Proxies...)
	if err != nil {
		return nil, err
	}
	if cfg.ProxyFile != "" {
		if err := pool.LoadFile(cfg.ProxyFile); err != nil {
			return nil, err
		}
	}

	logger.Debug("loaded proxies", "count", pool.Len(), "file", cfg.ProxyFile)

	ids := pool.Identities()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out, nil
}

func writeResults(cfg *config.Config, results []*search.Result, stdout io.Writer) error {
	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	if cfg.Output == "" || cfg.Output == "-" {
		return writeTo(stdout, format, results)
	}

	f, err := output.Create(cfg.Output)
	if err != nil {
		return err
	}
	if err := writeTo(f, format, results); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", cfg.Output, err)
	}
	return nil
}

func writeTo(dst io.Writer, format output.Format, results []*search.Result) error {
	w, err := output.New(dst, format)
	if err != nil {
		return err
	}
	return w.Write(results)
}
