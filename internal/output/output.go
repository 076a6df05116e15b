// Package output serializes search results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/FranksOps/ghsearch/internal/search"
)

// Format selects the serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat resolves a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Writer serializes one result set.
type Writer interface {
	Write(results []*search.Result) error
}

// New returns a Writer for f on w.
func New(w io.Writer, f Format) (Writer, error) {
	switch f {
	case FormatJSON, "":
		return &jsonWriter{w: w}, nil
	case FormatCSV:
		return &csvWriter{w: w}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", f)
	}
}

// Create opens path for writing, truncating it.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	return f, nil
}

type jsonWriter struct {
	w io.Writer
}

// Write emits the results as one indented JSON array.
func (j *jsonWriter) Write(results []*search.Result) error {
	if results == nil {
		results = []*search.Result{}
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// csvHeader defines the CSV column order
var csvHeader = []string{"url", "owner", "language_stats"}

type csvWriter struct {
	w io.Writer
}

// Write emits a header row and one row per result. language_stats is
// "name=percent" pairs joined by ";", sorted by name. Owner and stats are
// empty for non-repository results.
func (c *csvWriter) Write(results []*search.Result) error {
	w := csv.NewWriter(c.w)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range results {
		var owner, stats string
		if r.Extra != nil {
			owner = r.Extra.Owner
			stats = formatStats(r.Extra.LanguageStats)
		}
		if err := w.Write([]string{r.URL, owner, stats}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatStats(stats map[string]string) string {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	slices.Sort(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+stats[name])
	}
	return strings.Join(pairs, ";")
}
