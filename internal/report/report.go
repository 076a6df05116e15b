package report

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"text/template"
	"time"

	"github.com/FranksOps/ghsearch/internal/search"
)

// Summary aggregates a finished search.
type Summary struct {
	Category     string
	Keywords     []string
	TotalResults int
	// Owners counts repository results per owner.
	Owners map[string]int
	// Languages counts repositories using each language.
	Languages map[string]int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// GenerateSummary builds a Summary for results of a search that ran from
// start to end.
func GenerateSummary(category search.Category, keywords []string, results []*search.Result, start, end time.Time) Summary {
	s := Summary{
		Category:     category.String(),
		Keywords:     keywords,
		TotalResults: len(results),
		Owners:       make(map[string]int),
		Languages:    make(map[string]int),
		StartTime:    start,
		EndTime:      end,
		Duration:     end.Sub(start),
	}

	for _, r := range results {
		if r.Extra == nil {
			continue
		}
		if r.Extra.Owner != "" {
			s.Owners[r.Extra.Owner]++
		}
		for lang := range r.Extra.LanguageStats {
			s.Languages[lang]++
		}
	}

	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `GitHub Search Summary
---------------------
Category:      {{.Category}}
Keywords:      {{range $i, $k := .Keywords}}{{if $i}} {{end}}{{$k}}{{end}}
Started:       {{.StartTime.Format "2006-01-02 15:04:05"}}
Duration:      {{.Duration}}
Results:       {{.TotalResults}}

Owners:
{{- range $owner, $count := .Owners}}
  {{$owner}}: {{$count}}
{{- else}}
  None
{{- end}}

Languages:
{{- range $lang, $count := .Languages}}
  {{$lang}}: {{$count}}
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse text template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render text report: %w", err)
	}

	return nil
}

// WriteHTML writes a basic HTML report to the provided writer. Keywords and
// owner names are escaped.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>ghsearch: {{.Category}}</title>
<style>
  body { font: 14px/1.5 -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; max-width: 860px; margin: 32px auto; color: #1f2328; }
  h1 { font-size: 22px; margin-bottom: 4px; }
  .meta { color: #59636e; margin-top: 0; }
  dl.totals { display: grid; grid-template-columns: repeat(3, 1fr); gap: 12px; }
  dl.totals div { border: 1px solid #d1d9e0; border-radius: 6px; padding: 12px 16px; }
  dt { color: #59636e; }
  dd { margin: 0; font-size: 22px; font-weight: 600; }
  table { width: 100%; border-collapse: collapse; margin-top: 8px; }
  th, td { padding: 6px 10px; border-bottom: 1px solid #d1d9e0; text-align: left; }
</style>
</head>
<body>
  <h1>Search: {{range $i, $k := .Keywords}}{{if $i}} {{end}}{{$k}}{{end}}</h1>
  <p class="meta">{{.StartTime.Format "2006-01-02 15:04:05"}}, took {{.Duration}}</p>

  <dl class="totals">
    <div><dt>Category</dt><dd>{{.Category}}</dd></div>
    <div><dt>Results</dt><dd>{{.TotalResults}}</dd></div>
    <div><dt>Owners</dt><dd>{{len .Owners}}</dd></div>
  </dl>

  <h2>Owners</h2>
  <table>
    <tr><th>Owner</th><th>Repositories</th></tr>
    {{- range $owner, $count := .Owners}}
    <tr><td>{{$owner}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>

  <h2>Languages</h2>
  <table>
    <tr><th>Language</th><th>Repositories</th></tr>
    {{- range $lang, $count := .Languages}}
    <tr><td>{{$lang}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`
	t, err := htmltemplate.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("parse html template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}

	return nil
}
