package search

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// DefaultSelector matches result links on a GitHub search page.
const DefaultSelector = "div.search-title > a"

// Link is one result anchor: the href as written in the page and its absolute
// form.
type Link struct {
	Href string
	URL  string
}

// ExtractLinks returns the anchors matching selector in document order, with
// each href resolved against base. An empty selector means DefaultSelector.
// Anchors without an href are skipped; an href that does not parse as a URL
// fails the whole extraction.
func ExtractLinks(r io.Reader, base *url.URL, selector string) ([]Link, error) {
	if selector == "" {
		selector = DefaultSelector
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	links := []Link{}
	var parseErr error
	doc.Find(selector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		href, exists := s.Attr("href")
		if !exists {
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			parseErr = fmt.Errorf("result link %d: %w", i, err)
			return false
		}

		abs := ref
		if base != nil {
			abs = base.ResolveReference(ref)
		}
		links = append(links, Link{Href: href, URL: abs.String()})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return links, nil
}

// ExtractLanguageStats reads the language breakdown of a repository page. It
// looks for the h2 reading "Languages", then the progress-bar spans inside its
// nearest div ancestor, whose aria-label has the form "<name> <percent>".
// A page without the heading yields an empty map.
func ExtractLanguageStats(r io.Reader) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse repository page: %w", err)
	}

	stats := map[string]string{}

	heading := doc.Find("h2").FilterFunction(func(i int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == "Languages"
	}).First()
	if heading.Length() == 0 {
		return stats, nil
	}

	heading.Closest("div").Find("span.Progress > span").Each(func(i int, s *goquery.Selection) {
		label, ok := s.Attr("aria-label")
		if !ok {
			return
		}
		name, percent, ok := splitLabel(label)
		if !ok {
			return
		}
		stats[name] = percent + "%"
	})

	return stats, nil
}

// splitLabel splits "Jupyter Notebook 12.5" on its last whitespace so the
// language name stays whole.
func splitLabel(label string) (name, percent string, ok bool) {
	label = strings.TrimSpace(label)
	i := strings.LastIndexFunc(label, unicode.IsSpace)
	if i < 0 {
		return "", "", false
	}
	_, size := utf8.DecodeRuneInString(label[i:])
	return strings.TrimSpace(label[:i]), label[i+size:], true
}
