package search

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/FranksOps/ghsearch/pkg/useragent"
)

const (
	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7"
	contentType  = "text/html; charset=utf-8"
)

// QueryParams builds the search query: keywords joined with a literal "+" and
// the category token.
func QueryParams(keywords []string, c Category) url.Values {
	return url.Values{
		"q":    {strings.Join(keywords, "+")},
		"type": {c.String()},
	}
}

// Headers returns browser-like request headers. An empty userAgent selects
// useragent.Default.
func Headers(userAgent string) http.Header {
	if userAgent == "" {
		userAgent = useragent.Default
	}
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", acceptHeader)
	h.Set("Content-Type", contentType)
	return h
}
