package search

import (
	"errors"
	"fmt"
)

// ErrDisallowedByRobots is returned when robots checking is enabled and the
// search endpoint is disallowed for the configured User-Agent.
var ErrDisallowedByRobots = errors.New("search: disallowed by robots.txt")

// UnknownCategoryError reports a category token that matches no variant.
type UnknownCategoryError struct {
	Token string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown search type: %s", e.Token)
}

// SearchFetchError reports a non-200 answer to the primary search request.
type SearchFetchError struct {
	StatusCode int
	// Detection names the block source, if one was recognised.
	Detection string
}

func (e *SearchFetchError) Error() string {
	if e.Detection != "" {
		return fmt.Sprintf("failed to fetch search results: HTTP status %d (%s)", e.StatusCode, e.Detection)
	}
	return fmt.Sprintf("failed to fetch search results: HTTP status %d", e.StatusCode)
}

// EnrichmentFetchError reports a non-200 answer for a repository page.
type EnrichmentFetchError struct {
	URL        string
	StatusCode int
	Detection  string
}

func (e *EnrichmentFetchError) Error() string {
	if e.Detection != "" {
		return fmt.Sprintf("failed to fetch language data for %s: HTTP status %d (%s)", e.URL, e.StatusCode, e.Detection)
	}
	return fmt.Sprintf("failed to fetch language data for %s: HTTP status %d", e.URL, e.StatusCode)
}
