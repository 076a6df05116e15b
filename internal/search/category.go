package search

import (
	"strings"
)

// Category is the kind of result a search looks for.
type Category int

const (
	Repository Category = iota + 1
	Issue
	Wiki
)

// strategy holds the per-category behaviour. Issue and Wiki share toResult and
// differ only by token.
type strategy struct {
	token    string
	toResult func(Link) *Result
	enrich   bool
}

var strategies = map[Category]strategy{
	Repository: {token: "repositories", toResult: repositoryResult, enrich: true},
	Issue:      {token: "issues", toResult: plainResult},
	Wiki:       {token: "wikis", toResult: plainResult},
}

// ParseCategory resolves a case-insensitive category token.
func ParseCategory(token string) (Category, error) {
	token = strings.ToLower(token)
	for c, s := range strategies {
		if s.token == token {
			return c, nil
		}
	}
	return 0, &UnknownCategoryError{Token: token}
}

// String returns the query-type token, e.g. "repositories".
func (c Category) String() string {
	if s, ok := strategies[c]; ok {
		return s.token
	}
	return "unknown"
}

func plainResult(l Link) *Result {
	return &Result{URL: l.URL}
}

func repositoryResult(l Link) *Result {
	return &Result{
		URL: l.URL,
		Extra: &RepositoryExtra{
			Owner:         ownerOf(l.Href),
			LanguageStats: map[string]string{},
		},
	}
}

// ownerOf returns the first path segment of a relative repository link.
func ownerOf(href string) string {
	owner, _, _ := strings.Cut(strings.Trim(href, "/"), "/")
	return owner
}
