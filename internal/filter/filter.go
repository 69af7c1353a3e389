// Package filter narrows a fetched batch of stories by title.
package filter

import (
	"strings"

	"hn-frontpage/internal/model"
)

// Filter returns, in input order, every story whose title contains query
// under a case-insensitive comparison. An empty query keeps every story.
// Both sides are folded through upper case first, so a query and its
// upper-cased form always select the same stories (dotless ı, long ſ).
// The input is never modified and the result never shares its backing array.
func Filter(stories []model.Story, query string) []model.Story {
	out := make([]model.Story, 0, len(stories))
	if query == "" {
		return append(out, stories...)
	}
	q := fold(query)
	for _, s := range stories {
		if s.Title != "" && strings.Contains(fold(s.Title), q) {
			out = append(out, s)
		}
	}
	return out
}

// Match reports whether a single title passes the filter for query.
func Match(title, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(fold(title), fold(query))
}

func fold(s string) string {
	return strings.ToLower(strings.ToUpper(s))
}
