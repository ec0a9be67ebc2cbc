// Package search implements the simple substring matching behind the
// article search endpoint. There is no ranking: a query matches when it
// appears anywhere in an article's title or description.
package search

import (
	"strings"

	"newsreader/internal/news"
)

// Matches reports whether the query occurs in the article's title or
// description, case-insensitively.
func Matches(item news.NewsItem, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return false
	}

	textBlob := strings.ToLower(item.Title + " " + item.Description)
	return strings.Contains(textBlob, query)
}

// FilterArticles returns the articles matching the query, preserving the
// input order.
func FilterArticles(items []news.NewsItem, query string) []news.NewsItem {
	var matched []news.NewsItem
	for _, item := range items {
		if Matches(item, query) {
			matched = append(matched, item)
		}
	}
	return matched
}
