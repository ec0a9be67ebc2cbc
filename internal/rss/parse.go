package rss

import (
	"regexp"
	"time"

	"newsreader/internal/news"
)

var (
	itemPattern  = regexp.MustCompile(`(?s)<item>(.*?)</item>`)
	entryPattern = regexp.MustCompile(`(?s)<entry>(.*?)</entry>`)
)

// ParseItems scans a feed document for RSS <item> blocks and builds one
// normalized NewsItem per block. When the document contains no <item>
// blocks it is retried as Atom, scanning for <entry> blocks instead.
//
// The function never fails: a document that matches neither shape yields
// an empty slice, and callers treat that the same way as a fetch failure.
// Output preserves document order.
func ParseItems(xmlText, sourceName string) []news.NewsItem {
	var items []news.NewsItem

	for _, m := range itemPattern.FindAllStringSubmatch(xmlText, -1) {
		items = append(items, parseRSSItem(m[1], sourceName))
	}
	if len(items) > 0 {
		return items
	}

	for _, m := range entryPattern.FindAllStringSubmatch(xmlText, -1) {
		items = append(items, parseAtomEntry(m[1], sourceName))
	}
	return items
}

func parseRSSItem(block, sourceName string) news.NewsItem {
	title := firstNonEmpty(ExtractTag(block, "title"), news.PlaceholderTitle)
	link := ExtractTag(block, "link")
	description := firstNonEmpty(
		ExtractTag(block, "description"),
		ExtractTag(block, "summary"),
		news.PlaceholderDescription,
	)
	content := firstNonEmpty(
		ExtractTag(block, "content:encoded"),
		ExtractTag(block, "content"),
	)
	pubDate := firstNonEmpty(
		ExtractTag(block, "pubDate"),
		ExtractTag(block, "dc:date"),
		time.Now().UTC().Format(time.RFC3339),
	)
	guid := firstNonEmpty(ExtractTag(block, "guid"), link)

	return news.NewsItem{
		ID:          news.SafeID(sourceName, guid, title),
		Title:       title,
		Description: news.CleanHTML(description),
		Content:     content,
		Link:        link,
		PubDate:     pubDate,
		Source:      sourceName,
	}
}

func parseAtomEntry(block, sourceName string) news.NewsItem {
	title := firstNonEmpty(ExtractTag(block, "title"), news.PlaceholderTitle)
	link := ExtractAtomLink(block)
	description := firstNonEmpty(
		ExtractTag(block, "summary"),
		ExtractTag(block, "content"),
		news.PlaceholderDescription,
	)
	content := ExtractTag(block, "content")
	pubDate := firstNonEmpty(
		ExtractTag(block, "published"),
		ExtractTag(block, "updated"),
		time.Now().UTC().Format(time.RFC3339),
	)
	idSeed := firstNonEmpty(ExtractTag(block, "id"), link)

	return news.NewsItem{
		ID:          news.SafeID(sourceName, idSeed, title),
		Title:       title,
		Description: news.CleanHTML(description),
		Content:     content,
		Link:        link,
		PubDate:     pubDate,
		Source:      sourceName,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
