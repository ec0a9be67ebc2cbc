package news

import (
	"regexp"
	"strings"
	"time"
)

// Placeholder values used when a feed entry is missing a field.
const (
	PlaceholderTitle       = "无标题"
	PlaceholderDescription = "无描述"
	placeholderSource      = "未知来源"
)

// Field length limits enforced before persistence.
const (
	maxTitleLength       = 500
	maxDescriptionLength = 5000
	maxContentLength     = 100000
	maxLinkLength        = 2000
	maxSourceLength      = 100
)

var (
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
	scriptPattern = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	stylePattern  = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	iframePattern = regexp.MustCompile(`(?is)<iframe\b.*?</iframe>`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
)

// CleanHTML strips tag markup and unescapes the five standard entities.
// This is the lenient variant used on the ingestion path: script and style
// tag content survives with the markup removed.
func CleanHTML(html string) string {
	return strings.TrimSpace(entityReplacer.Replace(tagPattern.ReplaceAllString(html, "")))
}

// StripHTML is the strict display variant: it removes script, style and
// iframe blocks including their content, drops the remaining markup,
// unescapes entities and collapses runs of whitespace.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}
	s := scriptPattern.ReplaceAllString(html, "")
	s = stylePattern.ReplaceAllString(s, "")
	s = iframePattern.ReplaceAllString(s, "")
	s = tagPattern.ReplaceAllString(s, "")
	s = entityReplacer.Replace(s)
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// pubDateLayouts covers the date formats seen in real RSS and Atom feeds.
var pubDateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeDate converts a feed-supplied date string to RFC 3339. A value
// that cannot be parsed is replaced with the current time, never rejected.
func NormalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		for _, layout := range pubDateLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t.UTC().Format(time.RFC3339)
			}
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

// Normalize clamps every field of an item to its storage limit, fills in
// placeholders for missing fields, and regenerates the ID when the one the
// parser produced is absent, overlong or contains unsafe characters.
func Normalize(item NewsItem) NewsItem {
	safe := NewsItem{
		ID:          item.ID,
		Title:       truncate(defaultString(item.Title, PlaceholderTitle), maxTitleLength),
		Description: truncate(item.Description, maxDescriptionLength),
		Content:     truncate(item.Content, maxContentLength),
		Link:        truncate(defaultString(item.Link, "#"), maxLinkLength),
		PubDate:     NormalizeDate(item.PubDate),
		Source:      truncate(defaultString(item.Source, placeholderSource), maxSourceLength),
	}

	if !ValidID(safe.ID) {
		safe.ID = SafeID(safe.Source, safe.Link, safe.Title)
	}
	return safe
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back off to a rune boundary so truncation never splits a character.
	cut := max
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
