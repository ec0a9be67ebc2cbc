package rss

import (
	"regexp"
	"strings"
	"sync"
)

// atomLinkPattern matches the href attribute of the first <link ...>
// element. Atom links carry the URL as an attribute rather than as text
// content, so ExtractTag cannot be used for them.
var atomLinkPattern = regexp.MustCompile(`<link[^>]*href=["']([^"']*)["'][^>]*>`)

var (
	tagPatternMu    sync.Mutex
	tagPatternCache = map[string]*regexp.Regexp{}
)

func tagPattern(tagName string) *regexp.Regexp {
	tagPatternMu.Lock()
	defer tagPatternMu.Unlock()

	if re, ok := tagPatternCache[tagName]; ok {
		return re
	}
	quoted := regexp.QuoteMeta(tagName)
	re := regexp.MustCompile(`(?s)<` + quoted + `[^>]*>(.*?)</` + quoted + `>`)
	tagPatternCache[tagName] = re
	return re
}

// ExtractTag returns the trimmed inner text of the first occurrence of
// <tagName ...>...</tagName> in the fragment, or "" when the tag is not
// present. Matching is case-sensitive and spans newlines. This is not an
// XML parser: self-closing tags and exotic CDATA nesting are matched only
// as far as the regex naturally captures them.
func ExtractTag(fragment, tagName string) string {
	m := tagPattern(tagName).FindStringSubmatch(fragment)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ExtractAtomLink returns the href of the first <link> element in an Atom
// entry fragment, or "" when none is found.
func ExtractAtomLink(fragment string) string {
	m := atomLinkPattern.FindStringSubmatch(fragment)
	if m == nil {
		return ""
	}
	return m[1]
}
