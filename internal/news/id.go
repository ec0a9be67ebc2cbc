package news

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"
)

const maxIDLength = 250

var (
	validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	nonWordPattern = regexp.MustCompile(`\W`)
)

// SafeID derives a deterministic article identifier from the source name,
// the entry's guid or link, and its title. The same triple always yields
// the same ID, which is what makes upserts idempotent across fetch runs.
// The hash is a 32-bit rolling hash over UTF-16 code units, so IDs remain
// stable for feeds that mix ASCII and CJK text.
func SafeID(source, linkOrGuid, title string) string {
	str := source + ":" + linkOrGuid + ":" + title

	var hash int32
	for _, unit := range utf16.Encode([]rune(str)) {
		hash = (hash << 5) - hash + int32(unit)
	}

	// Widen before negating: -MinInt32 overflows int32.
	v := int64(hash)
	if v < 0 {
		v = -v
	}
	hexHash := strconv.FormatInt(v, 16)

	id := "article_" + sourcePrefix(source) + "_" + hexHash
	if len(id) > maxIDLength {
		id = id[:maxIDLength]
	}
	return id
}

// sourcePrefix keeps at most the first five UTF-16 code units of the
// source name, stripped to word characters. Counting code units rather
// than runes matters for astral-plane characters, which occupy two units
// each; a split surrogate pair decodes to a replacement character and is
// stripped with the rest. CJK source names collapse to an empty prefix.
func sourcePrefix(source string) string {
	units := utf16.Encode([]rune(source))
	if len(units) > 5 {
		units = units[:5]
	}
	return nonWordPattern.ReplaceAllString(string(utf16.Decode(units)), "")
}

// ValidID reports whether id is non-empty, within length bounds, and made
// of URL- and SQL-safe characters only.
func ValidID(id string) bool {
	return id != "" && len(id) <= maxIDLength && validIDPattern.MatchString(id)
}

// SanitizeID strips everything but word characters and hyphens from an
// externally supplied article ID before it is used in a query.
func SanitizeID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
