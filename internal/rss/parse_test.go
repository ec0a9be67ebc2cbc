package rss

import (
	"regexp"
	"strings"
	"testing"

	"newsreader/internal/news"
)

var idFormat = regexp.MustCompile(`^article_[A-Za-z0-9_]{0,5}_[0-9a-f]+$`)

func TestParseItemsRSS(t *testing.T) {
	xml := `<rss><channel>
		<item><title>Hi</title><link>http://x/1</link><description>D</description><pubDate>2024-01-01T00:00:00Z</pubDate></item>
	</channel></rss>`

	items := ParseItems(xml, "Test")
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}

	item := items[0]
	if item.Title != "Hi" {
		t.Errorf("Title = %q, want Hi", item.Title)
	}
	if item.Link != "http://x/1" {
		t.Errorf("Link = %q, want http://x/1", item.Link)
	}
	if item.Description != "D" {
		t.Errorf("Description = %q, want D", item.Description)
	}
	if item.PubDate != "2024-01-01T00:00:00Z" {
		t.Errorf("PubDate = %q, want 2024-01-01T00:00:00Z", item.PubDate)
	}
	if item.Source != "Test" {
		t.Errorf("Source = %q, want Test", item.Source)
	}
	if !idFormat.MatchString(item.ID) {
		t.Errorf("ID = %q, does not match deterministic-id format", item.ID)
	}
}

func TestParseItemsFieldFallbacks(t *testing.T) {
	xml := `<item>
		<link>http://x/1</link>
		<summary>the summary</summary>
		<content:encoded>the body</content:encoded>
		<dc:date>2024-02-02T00:00:00Z</dc:date>
	</item>`

	items := ParseItems(xml, "Test")
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}

	item := items[0]
	if item.Title != news.PlaceholderTitle {
		t.Errorf("Title = %q, want placeholder %q", item.Title, news.PlaceholderTitle)
	}
	if item.Description != "the summary" {
		t.Errorf("Description = %q, want summary fallback", item.Description)
	}
	if item.Content != "the body" {
		t.Errorf("Content = %q, want content:encoded", item.Content)
	}
	if item.PubDate != "2024-02-02T00:00:00Z" {
		t.Errorf("PubDate = %q, want dc:date fallback", item.PubDate)
	}
}

func TestParseItemsGUIDFallsBackToLink(t *testing.T) {
	withGUID := ParseItems(`<item><title>T</title><link>http://x/1</link><guid>http://x/1</guid></item>`, "Test")
	withoutGUID := ParseItems(`<item><title>T</title><link>http://x/1</link></item>`, "Test")

	if len(withGUID) != 1 || len(withoutGUID) != 1 {
		t.Fatalf("got %d and %d items, want 1 and 1", len(withGUID), len(withoutGUID))
	}
	if withGUID[0].ID != withoutGUID[0].ID {
		t.Errorf("IDs differ (%q vs %q); missing guid should fall back to link", withGUID[0].ID, withoutGUID[0].ID)
	}
}

func TestParseItemsDescriptionIsSanitized(t *testing.T) {
	xml := `<item><title>T</title><description>&lt;b&gt;bold&lt;/b&gt; <i>raw</i> text</description></item>`

	items := ParseItems(xml, "Test")
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if strings.ContainsAny(items[0].Description, "<>") {
		t.Errorf("Description = %q, want HTML-free text", items[0].Description)
	}
}

func TestParseItemsAtomFallback(t *testing.T) {
	xml := `<feed xmlns="http://www.w3.org/2005/Atom">
		<entry>
			<title>First</title>
			<link rel="alternate" href="http://x/a"/>
			<summary>A</summary>
			<published>2024-01-01T00:00:00Z</published>
			<id>tag:x,2024:a</id>
		</entry>
		<entry>
			<title>Second</title>
			<link href="http://x/b"/>
			<content>B</content>
			<updated>2024-01-02T00:00:00Z</updated>
		</entry>
	</feed>`

	items := ParseItems(xml, "Atom Source")
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	if items[0].Link != "http://x/a" || items[1].Link != "http://x/b" {
		t.Errorf("links = %q, %q; want href-derived links", items[0].Link, items[1].Link)
	}
	if items[0].Title != "First" || items[1].Title != "Second" {
		t.Errorf("titles = %q, %q; want document order preserved", items[0].Title, items[1].Title)
	}
	if items[1].Description != "B" {
		t.Errorf("Description = %q, want content fallback for entry without summary", items[1].Description)
	}
	if items[1].PubDate != "2024-01-02T00:00:00Z" {
		t.Errorf("PubDate = %q, want updated fallback", items[1].PubDate)
	}
}

func TestParseItemsRSSPreferredOverAtom(t *testing.T) {
	// A document with both shapes parses as RSS only.
	xml := `<item><title>RSS</title></item><entry><title>Atom</title></entry>`

	items := ParseItems(xml, "Test")
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Title != "RSS" {
		t.Errorf("items[0].Title = %q, want RSS", items[0].Title)
	}
}

func TestParseItemsMalformedInput(t *testing.T) {
	for _, input := range []string{"not xml at all", "", "<item>unclosed", "<html><body>nope</body></html>"} {
		if items := ParseItems(input, "Test"); len(items) != 0 {
			t.Errorf("ParseItems(%q) = %d items, want 0", input, len(items))
		}
	}
}

func TestParseItemsDocumentOrder(t *testing.T) {
	xml := `<item><title>1</title></item><item><title>2</title></item><item><title>3</title></item>`

	items := ParseItems(xml, "Test")
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	for i, want := range []string{"1", "2", "3"} {
		if items[i].Title != want {
			t.Errorf("items[%d].Title = %q, want %q", i, items[i].Title, want)
		}
	}
}
