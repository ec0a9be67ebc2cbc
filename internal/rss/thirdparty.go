package rss

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"newsreader/internal/news"
)

// DefaultThirdPartyAPI is the feed-to-JSON conversion service used when a
// source's direct URLs are all unreachable.
const DefaultThirdPartyAPI = "https://api.rss2json.com/v1/api.json"

type thirdPartyResponse struct {
	Status string `json:"status"`
	Items  []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Description string `json:"description"`
		Content     string `json:"content"`
		PubDate     string `json:"pubDate"`
	} `json:"items"`
}

// FetchViaAPI delegates feed retrieval to the configured feed-to-JSON
// service and re-normalizes its items into the same NewsItem shape the
// native parser produces. This tier is best-effort: any transport failure,
// non-success response or service-reported error yields (nil, err) and the
// caller moves on to the next fallback.
func (c *Client) FetchViaAPI(ctx context.Context, apiBase, feedURL, sourceName string) ([]news.NewsItem, error) {
	if apiBase == "" {
		apiBase = DefaultThirdPartyAPI
	}
	apiURL := apiBase + "?rss_url=" + url.QueryEscape(feedURL)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; RSS Reader/1.0)")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call third-party parser: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("third-party parser status: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read third-party response: %w", err)
	}

	var parsed thirdPartyResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode third-party response: %w", err)
	}
	if parsed.Status != "ok" {
		return nil, fmt.Errorf("third-party parser reported status %q", parsed.Status)
	}

	items := make([]news.NewsItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		items = append(items, news.NewsItem{
			ID:          news.SafeID(sourceName, it.Link, it.Title),
			Title:       it.Title,
			Description: news.CleanHTML(it.Description),
			Content:     it.Content,
			Link:        it.Link,
			PubDate:     it.PubDate,
			Source:      sourceName,
		})
	}
	return items, nil
}
