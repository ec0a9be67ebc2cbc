package rss

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"newsreader/internal/metrics"
	"newsreader/internal/news"
)

// Source describes one configured feed: a primary URL, an ordered set of
// fallbacks, and optional hand-authored items used when every remote tier
// fails.
type Source struct {
	Name          string
	URL           string
	FallbackURL   string
	AlternateURLs []string
	StaticItems   []news.NewsItem
}

// urls returns the full fallback chain in attempt order.
func (s Source) urls() []string {
	return append([]string{s.URL, s.FallbackURL}, s.AlternateURLs...)
}

// ArticleStore is the storage contract the pipeline needs: an idempotent
// upsert keyed by the item's deterministic ID.
type ArticleStore interface {
	UpsertArticle(ctx context.Context, item news.NewsItem) error
}

// Summary is the result of one ingestion run. Processed counts items
// extracted before storage on every tier; Saved counts items that survived
// upsert.
type Summary struct {
	Saved     int      `json:"count"`
	Processed int      `json:"processed"`
	Errors    []string `json:"errors,omitempty"`
}

// Pipeline fetches every configured source, normalizes the resulting items
// and upserts them into the store. Sources are processed sequentially; one
// source's failure never aborts the run.
type Pipeline struct {
	client  *Client
	store   ArticleStore
	sources []Source
	apiBase string
	feedfb  *gofeed.Parser
	logger  *slog.Logger
}

// NewPipeline wires an ingestion pipeline over the given store.
func NewPipeline(client *Client, store ArticleStore, sources []Source, apiBase string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		client:  client,
		store:   store,
		sources: sources,
		apiBase: apiBase,
		feedfb:  gofeed.NewParser(),
		logger:  logger,
	}
}

// offlinePlaceholders are persisted when no source yields anything at all,
// so readers see a clearly labeled placeholder set instead of an empty or
// error state.
func offlinePlaceholders() []news.NewsItem {
	now := time.Now().UTC().Format(time.RFC3339)
	return []news.NewsItem{
		{
			ID:          "fallback-1",
			Title:       "无法获取最新内容 - 请稍后再试",
			Description: "当前无法连接到 RSS 源，这是一条占位内容。我们正在尝试恢复连接，请稍后刷新页面。",
			Content:     "当前无法连接到 RSS 源，这是一条占位内容。我们正在尝试恢复连接，请稍后刷新页面。",
			Link:        "#",
			PubDate:     now,
			Source:      "系统消息",
		},
		{
			ID:          "fallback-2",
			Title:       "网络连接问题",
			Description: "可能是由于网络连接问题导致无法获取最新内容。您可以检查网络连接或稍后再试。",
			Content:     "可能是由于网络连接问题导致无法获取最新内容。您可以检查网络连接或稍后再试。",
			Link:        "#",
			PubDate:     now,
			Source:      "系统消息",
		},
	}
}

// Run executes one ingestion pass over every configured source and returns
// the aggregated counters. It never panics past this boundary: failures at
// every tier are converted into log entries and summary error strings.
func (p *Pipeline) Run(ctx context.Context) Summary {
	start := time.Now()
	p.logger.Info("starting ingestion run", "sources", len(p.sources))
	metrics.FetchRunsTotal.Inc()

	var summary Summary
	anySourceSucceeded := false

	for _, source := range p.sources {
		if err := ctx.Err(); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("run cancelled: %v", err))
			break
		}

		items, outcome, err := p.collect(ctx, source)
		if err != nil {
			p.logger.Error("source failed", "source", source.Name, "error", err)
			metrics.SourceOutcomes.WithLabelValues(source.Name, "failed").Inc()
			summary.Errors = append(summary.Errors, err.Error())
			continue
		}

		metrics.SourceOutcomes.WithLabelValues(source.Name, outcome).Inc()
		summary.Processed += len(items)
		summary.Saved += p.persist(ctx, source.Name, items)
		anySourceSucceeded = true
	}

	if !anySourceSucceeded {
		p.logger.Warn("all sources failed, saving offline placeholders")
		placeholders := offlinePlaceholders()
		summary.Processed += len(placeholders)
		summary.Saved += p.persist(ctx, "offline", placeholders)
	}

	metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("ingestion run completed",
		"processed", summary.Processed, "saved", summary.Saved, "errors", len(summary.Errors))
	return summary
}

// collect resolves one source through the fallback tiers in priority
// order: direct fetch, third-party parser, static per-source content.
func (p *Pipeline) collect(ctx context.Context, source Source) ([]news.NewsItem, string, error) {
	body, fromURL, fetchErr := p.client.FetchRaw(ctx, source.Name, source.urls())
	if fetchErr == nil {
		items := ParseItems(body, source.Name)
		if len(items) == 0 {
			// The regex scanner found nothing in a body we did manage to
			// fetch. Give gofeed one shot at it before discarding.
			items = p.rescueParse(body, source.Name)
		}
		if len(items) > 0 {
			p.logger.Info("parsed items", "source", source.Name, "url", fromURL, "items", len(items))
			return items, "direct", nil
		}
		fetchErr = fmt.Errorf("no items parsed from %s for %s", fromURL, source.Name)
	}

	p.logger.Warn("direct fetch failed, trying third-party parser", "source", source.Name)
	items, apiErr := p.client.FetchViaAPI(ctx, p.apiBase, source.URL, source.Name)
	if apiErr == nil && len(items) > 0 {
		p.logger.Info("third-party parser succeeded", "source", source.Name, "items", len(items))
		return items, "thirdparty", nil
	}

	if len(source.StaticItems) > 0 {
		p.logger.Warn("using static fallback content", "source", source.Name)
		return source.StaticItems, "static", nil
	}

	return nil, "", fmt.Errorf("source %s exhausted all tiers: %v", source.Name, fetchErr)
}

// rescueParse re-reads a fetched body with gofeed, covering feed shapes
// the hand-rolled scanner does not know, and maps the result through the
// same ID and sanitization path.
func (p *Pipeline) rescueParse(body, sourceName string) []news.NewsItem {
	feed, err := p.feedfb.ParseString(body)
	if err != nil {
		p.logger.Debug("structural parse failed", "source", sourceName, "error", err)
		return nil
	}

	var items []news.NewsItem
	for _, it := range feed.Items {
		guid := it.GUID
		if guid == "" {
			guid = it.Link
		}
		pubDate := ""
		if it.PublishedParsed != nil {
			pubDate = it.PublishedParsed.UTC().Format(time.RFC3339)
		}
		items = append(items, news.NewsItem{
			ID:          news.SafeID(sourceName, guid, it.Title),
			Title:       it.Title,
			Description: news.CleanHTML(it.Description),
			Content:     it.Content,
			Link:        it.Link,
			PubDate:     pubDate,
			Source:      sourceName,
		})
	}
	return items
}

// persist upserts each item individually. A failed upsert is logged and
// skipped; it never fails the run.
func (p *Pipeline) persist(ctx context.Context, sourceName string, items []news.NewsItem) int {
	saved := 0
	for _, item := range items {
		if err := p.store.UpsertArticle(ctx, item); err != nil {
			p.logger.Error("failed to save article", "source", sourceName, "id", item.ID, "error", err)
			continue
		}
		metrics.ArticlesSaved.WithLabelValues(sourceName).Inc()
		saved++
	}
	return saved
}
