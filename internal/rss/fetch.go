package rss

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	maxResponseSize = 10 * 1024 * 1024 // 10MB

	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	acceptHeader = "application/rss+xml, application/xml, text/xml, application/atom+xml, text/html"
)

// AllFailedError reports that every URL in a fallback chain failed, with
// the per-URL reasons preserved for the run summary.
type AllFailedError struct {
	Source  string
	Reasons []string
}

func (e *AllFailedError) Error() string {
	return fmt.Sprintf("all URLs failed for %s: %s", e.Source, strings.Join(e.Reasons, "; "))
}

// Client fetches feed documents over HTTP with a bounded per-attempt
// timeout.
type Client struct {
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient returns a Client whose individual fetch attempts are cancelled
// after timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		http:    &http.Client{},
		timeout: timeout,
		logger:  logger,
	}
}

// FetchRaw tries each URL strictly in order and returns the body and URL of
// the first attempt that yields an HTTP success status. Non-2xx responses
// and transport errors both advance to the next URL. When every URL fails
// the returned error is an *AllFailedError carrying the per-URL reasons.
func (c *Client) FetchRaw(ctx context.Context, sourceName string, urls []string) (string, string, error) {
	var reasons []string

	for _, url := range urls {
		if url == "" {
			continue
		}

		c.logger.Debug("trying feed URL", "source", sourceName, "url", url)
		body, err := c.fetchOne(ctx, url)
		if err != nil {
			reason := fmt.Sprintf("fetch %s: %v", url, err)
			c.logger.Warn("feed URL failed", "source", sourceName, "url", url, "error", err)
			reasons = append(reasons, reason)
			continue
		}

		c.logger.Info("fetched feed", "source", sourceName, "url", url, "bytes", len(body))
		return body, url, nil
	}

	return "", "", &AllFailedError{Source: sourceName, Reasons: reasons}
}

func (c *Client) fetchOne(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(data), nil
}
