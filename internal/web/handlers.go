package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"newsreader/internal/news"
	"newsreader/internal/search"
	"newsreader/internal/storage"
)

// offlineNews is served when the storage layer cannot be reached, so the
// reader sees a clearly labeled placeholder instead of an error page.
func offlineNews() []news.NewsItem {
	return []news.NewsItem{
		{
			ID:          "offline-1",
			Title:       "离线模式 - 无法连接到服务器",
			Description: "您当前处于离线模式，无法获取最新内容。请检查网络连接并刷新页面。",
			Link:        "#",
			PubDate:     time.Now().UTC().Format(time.RFC3339),
			Source:      "系统消息",
		},
	}
}

// displayItems prepares items for a response: descriptions go through the
// strict sanitizer so no script, style or iframe content reaches a client.
func displayItems(items []news.NewsItem) []news.NewsItem {
	display := make([]news.NewsItem, len(items))
	for i, item := range items {
		item.Description = news.StripHTML(item.Description)
		display[i] = item
	}
	return display
}

// handleNews returns the latest articles, served through the in-memory
// TTL cache between ingestion runs, with a snapshot persisted in the
// database cache table so a restart does not start cold.
func (s *Server) handleNews(c *gin.Context) {
	if cached, ok := s.memCache.Get(latestNewsCacheKey); ok {
		c.JSON(http.StatusOK, cached)
		return
	}
	ctx := c.Request.Context()

	if data, ok, err := s.store.CacheGet(ctx, latestNewsCacheKey); err == nil && ok {
		var items []news.NewsItem
		if err := json.Unmarshal(data, &items); err == nil {
			s.memCache.Set(latestNewsCacheKey, items, latestNewsCacheTTL)
			c.JSON(http.StatusOK, items)
			return
		}
	}

	items, err := s.store.LatestArticles(ctx, latestNewsLimit)
	if err != nil {
		s.logger.Error("failed to load latest articles", "error", err)
		c.JSON(http.StatusOK, offlineNews())
		return
	}
	display := displayItems(items)

	s.memCache.Set(latestNewsCacheKey, display, latestNewsCacheTTL)
	if data, err := json.Marshal(display); err == nil {
		if err := s.store.CacheSet(ctx, latestNewsCacheKey, data, latestNewsCacheTTL); err != nil {
			s.logger.Warn("failed to persist news snapshot", "error", err)
		}
	}
	c.JSON(http.StatusOK, display)
}

func (s *Server) handleArticles(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", 10)

	result, err := s.store.PaginatedArticles(c.Request.Context(), page, pageSize)
	if err != nil {
		s.logger.Error("failed to load articles page", "page", page, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load articles"})
		return
	}
	if result.Items == nil {
		result.Items = []news.NewsItem{}
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleArticleByID(c *gin.Context) {
	id := c.Param("id")

	article, err := s.store.GetArticleByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
			return
		}
		s.logger.Error("failed to load article", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load article"})
		return
	}
	c.JSON(http.StatusOK, article)
}

// handleSearch matches the query against the title and description of
// recent articles. Plain substring matching, no ranking.
func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	limit := queryInt(c, "limit", 20)

	items, err := s.store.LatestArticles(c.Request.Context(), searchScanLimit)
	if err != nil {
		s.logger.Error("failed to load articles for search", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	matched := search.FilterArticles(items, query)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	matched = displayItems(matched)
	c.JSON(http.StatusOK, gin.H{"items": matched, "total": len(matched)})
}

// handleRefresh runs the ingestion pipeline immediately. Concurrent
// refreshes are collapsed: a second request while one is in flight gets a
// 409 rather than a duplicate run.
func (s *Server) handleRefresh(c *gin.Context) {
	s.mu.Lock()
	if s.refreshing {
		s.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "refresh already in progress"})
		return
	}
	s.refreshing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.refreshing = false
		s.mu.Unlock()
	}()

	summary := s.pipeline.Run(c.Request.Context())
	s.RecordRun(summary)
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleStatus(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastRun == nil {
		c.JSON(http.StatusOK, gin.H{"hasRun": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hasRun":    true,
		"lastRunAt": s.lastRunAt.UTC().Format(time.RFC3339),
		"summary":   s.lastRun,
		"hasErrors": len(s.lastRun.Errors) > 0,
	})
}

type highlightRequest struct {
	ArticleID string `json:"articleId" binding:"required"`
	Text      string `json:"text" binding:"required"`
	Comment   string `json:"comment"`
}

func (s *Server) handleSaveHighlight(c *gin.Context) {
	var req highlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h := news.Highlight{
		ID:        "highlight_" + uuid.NewString(),
		ArticleID: req.ArticleID,
		Text:      req.Text,
		Comment:   req.Comment,
	}
	if err := s.store.SaveHighlight(c.Request.Context(), h); err != nil {
		s.logger.Error("failed to save highlight", "articleId", req.ArticleID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save highlight"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": h.ID})
}

func (s *Server) handleHighlights(c *gin.Context) {
	articleID := c.Query("articleId")
	if articleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter articleId"})
		return
	}

	highlights, err := s.store.HighlightsByArticleID(c.Request.Context(), articleID)
	if err != nil {
		s.logger.Error("failed to load highlights", "articleId", articleID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load highlights"})
		return
	}
	if highlights == nil {
		highlights = []news.Highlight{}
	}
	c.JSON(http.StatusOK, highlights)
}

type commentRequest struct {
	ArticleID string `json:"articleId" binding:"required"`
	Content   string `json:"content" binding:"required"`
	UserName  string `json:"userName" binding:"required"`
	UserID    string `json:"userId"`
}

func (s *Server) handleSaveComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cm := news.Comment{
		ID:        "comment_" + uuid.NewString(),
		ArticleID: req.ArticleID,
		Content:   req.Content,
		UserID:    req.UserID,
		UserName:  req.UserName,
	}
	if err := s.store.SaveComment(c.Request.Context(), cm); err != nil {
		s.logger.Error("failed to save comment", "articleId", req.ArticleID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save comment"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": cm.ID})
}

func (s *Server) handleComments(c *gin.Context) {
	articleID := c.Query("articleId")
	if articleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter articleId"})
		return
	}

	comments, err := s.store.CommentsByArticleID(c.Request.Context(), articleID)
	if err != nil {
		s.logger.Error("failed to load comments", "articleId", articleID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load comments"})
		return
	}
	if comments == nil {
		comments = []news.Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

func (s *Server) handleMyComments(c *gin.Context) {
	limit := queryInt(c, "limit", 20)

	comments, err := s.store.RecentComments(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("failed to load recent comments", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load comments"})
		return
	}
	if comments == nil {
		comments = []news.Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
