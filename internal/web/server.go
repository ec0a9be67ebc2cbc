package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newsreader/internal/cache"
	"newsreader/internal/metrics"
	"newsreader/internal/rss"
	"newsreader/internal/storage"
)

const (
	latestNewsCacheKey = "latest-news"
	latestNewsCacheTTL = 5 * time.Minute
	latestNewsLimit    = 20
	searchScanLimit    = 300
)

// Server holds the dependencies for the HTTP handlers.
type Server struct {
	store    *storage.Store
	pipeline *rss.Pipeline
	memCache *cache.Memory
	logger   *slog.Logger

	mu         sync.Mutex
	lastRunAt  time.Time
	lastRun    *rss.Summary
	refreshing bool
}

// NewServer creates a web server over the given store and pipeline.
func NewServer(store *storage.Store, pipeline *rss.Pipeline, logger *slog.Logger) *Server {
	return &Server{
		store:    store,
		pipeline: pipeline,
		memCache: cache.NewMemory(),
		logger:   logger,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestMetrics())

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/news", s.handleNews)
		api.GET("/articles", s.handleArticles)
		api.GET("/articles/:id", s.handleArticleByID)
		api.GET("/search", s.handleSearch)
		api.POST("/refresh", s.handleRefresh)
		api.GET("/status", s.handleStatus)
		api.POST("/highlights", s.handleSaveHighlight)
		api.GET("/highlights", s.handleHighlights)
		api.POST("/comments", s.handleSaveComment)
		api.GET("/comments", s.handleComments)
		api.GET("/my/comments", s.handleMyComments)
	}

	return router
}

// RecordRun stores the outcome of an ingestion run for the status
// endpoint and drops the stale latest-news snapshot from both cache
// levels. The scheduler and the manual refresh handler both report here.
func (s *Server) RecordRun(summary rss.Summary) {
	s.mu.Lock()
	s.lastRun = &summary
	s.lastRunAt = time.Now()
	s.mu.Unlock()

	s.memCache.Delete(latestNewsCacheKey)
	if err := s.store.CacheDelete(context.Background(), latestNewsCacheKey); err != nil {
		s.logger.Warn("failed to drop persisted news snapshot", "error", err)
	}
}

func (s *Server) requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "newsreader"})
}
