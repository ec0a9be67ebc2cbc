package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"newsreader/internal/news"
)

// SaveHighlight persists a highlight. CreatedAt defaults to the current
// time when the caller leaves it empty.
func (s *Store) SaveHighlight(ctx context.Context, h news.Highlight) error {
	articleID := news.SanitizeID(h.ArticleID)
	if articleID == "" {
		return fmt.Errorf("invalid article ID for highlight %s", h.ID)
	}

	createdAt := h.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}

	query := `INSERT INTO highlights (id, article_id, text, comment, created_at)
		VALUES (?, ?, ?, ?, ?);`

	_, err := s.db.ExecContext(ctx, query, h.ID, articleID, h.Text, nullIfEmpty(h.Comment), createdAt)
	if err != nil {
		return fmt.Errorf("failed to save highlight: %w", err)
	}
	return nil
}

// HighlightsByArticleID returns an article's highlights, newest first.
func (s *Store) HighlightsByArticleID(ctx context.Context, articleID string) ([]news.Highlight, error) {
	safeID := news.SanitizeID(articleID)
	if safeID == "" {
		return nil, nil
	}

	query := `SELECT id, article_id, text, comment, created_at
		FROM highlights WHERE article_id = ? ORDER BY created_at DESC;`

	rows, err := s.db.QueryContext(ctx, query, safeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query highlights: %w", err)
	}
	defer rows.Close()

	var highlights []news.Highlight
	for rows.Next() {
		var h news.Highlight
		var comment sql.NullString
		if err := rows.Scan(&h.ID, &h.ArticleID, &h.Text, &comment, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan highlight: %w", err)
		}
		h.Comment = comment.String
		highlights = append(highlights, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating highlights: %w", err)
	}
	return highlights, nil
}

// SaveComment persists a comment.
func (s *Store) SaveComment(ctx context.Context, c news.Comment) error {
	articleID := news.SanitizeID(c.ArticleID)
	if articleID == "" {
		return fmt.Errorf("invalid article ID for comment %s", c.ID)
	}

	createdAt := c.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}

	query := `INSERT INTO comments (id, article_id, content, user_id, user_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?);`

	_, err := s.db.ExecContext(ctx, query, c.ID, articleID, c.Content, nullIfEmpty(c.UserID), c.UserName, createdAt)
	if err != nil {
		return fmt.Errorf("failed to save comment: %w", err)
	}
	return nil
}

// CommentsByArticleID returns an article's comments, newest first.
func (s *Store) CommentsByArticleID(ctx context.Context, articleID string) ([]news.Comment, error) {
	safeID := news.SanitizeID(articleID)
	if safeID == "" {
		return nil, nil
	}

	query := `SELECT id, article_id, content, user_id, user_name, created_at
		FROM comments WHERE article_id = ? ORDER BY created_at DESC;`

	rows, err := s.db.QueryContext(ctx, query, safeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	return scanComments(rows, false)
}

// RecentComments returns the reader's most recent comments across all
// articles, joined with the article title for display. Comments whose
// article has been removed are labeled instead of dropped.
func (s *Store) RecentComments(ctx context.Context, limit int) ([]news.Comment, error) {
	query := `SELECT c.id, c.article_id, c.content, c.user_id, c.user_name, c.created_at, a.title
		FROM comments c
		LEFT JOIN articles a ON c.article_id = a.id
		ORDER BY c.created_at DESC
		LIMIT ?;`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent comments: %w", err)
	}
	defer rows.Close()

	return scanComments(rows, true)
}

func scanComments(rows *sql.Rows, withTitle bool) ([]news.Comment, error) {
	var comments []news.Comment
	for rows.Next() {
		var c news.Comment
		var userID sql.NullString
		var err error
		if withTitle {
			var title sql.NullString
			err = rows.Scan(&c.ID, &c.ArticleID, &c.Content, &userID, &c.UserName, &c.CreatedAt, &title)
			if title.Valid {
				c.ArticleTitle = title.String
			} else {
				c.ArticleTitle = "未知文章"
			}
		} else {
			err = rows.Scan(&c.ID, &c.ArticleID, &c.Content, &userID, &c.UserName, &c.CreatedAt)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		c.UserID = userID.String
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return comments, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
