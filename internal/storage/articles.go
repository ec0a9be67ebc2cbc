package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"newsreader/internal/news"
)

// UpsertArticle inserts or updates an article keyed by its deterministic
// ID. The item is normalized (field limits, placeholder defaults, ID
// regeneration) before it touches the database, so a row write is always a
// single well-formed statement. Running the same item through twice leaves
// exactly one row.
func (s *Store) UpsertArticle(ctx context.Context, item news.NewsItem) error {
	safe := news.Normalize(item)

	query := `
	INSERT INTO articles (id, title, description, content, link, pub_date, source)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		content = excluded.content,
		link = excluded.link,
		pub_date = excluded.pub_date,
		source = excluded.source;`

	_, err := s.db.ExecContext(ctx, query,
		safe.ID, safe.Title, safe.Description, safe.Content, safe.Link, safe.PubDate, safe.Source)
	if err != nil {
		return fmt.Errorf("failed to upsert article: %w", err)
	}
	return nil
}

// GetArticleByID returns one article together with its highlights and
// comments, or ErrNotFound. The ID is reduced to word characters before it
// reaches a query.
func (s *Store) GetArticleByID(ctx context.Context, id string) (*news.Article, error) {
	safeID := news.SanitizeID(id)
	if safeID == "" {
		return nil, ErrNotFound
	}

	query := `SELECT id, title, description, content, link, pub_date, source
		FROM articles WHERE id = ?;`

	var item news.NewsItem
	err := s.db.QueryRowContext(ctx, query, safeID).Scan(
		&item.ID, &item.Title, &item.Description, &item.Content,
		&item.Link, &item.PubDate, &item.Source)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	highlights, err := s.HighlightsByArticleID(ctx, safeID)
	if err != nil {
		return nil, err
	}
	comments, err := s.CommentsByArticleID(ctx, safeID)
	if err != nil {
		return nil, err
	}

	return &news.Article{
		NewsItem:   item,
		Highlights: highlights,
		Comments:   comments,
	}, nil
}

// LatestArticles returns up to limit articles ordered newest-first.
func (s *Store) LatestArticles(ctx context.Context, limit int) ([]news.NewsItem, error) {
	query := `SELECT id, title, description, content, link, pub_date, source
		FROM articles ORDER BY pub_date DESC LIMIT ?;`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// ArticlePage is one page of the article listing.
type ArticlePage struct {
	Items   []news.NewsItem `json:"items"`
	Total   int             `json:"total"`
	HasMore bool            `json:"hasMore"`
}

// PaginatedArticles returns one page of articles ordered newest-first,
// along with the total row count.
func (s *Store) PaginatedArticles(ctx context.Context, page, pageSize int) (*ArticlePage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles;`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `SELECT id, title, description, content, link, pub_date, source
		FROM articles ORDER BY pub_date DESC LIMIT ? OFFSET ?;`

	rows, err := s.db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles page: %w", err)
	}
	defer rows.Close()

	items, err := scanArticles(rows)
	if err != nil {
		return nil, err
	}

	return &ArticlePage{
		Items:   items,
		Total:   total,
		HasMore: offset+len(items) < total,
	}, nil
}

func scanArticles(rows *sql.Rows) ([]news.NewsItem, error) {
	var items []news.NewsItem
	for rows.Next() {
		var item news.NewsItem
		err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.Content,
			&item.Link, &item.PubDate, &item.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating articles: %w", err)
	}
	return items, nil
}
