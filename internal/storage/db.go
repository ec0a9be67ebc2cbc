package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store owns the SQLite connection and exposes the queries the rest of
// the application needs. Schema creation happens once, inside Open, so no
// caller ever observes a half-initialized database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// runMigrations creates the necessary tables if they don't exist.
func runMigrations(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			content TEXT,
			link TEXT NOT NULL,
			pub_date TEXT NOT NULL,
			source TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS highlights (
			id TEXT PRIMARY KEY,
			article_id TEXT NOT NULL,
			text TEXT NOT NULL,
			comment TEXT,
			created_at TEXT NOT NULL,
			FOREIGN KEY (article_id) REFERENCES articles(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS comments (
			id TEXT PRIMARY KEY,
			article_id TEXT NOT NULL,
			content TEXT NOT NULL,
			user_id TEXT,
			user_name TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (article_id) REFERENCES articles(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS cache (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			expires_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_articles_pub_date ON articles(pub_date DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_highlights_article_id ON highlights(article_id);`,
		`CREATE INDEX IF NOT EXISTS idx_comments_article_id ON comments(article_id);`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
