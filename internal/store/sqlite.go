// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Opens the database, creates the schema, and seeds the default types and taxonomies

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist and the default
// post types, taxonomies, and author are seeded.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// PRAGMAs below are per connection, so keep exactly one.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.seedDefaults(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding defaults: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS authors (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			login        TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			email        TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS post_types (
			name           TEXT PRIMARY KEY,
			label          TEXT NOT NULL,
			singular_label TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			public         INTEGER NOT NULL DEFAULT 1,
			hierarchical   INTEGER NOT NULL DEFAULT 0,
			show_ui        INTEGER NOT NULL DEFAULT 1,
			show_in_rest   INTEGER NOT NULL DEFAULT 1,
			rest_base      TEXT NOT NULL DEFAULT '',
			has_archive    INTEGER NOT NULL DEFAULT 0,
			menu_icon      TEXT NOT NULL DEFAULT '',
			supports_json  TEXT NOT NULL DEFAULT '[]'
		);

		CREATE TABLE IF NOT EXISTS posts (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			type           TEXT NOT NULL,
			title          TEXT NOT NULL,
			slug           TEXT NOT NULL,
			content        TEXT NOT NULL DEFAULT '',
			excerpt        TEXT NOT NULL DEFAULT '',
			status         TEXT NOT NULL,
			author_id      INTEGER NOT NULL DEFAULT 0,
			parent_id      INTEGER NOT NULL DEFAULT 0,
			menu_order     INTEGER NOT NULL DEFAULT 0,
			comment_status TEXT NOT NULL DEFAULT 'open',
			ping_status    TEXT NOT NULL DEFAULT 'open',
			created_at     TEXT NOT NULL,
			modified_at    TEXT NOT NULL,

			FOREIGN KEY (type) REFERENCES post_types(name),
			CHECK (status IN ('publish', 'draft', 'pending', 'private', 'future', 'trash')),
			CHECK (comment_status IN ('open', 'closed')),
			CHECK (ping_status IN ('open', 'closed'))
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_posts_type_slug ON posts(type, slug);
		CREATE INDEX IF NOT EXISTS idx_posts_type_status ON posts(type, status);

		CREATE TABLE IF NOT EXISTS taxonomies (
			name           TEXT PRIMARY KEY,
			label          TEXT NOT NULL,
			singular_label TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			public         INTEGER NOT NULL DEFAULT 1,
			hierarchical   INTEGER NOT NULL DEFAULT 0,
			show_ui        INTEGER NOT NULL DEFAULT 1,
			show_in_rest   INTEGER NOT NULL DEFAULT 1,
			rest_base      TEXT NOT NULL DEFAULT '',
			show_tagcloud  INTEGER NOT NULL DEFAULT 1
		);

		CREATE TABLE IF NOT EXISTS taxonomy_object_types (
			taxonomy  TEXT NOT NULL,
			post_type TEXT NOT NULL,
			PRIMARY KEY (taxonomy, post_type),
			FOREIGN KEY (taxonomy) REFERENCES taxonomies(name) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS terms (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			taxonomy    TEXT NOT NULL,
			name        TEXT NOT NULL,
			slug        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			parent      INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (taxonomy) REFERENCES taxonomies(name)
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_terms_taxonomy_slug ON terms(taxonomy, slug);
		CREATE INDEX IF NOT EXISTS idx_terms_parent ON terms(taxonomy, parent);

		CREATE TABLE IF NOT EXISTS term_relationships (
			post_id    INTEGER NOT NULL,
			term_id    INTEGER NOT NULL,
			term_order INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (post_id, term_id),
			FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE,
			FOREIGN KEY (term_id) REFERENCES terms(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_term_relationships_term ON term_relationships(term_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// DefaultAuthorID is the author assigned to posts created without one.
const DefaultAuthorID = 1

// seedDefaults installs the built-in post types, taxonomies, default author,
// and the Uncategorized category. Safe to run on every start.
func (s *SQLiteStore) seedDefaults(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO authors (id, login, display_name) VALUES (?, 'admin', 'Administrator')
	`, DefaultAuthorID); err != nil {
		return fmt.Errorf("seeding author: %w", err)
	}

	for _, pt := range defaultPostTypes() {
		if err := s.EnsurePostType(ctx, pt); err != nil {
			return err
		}
	}
	for _, tax := range defaultTaxonomies() {
		if err := s.EnsureTaxonomy(ctx, tax); err != nil {
			return err
		}
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO terms (taxonomy, name, slug) VALUES ('category', 'Uncategorized', 'uncategorized')
	`); err != nil {
		return fmt.Errorf("seeding default category: %w", err)
	}
	return nil
}

func defaultPostTypes() []*PostType {
	return []*PostType{
		{
			Name:          "post",
			Label:         "Posts",
			SingularLabel: "Post",
			Public:        true,
			ShowUI:        true,
			ShowInRest:    true,
			RestBase:      "posts",
			MenuIcon:      "dashicons-admin-post",
			Supports:      []string{"title", "editor", "author", "excerpt", "comments"},
		},
		{
			Name:          "page",
			Label:         "Pages",
			SingularLabel: "Page",
			Public:        true,
			Hierarchical:  true,
			ShowUI:        true,
			ShowInRest:    true,
			RestBase:      "pages",
			MenuIcon:      "dashicons-admin-page",
			Supports:      []string{"title", "editor", "author", "page-attributes"},
		},
	}
}

func defaultTaxonomies() []*Taxonomy {
	return []*Taxonomy{
		{
			Name:          "category",
			Label:         "Categories",
			SingularLabel: "Category",
			Public:        true,
			Hierarchical:  true,
			ShowUI:        true,
			ShowInRest:    true,
			RestBase:      "categories",
			ShowTagcloud:  true,
			ObjectTypes:   []string{"post"},
		},
		{
			Name:          "post_tag",
			Label:         "Tags",
			SingularLabel: "Tag",
			Public:        true,
			ShowUI:        true,
			ShowInRest:    true,
			RestBase:      "tags",
			ShowTagcloud:  true,
			ObjectTypes:   []string{"post"},
		},
	}
}

// Version returns the SQLite library version.
func (s *SQLiteStore) Version(ctx context.Context) (string, error) {
	var v string
	if err := s.db.QueryRowContext(ctx, `SELECT sqlite_version()`).Scan(&v); err != nil {
		return "", fmt.Errorf("querying sqlite version: %w", err)
	}
	return "SQLite " + v, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// withTx runs fn inside a transaction, committing on success.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) timestamp() string {
	return s.now().Format(DateLayout)
}

var _ Store = (*SQLiteStore)(nil)
