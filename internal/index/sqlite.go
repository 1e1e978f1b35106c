package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/oneboxhq/onebox/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS emails (
    message_id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    category TEXT NOT NULL,
    subject TEXT,
    from_name TEXT,
    from_addr TEXT,
    to_addrs TEXT,
    date DATETIME,
    body_text TEXT,
    body_html TEXT
);

CREATE INDEX IF NOT EXISTS idx_emails_account ON emails(account_id);
CREATE INDEX IF NOT EXISTS idx_emails_category ON emails(category);
CREATE INDEX IF NOT EXISTS idx_emails_date ON emails(date);
`

// SQLiteStore implements Store on an embedded SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (creating if necessary) the index database at path.
// Use ":memory:" for an ephemeral store in tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the emails table and its indexes.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to prepare index schema: %w", err)
	}
	return nil
}

// Exists reports whether a document with the given message ID is indexed.
func (s *SQLiteStore) Exists(ctx context.Context, messageID string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM emails WHERE message_id = ?`, messageID)
	if err != nil {
		return false, fmt.Errorf("failed to check document existence: %w", err)
	}
	return count > 0, nil
}

// Upsert indexes a document, overwriting any previous version keyed by the
// same message ID.
func (s *SQLiteStore) Upsert(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO emails (message_id, account_id, category, subject, from_name, from_addr, to_addrs, date, body_text, body_html)
		VALUES (:message_id, :account_id, :category, :subject, :from_name, :from_addr, :to_addrs, :date, :body_text, :body_html)
		ON CONFLICT(message_id) DO UPDATE SET
			account_id = excluded.account_id,
			category = excluded.category,
			subject = excluded.subject,
			from_name = excluded.from_name,
			from_addr = excluded.from_addr,
			to_addrs = excluded.to_addrs,
			date = excluded.date,
			body_text = excluded.body_text,
			body_html = excluded.body_html
	`
	if _, err := s.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	return nil
}

// Search returns documents matching the query, newest first, capped at 100.
func (s *SQLiteStore) Search(ctx context.Context, q Query) ([]models.Document, error) {
	var (
		where []string
		args  []interface{}
	)

	if q.Text != "" {
		where = append(where, `(subject LIKE ? OR body_text LIKE ?)`)
		pattern := "%" + q.Text + "%"
		args = append(args, pattern, pattern)
	}
	if q.AccountID != "" {
		where = append(where, `account_id = ?`)
		args = append(args, q.AccountID)
	}
	if q.Category != "" {
		where = append(where, `category = ?`)
		args = append(args, string(q.Category))
	}

	query := `SELECT * FROM emails`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY date DESC LIMIT ?`
	args = append(args, maxResults)

	docs := []models.Document{}
	if err := s.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}
	return docs, nil
}
