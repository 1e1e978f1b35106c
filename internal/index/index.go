// Package index provides the searchable document store the pipeline writes
// classified emails into and the query API reads from.
package index

import (
	"context"

	"github.com/oneboxhq/onebox/pkg/models"
)

// maxResults caps every search response, newest first.
const maxResults = 100

// Query holds the optional search filters. Zero values mean "no filter".
type Query struct {
	Text      string          // full-text match over subject and body
	AccountID string          // exact match
	Category  models.Category // exact match
}

// Store is the document store contract the pipeline and query API depend on.
type Store interface {
	// EnsureSchema prepares the index. Called once at startup before any
	// ingestion; a failure here is fatal to the process.
	EnsureSchema(ctx context.Context) error

	// Exists reports whether a document with the given message ID is
	// already indexed.
	Exists(ctx context.Context, messageID string) (bool, error)

	// Upsert indexes a document, replacing any previous document with the
	// same message ID.
	Upsert(ctx context.Context, doc *models.Document) error

	// Search returns matching documents sorted by date descending, capped
	// at 100.
	Search(ctx context.Context, q Query) ([]models.Document, error)
}
