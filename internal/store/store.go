package store

import (
	"context"

	"github.com/feichai0017/onec-docsearch/internal/models"
)

// Store is the search-index boundary the indexing manager loads into. The
// ingestion pipeline itself never talks to the index; only the load phase
// after a completed run does.
type Store interface {
	// Ping checks that the backing cluster is reachable.
	Ping(ctx context.Context) error

	// IndexExists reports whether the target index is present.
	IndexExists(ctx context.Context) (bool, error)

	// Count returns the number of documents currently in the index.
	Count(ctx context.Context) (int64, error)

	// Recreate drops the index if present and creates it fresh with the
	// reference-document mapping.
	Recreate(ctx context.Context) error

	// BulkUpsert writes the documents in one bulk request, keyed by their
	// IDs so reruns overwrite rather than duplicate.
	BulkUpsert(ctx context.Context, docs []models.ReferenceDocument) error

	// Refresh makes previously written documents visible to searches.
	Refresh(ctx context.Context) error
}
