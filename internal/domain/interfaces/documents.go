package interfaces

import (
	"context"

	storage "tradebook/internal/domain/entity/storage"
)

// DocumentStore persists named JSON documents.
//
// Get never fails: a missing or unreadable document comes back empty with the
// status set accordingly. Mutate reads the document, applies fn and writes the
// result back; when fn returns an error nothing is written.
type DocumentStore interface {
	Get(ctx context.Context, name string) storage.Result
	Mutate(ctx context.Context, name string, fn func(doc storage.Document) error) storage.Result
}
