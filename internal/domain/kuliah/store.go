package kuliah

import "context"

// Store is the persistence boundary for the schedule document.
//
// Implementations must serialize access internally: Load and Save may be
// called from the command loop and the scheduler concurrently. Callers that
// need a read-modify-write cycle should use Update so the whole cycle runs
// inside the store's critical section and lost updates cannot occur.
type Store interface {
	// Load reads the current document. If no document exists yet the store
	// creates an empty one, persists it, and returns it.
	Load(ctx context.Context) (*Document, error)

	// Save atomically replaces the persisted document with doc.
	Save(ctx context.Context, doc *Document) error

	// Update runs fn with a freshly loaded document and persists the result
	// when fn returns nil. fn returning an error aborts without writing.
	Update(ctx context.Context, fn func(doc *Document) error) error
}
