package postgres

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/faturroziq/bot-atechh/internal/domain/kuliah"
	"github.com/faturroziq/bot-atechh/internal/domain/shared"
)

// DocumentStore implements kuliah.Store on a single-row JSONB table.
//
// Like the file backend, access is serialized through a process-local mutex:
// the bot is the only writer, so row-level locking buys nothing and the mutex
// keeps Update's load-mutate-save cycle atomic.
type DocumentStore struct {
	conn *Connection
	mu   sync.Mutex
}

// NewDocumentStore creates a document store on the given connection.
func NewDocumentStore(conn *Connection) *DocumentStore {
	return &DocumentStore{conn: conn}
}

// Load reads the current document, inserting an empty one if the row does
// not exist yet.
func (s *DocumentStore) Load(ctx context.Context) (*kuliah.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Save atomically replaces the persisted document.
func (s *DocumentStore) Save(ctx context.Context, doc *kuliah.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, doc)
}

// Update runs fn on a freshly loaded document and persists the result,
// all inside the store's critical section.
func (s *DocumentStore) Update(ctx context.Context, fn func(doc *kuliah.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.save(ctx, doc)
}

func (s *DocumentStore) load(ctx context.Context) (*kuliah.Document, error) {
	var raw []byte
	err := s.conn.QueryRow(ctx, "SELECT doc FROM kuliah_documents WHERE id = 1").Scan(&raw)
	if IsNoRows(err) {
		doc := kuliah.NewDocument()
		if err := s.save(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, shared.WrapError("kuliah", "Load", shared.ErrStorage, "query schedule document", err)
	}

	var doc kuliah.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, shared.WrapError("kuliah", "Load", shared.ErrStorage, "decode schedule document", err)
	}
	doc.Normalize()

	return &doc, nil
}

func (s *DocumentStore) save(ctx context.Context, doc *kuliah.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return shared.WrapError("kuliah", "Save", shared.ErrStorage, "encode schedule document", err)
	}

	_, err = s.conn.Exec(ctx, `
		INSERT INTO kuliah_documents (id, doc, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()
	`, data)
	if err != nil {
		return shared.WrapError("kuliah", "Save", shared.ErrStorage, "upsert schedule document", err)
	}

	return nil
}
