// Package file implements the schedule document store on top of a local JSON
// file. This is the default backend: one small document, rewritten whole on
// every save, exactly what a single-group bot needs.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/faturroziq/bot-atechh/internal/domain/kuliah"
	"github.com/faturroziq/bot-atechh/internal/domain/shared"
)

// Store persists the document as pretty-printed JSON at a fixed path.
//
// All operations run under a single mutex. Update holds it across the whole
// load-mutate-save cycle, so two concurrent command handlers can never clobber
// each other's writes.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by the given file path.
// The file itself is created lazily on first Load.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the current document, creating an empty one if the file does not
// exist yet.
func (s *Store) Load(ctx context.Context) (*kuliah.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Save atomically replaces the persisted document.
func (s *Store) Save(ctx context.Context, doc *kuliah.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, doc)
}

// Update runs fn on a freshly loaded document and saves the result, all
// inside the store's critical section.
func (s *Store) Update(ctx context.Context, fn func(doc *kuliah.Document) error) error {
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

func (s *Store) load(ctx context.Context) (*kuliah.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		doc := kuliah.NewDocument()
		if err := s.save(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, shared.WrapError("kuliah", "Load", shared.ErrStorage, "read schedule document", err)
	}

	var doc kuliah.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, shared.WrapError("kuliah", "Load", shared.ErrStorage, "decode schedule document", err)
	}
	doc.Normalize()

	return &doc, nil
}

// save writes to a temp file in the same directory and renames it over the
// target, so a crash mid-write never leaves a truncated document.
func (s *Store) save(ctx context.Context, doc *kuliah.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return shared.WrapError("kuliah", "Save", shared.ErrStorage, "encode schedule document", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return shared.WrapError("kuliah", "Save", shared.ErrStorage, "create temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return shared.WrapError("kuliah", "Save", shared.ErrStorage, "write temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return shared.WrapError("kuliah", "Save", shared.ErrStorage, "close temp file", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return shared.WrapError("kuliah", "Save", shared.ErrStorage, fmt.Sprintf("rename into %s", s.path), err)
	}

	return nil
}
