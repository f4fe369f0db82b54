package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"myshop/backend/internal/store"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]store.Document
	now         func() time.Time
}

func New() *Store {
	return &Store{
		collections: make(map[string]map[string]store.Document),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Create(ctx context.Context, collection string, id string, fields map[string]any) (store.Document, error) {
	if err := ctx.Err(); err != nil {
		return store.Document{}, err
	}
	if strings.TrimSpace(id) == "" {
		return store.Document{}, fmt.Errorf("document id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	if docs == nil {
		docs = make(map[string]store.Document)
		s.collections[collection] = docs
	}
	if _, exists := docs[id]; exists {
		return store.Document{}, fmt.Errorf("%s/%s: %w", collection, id, store.ErrDuplicateID)
	}

	now := s.now()
	doc := store.Document{ID: id, Data: store.CloneData(fields), CreatedAt: now, UpdatedAt: now}
	docs[id] = doc
	return cloneDocument(doc), nil
}

func (s *Store) Get(ctx context.Context, collection string, id string) (store.Document, error) {
	if err := ctx.Err(); err != nil {
		return store.Document{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return store.Document{}, fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	return cloneDocument(doc), nil
}

func (s *Store) Update(ctx context.Context, collection string, id string, fields map[string]any) (store.Document, error) {
	if err := ctx.Err(); err != nil {
		return store.Document{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return store.Document{}, fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	doc.Data = store.Merge(doc.Data, fields)
	doc.UpdatedAt = s.now()
	s.collections[collection][id] = doc
	return cloneDocument(doc), nil
}

func (s *Store) Delete(ctx context.Context, collection string, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	delete(s.collections[collection], id)
	return nil
}

func (s *Store) List(ctx context.Context, collection string, q store.Query) (store.Page, error) {
	if err := ctx.Err(); err != nil {
		return store.Page{}, err
	}

	s.mu.RLock()
	docs := make([]store.Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		docs = append(docs, cloneDocument(doc))
	}
	s.mu.RUnlock()

	// Map iteration is random; give unsorted queries a stable order.
	slices.SortFunc(docs, func(a, b store.Document) int {
		return strings.Compare(a.ID, b.ID)
	})
	return store.Apply(docs, q)
}

func cloneDocument(doc store.Document) store.Document {
	dup := doc
	dup.Data = store.CloneData(doc.Data)
	return dup
}
