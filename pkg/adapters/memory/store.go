package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/formtree/pkg/domain"
)

// Store implements ports.FormStore in memory.
// Documents are kept encoded so that callers never share nested maps with the store.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save persists the document in memory.
func (s *Store) Save(ctx context.Context, formID string, doc domain.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode form %s: %w", formID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[formID] = data
	return nil
}

// Load retrieves a decoded copy of the document.
func (s *Store) Load(ctx context.Context, formID string) (domain.Document, error) {
	s.mu.RLock()
	data, ok := s.data[formID]
	s.mu.RUnlock()

	if !ok {
		return domain.Document{}, domain.ErrFormNotFound
	}
	return domain.ParseDocument(data)
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, formID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, formID)
	return nil
}

// List returns the stored form IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	forms := make([]string, 0, len(s.data))
	for id := range s.data {
		forms = append(forms, id)
	}
	sort.Strings(forms)
	return forms, nil
}
