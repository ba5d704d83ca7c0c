package ports_test

import (
	"context"
	"sort"
	"testing"

	"github.com/aretw0/formtree/pkg/domain"
	"github.com/aretw0/formtree/pkg/ports"
)

// MockStore is a map-backed FormStore used to exercise the contract suite itself.
type MockStore struct {
	data map[string]domain.Document
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]domain.Document)}
}

func (m *MockStore) Save(ctx context.Context, formID string, doc domain.Document) error {
	m.data[formID] = doc
	return nil
}

func (m *MockStore) Load(ctx context.Context, formID string) (domain.Document, error) {
	doc, ok := m.data[formID]
	if !ok {
		return domain.Document{}, domain.ErrFormNotFound
	}
	return doc, nil
}

func (m *MockStore) Delete(ctx context.Context, formID string) error {
	delete(m.data, formID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func TestMockStore_Contract(t *testing.T) {
	ports.RunFormStoreContract(t, NewMockStore())
}
