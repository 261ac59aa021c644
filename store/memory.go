package store

import (
	"context"
	"sort"
	"sync"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document

	// FailWrites makes every write return this error, for testing the
	// abort-without-partial-persistence path.
	FailWrites error
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]Document)}
}

func (m *Memory) FindAll(_ context.Context, collection string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]Document, 0, len(m.collections[collection]))
	for _, doc := range m.collections[collection] {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (m *Memory) UpsertMany(_ context.Context, collection string, docs []Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites != nil {
		return m.FailWrites
	}
	col := m.collections[collection]
	if col == nil {
		col = make(map[string]Document)
		m.collections[collection] = col
	}
	for _, doc := range docs {
		col[doc.ID] = doc
	}
	return nil
}

func (m *Memory) DeleteWhereIDNotIn(_ context.Context, collection string, keepIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites != nil {
		return m.FailWrites
	}
	keep := make(map[string]bool, len(keepIDs))
	for _, id := range keepIDs {
		keep[id] = true
	}
	for id := range m.collections[collection] {
		if !keep[id] {
			delete(m.collections[collection], id)
		}
	}
	return nil
}

// Count reports how many documents a collection holds.
func (m *Memory) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}
