package remote

import (
	"context"
	"sort"
	"sync"
)

// MemoryTree is an in-process Tree. It is used by tests and by the editor
// when no remote store is configured.
type MemoryTree struct {
	mu      sync.RWMutex
	records map[Path]Record
}

// NewMemoryTree creates an empty tree.
func NewMemoryTree() *MemoryTree {
	return &MemoryTree{records: make(map[Path]Record)}
}

// ReadAll returns the records under location/category sorted by id.
func (m *MemoryTree) ReadAll(_ context.Context, location, category string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []Entry
	for p, rec := range m.records {
		if p.Location == location && p.Category == category {
			entries = append(entries, Entry{ID: p.ID, Record: clone(rec)})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// Read returns the record at path.
func (m *MemoryTree) Read(_ context.Context, path Path) (Record, bool, error) {
	if err := path.Validate(); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[path]
	if !ok {
		return nil, false, nil
	}
	return clone(rec), true, nil
}

// Update merges fields into the record at path.
func (m *MemoryTree) Update(_ context.Context, path Path, fields Record) error {
	if err := path.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[path] = merge(m.records[path], clone(fields))
	return nil
}

// Remove deletes the record at path.
func (m *MemoryTree) Remove(_ context.Context, path Path) error {
	if err := path.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, path)
	return nil
}

// Len returns the number of stored records.
func (m *MemoryTree) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
