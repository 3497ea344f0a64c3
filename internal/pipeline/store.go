package pipeline

import (
	"sort"
	"sync"

	"git.home.luguber.info/inful/talentscout/internal/errors"
)

// Store is the persistence port for pipeline records. Load and ListAll return
// deep copies; Save replaces the whole record atomically. Load and Delete
// return a not_found error for unknown IDs.
type Store interface {
	Load(id string) (Record, error)
	Save(rec Record) error
	ListAll() ([]Record, error)
	Delete(id string) error
}

// MemStore is an in-memory Store used by tests and the preview CLI mode. It
// is safe for concurrent use.
type MemStore struct {
	mu   sync.RWMutex
	recs map[string]Record
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{recs: make(map[string]Record)}
}

func (m *MemStore) Load(id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[id]
	if !ok {
		return Record{}, errors.NotFound("pipeline record", id)
	}
	return rec.Clone(), nil
}

func (m *MemStore) Save(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[rec.ID] = rec.Clone()
	return nil
}

func (m *MemStore) ListAll() ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, len(m.recs))
	for _, rec := range m.recs {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[id]; !ok {
		return errors.NotFound("pipeline record", id)
	}
	delete(m.recs, id)
	return nil
}
