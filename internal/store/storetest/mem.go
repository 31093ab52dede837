// Package storetest holds an in-memory stand-in for store.Repo used by service
// and handler tests.
package storetest

import (
	"context"
	"sort"
	"sync"

	"voicenotes/internal/domain"
	"voicenotes/internal/store"
)

// Mem implements the store.Repo method set over a map.
// SetID assigns the generated id; Less orders ListByOwner; Apply writes an
// Update column map onto a record.
type Mem[T store.Owned] struct {
	SetID func(rec *T, id uint64)
	Less  func(a, b T) bool
	Apply func(rec *T, fields map[string]any)

	// Err, when set, is returned by every call.
	Err error

	mu      sync.Mutex
	rows    map[uint64]T
	nextID  uint64
	finds   int
	scopes  int
	deletes int
}

func (m *Mem[T]) init() {
	if m.rows == nil {
		m.rows = map[uint64]T{}
	}
}

func (m *Mem[T]) ListByOwner(_ context.Context, userID uint64, scopes ...store.Scope) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.init()
	m.scopes = len(scopes)

	out := make([]T, 0)
	for _, r := range m.rows {
		if r.OwnerID() == userID {
			out = append(out, r)
		}
	}
	if m.Less != nil {
		sort.Slice(out, func(i, j int) bool { return m.Less(out[i], out[j]) })
	}
	return out, nil
}

func (m *Mem[T]) Create(_ context.Context, rec *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.init()
	m.nextID++
	if m.SetID != nil {
		m.SetID(rec, m.nextID)
	}
	m.rows[m.nextID] = *rec
	return nil
}

func (m *Mem[T]) Find(_ context.Context, id uint64) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	if m.Err != nil {
		return nil, m.Err
	}
	m.init()
	r, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (m *Mem[T]) Update(_ context.Context, rec *T, id, userID uint64, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.init()
	r, ok := m.rows[id]
	if !ok || r.OwnerID() != userID {
		return domain.ErrNotFound
	}
	if m.Apply != nil {
		m.Apply(&r, fields)
	}
	m.rows[id] = r
	*rec = r
	return nil
}

func (m *Mem[T]) Delete(_ context.Context, id, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.init()
	r, ok := m.rows[id]
	if !ok || r.OwnerID() != userID {
		return domain.ErrNotFound
	}
	delete(m.rows, id)
	m.deletes++
	return nil
}

// Put stores rec under id as-is, bypassing SetID. Useful for seeding another
// user's records.
func (m *Mem[T]) Put(id uint64, rec T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	m.rows[id] = rec
	if id > m.nextID {
		m.nextID = id
	}
}

// Len is the number of stored records.
func (m *Mem[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// Finds counts Find calls, successful or not.
func (m *Mem[T]) Finds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finds
}

// LastScopes is the number of scopes passed to the most recent ListByOwner.
func (m *Mem[T]) LastScopes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scopes
}

// Deletes counts successful deletes.
func (m *Mem[T]) Deletes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}

// Recorder counts metric calls per kind.
type Recorder struct {
	mu      sync.Mutex
	Created map[string]int
	Deleted map[string]int
}

func (r *Recorder) RecordCreated(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Created == nil {
		r.Created = map[string]int{}
	}
	r.Created[kind]++
}

func (r *Recorder) RecordDeleted(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Deleted == nil {
		r.Deleted = map[string]int{}
	}
	r.Deleted[kind]++
}
