// Package memstore keeps models in process memory. It backs the API when no
// database URL is configured and serves as the store in tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"jobsapi/internal/crud"
)

// Store holds the rows of one model.
type Store struct {
	mu     sync.RWMutex
	name   string
	nextID int64
	rows   map[int64]crud.Entity
	now    func() time.Time
}

var _ crud.Store = (*Store)(nil)

// New returns an empty model store.
func New(name string) *Store {
	return &Store{
		name:   name,
		nextID: 1,
		rows:   make(map[int64]crud.Entity),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Name() string { return s.name }

func match(e crud.Entity, f crud.Filter) bool {
	if f.ID != 0 && e.ID() != f.ID {
		return false
	}
	deleted, _ := e["isdeleted"].(bool)
	return deleted == f.Deleted
}

func (s *Store) FindOne(_ context.Context, f crud.Filter) (crud.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f.ID != 0 {
		e, ok := s.rows[f.ID]
		if !ok || !match(e, f) {
			return nil, nil
		}
		return e.Clone(), nil
	}
	for _, id := range s.sortedIDs() {
		if e := s.rows[id]; match(e, f) {
			return e.Clone(), nil
		}
	}
	return nil, nil
}

func (s *Store) FindMany(_ context.Context, f crud.Filter) ([]crud.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]crud.Entity, 0, len(s.rows))
	for _, id := range s.sortedIDs() {
		if e := s.rows[id]; match(e, f) {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

func (s *Store) Exists(ctx context.Context, f crud.Filter) (bool, error) {
	e, err := s.FindOne(ctx, f)
	return e != nil, err
}

func (s *Store) Create(_ context.Context, values map[string]any) (crud.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	now := s.now()
	rec := make(crud.Entity, len(values)+3)
	for k, v := range values {
		rec[k] = v
	}
	rec["id"] = id
	rec["createddate"] = now
	rec["lastmodifieddate"] = now
	s.rows[id] = rec
	return rec.Clone(), nil
}

func (s *Store) Save(_ context.Context, e crud.Entity, changes map[string]any) (crud.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := e.ID()
	rec, ok := s.rows[id]
	if !ok {
		return nil, fmt.Errorf("%s: row %d does not exist", s.name, id)
	}
	for k, v := range changes {
		if k == "id" {
			continue
		}
		rec[k] = v
	}
	rec["lastmodifieddate"] = s.now()
	return rec.Clone(), nil
}

// sortedIDs must be called with s.mu held.
func (s *Store) sortedIDs() []int64 {
	ids := make([]int64, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Models is a set of in-memory model stores.
type Models struct {
	mu     sync.Mutex
	models map[string]*Store
}

// NewModels creates stores for the given model names.
func NewModels(names ...string) *Models {
	m := &Models{models: make(map[string]*Store, len(names))}
	for _, n := range names {
		m.models[n] = New(n)
	}
	return m
}

func (m *Models) Model(name string) (crud.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.models[name]
	if !ok {
		return nil, fmt.Errorf("memstore: unknown model %q", name)
	}
	return s, nil
}

// Acquire returns m itself; the in-memory store needs no connection.
func (m *Models) Acquire(context.Context) (crud.Models, error) { return m, nil }
