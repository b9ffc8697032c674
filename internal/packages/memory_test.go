// AngelaMos | 2026
// memory_test.go

package packages

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
)

// memoryStore is an in-process Store. Transactions run under one lock and
// roll back by restoring a snapshot.
type memoryStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Package
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: make(map[int64]Package)}
}

func (m *memoryStore) Packages() Repository {
	return &memoryRepo{store: m, lock: true}
}

func (m *memoryStore) WithinTx(_ context.Context, fn func(Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[int64]Package, len(m.rows))
	for k, v := range m.rows {
		snapshot[k] = v
	}
	nextID := m.nextID

	if err := fn(&memoryRepo{store: m}); err != nil {
		m.rows = snapshot
		m.nextID = nextID
		return err
	}
	return nil
}

func (m *memoryStore) seed(p Package) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	p.ID = m.nextID
	m.rows[p.ID] = p
	return p.ID
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memoryStore) get(id int64) (Package, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	return p, ok
}

type memoryRepo struct {
	store *memoryStore
	lock  bool
}

func (r *memoryRepo) with(fn func()) {
	if r.lock {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	}
	fn()
}

func (r *memoryRepo) Create(_ context.Context, p *Package) error {
	r.with(func() {
		r.store.nextID++
		p.ID = r.store.nextID
		r.store.rows[p.ID] = *p
	})
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*Package, error) {
	var (
		p  Package
		ok bool
	)
	r.with(func() { p, ok = r.store.rows[id] })
	if !ok {
		return nil, fmt.Errorf("get package: %w", core.ErrNotFound)
	}
	return &p, nil
}

func (r *memoryRepo) GetForUpdate(ctx context.Context, id int64) (*Package, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryRepo) ListByOwner(_ context.Context, ownerID int64) ([]Package, error) {
	out := []Package{}
	r.with(func() {
		for _, p := range r.store.rows {
			if p.OwnerID == ownerID {
				out = append(out, p)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	pkgs, err := r.ListByOwner(ctx, ownerID)
	return len(pkgs), err
}

func (r *memoryRepo) Update(_ context.Context, p *Package) error {
	var ok bool
	r.with(func() {
		if _, ok = r.store.rows[p.ID]; ok {
			r.store.rows[p.ID] = *p
		}
	})
	if !ok {
		return fmt.Errorf("update package: %w", core.ErrNotFound)
	}
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	var ok bool
	r.with(func() {
		if _, ok = r.store.rows[id]; ok {
			delete(r.store.rows, id)
		}
	})
	if !ok {
		return fmt.Errorf("delete package: %w", core.ErrNotFound)
	}
	return nil
}
