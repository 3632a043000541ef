package memory

import (
	"sync"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// table is an org-scoped row set. Rows are copied on the way in and out so
// callers never share memory with the store.
type table[T any] struct {
	name  string
	mu    sync.RWMutex
	rows  map[uuid.UUID]T
	order []uuid.UUID
	key   func(T) (orgID, id uuid.UUID)
	clone func(T) T
}

func newTable[T any](name string, key func(T) (uuid.UUID, uuid.UUID), clone func(T) T) *table[T] {
	return &table[T]{
		name:  name,
		rows:  make(map[uuid.UUID]T),
		key:   key,
		clone: clone,
	}
}

func shallow[T any](v *T) *T {
	c := *v
	return &c
}

// insert stores v unless its id exists or unique reports a clash with an
// existing row of the same org
func (t *table[T]) insert(v T, unique func(existing T) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	orgID, id := t.key(v)
	if orgID == uuid.Nil {
		return entities.ErrTenantRequired
	}
	if _, exists := t.rows[id]; exists {
		return entities.ConflictError("%s %s already exists", t.name, id)
	}
	if unique != nil {
		for _, existing := range t.rows {
			if org, _ := t.key(existing); org == orgID && unique(existing) {
				return entities.ConflictError("%s already exists", t.name)
			}
		}
	}
	t.rows[id] = t.clone(v)
	t.order = append(t.order, id)
	return nil
}

func (t *table[T]) update(v T, unique func(existing T) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	orgID, id := t.key(v)
	current, exists := t.rows[id]
	if !exists {
		return entities.NotFoundError("%s %s not found", t.name, id)
	}
	if org, _ := t.key(current); org != orgID {
		return entities.NotFoundError("%s %s not found", t.name, id)
	}
	if unique != nil {
		for otherID, existing := range t.rows {
			if org, _ := t.key(existing); org == orgID && otherID != id && unique(existing) {
				return entities.ConflictError("%s already exists", t.name)
			}
		}
	}
	t.rows[id] = t.clone(v)
	return nil
}

func (t *table[T]) get(orgID, id uuid.UUID) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, exists := t.rows[id]
	if exists {
		if org, _ := t.key(v); org == orgID {
			return t.clone(v), nil
		}
	}
	var zero T
	return zero, entities.NotFoundError("%s %s not found", t.name, id)
}

// find returns the first row of the org matching pred in insertion order
func (t *table[T]) find(orgID uuid.UUID, pred func(T) bool) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, id := range t.order {
		v := t.rows[id]
		if org, _ := t.key(v); org == orgID && pred(v) {
			return t.clone(v), true
		}
	}
	var zero T
	return zero, false
}

// filter returns copies of the org's rows matching pred in insertion order
func (t *table[T]) filter(orgID uuid.UUID, pred func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]T, 0)
	for _, id := range t.order {
		v := t.rows[id]
		if org, _ := t.key(v); org == orgID && (pred == nil || pred(v)) {
			out = append(out, t.clone(v))
		}
	}
	return out
}

func (t *table[T]) getMany(orgID uuid.UUID, ids []uuid.UUID) map[uuid.UUID]T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[uuid.UUID]T, len(ids))
	for _, id := range ids {
		v, exists := t.rows[id]
		if !exists {
			continue
		}
		if org, _ := t.key(v); org == orgID {
			out[id] = t.clone(v)
		}
	}
	return out
}
