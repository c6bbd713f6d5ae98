package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"evsched/internal/model"
)

// MemoryEvents is an in-memory EventStore. The slot uniqueness constraint is
// enforced under the write lock, mirroring the SQL unique index.
type MemoryEvents struct {
	mu     sync.RWMutex
	events map[int64]model.Event
	seq    int64
	now    func() time.Time
}

func NewMemoryEvents() *MemoryEvents {
	return &MemoryEvents{events: make(map[int64]model.Event), now: time.Now}
}

func (m *MemoryEvents) ExistsWithSlot(_ context.Context, slot model.Slot, excludeID int64) (bool, error) {
	if !slot.Complete() {
		return false, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.occupiedLocked(slot, excludeID), nil
}

func (m *MemoryEvents) occupiedLocked(slot model.Slot, excludeID int64) bool {
	for id, e := range m.events {
		if id != excludeID && e.Slot().Equal(slot) {
			return true
		}
	}
	return false
}

func (m *MemoryEvents) Save(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var prev model.Event
	if e.ID != 0 {
		var ok bool
		if prev, ok = m.events[e.ID]; !ok {
			return ErrNotFound
		}
	}
	if slot := e.Slot(); slot.Complete() && m.occupiedLocked(slot, e.ID) {
		return ErrDuplicateSlot
	}

	now := m.now()
	if e.ID == 0 {
		m.seq++
		e.ID = m.seq
		e.CreatedAt = now
	} else {
		e.CreatedAt = prev.CreatedAt
	}
	e.UpdatedAt = now
	m.events[e.ID] = e.Clone()
	return nil
}

func (m *MemoryEvents) FindByID(_ context.Context, id int64) (model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return model.Event{}, ErrNotFound
	}
	return e.Clone(), nil
}

func (m *MemoryEvents) DeleteByID(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *MemoryEvents) ExistsByID(_ context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.events[id]
	return ok, nil
}

func (m *MemoryEvents) List(_ context.Context, f EventFilter) ([]model.Event, error) {
	m.mu.RLock()
	out := make([]model.Event, 0, len(m.events))
	for _, e := range m.events {
		if f.match(e) {
			out = append(out, e.Clone())
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryEvents) Count(_ context.Context, f EventFilter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, e := range m.events {
		if f.match(e) {
			n++
		}
	}
	return n, nil
}

// MemoryTasks is an in-memory TaskStore.
type MemoryTasks struct {
	mu    sync.RWMutex
	tasks map[int64]model.Task
	seq   int64
	now   func() time.Time
}

func NewMemoryTasks() *MemoryTasks {
	return &MemoryTasks{tasks: make(map[int64]model.Task), now: time.Now}
}

func (m *MemoryTasks) Save(_ context.Context, t *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if t.ID == 0 {
		m.seq++
		t.ID = m.seq
		t.CreatedAt = now
	} else {
		prev, ok := m.tasks[t.ID]
		if !ok {
			return ErrNotFound
		}
		t.CreatedAt = prev.CreatedAt
	}
	t.UpdatedAt = now
	m.tasks[t.ID] = t.Clone()
	return nil
}

func (m *MemoryTasks) FindByID(_ context.Context, id int64) (model.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	return t.Clone(), nil
}

func (m *MemoryTasks) DeleteByID(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *MemoryTasks) ExistsByID(_ context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tasks[id]
	return ok, nil
}

func (m *MemoryTasks) List(_ context.Context, f TaskFilter) ([]model.Task, error) {
	m.mu.RLock()
	out := make([]model.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if f.match(t) {
			out = append(out, t.Clone())
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryTasks) Count(_ context.Context, f TaskFilter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, t := range m.tasks {
		if f.match(t) {
			n++
		}
	}
	return n, nil
}
