package order

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// MemStore is an in-memory Store used by tests and the bundled demo
// backends. Snapshots are deep copies so callers never observe writes
// that happen after the read.
type MemStore struct {
	mu     sync.RWMutex
	orders map[int64]Snapshot
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{orders: make(map[int64]Snapshot)}
}

// Put inserts or replaces an order.
func (m *MemStore) Put(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[s.ID] = clone(s)
}

func (m *MemStore) Snapshot(_ context.Context, orderID int64) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.orders[orderID]
	if !ok {
		return Snapshot{}, fmt.Errorf("order %d not found", orderID)
	}
	return clone(s), nil
}

func (m *MemStore) SetStatus(_ context.Context, orderID int64, status string) error {
	return m.update(orderID, func(s *Snapshot) error {
		s.Status = status
		return nil
	})
}

func (m *MemStore) AddTag(_ context.Context, orderID int64, tag string) error {
	return m.update(orderID, func(s *Snapshot) error {
		if !s.HasTag(tag) {
			s.Tags = append(s.Tags, tag)
		}
		return nil
	})
}

func (m *MemStore) SetCustomField(_ context.Context, orderID int64, field, value string) error {
	return m.update(orderID, func(s *Snapshot) error {
		if s.CustomFields == nil {
			s.CustomFields = make(map[string]string)
		}
		s.CustomFields[field] = value
		return nil
	})
}

func (m *MemStore) AssignWorkflow(_ context.Context, orderID int64, workflow string) error {
	return m.update(orderID, func(s *Snapshot) error {
		s.Workflow = workflow
		return nil
	})
}

func (m *MemStore) AssignPriority(_ context.Context, orderID int64, priority int) error {
	return m.update(orderID, func(s *Snapshot) error {
		s.Priority = priority
		return nil
	})
}

func (m *MemStore) update(orderID int64, fn func(*Snapshot) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("order %d not found", orderID)
	}
	if err := fn(&s); err != nil {
		return err
	}
	m.orders[orderID] = s
	return nil
}

func clone(s Snapshot) Snapshot {
	s.Tags = slices.Clone(s.Tags)
	s.CustomFields = maps.Clone(s.CustomFields)
	return s
}
