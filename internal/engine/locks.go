package engine

import "sync"

// orderLocks serializes rule execution per order ID. Two concurrently
// triggered rules never interleave mutating actions on one order;
// distinct orders proceed fully in parallel.
//
// Entries are reference-counted and removed once the last holder
// releases, so the map does not grow with the order table.
type orderLocks struct {
	mu      sync.Mutex
	entries map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newOrderLocks() *orderLocks {
	return &orderLocks{entries: make(map[int64]*lockEntry)}
}

// Lock acquires the mutex for orderID, blocking while another rule
// run holds it.
func (l *orderLocks) Lock(orderID int64) {
	l.mu.Lock()
	e, ok := l.entries[orderID]
	if !ok {
		e = &lockEntry{}
		l.entries[orderID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for orderID.
func (l *orderLocks) Unlock(orderID int64) {
	l.mu.Lock()
	e, ok := l.entries[orderID]
	if !ok {
		l.mu.Unlock()
		panic("orderLocks: unlock of unheld order lock")
	}
	e.refs--
	if e.refs == 0 {
		delete(l.entries, orderID)
	}
	l.mu.Unlock()

	e.mu.Unlock()
}
