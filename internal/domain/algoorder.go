package domain

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// AlgoOrderEntry is one registered long-running command (trailing
// stop/take-profit, aggressive entry, scaled, stop-and-take-profit).
// It exists from the moment the command starts suspending until it
// reports Finished or is cancelled (spec §3).
type AlgoOrderEntry struct {
	ID        uuid.UUID
	Side      Side
	SessionID uuid.UUID
	Tag       string

	cancelled atomic.Bool
}

// MarkCancelled sets the cancelled flag. Observed by the scheduler's
// polling loop on its next iteration (spec §4.2/§5 — check-on-wake).
func (e *AlgoOrderEntry) MarkCancelled() {
	e.cancelled.Store(true)
}

// Cancelled reports whether cancellation has been requested.
func (e *AlgoOrderEntry) Cancelled() bool {
	return e.cancelled.Load()
}

// CancelPredicate selects which registry entries a cancelOrders
// command should mark cancelled (spec §4.3).
type CancelPredicate struct {
	Who       string // "all", "session", "tagged", "id"
	SessionID uuid.UUID
	Tag       string
	ID        uuid.UUID
}

// Matches reports whether entry satisfies the predicate.
func (p CancelPredicate) Matches(entry *AlgoOrderEntry) bool {
	switch p.Who {
	case "all", "session":
		return entry.SessionID == p.SessionID
	case "tagged":
		return entry.SessionID == p.SessionID && entry.Tag == p.Tag
	case "id":
		return entry.ID == p.ID
	default:
		return false
	}
}

// AlgoRegistry is the process-wide table of running algo orders for
// one exchange, keyed by UUID. It must only be mutated between await
// points (spec §5); the mutex exists to make test/diagnostic access
// from other goroutines safe.
type AlgoRegistry struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*AlgoOrderEntry
}

// NewAlgoRegistry creates an empty registry.
func NewAlgoRegistry() *AlgoRegistry {
	return &AlgoRegistry{entries: make(map[uuid.UUID]*AlgoOrderEntry)}
}

// Register adds entry to the registry and returns it.
func (r *AlgoRegistry) Register(entry *AlgoOrderEntry) *AlgoOrderEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = entry
	return entry
}

// Remove deletes an entry, called when its command reports Finished
// (spec §8 — a Finished command is removed before the scheduler
// proceeds).
func (r *AlgoRegistry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Get returns the entry for id, if still registered.
func (r *AlgoRegistry) Get(id uuid.UUID) (*AlgoOrderEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// Cancel marks every entry matching pred as cancelled and returns how
// many were matched.
func (r *AlgoRegistry) Cancel(pred CancelPredicate) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.entries {
		if pred.Matches(e) {
			e.MarkCancelled()
			n++
		}
	}
	return n
}

// Len returns the number of entries currently registered.
func (r *AlgoRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
