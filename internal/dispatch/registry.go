package dispatch

import (
	"sync"

	"github.com/leandrodaf/midirx/sdk/contracts"
)

// Callback receives every dispatched message.
type Callback func(contracts.Message)

type entry struct {
	owner string
	fn    Callback
}

// Registry is an append-only list of callbacks invoked in registration order.
//
// Subscribers are expected to register before dispatch starts. Later registrations are
// memory-safe but may miss messages already in flight.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
}

// Subscribe appends a callback. owner identifies the subscriber in logs.
func (r *Registry) Subscribe(owner string, fn Callback) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.entries = append(r.entries, entry{owner: owner, fn: fn})
	r.mu.Unlock()
}

// Len returns the number of registered callbacks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) snapshot() []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// append-only: the prefix never changes, so sharing the backing array is safe
	return r.entries[:len(r.entries):len(r.entries)]
}
