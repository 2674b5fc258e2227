// Package registry holds the process-wide map from (marketId,
// outcomeIndex) to its in-memory order book, with atomic get-or-create.
// It generalizes the teacher's clientSessionsLock-guarded session map
// (internal/server.go, internal/net/server.go) from client connections
// to order books: a plain mutex-guarded map, not sync.Map, matching the
// teacher's own choice for its shared connection registry.
package registry

import (
	"fmt"
	"sync"

	"github.com/saiputravu/predictex/internal/book"
)

// Key identifies one order book.
type Key struct {
	MarketID     string
	OutcomeIndex int
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.MarketID, k.OutcomeIndex)
}

// Registry is a concurrent map of live order books. The zero value is
// not usable; construct with New. A book is never shared across keys,
// and this type never mutates a book's ladders directly — only the
// per-key caller (internal/dispatch) does, after acquiring that key's
// turn.
type Registry struct {
	mu    sync.Mutex
	books map[Key]*book.OrderBook
}

func New() *Registry {
	return &Registry{books: make(map[Key]*book.OrderBook)}
}

// GetOrCreate returns the book for key, creating an empty one on first
// reference (spec §9 "registry of books... get-or-create atomicity").
func (r *Registry) GetOrCreate(key Key) *book.OrderBook {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.books[key]; ok {
		return b
	}
	b := book.NewOrderBook(key.MarketID, key.OutcomeIndex)
	r.books[key] = b
	return b
}

// Get returns the book for key without creating one, for read-only
// callers such as C7 that must not conjure a book into existence.
func (r *Registry) Get(key Key) (*book.OrderBook, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[key]
	return b, ok
}

// Keys returns a snapshot of currently-live book keys.
func (r *Registry) Keys() []Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Key, 0, len(r.books))
	for k := range r.books {
		out = append(out, k)
	}
	return out
}
