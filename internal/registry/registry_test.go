package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saiputravu/predictex/internal/book"
)

func TestGetOrCreate_ReturnsSameInstance(t *testing.T) {
	r := New()
	key := Key{MarketID: "m1", OutcomeIndex: 0}

	b1 := r.GetOrCreate(key)
	b2 := r.GetOrCreate(key)
	assert.Same(t, b1, b2)
}

func TestGetOrCreate_ConcurrentCreateIsAtomic(t *testing.T) {
	r := New()
	key := Key{MarketID: "m2", OutcomeIndex: 1}

	var wg sync.WaitGroup
	results := make([]*book.OrderBook, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.GetOrCreate(key)
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestGet_DoesNotCreate(t *testing.T) {
	r := New()
	_, ok := r.Get(Key{MarketID: "m3", OutcomeIndex: 0})
	assert.False(t, ok)
	assert.Empty(t, r.Keys())
}
