package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiputravu/predictex/internal/book"
	"github.com/saiputravu/predictex/internal/domain"
	"github.com/saiputravu/predictex/internal/registry"
	"github.com/saiputravu/predictex/internal/xdecimal"
)

func noopPublish(context.Context, book.Snapshot) {}

func TestSubmit_SameKeySerialized(t *testing.T) {
	reg := registry.New()
	var persistCount int32
	d := New(reg, func(ctx context.Context, order domain.Order, trades []domain.ExecutedTrade) error {
		atomic.AddInt32(&persistCount, 1)
		return nil
	}, noopPublish)

	key := registry.Key{MarketID: "m1", OutcomeIndex: 0}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := domain.Order{
				ID:       sideID(i),
				MarketID: "m1",
				Side:     domain.Ask,
				Type:     domain.Limit,
				Price:    xdecimal.MustParse("100"),
				Quantity: xdecimal.MustParse("1"),
			}
			_, err := d.Submit(context.Background(), key, in)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	snap := reg.GetOrCreate(key).Snapshot()
	require.Len(t, snap.Asks, 1)
	assert.True(t, snap.Asks[0].Quantity.Equal(xdecimal.MustParse("5")))
	assert.Equal(t, 5, snap.Asks[0].OrderCount)

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&persistCount) == 5
	}, time.Second, time.Millisecond)
}

func sideID(i int) string {
	return "order-" + string(rune('A'+i))
}

func TestSubmit_RejectsNegativeOutcomeIndex(t *testing.T) {
	reg := registry.New()
	d := New(reg, func(context.Context, domain.Order, []domain.ExecutedTrade) error { return nil }, noopPublish)

	_, err := d.Submit(context.Background(), registry.Key{MarketID: "m1", OutcomeIndex: -1}, domain.Order{})
	require.Error(t, err)
}

func TestSubmit_DifferentKeysDoNotBlockEachOther(t *testing.T) {
	reg := registry.New()
	d := New(reg, func(context.Context, domain.Order, []domain.ExecutedTrade) error { return nil }, noopPublish)

	in1 := domain.Order{ID: "o1", MarketID: "m1", Side: domain.Bid, Type: domain.Market, Quantity: xdecimal.MustParse("1")}
	in2 := domain.Order{ID: "o2", MarketID: "m2", Side: domain.Bid, Type: domain.Market, Quantity: xdecimal.MustParse("1")}

	done := make(chan struct{}, 2)
	go func() {
		d.Submit(context.Background(), registry.Key{MarketID: "m1", OutcomeIndex: 0}, in1)
		done <- struct{}{}
	}()
	go func() {
		d.Submit(context.Background(), registry.Key{MarketID: "m2", OutcomeIndex: 0}, in2)
		done <- struct{}{}
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("submissions for different keys did not both complete")
		}
	}
}
