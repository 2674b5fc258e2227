package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/saiputravu/predictex/internal/domain"
)

func TestWorker_PersistsEnqueuedJobAndPublishesStats(t *testing.T) {
	db := testDB(t)
	seedMarket(t, db, "mkt-worker")
	store := NewStore(db)

	published := make(chan string, 1)
	w := NewWorker(store, func(ctx context.Context, marketID string, newVolume string) {
		published <- newVolume
	}, 1)
	w.Start()
	defer w.Close()

	w.Enqueue(Job{
		Order:  domain.Order{},
		Trades: []domain.ExecutedTrade{sampleTrade("trade-w1", "mkt-worker")},
	})

	select {
	case vol := <-published:
		assert.Equal(t, "6.000000000000000000", vol)
	case <-time.After(time.Second):
		t.Fatal("stats event was not published")
	}
}

// brokenDB opens its own named in-memory database (separate from the
// shared one testDB uses) and migrates only DeadLetterRow, so every
// PersistMatch attempt against it fails with "no such table" and the
// job runs out its retries deterministically.
func brokenDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:broken_persistence?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&DeadLetterRow{}))
	return db
}

func TestWorker_DeadLettersOnPersistentFailure(t *testing.T) {
	db := brokenDB(t)
	store := NewStore(db)

	w := NewWorker(store, nil, 1)
	w.Start()
	defer w.Close()

	w.Enqueue(Job{
		Order:  domain.Order{},
		Trades: []domain.ExecutedTrade{sampleTrade("trade-fail", "mkt-missing")},
	})

	require.Eventually(t, func() bool {
		rows, err := w.DeadLetters()
		return err == nil && len(rows) == 1
	}, 5*time.Second, 20*time.Millisecond)

	rows, err := w.DeadLetters()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "mkt-missing", rows[0].MarketID)
	assert.Equal(t, maxAttempts, rows[0].Attempts)
}
