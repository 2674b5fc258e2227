package persistence

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/saiputravu/predictex/internal/domain"
)

const (
	// jobChanSize mirrors the teacher's TASK_CHAN_SIZE (internal/worker.go).
	jobChanSize = 100
	maxAttempts = 5
	baseBackoff = 100 * time.Millisecond
)

// StatsPublisher is called once per market with a non-zero volume
// delta, after that delta has been durably committed (spec §4.5 step
// 4, "market-stats-changed" event).
type StatsPublisher func(ctx context.Context, marketID string, newVolume string)

// Job is one unit of persistence work: the matched order and the
// trades it produced, always scoped to one market.
type Job struct {
	Order  domain.Order
	Trades []domain.ExecutedTrade
}

// Worker drains a queue of persistence Jobs with a bounded number of
// concurrent consumers, generalizing the teacher's WorkerPool
// (internal/worker.go) from a generic `any` task type to Job, and
// adding the retry/dead-letter path spec §4.5 requires that the
// teacher's pool does not need (its jobs have no durability contract).
type Worker struct {
	store   *Store
	publish StatsPublisher
	jobs    chan Job
	n       int
	t       tomb.Tomb
}

// NewWorker returns a Worker with concurrency n (spec §4.5 default 1,
// "correctness does not depend on this").
func NewWorker(store *Store, publish StatsPublisher, n int) *Worker {
	if n < 1 {
		n = 1
	}
	return &Worker{
		store:   store,
		publish: publish,
		jobs:    make(chan Job, jobChanSize),
		n:       n,
	}
}

// Start launches n consumer goroutines.
func (w *Worker) Start() {
	for i := 0; i < w.n; i++ {
		w.t.Go(w.consume)
	}
}

// Enqueue hands a job to the worker. It never blocks the caller's turn
// (spec §4.4 step 4): the channel is buffered, and a full channel
// degrades to a non-blocking drop with a logged warning rather than
// backpressuring the matching engine.
func (w *Worker) Enqueue(j Job) bool {
	select {
	case w.jobs <- j:
		return true
	default:
		log.Warn().Str("marketId", j.Order.MarketID).Msg("persistence queue full, job dropped")
		return false
	}
}

func (w *Worker) consume() error {
	for {
		select {
		case <-w.t.Dying():
			return nil
		case j := <-w.jobs:
			w.process(j)
		}
	}
}

func (w *Worker) process(j Job) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := w.store.PersistMatch(j.Order, j.Trades)
		if err == nil {
			w.announce(result)
			return
		}
		lastErr = err
		log.Error().Err(err).Int("attempt", attempt).Str("marketId", j.Order.MarketID).Msg("persistence attempt failed")
		time.Sleep(baseBackoff << uint(attempt-1))
	}

	w.deadLetter(j, lastErr)
}

func (w *Worker) announce(result PersistResult) {
	if w.publish == nil {
		return
	}
	for _, delta := range result.VolumeDeltas {
		var row MarketRow
		if err := w.store.db.Select("volume").First(&row, "id = ?", delta.MarketID).Error; err != nil {
			log.Error().Err(err).Str("marketId", delta.MarketID).Msg("failed to read volume for stats event")
			continue
		}
		w.publish(context.Background(), delta.MarketID, row.Volume.String())
	}
}

func (w *Worker) deadLetter(j Job, cause error) {
	row := DeadLetterRow{
		MarketID:  j.Order.MarketID,
		Reason:    cause.Error(),
		Attempts:  maxAttempts,
		CreatedAt: time.Now().UTC(),
	}
	if err := w.store.db.Create(&row).Error; err != nil {
		log.Error().Err(err).Str("marketId", j.Order.MarketID).Msg("failed to record dead letter, alarm degraded to log line")
		return
	}
	log.Error().Str("marketId", j.Order.MarketID).Err(cause).Msg("persistence job dead-lettered after exhausting retries")
}

// Close stops accepting new consumers and waits for in-flight jobs to
// finish draining (spec §4.5 "graceful shutdown drains in-flight jobs").
func (w *Worker) Close() error {
	w.t.Kill(nil)
	return w.t.Wait()
}

// DeadLetters returns persistence jobs that exhausted all retries, for
// operator inspection and manual replay.
func (w *Worker) DeadLetters() ([]DeadLetterRow, error) {
	var rows []DeadLetterRow
	err := w.store.db.Order("created_at DESC").Find(&rows).Error
	return rows, err
}
