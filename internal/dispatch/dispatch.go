// Package dispatch implements the per-(marketId, outcomeIndex) FIFO
// submission serialiser (C4): at most one matcher runs for a given key
// at any instant, while different keys proceed in parallel. It
// generalizes the teacher's WorkerPool (internal/worker.go: a fixed
// pool of tomb-supervised goroutines draining one shared task channel)
// to a per-key actor model — one tomb-supervised goroutine per live
// key, spun up on first submission, since unlike the teacher's pool the
// set of keys is unbounded and unknown ahead of time.
package dispatch

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/saiputravu/predictex/internal/book"
	"github.com/saiputravu/predictex/internal/domain"
	"github.com/saiputravu/predictex/internal/registry"
	"github.com/saiputravu/predictex/internal/xerr"
)

// Result is what Submit returns to its caller: the engine's verdict on
// the order, the trades it produced, and the resulting snapshot.
type Result struct {
	Order    domain.Order
	Trades   []domain.ExecutedTrade
	Snapshot book.Snapshot
}

// PersistFunc hands a matched (order, trades) pair to C5. It must not
// block the caller's turn — Dispatcher invokes it in a separate
// goroutine per spec §4.4 step 4.
type PersistFunc func(ctx context.Context, order domain.Order, trades []domain.ExecutedTrade) error

// PublishFunc publishes the post-match snapshot to C6. Also invoked off
// the turn-holding goroutine (spec §4.4 step 5).
type PublishFunc func(ctx context.Context, snap book.Snapshot)

// Dispatcher owns one FIFO actor per live (marketId, outcomeIndex) key.
type Dispatcher struct {
	registry *registry.Registry
	persist  PersistFunc
	publish  PublishFunc

	mu     sync.Mutex
	actors map[registry.Key]*keyActor

	t tomb.Tomb
}

type job struct {
	ctx    context.Context
	order  domain.Order
	result chan<- submitOutcome
}

type submitOutcome struct {
	res Result
	err error
}

type keyActor struct {
	key  registry.Key
	jobs chan job
}

// New returns a Dispatcher backed by reg, handing matched results to
// persist and publish.
func New(reg *registry.Registry, persist PersistFunc, publish PublishFunc) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		persist:  persist,
		publish:  publish,
		actors:   make(map[registry.Key]*keyActor),
	}
}

// Submit enqueues input for its (marketId, outcomeIndex) key and blocks
// until that submission's turn completes, per spec §4.4. ctx
// cancellation before the turn is acquired drops the submission
// silently (spec §5 "cancellation"); cancellation after matching begins
// has no effect — the caller simply stops waiting, trades already
// emitted remain valid.
func (d *Dispatcher) Submit(ctx context.Context, key registry.Key, input domain.Order) (Result, error) {
	if key.OutcomeIndex < 0 {
		return Result{}, xerr.New(xerr.Validation, "outcomeIndex must be non-negative")
	}

	actor := d.actorFor(key)
	resultCh := make(chan submitOutcome, 1)

	select {
	case actor.jobs <- job{ctx: ctx, order: input, result: resultCh}:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case out := <-resultCh:
		return out.res, out.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (d *Dispatcher) actorFor(key registry.Key) *keyActor {
	d.mu.Lock()
	defer d.mu.Unlock()

	if a, ok := d.actors[key]; ok {
		return a
	}
	a := &keyActor{key: key, jobs: make(chan job, 64)}
	d.actors[key] = a
	b := d.registry.GetOrCreate(key)
	d.t.Go(func() error {
		return d.runActor(a, b)
	})
	return a
}

// runActor is the FIFO worker for one key: it holds the turn for the
// book until each job's processOrder call and its off-turn handoffs are
// dispatched, then moves to the next queued job. Actors live for the
// Dispatcher's lifetime once created — spec §9's "registry of books"
// get-or-create atomicity is mirrored here for actors, and a live key
// set is small and bounded by the number of (market, outcome) pairs, so
// there is no need to tear one down between bursts of activity.
func (d *Dispatcher) runActor(a *keyActor, b *book.OrderBook) error {
	for {
		select {
		case <-d.t.Dying():
			return nil
		case j := <-a.jobs:
			d.runJob(a, b, j)
		}
	}
}

func (d *Dispatcher) runJob(a *keyActor, b *book.OrderBook, j job) {
	if err := j.ctx.Err(); err != nil {
		j.result <- submitOutcome{err: err}
		return
	}

	order, trades, snap, err := b.ProcessOrder(j.order)
	j.result <- submitOutcome{res: Result{Order: order, Trades: trades, Snapshot: snap}, err: err}

	if err != nil {
		return
	}

	go func() {
		if perr := d.persist(context.Background(), order, trades); perr != nil {
			log.Error().Err(perr).Str("key", a.key.String()).Msg("persistence handoff failed")
		}
	}()
	go d.publish(context.Background(), snap)
}

// Close stops every actor once its current job (if any) has finished and
// waits for the actors to exit, for graceful shutdown. Jobs still queued
// in an actor's channel at that point are not processed.
func (d *Dispatcher) Close() error {
	d.t.Kill(nil)
	return d.t.Wait()
}
