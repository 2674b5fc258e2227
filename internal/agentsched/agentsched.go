// Package agentsched is C8: a thin orchestration layer over C4.
// An in-memory job queue holds recurring per-(agentId, marketId) schedules
// and one-off immediate triggers (it is not persisted, so pending jobs do
// not survive a restart); a small pool of tomb-supervised
// workers dequeues jobs, asks an external Policy for a decision, and
// for non-skip decisions submits an OrderInput through the same port
// user submissions use. Grounded on the teacher's WorkerPool
// (internal/worker.go) for the bounded-concurrency dequeue loop,
// generalized from a fixed task channel to a keyed, rescheduling queue.
package agentsched

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/saiputravu/predictex/internal/dispatch"
	"github.com/saiputravu/predictex/internal/domain"
	"github.com/saiputravu/predictex/internal/registry"
	"github.com/saiputravu/predictex/internal/xdecimal"
)

// Action is the external policy's verdict for one job, per spec §4.8.
type Action string

const (
	Skip Action = "skip"
	Buy  Action = "buy"
	Sell Action = "sell"
)

// Decision is what an external Policy returns for one scheduled job.
type Decision struct {
	Action           Action
	OutcomeIndex     int
	Quantity         xdecimal.Decimal
	NextFollowUpInMs int64
}

// Policy is the external decision-maker C8 delegates to. Implementations
// typically call out to an LLM or a rule engine; agentsched treats the
// call as an opaque, cancellable suspension point (spec §5).
type Policy interface {
	Decide(ctx context.Context, agentID, marketID string) (Decision, error)
}

// jobKind distinguishes a recurring per-(agent, market) schedule from a
// one-off immediate trigger (spec §4.8 "one-off jobs use a time-suffixed id").
type jobKind int

const (
	recurring jobKind = iota
	oneOff
)

type schedJob struct {
	id       string
	kind     jobKind
	agentID  string
	marketID string
	runAt    time.Time
}

const defaultFollowUpAfterTrade = 5 * time.Minute

// Scheduler is the in-memory job queue and worker pool. concurrency caps
// concurrent policy calls (spec §5, default 5, "to limit concurrent LLM
// calls").
type Scheduler struct {
	policy     Policy
	dispatcher *dispatch.Dispatcher
	reg        *registry.Registry

	mu   sync.Mutex
	jobs map[string]schedJob // keyed by job id; recurring jobs use "${agentId}-${marketId}"

	ready chan struct{}
	t     tomb.Tomb
}

func New(policy Policy, dispatcher *dispatch.Dispatcher, reg *registry.Registry) *Scheduler {
	return &Scheduler{
		policy:     policy,
		dispatcher: dispatcher,
		reg:        reg,
		jobs:       make(map[string]schedJob),
		ready:      make(chan struct{}, 1),
	}
}

// ScheduleRecurring installs (or replaces) the recurring job for
// (agentID, marketID), to run at runAt. A new submission for the same
// key replaces any pending repeat (spec §4.8).
func (s *Scheduler) ScheduleRecurring(agentID, marketID string, runAt time.Time) {
	id := agentID + "-" + marketID
	s.put(schedJob{id: id, kind: recurring, agentID: agentID, marketID: marketID, runAt: runAt})
}

// ScheduleOnce installs a one-off immediate trigger.
func (s *Scheduler) ScheduleOnce(agentID, marketID string) {
	id := agentID + "-" + marketID + "-" + time.Now().UTC().Format(time.RFC3339Nano)
	s.put(schedJob{id: id, kind: oneOff, agentID: agentID, marketID: marketID, runAt: time.Now().UTC()})
}

func (s *Scheduler) put(j schedJob) {
	s.mu.Lock()
	s.jobs[j.id] = j
	s.mu.Unlock()
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Start launches concurrency worker goroutines plus one ticking
// goroutine that wakes workers when a job's runAt has arrived.
func (s *Scheduler) Start(concurrency int) {
	if concurrency < 1 {
		concurrency = 5
	}
	jobsCh := make(chan schedJob, 256)

	s.t.Go(func() error {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-s.t.Dying():
				return nil
			case <-ticker.C:
				s.drainDue(jobsCh)
			case <-s.ready:
				s.drainDue(jobsCh)
			}
		}
	})

	for i := 0; i < concurrency; i++ {
		s.t.Go(func() error {
			for {
				select {
				case <-s.t.Dying():
					return nil
				case j := <-jobsCh:
					s.runJob(j)
				}
			}
		})
	}
}

func (s *Scheduler) drainDue(out chan<- schedJob) {
	now := time.Now().UTC()
	s.mu.Lock()
	due := make([]schedJob, 0)
	for id, j := range s.jobs {
		if !j.runAt.After(now) {
			due = append(due, j)
			if j.kind == oneOff {
				delete(s.jobs, id)
			}
		}
	}
	s.mu.Unlock()

	for _, j := range due {
		select {
		case out <- j:
		default:
			log.Warn().Str("agentId", j.agentID).Str("marketId", j.marketID).Msg("agentsched: job queue full, skipping this tick")
		}
	}
}

// runJob is the policy-call suspension point (spec §5: "a C8 job is
// cancellable at the policy-call suspension point"). A background
// context is used here; a production caller would thread a
// cancellation source tied to process shutdown.
func (s *Scheduler) runJob(j schedJob) {
	ctx := context.Background()
	decision, err := s.policy.Decide(ctx, j.agentID, j.marketID)
	if err != nil {
		log.Error().Err(err).Str("agentId", j.agentID).Str("marketId", j.marketID).Msg("agentsched: policy call failed")
		s.rescheduleAfter(j, defaultFollowUpAfterTrade)
		return
	}

	if decision.Action == Skip {
		s.rescheduleAfter(j, time.Duration(decision.NextFollowUpInMs)*time.Millisecond)
		return
	}

	side := domain.Bid
	if decision.Action == Sell {
		side = domain.Ask
	}
	input := domain.Order{
		ID:           j.id + "-" + time.Now().UTC().Format(time.RFC3339Nano),
		MarketID:     j.marketID,
		OutcomeIndex: decision.OutcomeIndex,
		Side:         side,
		Type:         domain.Market,
		Quantity:     decision.Quantity,
		AgentID:      j.agentID,
	}

	key := registry.Key{MarketID: j.marketID, OutcomeIndex: decision.OutcomeIndex}
	if _, err := s.dispatcher.Submit(ctx, key, input); err != nil {
		log.Error().Err(err).Str("agentId", j.agentID).Str("marketId", j.marketID).Msg("agentsched: submission failed")
	}

	s.rescheduleAfter(j, defaultFollowUpAfterTrade)
}

func (s *Scheduler) rescheduleAfter(j schedJob, d time.Duration) {
	if j.kind != recurring {
		return
	}
	if d <= 0 {
		d = defaultFollowUpAfterTrade
	}
	s.ScheduleRecurring(j.agentID, j.marketID, time.Now().UTC().Add(d))
}

// Close stops all workers and waits for in-flight policy calls to
// finish.
func (s *Scheduler) Close() error {
	s.t.Kill(nil)
	return s.t.Wait()
}
