// Command exchange wires the trading core's components together and
// blocks until terminated, in the shape of the teacher's cmd/main.go
// (construct components, launch their run loops, block on
// signal.NotifyContext). HTTP/RPC transport is out of scope (see
// SPEC_FULL.md Non-goals); this process hosts the matching,
// persistence, fan-out, stats, and agent-scheduling components as a
// library surface a future transport layer would sit in front of.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/saiputravu/predictex/internal/agentsched"
	"github.com/saiputravu/predictex/internal/book"
	"github.com/saiputravu/predictex/internal/config"
	"github.com/saiputravu/predictex/internal/dispatch"
	"github.com/saiputravu/predictex/internal/domain"
	"github.com/saiputravu/predictex/internal/fanout"
	"github.com/saiputravu/predictex/internal/persistence"
	"github.com/saiputravu/predictex/internal/registry"
	"github.com/saiputravu/predictex/internal/stats"
	"github.com/saiputravu/predictex/internal/wire"
)

const persistenceWorkerCount = 4

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	fanout.HeartbeatInterval = cfg.HeartbeatInterval

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("unable to connect to database")
	}
	if err := persistence.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("unable to migrate database")
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.BrokerURL})
	broker := fanout.NewRedisBroker(redisClient)

	reg := registry.New()
	hub := fanout.NewHub(broker)
	go hub.Run(ctx)

	store := persistence.NewStore(db)
	worker := persistence.NewWorker(store, func(ctx context.Context, marketID string, newVolume string) {
		hub.Publish(ctx, fanout.MarketTopic(marketID), fanout.MarketUpdated, map[string]string{
			"reason": string(fanout.ReasonStats),
			"volume": newVolume,
		})
	}, persistenceWorkerCount)
	worker.Start()

	dispatcher := dispatch.New(reg,
		func(ctx context.Context, order domain.Order, trades []domain.ExecutedTrade) error {
			if !worker.Enqueue(persistence.Job{Order: order, Trades: trades}) {
				log.Error().Str("orderId", order.ID).Msg("persistence queue full, dropping job")
			}
			return nil
		},
		func(ctx context.Context, snap book.Snapshot) {
			hub.Publish(ctx, fanout.MarketTopic(snap.MarketID), fanout.OrderBookUpdate, snap)
		},
	)

	aggregator := stats.NewAggregator(db, reg)
	_ = aggregator // exposed as a library call; no transport wires it yet (Non-goals)

	if cfg.WireListenAddr != "" {
		wireServer, err := wire.Listen(cfg.WireListenAddr, func(ctx context.Context, order domain.Order) (domain.Order, []domain.ExecutedTrade, error) {
			key := registry.Key{MarketID: order.MarketID, OutcomeIndex: order.OutcomeIndex}
			result, err := dispatcher.Submit(ctx, key, order)
			return result.Order, result.Trades, err
		})
		if err != nil {
			log.Fatal().Err(err).Msg("unable to start wire listener")
		}
		go wireServer.Serve(ctx)
		log.Info().Str("addr", cfg.WireListenAddr).Msg("wire submission transport listening")
	}

	if cfg.AgentTradingEnabled {
		scheduler := agentsched.New(noopPolicy{}, dispatcher, reg)
		scheduler.Start(cfg.AgentSchedulerConcurrency)
		defer scheduler.Close()
	}

	log.Info().Int("port", cfg.Port).Msg("exchange core running")

	<-ctx.Done()

	log.Info().Msg("shutting down")

	if err := dispatcher.Close(); err != nil {
		log.Error().Err(err).Msg("dispatcher shutdown error")
	}
	if err := worker.Close(); err != nil {
		log.Error().Err(err).Msg("persistence worker shutdown error")
	}
}

// noopPolicy always skips. The real LLM-backed policy is out of scope
// (see Non-goals); this is the placeholder wired when
// AGENT_TRADING_ENABLED is set without a policy implementation plugged
// in.
type noopPolicy struct{}

func (noopPolicy) Decide(ctx context.Context, agentID, marketID string) (agentsched.Decision, error) {
	return agentsched.Decision{Action: agentsched.Skip, NextFollowUpInMs: int64(time.Hour / time.Millisecond)}, nil
}
