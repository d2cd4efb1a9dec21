package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"solana-autotrader/internal/config"
	"solana-autotrader/internal/controller"
	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/execution"
	"solana-autotrader/internal/learning"
	"solana-autotrader/internal/market"
	"solana-autotrader/internal/news"
	"solana-autotrader/internal/observability"
	"solana-autotrader/internal/risk"
	"solana-autotrader/internal/storage"
	chstore "solana-autotrader/internal/storage/clickhouse"
	"solana-autotrader/internal/storage/memory"
	"solana-autotrader/internal/storage/migrations"
	pgstore "solana-autotrader/internal/storage/postgres"
	redisstore "solana-autotrader/internal/storage/redis"
	"solana-autotrader/internal/telemetry"
)

// stores holds the persistence ports selected by configuration.
type stores struct {
	kv      storage.KVStore
	archive storage.OutcomeStore // nil when archiving is off
	pool    *pgstore.Pool
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores connects the configured state backend and, when enabled, the
// postgres outcome archive. Postgres migrations are applied on connect.
func openStores(ctx context.Context, cfg config.StorageConfig) (*stores, error) {
	s := &stores{}

	needPool := cfg.Backend == config.BackendPostgres || cfg.ArchiveOutcomes
	if needPool {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s.pool = pool
		s.closers = append(s.closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			s.close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
	}

	switch cfg.Backend {
	case config.BackendPostgres:
		s.kv = pgstore.NewKVStore(s.pool)
	case config.BackendRedis:
		client, err := redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			s.close()
			return nil, err
		}
		s.closers = append(s.closers, func() { client.Close() })
		s.kv = redisstore.NewKVStore(client, cfg.RedisPrefix)
	default:
		s.kv = memory.NewKVStore()
	}

	if cfg.ArchiveOutcomes {
		s.archive = pgstore.NewOutcomeStore(s.pool)
	}
	return s, nil
}

// loadCore builds and restores the learning engine and risk manager. loc
// is the zone hour statistics are kept in.
func loadCore(ctx context.Context, cfg config.Config, st *stores, loc *time.Location, metrics *observability.Metrics) (*learning.Engine, *risk.Manager) {
	var onUpdate func(domain.LearningMetrics, domain.AdaptiveConfig)
	if metrics != nil {
		onUpdate = metrics.UpdateLearning
	}
	engine := learning.NewEngine(learning.Options{
		Store:     st.kv,
		Archive:   st.archive,
		Capacity:  cfg.Learning.Capacity,
		ColdStart: cfg.Learning.ColdStart,
		Location:  loc,
		OnUpdate:  onUpdate,
	})
	engine.Load(ctx)
	if metrics != nil {
		metrics.UpdateLearning(engine.Metrics(), engine.Config())
	}

	rm := risk.NewManager(risk.Options{Store: st.kv})
	rm.Restore(ctx)
	return engine, rm
}

// buildSinks assembles the telemetry fan-out. The returned closer releases
// kafka and clickhouse connections.
func buildSinks(ctx context.Context, cfg config.TelemetryConfig, metrics *observability.Metrics) (*telemetry.Multi, func(), error) {
	sinks := []telemetry.Sink{telemetry.NewPrometheusSink(metrics, nil)}
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.Log {
		sinks = append(sinks, telemetry.NewLogSink(nil))
	}
	if len(cfg.KafkaBrokers) > 0 {
		ks := telemetry.NewKafkaSink(telemetry.NewKafkaWriter(telemetry.KafkaConfig{Brokers: cfg.KafkaBrokers}), cfg.KafkaTopic)
		closers = append(closers, func() {
			if err := ks.Close(); err != nil {
				log.Warn().Err(err).Msg("close kafka writer")
			}
		})
		sinks = append(sinks, ks)
	}
	if cfg.ClickHouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("clickhouse: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		sinks = append(sinks, telemetry.NewStoreSink(chstore.NewDecisionLogStore(conn)))
	}

	return telemetry.NewMulti(metrics, nil, sinks...), closeAll, nil
}

// buildAgents creates one rule agent per configured kind.
func buildAgents(kinds []string) ([]controller.Agent, error) {
	agents := make([]controller.Agent, 0, len(kinds))
	for _, k := range kinds {
		a, err := controller.NewSignalAgent(k, controller.AgentKind(k))
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, nil
}

// meteredExecutor records latency and result of every execution attempt.
type meteredExecutor struct {
	next    controller.Executor
	metrics *observability.Metrics
}

func (e *meteredExecutor) Execute(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResult, error) {
	start := time.Now()
	res, err := e.next.Execute(ctx, req)
	e.metrics.RecordExecution(err == nil && res.Success, time.Since(start))
	return res, err
}

// opportunityRouter forwards feed opportunities to the controller once it
// exists. The feed starts delivering before the controller is built.
type opportunityRouter struct {
	ctrl    atomic.Pointer[controller.Controller]
	metrics *observability.Metrics
}

func (r *opportunityRouter) handle(opp domain.Opportunity) {
	c := r.ctrl.Load()
	if c == nil {
		return
	}
	sc := c.EvaluateOpportunity(opp)
	if r.metrics != nil {
		r.metrics.RecordOpportunity(sc.Recommendation)
	}
}

// runtime is everything `run` starts and must stop.
type runtime struct {
	ctrl    *controller.Controller
	engine  *learning.Engine
	risk    *risk.Manager
	metrics *observability.Metrics
	closers []func()
}

func (r *runtime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// buildRuntime wires the full trading stack from cfg.
func buildRuntime(ctx context.Context, cfg config.Config) (*runtime, error) {
	rt := &runtime{metrics: observability.NewMetrics("")}

	st, err := openStores(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open stores: %w", err)
	}
	rt.closers = append(rt.closers, st.close)

	loc, err := cfg.Location()
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.engine, rt.risk = loadCore(ctx, cfg, st, loc, rt.metrics)

	sink, closeSinks, err := buildSinks(ctx, cfg.Telemetry, rt.metrics)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.closers = append(rt.closers, closeSinks)

	agents, err := buildAgents(cfg.Agent.Agents)
	if err != nil {
		rt.close()
		return nil, err
	}

	exec, err := execution.NewClient(cfg.Execution.Endpoint, cfg.Execution.Wallet,
		execution.WithTimeout(cfg.Execution.Timeout),
		execution.WithMaxRetries(cfg.Execution.MaxRetries),
		execution.WithRateLimit(cfg.Execution.RateLimit, cfg.Execution.Burst),
		execution.WithMaxSlippage(rt.engine.Config().MaxSlippageBps),
	)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("execution client: %w", err)
	}

	var newsSource controller.NewsSource
	if len(cfg.News.Feeds) > 0 {
		newsSource = news.NewRSSClient(cfg.News.Feeds,
			news.WithMaxAge(cfg.News.MaxAge),
			news.WithMaxArticles(cfg.News.MaxArticles),
		)
	}

	router := &opportunityRouter{metrics: rt.metrics}
	feedCfg := market.DefaultFeedConfig()
	feedCfg.MaxSnapshotAge = cfg.Market.MaxSnapshotAge
	feedCfg.OpportunityTTL = cfg.Market.OpportunityTTL
	feed, err := market.NewFeedClient(ctx, cfg.Market.Endpoint, market.Options{
		Config:        &feedCfg,
		Symbol:        cfg.Agent.Symbol,
		OnOpportunity: router.handle,
	})
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("market feed: %w", err)
	}
	rt.closers = append(rt.closers, func() { feed.Close() })

	rt.ctrl, err = controller.New(controller.Options{
		Feed:              feed,
		News:              newsSource,
		Executor:          &meteredExecutor{next: exec, metrics: rt.metrics},
		Agents:            agents,
		Engine:            rt.engine,
		Risk:              rt.risk,
		Catalog:           cfg.Catalog(),
		Sink:              sink,
		Symbol:            cfg.Agent.Symbol,
		DailyGoal:         cfg.Agent.DailyGoal,
		Capital:           cfg.Agent.Capital,
		InitialAggression: cfg.Agent.InitialAggression,
		Location:          loc,
		OnState:           rt.metrics.UpdateBotState,
	})
	if err != nil {
		rt.close()
		return nil, err
	}
	router.ctrl.Store(rt.ctrl)
	return rt, nil
}
