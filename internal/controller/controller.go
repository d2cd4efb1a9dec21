// Package controller runs the autonomous decision cycle: it gathers market
// context, ranks strategies, asks the best agent for a decision, passes it
// through the optimizer and risk layer, executes it and feeds the outcome
// back into learning.
package controller

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/idhash"
	"solana-autotrader/internal/intelligence"
	"solana-autotrader/internal/learning"
	"solana-autotrader/internal/opportunity"
	"solana-autotrader/internal/optimizer"
	"solana-autotrader/internal/risk"
)

// DefaultAggression is used when Options.InitialAggression is zero.
const DefaultAggression = 50

// ErrNoAgents is returned by New when no agent is configured.
var ErrNoAgents = errors.New("controller: at least one agent is required")

// Options configures a Controller. Feed, Executor, Engine and Risk are
// required; News and Sink are optional.
type Options struct {
	Feed     MarketFeed
	News     NewsSource
	Executor Executor
	Agents   []Agent

	Engine    *learning.Engine
	Optimizer *optimizer.Optimizer // defaults to optimizer.New(Engine)
	Risk      *risk.Manager
	Scorer    *opportunity.Scorer // defaults to a scorer over Engine
	Analyzer  *intelligence.NewsAnalyzer
	Catalog   []domain.StrategyProfile // defaults to intelligence.DefaultCatalog()

	Sink Sink

	Symbol            string
	DailyGoal         float64
	Capital           float64
	InitialAggression int

	Now      func() time.Time
	Location *time.Location // day boundaries; defaults to time.Local
	Logger   *zerolog.Logger

	// OnState is called with a copy of the bot state after each cycle and
	// after every daily counter change.
	OnState func(domain.BotState)
}

// CycleResult describes one completed cycle.
type CycleResult struct {
	CycleID        string
	Strategy       domain.RankedStrategy
	AgentID        string
	Raw            domain.RawDecision
	Decision       domain.FinalDecision
	Opportunity    *domain.ScoredOpportunity
	Executed       bool
	ExecutionError string
	StopTrigger    *domain.StopTrigger
}

// openPosition is a filled trade still waiting for its stop or target.
type openPosition struct {
	agentID    string
	strategyID string
	signal     domain.Signal
	confidence float64
	side       domain.Side
	entry      float64
	amount     float64
	conditions domain.MarketConditions
	opened     time.Time
}

// Controller owns the bot session. Cycles are serialized; State,
// EvaluateOpportunity, Trigger and RecordTradeOutcome may be called
// concurrently with a running cycle.
type Controller struct {
	feed     MarketFeed
	news     NewsSource
	executor Executor
	agents   []Agent

	engine    *learning.Engine
	optimizer *optimizer.Optimizer
	risk      *risk.Manager
	scorer    *opportunity.Scorer
	analyzer  *intelligence.NewsAnalyzer
	catalog   []domain.StrategyProfile
	sink      Sink

	symbol    string
	dailyGoal float64
	capital   float64

	now     func() time.Time
	loc     *time.Location
	logger  zerolog.Logger
	onState func(domain.BotState)

	trigger chan struct{}
	seq     atomic.Uint64

	cycleMu   sync.Mutex
	positions map[string]openPosition // guarded by cycleMu

	mu    sync.Mutex
	state domain.BotState
}

// New creates a Controller.
func New(opts Options) (*Controller, error) {
	if opts.Feed == nil || opts.Executor == nil || opts.Engine == nil || opts.Risk == nil {
		return nil, errors.New("controller: feed, executor, engine and risk are required")
	}
	if len(opts.Agents) == 0 {
		return nil, ErrNoAgents
	}
	if opts.DailyGoal <= 0 || opts.Capital <= 0 {
		return nil, fmt.Errorf("controller: daily goal (%v) and capital (%v) must be positive", opts.DailyGoal, opts.Capital)
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	catalog := opts.Catalog
	if len(catalog) == 0 {
		catalog = intelligence.DefaultCatalog()
	}
	if err := intelligence.ValidateCatalog(catalog); err != nil {
		return nil, err
	}
	opt := opts.Optimizer
	if opt == nil {
		opt = optimizer.New(opts.Engine)
	}
	scorer := opts.Scorer
	if scorer == nil {
		scorer = opportunity.NewScorer(opts.Engine, now, loc)
	}
	analyzer := opts.Analyzer
	if analyzer == nil {
		analyzer = intelligence.NewNewsAnalyzer()
	}
	aggr := opts.InitialAggression
	if aggr == 0 {
		aggr = DefaultAggression
	}

	c := &Controller{
		feed:      opts.Feed,
		news:      opts.News,
		executor:  opts.Executor,
		agents:    opts.Agents,
		engine:    opts.Engine,
		optimizer: opt,
		risk:      opts.Risk,
		scorer:    scorer,
		analyzer:  analyzer,
		catalog:   catalog,
		sink:      opts.Sink,
		symbol:    opts.Symbol,
		dailyGoal: opts.DailyGoal,
		capital:   opts.Capital,
		now:       now,
		loc:       loc,
		logger:    logger.With().Str("component", "controller").Logger(),
		onState:   opts.OnState,
		trigger:   make(chan struct{}, 1),
		positions: make(map[string]openPosition),
	}
	c.state = domain.BotState{
		AggressionLevel: clampAggression(aggr),
		LastReset:       startOfDay(c.clock()),
	}
	return c, nil
}

func (c *Controller) clock() time.Time {
	return c.now().In(c.loc)
}

// Run cycles every interval and whenever Trigger is called, until ctx is
// done. Cycle errors are logged and do not stop the loop.
func (c *Controller) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("controller: interval must be positive, got %v", interval)
	}
	c.setRunning(true)
	defer c.setRunning(false)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Info().Dur("interval", interval).Str("symbol", c.symbol).Msg("controller started")
	for {
		if _, err := c.Cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn().Err(err).Msg("cycle failed")
		}

		select {
		case <-ctx.Done():
			c.logger.Info().Msg("controller stopped")
			return ctx.Err()
		case <-ticker.C:
		case <-c.trigger:
		}
	}
}

// Trigger requests an extra cycle from Run. It never blocks; pending
// triggers are coalesced.
func (c *Controller) Trigger() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// EvaluateOpportunity scores opp against the current learning snapshot and
// triggers a cycle when it is worth sniping.
func (c *Controller) EvaluateOpportunity(opp domain.Opportunity) domain.OpportunityScore {
	sc := c.scorer.Score(opp)
	if sc.Recommendation == domain.RecommendSnipe {
		c.logger.Info().
			Str("opportunity", sc.OpportunityID).
			Float64("score", sc.Score).
			Float64("confidence", sc.Confidence).
			Msg("snipe candidate")
		c.Trigger()
	}
	return sc
}

// Cycle runs one full decision cycle. It returns an error only when ctx is
// done or no market snapshot is available; every other failure is logged
// and folded into the result.
func (c *Controller) Cycle(ctx context.Context) (*CycleResult, error) {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := c.clock()
	c.rollover(now)

	snap, err := c.feed.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("market snapshot: %w", err)
	}
	if snap.Symbol == "" {
		snap.Symbol = c.symbol
	}
	symbol := snap.Symbol

	res := &CycleResult{CycleID: uuid.NewString()}
	res.StopTrigger = c.checkStops(ctx, symbol, snap.Price, now)

	best := c.bestOpportunity(ctx)
	res.Opportunity = best
	newsSignal := c.newsSignal(ctx, now)

	state := c.State()
	prog := computeProgress(now, state.LastReset, state.DailyProfit, c.dailyGoal)
	metrics, cfg := c.engine.Snapshot()

	ranked := intelligence.Rank(c.catalog, intelligence.RankInput{
		Snapshot:    snap,
		News:        newsSignal,
		Opportunity: best,
		Metrics:     metrics,
		Config:      cfg,
		Goal:        prog.status(),
		Hour:        now.Hour(),
	})
	res.Strategy = ranked[0]
	strategyID := res.Strategy.Profile.ID

	agent := c.pickAgent(metrics)
	res.AgentID = agent.ID()

	dctx := domain.DecisionContext{
		Symbol:      symbol,
		Snapshot:    snap,
		Opportunity: best,
		News:        newsSignal,
		Timestamp:   now,
	}
	raw, err := agent.Decide(ctx, dctx)
	if err != nil {
		c.logger.Warn().Err(err).Str("agent", agent.ID()).Msg("agent decision failed")
		raw = domain.RawDecision{Signal: domain.SignalHold, Reasoning: "agent error"}
	}
	raw.AgentID = agent.ID()
	raw.StrategyID = strategyID
	raw = overrideHold(raw, best, snap)
	res.Raw = raw

	opt := c.optimizer.Optimize(raw, dctx)
	decision := c.decide(opt, raw, best, snap, state, prog, now)

	if decision.Execute {
		if _, open := c.positions[symbol]; open {
			hold(&decision, "position already open")
		} else if est := c.estimatedLossPct(decision.Amount, opt.StopLossBps); !c.risk.CanTrade(est) {
			hold(&decision, fmt.Sprintf("risk limits block trade (est. loss %.2f%%)", est))
		}
	}

	if decision.Execute {
		res.Executed, res.ExecutionError = c.execute(ctx, decision, snap, now)
	}
	res.Decision = decision

	c.finishCycle(ctx, res, snap, prog, best)
	return res, nil
}

// rollover resets the daily counters when the local date has changed.
func (c *Controller) rollover(now time.Time) {
	c.mu.Lock()
	if sameDay(c.state.LastReset, now) {
		c.mu.Unlock()
		return
	}
	c.resetDailyLocked(now)
	st := c.copyStateLocked()
	c.mu.Unlock()

	c.logger.Info().Time("date", st.LastReset).Msg("daily metrics reset")
	c.notify(st)
}

func (c *Controller) bestOpportunity(ctx context.Context) *domain.ScoredOpportunity {
	opps, err := c.feed.Opportunities(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("opportunity scan failed")
		return nil
	}
	ranked := c.scorer.Rank(opps)
	if len(ranked) == 0 {
		return nil
	}
	best := ranked[0]
	return &best
}

func (c *Controller) newsSignal(ctx context.Context, now time.Time) domain.NewsSignal {
	if c.news == nil {
		return domain.NewsSignal{}
	}
	articles, err := c.news.Articles(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("news fetch failed")
		return domain.NewsSignal{}
	}
	return c.analyzer.Summarize(articles, now)
}

// pickAgent returns the agent with the best learned win rate, ties broken
// by total profit. Agents without history count as zero and keep their
// configured order on full ties.
func (c *Controller) pickAgent(m domain.LearningMetrics) Agent {
	best := c.agents[0]
	bestStats := m.AgentStats[best.ID()]
	for _, a := range c.agents[1:] {
		st := m.AgentStats[a.ID()]
		if st.WinRate > bestStats.WinRate ||
			(st.WinRate == bestStats.WinRate && st.TotalProfit > bestStats.TotalProfit) {
			best, bestStats = a, st
		}
	}
	return best
}

// overrideHold turns a HOLD into a directional signal when a high
// confidence opportunity disagrees. Direction follows the opportunity's
// momentum, falling back to the snapshot's price change.
func overrideHold(raw domain.RawDecision, best *domain.ScoredOpportunity, snap domain.MarketSnapshot) domain.RawDecision {
	if raw.Signal != domain.SignalHold || best == nil || best.Score.Confidence <= highConfidenceOpp {
		return raw
	}
	direction := best.Opportunity.Momentum
	if direction == 0 {
		direction = snap.PriceChangePct
	}
	raw.Signal = domain.SignalBuy
	if direction < 0 {
		raw.Signal = domain.SignalSell
	}
	raw.Confidence = math.Max(raw.Confidence, best.Score.Confidence)
	if raw.ExpectedProfitBps == 0 {
		raw.ExpectedProfitBps = best.Score.ExpectedProfitBps
	}
	raw.RiskLevel = best.Score.RiskLevel
	raw.Reasoning = fmt.Sprintf("opportunity %s overrides hold", best.Opportunity.ID)
	return raw
}

// decide applies the final policy to an optimized decision.
func (c *Controller) decide(opt domain.OptimizedDecision, raw domain.RawDecision, best *domain.ScoredOpportunity,
	snap domain.MarketSnapshot, state domain.BotState, prog progress, now time.Time) domain.FinalDecision {

	amount := c.positionAmount(opt, snap, state.AggressionLevel)
	d := domain.FinalDecision{
		Action:         domain.SignalHold,
		Amount:         amount,
		ExpectedProfit: c.expectedProfit(opt, amount, best, prog),
		Urgency:        domain.UrgencyLow,
		RiskLevel:      opt.RiskLevel,
		Optimized:      opt,
		Timestamp:      now,
	}
	if best != nil {
		d.OpportunityID = best.Opportunity.ID
	}

	switch {
	case prog.met:
		d.RiskLevel = domain.RiskLow
		hold(&d, "daily goal reached")
	case prog.farBehind && opt.Confidence > farBehindConfidence && opt.ShouldExecute:
		d.Action = opt.Signal
		d.Execute = true
		d.Urgency = domain.UrgencyHigh
		d.RiskLevel = domain.RiskHigh
		d.Rationale = rationale(opt, raw, snap.Symbol, "catching up")
	case opt.ShouldExecute:
		d.Action = opt.Signal
		d.Execute = true
		d.Urgency = domain.UrgencyNormal
		d.Rationale = rationale(opt, raw, snap.Symbol, "")
	default:
		hold(&d, "waiting for better opportunity")
	}
	return d
}

func hold(d *domain.FinalDecision, why string) {
	d.Action = domain.SignalHold
	d.Execute = false
	d.Amount = 0
	d.ExpectedProfit = 0
	d.Urgency = domain.UrgencyLow
	d.Rationale = why
}

func rationale(opt domain.OptimizedDecision, raw domain.RawDecision, symbol, note string) string {
	parts := []string{
		fmt.Sprintf("%s %s via %s/%s", opt.Signal, symbol, opt.StrategyID, opt.AgentID),
		fmt.Sprintf("confidence %.0f%%", opt.Confidence*100),
		fmt.Sprintf("target %.0fbps stop %.0fbps size x%.2f", opt.ProfitTargetBps, opt.StopLossBps, opt.PositionSize),
	}
	if raw.Reasoning != "" {
		parts = append(parts, raw.Reasoning)
	}
	if note != "" {
		parts = append(parts, note)
	}
	return strings.Join(parts, "; ")
}

// positionAmount sizes a trade in quote units: the smaller of the
// volatility-damped size and the Kelly fraction of capital, scaled by the
// optimizer multiplier and the aggression dial.
func (c *Controller) positionAmount(opt domain.OptimizedDecision, snap domain.MarketSnapshot, aggression int) float64 {
	if !opt.ShouldExecute {
		return 0
	}
	base := c.risk.CalculatePositionSize(c.capital, opt.Confidence, snap.Volatility)
	kelly := c.risk.CalculateKellyPosition(c.risk.KellyInput(regimeOf(snap)))
	base = math.Min(base, c.capital*kelly)
	return base * opt.PositionSize * (0.5 + float64(clampAggression(aggression))/100)
}

// expectedProfit estimates the profit of a trade, scaled by how fast the
// goal still has to be approached and by the opportunity's score.
func (c *Controller) expectedProfit(opt domain.OptimizedDecision, amount float64, best *domain.ScoredOpportunity, prog progress) float64 {
	base := amount * opt.ProfitTargetBps / 10_000 * opt.Confidence

	rate := 1.0
	if baseline := c.dailyGoal / 24; baseline > 0 {
		rate = math.Max(0.5, math.Min(2, prog.hourly/baseline))
	}
	impact := 1.0
	if best != nil {
		impact += best.Score.Score / 200
	}
	return math.Round(base*rate*impact*100) / 100
}

func (c *Controller) estimatedLossPct(amount, stopBps float64) float64 {
	return amount / c.capital * stopBps / 100
}

func regimeOf(s domain.MarketSnapshot) risk.Regime {
	switch {
	case s.PriceChangePct > 5 && s.Sentiment > 0.6:
		return risk.RegimeBull
	case s.PriceChangePct < -5 || (s.Sentiment > 0 && s.Sentiment < 0.4):
		return risk.RegimeBear
	default:
		return risk.RegimeNeutral
	}
}

// execute sends the decision to the executor. A failed execution is
// recorded in learning as an unsuccessful zero-profit outcome and never
// returned as an error.
func (c *Controller) execute(ctx context.Context, d domain.FinalDecision, snap domain.MarketSnapshot, now time.Time) (bool, string) {
	opt := d.Optimized
	side := domain.SideFromSignal(d.Action)
	req := domain.ExecutionRequest{
		AgentID:    opt.AgentID,
		StrategyID: opt.StrategyID,
		Symbol:     snap.Symbol,
		Side:       side,
		Amount:     d.Amount,
		Conditions: snap.Conditions(),
	}

	start := time.Now()
	out, err := c.executor.Execute(ctx, req)
	took := time.Since(start)
	if err == nil && !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "execution rejected"
		}
		err = errors.New(msg)
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("agent", opt.AgentID).Str("symbol", snap.Symbol).Msg("execution failed")
		zero := 0.0
		c.recordLearning(ctx, domain.TradeOutcome{
			Timestamp:     now,
			AgentID:       opt.AgentID,
			StrategyID:    opt.StrategyID,
			Signal:        d.Action,
			Confidence:    opt.Confidence,
			EntryPrice:    snap.Price,
			Profit:        &zero,
			ProfitPercent: &zero,
			ExecutionTime: took,
			Conditions:    snap.Conditions(),
		})
		return false, err.Error()
	}

	entry := out.EntryPrice
	if entry <= 0 {
		entry = snap.Price
	}
	pos := openPosition{
		agentID:    opt.AgentID,
		strategyID: opt.StrategyID,
		signal:     d.Action,
		confidence: opt.Confidence,
		side:       side,
		entry:      entry,
		amount:     d.Amount,
		conditions: snap.Conditions(),
		opened:     now,
	}
	c.logger.Info().
		Str("signature", out.Signature).
		Str("action", string(d.Action)).
		Float64("amount", d.Amount).
		Float64("entry", entry).
		Msg("trade executed")

	if out.ExitPrice != nil {
		c.closePosition(ctx, pos, *out.ExitPrice, now, took)
		return true, ""
	}
	if _, ok := c.risk.SetStopLoss(ctx, snap.Symbol, entry, side); ok {
		c.positions[snap.Symbol] = pos
	}
	return true, ""
}

// checkStops closes the open position for symbol when its fixed stop or
// target has been crossed.
func (c *Controller) checkStops(ctx context.Context, symbol string, price float64, now time.Time) *domain.StopTrigger {
	pos, ok := c.positions[symbol]
	if !ok {
		return nil
	}
	trig := c.risk.CheckStopLoss(ctx, symbol, price)
	if trig == nil {
		return nil
	}
	delete(c.positions, symbol)
	c.logger.Info().Str("symbol", symbol).Str("kind", string(trig.Kind)).Float64("price", price).Msg("stop triggered")
	c.closePosition(ctx, pos, price, now, now.Sub(pos.opened))
	return trig
}

func (c *Controller) closePosition(ctx context.Context, pos openPosition, exit float64, now time.Time, took time.Duration) {
	pct := (exit - pos.entry) / pos.entry * 100
	if pos.side == domain.SideShort {
		pct = -pct
	}
	profit := pos.amount * pct / 100

	c.recordLearning(ctx, domain.TradeOutcome{
		Timestamp:     now,
		AgentID:       pos.agentID,
		StrategyID:    pos.strategyID,
		Signal:        pos.signal,
		Confidence:    pos.confidence,
		EntryPrice:    pos.entry,
		ExitPrice:     &exit,
		Profit:        &profit,
		ProfitPercent: &pct,
		ExecutionTime: took,
		Conditions:    pos.conditions,
		Success:       profit > 0,
	})
	// The daily cap is measured against capital, like estimatedLossPct.
	capitalPct := profit / c.capital * 100
	if profit > 0 {
		c.risk.RecordWin(ctx, capitalPct)
	} else {
		c.risk.RecordLoss(ctx, capitalPct)
	}
	c.RecordTradeOutcome(profit, profit > 0)
}

func (c *Controller) recordLearning(ctx context.Context, o domain.TradeOutcome) {
	o.ID = idhash.ComputeOutcomeID(o.AgentID, o.StrategyID, o.Signal, o.Timestamp, c.seq.Add(1))
	if err := c.engine.RecordOutcome(ctx, o); err != nil {
		c.logger.Warn().Err(err).Str("outcome", o.ID).Msg("record outcome failed")
	}
}

// finishCycle adjusts aggression, stores the decision and emits telemetry.
func (c *Controller) finishCycle(ctx context.Context, res *CycleResult, snap domain.MarketSnapshot, prog progress, best *domain.ScoredOpportunity) {
	highConf := best != nil && best.Score.Confidence > highConfidenceOpp

	c.mu.Lock()
	c.state.CurrentStrategy = res.Strategy.Profile.ID
	c.state.AggressionLevel = adjustAggression(c.state.AggressionLevel, prog, highConf)
	d := res.Decision
	c.state.LastDecision = &d
	st := c.copyStateLocked()
	c.mu.Unlock()

	c.logger.Debug().
		Str("cycle", res.CycleID).
		Str("strategy", res.Strategy.Profile.ID).
		Str("agent", res.AgentID).
		Str("action", string(d.Action)).
		Bool("executed", res.Executed).
		Int("aggression", st.AggressionLevel).
		Msg("cycle complete")

	c.notify(st)
	if c.sink == nil {
		return
	}

	rs := c.risk.State()
	m := c.engine.Metrics()
	err := c.sink.Publish(ctx, domain.DecisionSnapshot{
		CycleID:        res.CycleID,
		Timestamp:      d.Timestamp,
		Symbol:         snap.Symbol,
		Strategy:       res.Strategy.Profile.ID,
		Agent:          res.AgentID,
		Decision:       d,
		Executed:       res.Executed,
		ExecutionError: res.ExecutionError,
		Bot:            st,
		BreakerActive:  rs.CircuitBreakerActive,
		DailyLossPct:   rs.DailyLossPct,
		WinRate:        m.WinRate,
		TotalTrades:    m.TotalTrades,
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("cycle", res.CycleID).Msg("telemetry publish failed")
	}
}

// RecordTradeOutcome updates the daily counters with one closed trade.
// Crossing the daily goal is logged once per day.
func (c *Controller) RecordTradeOutcome(profit float64, success bool) {
	if math.IsNaN(profit) || math.IsInf(profit, 0) {
		profit = 0
	}

	c.mu.Lock()
	c.state.DailyProfit += profit
	c.state.TradesToday++
	if success {
		c.state.WinsToday++
	}
	c.state.WinRateToday = float64(c.state.WinsToday) / float64(c.state.TradesToday) * 100
	crossed := !c.state.GoalReached && c.state.DailyProfit >= c.dailyGoal
	if crossed {
		c.state.GoalReached = true
	}
	st := c.copyStateLocked()
	c.mu.Unlock()

	if crossed {
		c.logger.Info().Float64("daily_profit", st.DailyProfit).Float64("goal", c.dailyGoal).Msg("daily goal reached")
	}
	c.notify(st)
}

// ResetDailyMetrics zeroes the daily counters.
func (c *Controller) ResetDailyMetrics() {
	c.mu.Lock()
	c.resetDailyLocked(c.clock())
	st := c.copyStateLocked()
	c.mu.Unlock()
	c.notify(st)
}

func (c *Controller) resetDailyLocked(now time.Time) {
	c.state.DailyProfit = 0
	c.state.TradesToday = 0
	c.state.WinsToday = 0
	c.state.WinRateToday = 0
	c.state.GoalReached = false
	c.state.LastReset = startOfDay(now)
}

// State returns a copy of the bot state.
func (c *Controller) State() domain.BotState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyStateLocked()
}

func (c *Controller) copyStateLocked() domain.BotState {
	st := c.state
	if st.LastDecision != nil {
		d := *st.LastDecision
		st.LastDecision = &d
	}
	return st
}

func (c *Controller) setRunning(v bool) {
	c.mu.Lock()
	c.state.Running = v
	st := c.copyStateLocked()
	c.mu.Unlock()
	c.notify(st)
}

func (c *Controller) notify(st domain.BotState) {
	if c.onState != nil {
		c.onState(st)
	}
}
