package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"tacticbot/internal/analysis"
	"tacticbot/internal/asset"
	"tacticbot/internal/broker"
	"tacticbot/internal/config"
	"tacticbot/internal/strategy"
)

// Runner evaluates one tactic against a fresh platform snapshot and places
// the resulting orders.
type Runner struct {
	platform    broker.Platform
	cache       *analysis.Cache
	journal     *Journal
	logger      *zap.Logger
	runID       string
	orderSeqNum uint64
}

func NewRunner(platform broker.Platform, cache *analysis.Cache, journal *Journal, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = analysis.NewCache(platform, nil, logger)
	}
	return &Runner{
		platform: platform,
		cache:    cache,
		journal:  journal,
		logger:   logger,
		runID:    journal.RunID(),
	}
}

// RunTurn fails only when gathering state fails. Order failures are logged
// and the remaining orders still go out.
func (r *Runner) RunTurn(ctx context.Context, tactic config.TacticConfig) error {
	logger := r.logger.With(zap.String("tactic", tactic.Name))
	logger.Info("running tactic")

	state, err := r.snapshot(ctx, tactic)
	if err != nil {
		return fmt.Errorf("tactic %s: %w", tactic.Name, err)
	}
	logger.Info("account", zap.Stringer("account", state.Account))

	universe := tactic.Assets()
	buy := strategy.Evaluate(tactic.Buy, universe, state, logger)
	logResult(logger, broker.Buy, buy)
	sell := strategy.Evaluate(tactic.Sell, universe, state, logger)
	logResult(logger, broker.Sell, sell)

	r.perform(ctx, logger, tactic.Name, broker.Buy, buy)
	r.perform(ctx, logger, tactic.Name, broker.Sell, sell)
	return nil
}

func (r *Runner) snapshot(ctx context.Context, tactic config.TacticConfig) (strategy.State, error) {
	account, err := r.platform.Account(ctx)
	if err != nil {
		return strategy.State{}, err
	}

	var (
		results map[asset.Symbol]analysis.Result
		quotes  []broker.Quote
	)
	if tactic.NeedsQuotes() {
		universe := tactic.Assets()
		if results, err = r.cache.Get(ctx, universe); err != nil {
			return strategy.State{}, err
		}
		if quotes, err = r.platform.LatestQuotes(ctx, universe); err != nil {
			return strategy.State{}, err
		}
	}

	positions, err := r.platform.Positions(ctx)
	if err != nil {
		return strategy.State{}, err
	}
	orders, err := r.platform.OpenOrders(ctx)
	if err != nil {
		return strategy.State{}, err
	}
	return strategy.NewState(account, results, positions, orders, quotes), nil
}

func (r *Runner) perform(ctx context.Context, logger *zap.Logger, tactic string, side broker.Side, result strategy.Result) {
	if result.Skipped {
		logger.Info("skipping actions", zap.String("side", string(side)), zap.Stringer("reason", result.Reason))
		r.journal.Append(Entry{
			Tactic:     tactic,
			Side:       string(side),
			Result:     ResultSkipped,
			SkipReason: result.Reason.String(),
		})
		return
	}

	for _, action := range result.Actions {
		req := action.Request()
		req.ClientOrderID = r.nextClientOrderID()
		entry := Entry{
			Tactic:        tactic,
			Side:          string(side),
			Symbol:        action.Symbol.String(),
			Amount:        action.Amount.Value,
			AmountKind:    string(action.Amount.Kind),
			ClientOrderID: req.ClientOrderID,
		}

		order, err := r.platform.PlaceOrder(ctx, req)
		if err != nil {
			logger.Warn("order failed", zap.Stringer("action", action), zap.Error(err))
			entry.Result = ResultOrderFailed
			entry.Error = err.Error()
			r.journal.Append(entry)
			continue
		}
		entry.Result = ResultOrderSubmitted
		entry.OrderID = order.ID
		r.journal.Append(entry)
	}
}

func (r *Runner) nextClientOrderID() string {
	seq := atomic.AddUint64(&r.orderSeqNum, 1)
	if r.runID == "" {
		return ""
	}
	return fmt.Sprintf("%s-%d", r.runID, seq)
}

func logResult(logger *zap.Logger, side broker.Side, result strategy.Result) {
	fields := []zap.Field{zap.String("side", string(side)), zap.Bool("skipped", result.Skipped)}
	if result.Skipped {
		fields = append(fields, zap.Stringer("reason", result.Reason))
	}
	if len(result.Actions) > 0 {
		actions := make([]string, 0, len(result.Actions))
		for _, action := range result.Actions {
			actions = append(actions, action.String())
		}
		fields = append(fields, zap.Strings("actions", actions))
	}
	logger.Info("rule evaluated", fields...)
}
