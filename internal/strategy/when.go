package strategy

import (
	"go.uber.org/zap"

	"tacticbot/internal/config"
)

type WhenResult struct {
	Satisfied bool
	Targets   []TargetAsset
}

// FilterTargets runs the When stage over the For stage's candidates.
func FilterTargets(rule config.WhenConfig, targets []TargetAsset, state State, logger *zap.Logger) WhenResult {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch rule.Kind {
	case config.WhenAlways:
		return WhenResult{Satisfied: true, Targets: targets}
	case config.WhenNever:
		return WhenResult{}
	}

	var kept []TargetAsset
	for _, target := range targets {
		if passes(rule, target, state, logger) {
			kept = append(kept, target)
		}
	}
	return WhenResult{Satisfied: len(kept) > 0, Targets: kept}
}

func passes(rule config.WhenConfig, target TargetAsset, state State, logger *zap.Logger) bool {
	switch rule.Kind {
	case config.WhenAlways:
		return true
	case config.WhenNever:
		return false
	case config.WhenBelowMedian:
		return belowMedian(rule, target, state, logger)
	case config.WhenGainAbove:
		return gainAbove(rule, target, state)
	case config.WhenAllOf:
		for _, sub := range rule.All {
			if !passes(sub, target, state, logger) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func belowMedian(rule config.WhenConfig, target TargetAsset, state State, logger *zap.Logger) bool {
	quote, ok := state.Quotes[target.Symbol]
	if !ok || !quote.ValidAsk() {
		return false
	}
	result, ok := state.Analysis[target.Symbol]
	if !ok {
		return false
	}
	median, ok := result.Series(rule.Period).AverageMedian()
	if !ok || median <= 0 {
		return false
	}

	below := PercentBelow(quote.AskPrice, median)
	if below >= rule.Percent {
		return true
	}
	logger.Info("below median miss",
		zap.Stringer("symbol", target.Symbol),
		zap.String("period", string(rule.Period)),
		zap.Float64("ask", quote.AskPrice),
		zap.Float64("median", median),
		zap.Float64("percent_below", below),
		zap.Float64("wanted", rule.Percent),
	)
	return false
}

func gainAbove(rule config.WhenConfig, target TargetAsset, state State) bool {
	position, ok := state.Positions[target.Symbol]
	if !ok || position.UnrealizedGainTotalPercent == nil {
		return false
	}
	return *position.UnrealizedGainTotalPercent >= rule.Percent
}

// PercentBelow is how far value sits below target, as a percent of target.
func PercentBelow(value, target float64) float64 {
	return (target - value) / target * 100
}
