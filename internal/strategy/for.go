package strategy

import (
	"sort"

	"tacticbot/internal/asset"
	"tacticbot/internal/config"
)

// SelectTargets runs the For stage. universe is every symbol the tactic
// names; AllOtherPositions picks the held symbols outside it.
func SelectTargets(rule config.ForConfig, universe []asset.Symbol, state State) []TargetAsset {
	switch rule.Kind {
	case config.ForStock:
		if len(rule.Symbols) == 0 {
			return nil
		}
		return []TargetAsset{{Symbol: rule.Symbols[0], Percent: FullPercent}}
	case config.ForAnyOf:
		return evenlyWeighted(rule.Symbols)
	case config.ForAllOtherPositions:
		return otherPositions(universe, state)
	case config.ForNothing:
		return nil
	default:
		return nil
	}
}

func evenlyWeighted(symbols []asset.Symbol) []TargetAsset {
	if len(symbols) == 0 {
		return nil
	}
	percent := FullPercent / float64(len(symbols))
	targets := make([]TargetAsset, 0, len(symbols))
	for _, symbol := range symbols {
		targets = append(targets, TargetAsset{Symbol: symbol, Percent: percent})
	}
	return targets
}

func otherPositions(universe []asset.Symbol, state State) []TargetAsset {
	managed := make(map[asset.Symbol]struct{}, len(universe))
	for _, symbol := range universe {
		managed[symbol] = struct{}{}
	}
	var targets []TargetAsset
	for symbol := range state.Positions {
		if _, ok := managed[symbol]; ok {
			continue
		}
		targets = append(targets, TargetAsset{Symbol: symbol, Percent: FullPercent})
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Symbol < targets[j].Symbol })
	return targets
}
