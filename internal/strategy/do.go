package strategy

import (
	"math"

	"tacticbot/internal/broker"
	"tacticbot/internal/config"
)

// BuildActions runs the Do stage over the surviving candidates.
func BuildActions(rule config.DoConfig, targets []TargetAsset, state State) []Action {
	switch rule.Kind {
	case config.DoBuy:
		return buy(rule.Percent, targets, state)
	case config.DoSellAll:
		return sellAll(targets, state)
	case config.DoNothing:
		return nil
	default:
		return nil
	}
}

// buy sizes each candidate in order against the cash left after the
// previous ones, so earlier candidates win when cash runs short.
func buy(percent float64, targets []TargetAsset, state State) []Action {
	remaining := state.Account.Cash
	var actions []Action
	for _, target := range targets {
		targetPercent := target.Percent * percent / 100
		desired := state.Account.Equity * targetPercent / 100
		committed := state.PositionValue(target.Symbol) + state.OpenOrderValue(target.Symbol)
		amount := broker.RoundNotional(math.Max(0, math.Min(desired-committed, remaining)))
		if amount <= 0 {
			continue
		}
		actions = append(actions, BuyAction(target.Symbol, broker.Notional(amount)))
		remaining -= amount
	}
	return actions
}

func sellAll(targets []TargetAsset, state State) []Action {
	var actions []Action
	for _, target := range targets {
		available := state.Positions[target.Symbol].QtyAvailable
		action := SellAction(target.Symbol, broker.Quantity(broker.RoundQuantity(target.ApplyPercent(available))))
		if action.IsEmpty() {
			continue
		}
		actions = append(actions, action)
	}
	return actions
}
