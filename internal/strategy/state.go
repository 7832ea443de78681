package strategy

import (
	"tacticbot/internal/analysis"
	"tacticbot/internal/asset"
	"tacticbot/internal/broker"
)

// State is the read-only snapshot one evaluation pass works against.
type State struct {
	Account    broker.Account
	Analysis   map[asset.Symbol]analysis.Result
	Positions  map[asset.Symbol]broker.Position
	OpenOrders map[asset.Symbol][]broker.Order
	Quotes     map[asset.Symbol]broker.Quote
}

// NewState indexes the platform's lists by symbol.
func NewState(account broker.Account, results map[asset.Symbol]analysis.Result, positions []broker.Position, orders []broker.Order, quotes []broker.Quote) State {
	state := State{
		Account:    account,
		Analysis:   results,
		Positions:  make(map[asset.Symbol]broker.Position, len(positions)),
		OpenOrders: make(map[asset.Symbol][]broker.Order),
		Quotes:     make(map[asset.Symbol]broker.Quote, len(quotes)),
	}
	if state.Analysis == nil {
		state.Analysis = map[asset.Symbol]analysis.Result{}
	}
	for _, position := range positions {
		state.Positions[position.Symbol] = position
	}
	for _, order := range orders {
		state.OpenOrders[order.Symbol] = append(state.OpenOrders[order.Symbol], order)
	}
	for _, quote := range quotes {
		state.Quotes[quote.Symbol] = quote
	}
	return state
}

func (s State) PositionValue(symbol asset.Symbol) float64 {
	position, ok := s.Positions[symbol]
	if !ok {
		return 0
	}
	return position.Value()
}

// OpenOrderValue is the exposure already committed to unfilled orders,
// valuing share quantities at the current ask (zero without a quote).
func (s State) OpenOrderValue(symbol asset.Symbol) float64 {
	ask := s.Quotes[symbol].AskPrice
	total := 0.0
	for _, order := range s.OpenOrders[symbol] {
		total += order.EstimatedValue(ask)
	}
	return total
}
