package strategy

import (
	"fmt"

	"tacticbot/internal/asset"
	"tacticbot/internal/broker"
)

// Action is one order the engine wants placed.
type Action struct {
	Side   broker.Side
	Symbol asset.Symbol
	Amount broker.Amount
}

func BuyAction(symbol asset.Symbol, amount broker.Amount) Action {
	return Action{Side: broker.Buy, Symbol: symbol, Amount: amount}
}

func SellAction(symbol asset.Symbol, amount broker.Amount) Action {
	return Action{Side: broker.Sell, Symbol: symbol, Amount: amount}
}

func (a Action) IsEmpty() bool {
	return a.Amount.IsZero()
}

func (a Action) Request() broker.OrderRequest {
	if a.Side == broker.Sell {
		return broker.MarketSell(a.Symbol, a.Amount)
	}
	return broker.MarketBuy(a.Symbol, a.Amount)
}

func (a Action) String() string {
	return fmt.Sprintf("%s %s %s", a.Side, a.Amount, a.Symbol)
}
