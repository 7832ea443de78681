package broker

import (
	"context"
	"fmt"
	"time"

	"tacticbot/internal/asset"
	"tacticbot/internal/md"
)

// Platform is everything the engine needs from a brokerage. Every call may
// fail with a network, auth or brokerage-side error.
type Platform interface {
	Account(ctx context.Context) (Account, error)
	Bars(ctx context.Context, req BarsRequest) (md.Series, error)
	LatestQuotes(ctx context.Context, symbols []asset.Symbol) ([]Quote, error)
	Positions(ctx context.Context) ([]Position, error)
	// Position looks up one holding; ok is false when there is none.
	Position(ctx context.Context, symbol asset.Symbol) (position Position, ok bool, err error)
	OpenOrders(ctx context.Context) ([]Order, error)
	PlaceOrder(ctx context.Context, req OrderRequest) (Order, error)
}

type TimeFrame string

const (
	OneMinute TimeFrame = "1Min"
	OneHour   TimeFrame = "1Hour"
	OneDay    TimeFrame = "1Day"
)

type BarsRequest struct {
	Symbol    asset.Symbol
	Start     time.Time
	End       time.Time
	TimeFrame TimeFrame
}

type Account struct {
	Cash        float64
	Equity      float64
	BuyingPower float64
}

func (a Account) String() string {
	return fmt.Sprintf("cash: %.2f, buying power: %.2f, equity: %.2f", a.Cash, a.BuyingPower, a.Equity)
}

// Position mirrors the broker's view of a holding. Pointer fields are nil
// when the broker omits them.
type Position struct {
	Symbol                     asset.Symbol
	Qty                        float64
	QtyAvailable               float64
	AvgEntryPrice              float64
	MarketValue                *float64
	UnrealizedGainTodayPercent *float64
	UnrealizedGainTotalPercent *float64
}

// Value is the cost basis of the position.
func (p Position) Value() float64 {
	return p.AvgEntryPrice * p.Qty
}

type Quote struct {
	Symbol   asset.Symbol
	Time     time.Time
	AskPrice float64
	AskSize  uint64
	BidPrice float64
	BidSize  uint64
}

func (q Quote) ValidAsk() bool {
	return q.AskPrice > 0
}

func (q Quote) ValidBid() bool {
	return q.BidPrice > 0
}

func (q Quote) Spread() float64 {
	return q.AskPrice - q.BidPrice
}

func (q Quote) SpreadPercent() float64 {
	if !q.ValidAsk() {
		return 0
	}
	return q.Spread() / q.AskPrice * 100
}

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

type AmountKind string

const (
	KindQuantity AmountKind = "quantity"
	KindNotional AmountKind = "notional"
)

// Amount is either a share quantity or a dollar notional.
type Amount struct {
	Kind  AmountKind
	Value float64
}

func Quantity(value float64) Amount {
	return Amount{Kind: KindQuantity, Value: value}
}

func Notional(value float64) Amount {
	return Amount{Kind: KindNotional, Value: value}
}

func (a Amount) IsZero() bool {
	return a.Value == 0
}

func (a Amount) String() string {
	if a.Kind == KindNotional {
		return fmt.Sprintf("$%.2f", a.Value)
	}
	return fmt.Sprintf("%.2f units", a.Value)
}

type Order struct {
	ID            string
	ClientOrderID string
	Symbol        asset.Symbol
	Side          Side
	Amount        Amount
	Status        string
}

// EstimatedValue is the dollar exposure of an unfilled order at the given ask.
func (o Order) EstimatedValue(askPrice float64) float64 {
	if o.Amount.Kind == KindNotional {
		return o.Amount.Value
	}
	return o.Amount.Value * askPrice
}

// OrderRequest is always a market order good for the day.
type OrderRequest struct {
	Symbol        asset.Symbol
	Side          Side
	Amount        Amount
	ClientOrderID string
}

func MarketBuy(symbol asset.Symbol, amount Amount) OrderRequest {
	return OrderRequest{Symbol: symbol, Side: Buy, Amount: amount}
}

func MarketSell(symbol asset.Symbol, amount Amount) OrderRequest {
	return OrderRequest{Symbol: symbol, Side: Sell, Amount: amount}
}

func (r OrderRequest) String() string {
	return fmt.Sprintf("market %s %s of %s", r.Side, r.Amount, r.Symbol)
}
