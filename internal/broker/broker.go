package broker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tacticbot/internal/asset"
	"tacticbot/internal/md"
)

type Options struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Feed      string
}

// Client talks to Alpaca's trading and market data APIs.
type Client struct {
	client *alpaca.Client
	data   *marketdata.Client
	feed   marketdata.Feed
	logger *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		client: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    opts.APIKey,
			APISecret: opts.APISecret,
			BaseURL:   opts.BaseURL,
		}),
		data: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    opts.APIKey,
			APISecret: opts.APISecret,
		}),
		feed:   parseFeed(opts.Feed),
		logger: logger,
	}
}

func (c *Client) Account(ctx context.Context) (Account, error) {
	acct, err := c.client.GetAccount()
	if err != nil {
		c.logger.Error("fetch account failed", zap.Error(err))
		return Account{}, fmt.Errorf("fetch account: %w", err)
	}
	account := Account{
		Cash:        acct.Cash.InexactFloat64(),
		Equity:      acct.Equity.InexactFloat64(),
		BuyingPower: acct.BuyingPower.InexactFloat64(),
	}
	c.logger.Debug("account fetched", zap.Float64("cash", account.Cash), zap.Float64("equity", account.Equity))
	return account, nil
}

func (c *Client) Bars(ctx context.Context, req BarsRequest) (md.Series, error) {
	bars, err := c.data.GetBars(req.Symbol.String(), marketdata.GetBarsRequest{
		TimeFrame: toTimeFrame(req.TimeFrame),
		Start:     req.Start,
		End:       req.End,
		Feed:      c.feed,
	})
	if err != nil {
		c.logger.Error("fetch bars failed", zap.Stringer("symbol", req.Symbol), zap.String("timeframe", string(req.TimeFrame)), zap.Error(err))
		return md.Series{}, fmt.Errorf("fetch %s bars for %s: %w", req.TimeFrame, req.Symbol, err)
	}
	series := md.Series{Symbol: req.Symbol, Bars: make([]md.Bar, 0, len(bars))}
	for _, bar := range bars {
		series.Bars = append(series.Bars, md.Bar{
			Timestamp: bar.Timestamp,
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    float64(bar.Volume),
		})
	}
	c.logger.Debug("bars fetched", zap.Stringer("symbol", req.Symbol), zap.String("timeframe", string(req.TimeFrame)), zap.Int("count", series.Len()))
	return series, nil
}

func (c *Client) LatestQuotes(ctx context.Context, symbols []asset.Symbol) ([]Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	latest, err := c.data.GetLatestQuotes(asset.Strings(symbols), marketdata.GetLatestQuoteRequest{Feed: c.feed})
	if err != nil {
		c.logger.Error("fetch latest quotes failed", zap.Strings("symbols", asset.Strings(symbols)), zap.Error(err))
		return nil, fmt.Errorf("fetch latest quotes: %w", err)
	}
	quotes := make([]Quote, 0, len(latest))
	for symbol, q := range latest {
		quotes = append(quotes, Quote{
			Symbol:   asset.Parse(symbol),
			Time:     q.Timestamp,
			AskPrice: q.AskPrice,
			AskSize:  uint64(q.AskSize),
			BidPrice: q.BidPrice,
			BidSize:  uint64(q.BidSize),
		})
	}
	return quotes, nil
}

func (c *Client) Positions(ctx context.Context) ([]Position, error) {
	positions, err := c.client.GetPositions()
	if err != nil {
		c.logger.Error("fetch positions failed", zap.Error(err))
		return nil, fmt.Errorf("fetch positions: %w", err)
	}
	out := make([]Position, 0, len(positions))
	for _, pos := range positions {
		out = append(out, toPosition(pos))
	}
	c.logger.Debug("positions fetched", zap.Int("count", len(out)))
	return out, nil
}

// Position returns the holding for one symbol; ok is false when the broker
// reports no position.
func (c *Client) Position(ctx context.Context, symbol asset.Symbol) (Position, bool, error) {
	pos, err := c.client.GetPosition(symbol.String())
	if err != nil {
		var apiErr *alpaca.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return Position{}, false, nil
		}
		c.logger.Error("fetch position failed", zap.Stringer("symbol", symbol), zap.Error(err))
		return Position{}, false, fmt.Errorf("fetch position %s: %w", symbol, err)
	}
	return toPosition(*pos), true, nil
}

func (c *Client) OpenOrders(ctx context.Context) ([]Order, error) {
	orders, err := c.client.GetOrders(alpaca.GetOrdersRequest{
		Status: "open",
		Limit:  500,
	})
	if err != nil {
		c.logger.Error("fetch open orders failed", zap.Error(err))
		return nil, fmt.Errorf("fetch open orders: %w", err)
	}
	c.logger.Debug("open orders fetched", zap.Int("count", len(orders)))
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrder(order))
	}
	return out, nil
}

func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (Order, error) {
	amount := req.Amount.decimal()
	orderReq := alpaca.PlaceOrderRequest{
		Symbol:        req.Symbol.String(),
		Side:          toSide(req.Side),
		Type:          alpaca.Market,
		TimeInForce:   alpaca.Day,
		ClientOrderID: req.ClientOrderID,
	}
	if req.Amount.Kind == KindNotional {
		orderReq.Notional = &amount
	} else {
		orderReq.Qty = &amount
	}

	order, err := c.client.PlaceOrder(orderReq)
	if err != nil {
		c.logger.Error("place order failed",
			zap.String("side", string(req.Side)),
			zap.Stringer("symbol", req.Symbol),
			zap.Stringer("amount", req.Amount),
			zap.Error(err),
		)
		return Order{}, fmt.Errorf("place %s: %w", req, err)
	}

	c.logger.Info("place order success",
		zap.String("order_id", order.ID),
		zap.String("client_order_id", order.ClientOrderID),
		zap.String("side", string(req.Side)),
		zap.Stringer("symbol", req.Symbol),
		zap.Stringer("amount", req.Amount),
		zap.String("status", string(order.Status)),
	)
	return toOrder(*order), nil
}

func toPosition(pos alpaca.Position) Position {
	return Position{
		Symbol:                     asset.Parse(pos.Symbol),
		Qty:                        pos.Qty.InexactFloat64(),
		QtyAvailable:               pos.QtyAvailable.InexactFloat64(),
		AvgEntryPrice:              pos.AvgEntryPrice.InexactFloat64(),
		MarketValue:                optionalFloat(pos.MarketValue, 1),
		UnrealizedGainTodayPercent: optionalFloat(pos.UnrealizedIntradayPLPC, 100),
		UnrealizedGainTotalPercent: optionalFloat(pos.UnrealizedPLPC, 100),
	}
}

func toOrder(order alpaca.Order) Order {
	amount := Quantity(0)
	switch {
	case order.Notional != nil:
		amount = Notional(order.Notional.InexactFloat64())
	case order.Qty != nil:
		amount = Quantity(order.Qty.InexactFloat64())
	}
	side := Buy
	if order.Side == alpaca.Sell {
		side = Sell
	}
	return Order{
		ID:            order.ID,
		ClientOrderID: order.ClientOrderID,
		Symbol:        asset.Parse(order.Symbol),
		Side:          side,
		Amount:        amount,
		Status:        string(order.Status),
	}
}

// optionalFloat scales a nullable decimal; the broker reports P/L percents
// as fractions.
func optionalFloat(value *decimal.Decimal, scale int64) *float64 {
	if value == nil {
		return nil
	}
	f := value.Mul(decimal.NewFromInt(scale)).InexactFloat64()
	return &f
}

func toSide(side Side) alpaca.Side {
	if side == Sell {
		return alpaca.Sell
	}
	return alpaca.Buy
}

func toTimeFrame(tf TimeFrame) marketdata.TimeFrame {
	switch tf {
	case OneMinute:
		return marketdata.OneMin
	case OneHour:
		return marketdata.OneHour
	default:
		return marketdata.OneDay
	}
}

func parseFeed(feed string) marketdata.Feed {
	switch feed {
	case "sip":
		return marketdata.SIP
	default:
		return marketdata.IEX
	}
}

func WaitForContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
