package broker

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"tacticbot/internal/asset"
	"tacticbot/internal/md"
)

// Noop is a simulated platform: it holds nothing, quotes nothing and
// accepts every order without sending it anywhere.
type Noop struct {
	seq    uint64
	logger *zap.Logger
}

func NewNoop(logger *zap.Logger) *Noop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Noop{logger: logger}
}

func (n *Noop) Account(ctx context.Context) (Account, error) {
	return Account{}, nil
}

func (n *Noop) Bars(ctx context.Context, req BarsRequest) (md.Series, error) {
	return md.Series{Symbol: req.Symbol}, nil
}

func (n *Noop) LatestQuotes(ctx context.Context, symbols []asset.Symbol) ([]Quote, error) {
	return nil, nil
}

func (n *Noop) Positions(ctx context.Context) ([]Position, error) {
	return nil, nil
}

func (n *Noop) Position(ctx context.Context, symbol asset.Symbol) (Position, bool, error) {
	return Position{}, false, nil
}

func (n *Noop) OpenOrders(ctx context.Context) ([]Order, error) {
	return nil, nil
}

func (n *Noop) PlaceOrder(ctx context.Context, req OrderRequest) (Order, error) {
	id := fmt.Sprintf("sim-%d", atomic.AddUint64(&n.seq, 1))
	n.logger.Info("simulated order accepted", zap.String("order_id", id), zap.Stringer("request", req))
	return Order{
		ID:            id,
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Amount:        req.Amount,
		Status:        "accepted",
	}, nil
}
