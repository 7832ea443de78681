package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundQuantityFloorsToSevenPlaces(t *testing.T) {
	assert.Equal(t, 25.0, RoundQuantity(25))
	assert.Equal(t, 0.1234567, RoundQuantity(0.123456789))
	assert.Equal(t, 12.34, RoundNotional(12.349))
}

func TestOrderEstimatedValue(t *testing.T) {
	byQty := Order{Amount: Quantity(3)}
	assert.Equal(t, 30.0, byQty.EstimatedValue(10))

	byNotional := Order{Amount: Notional(125)}
	assert.Equal(t, 125.0, byNotional.EstimatedValue(10))
}

func TestQuoteValidity(t *testing.T) {
	q := Quote{AskPrice: 100, BidPrice: 99}
	assert.True(t, q.ValidAsk())
	assert.True(t, q.ValidBid())
	assert.InDelta(t, 1.0, q.SpreadPercent(), 1e-9)

	assert.Zero(t, Quote{}.SpreadPercent())
	assert.False(t, Quote{}.ValidAsk())
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "$12.50", Notional(12.5).String())
	assert.Equal(t, "3.00 units", Quantity(3).String())
	assert.Equal(t, "market buy $5.00 of VTI", MarketBuy("VTI", Notional(5)).String())
}

func TestNoopAcceptsOrders(t *testing.T) {
	platform := NewNoop(nil)
	first, err := platform.PlaceOrder(context.Background(), MarketSell("VTI", Quantity(1)))
	require.NoError(t, err)
	second, err := platform.PlaceOrder(context.Background(), MarketSell("VTI", Quantity(1)))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, Sell, first.Side)

	account, err := platform.Account(context.Background())
	require.NoError(t, err)
	assert.Zero(t, account.Cash)
}

func TestWaitForContextReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WaitForContext(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)

	assert.NoError(t, WaitForContext(context.Background(), time.Millisecond))
}
