package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tacticbot/internal/analysis"
	"tacticbot/internal/asset"
	"tacticbot/internal/broker"
	"tacticbot/internal/config"
	"tacticbot/internal/md"
)

type fakePlatform struct {
	mu           sync.Mutex
	account      broker.Account
	positions    []broker.Position
	orders       []broker.Order
	quotes       []broker.Quote
	median       float64
	accountErr   error
	barsErr      error
	positionsErr error
	ordersErr    error
	failOrders   map[asset.Symbol]bool

	barCalls   int
	quoteCalls int
	placed     []broker.OrderRequest
}

func (f *fakePlatform) Account(ctx context.Context) (broker.Account, error) {
	return f.account, f.accountErr
}

func (f *fakePlatform) Bars(ctx context.Context, req broker.BarsRequest) (md.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.barCalls++
	if f.barsErr != nil {
		return md.Series{}, f.barsErr
	}
	return md.Series{Symbol: req.Symbol, Bars: []md.Bar{{High: f.median, Low: f.median}}}, nil
}

func (f *fakePlatform) LatestQuotes(ctx context.Context, symbols []asset.Symbol) ([]broker.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoteCalls++
	return f.quotes, nil
}

func (f *fakePlatform) Positions(ctx context.Context) ([]broker.Position, error) {
	return f.positions, f.positionsErr
}

func (f *fakePlatform) Position(ctx context.Context, symbol asset.Symbol) (broker.Position, bool, error) {
	if f.positionsErr != nil {
		return broker.Position{}, false, f.positionsErr
	}
	for _, position := range f.positions {
		if position.Symbol == symbol {
			return position, true, nil
		}
	}
	return broker.Position{}, false, nil
}

func (f *fakePlatform) OpenOrders(ctx context.Context) ([]broker.Order, error) {
	return f.orders, f.ordersErr
}

func (f *fakePlatform) PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, req)
	if f.failOrders[req.Symbol] {
		return broker.Order{}, errors.New("rejected")
	}
	return broker.Order{ID: "order-" + req.Symbol.String(), ClientOrderID: req.ClientOrderID, Symbol: req.Symbol, Side: req.Side, Amount: req.Amount}, nil
}

func gain(v float64) *float64 {
	return &v
}

func readJournal(t *testing.T, path string) []Entry {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry Entry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestRunTurnSkipsMarketDataWhenNotNeeded(t *testing.T) {
	platform := &fakePlatform{
		positions: []broker.Position{{Symbol: "VTI", QtyAvailable: 10, UnrealizedGainTotalPercent: gain(8)}},
	}
	runner := NewRunner(platform, nil, nil, nil)

	tactic := config.TacticConfig{
		Name: "take-profit",
		Sell: config.RuleConfig{For: config.Stock("VTI"), When: config.GainAbove(5), Do: config.SellAll()},
	}
	require.NoError(t, runner.RunTurn(context.Background(), tactic))

	assert.Zero(t, platform.barCalls)
	assert.Zero(t, platform.quoteCalls)
	require.Len(t, platform.placed, 1)
	assert.Equal(t, broker.MarketSell("VTI", broker.Quantity(10)), platform.placed[0])
}

func TestRunTurnBuysBeforeSellsAndContinuesPastFailures(t *testing.T) {
	platform := &fakePlatform{
		account: broker.Account{Cash: 1000, Equity: 1000},
		positions: []broker.Position{
			{Symbol: "OLD", QtyAvailable: 4},
			{Symbol: "STALE", QtyAvailable: 2},
		},
		quotes:     []broker.Quote{{Symbol: "A", AskPrice: 10}, {Symbol: "B", AskPrice: 10}},
		failOrders: map[asset.Symbol]bool{"A": true, "OLD": true},
	}
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "actions.ndjson")
	journal, err := NewJournal(journalPath, "run1")
	require.NoError(t, err)

	runner := NewRunner(platform, nil, journal, nil)
	tactic := config.TacticConfig{
		Name: "rotate",
		Buy:  config.RuleConfig{For: config.AnyOf("A", "B"), Do: config.BuyPercent(100)},
		Sell: config.RuleConfig{For: config.ForConfig{Kind: config.ForAllOtherPositions}, Do: config.SellAll()},
	}
	require.NoError(t, runner.RunTurn(context.Background(), tactic))
	require.NoError(t, journal.Close())

	require.Len(t, platform.placed, 4)
	assert.Equal(t, broker.Buy, platform.placed[0].Side)
	assert.Equal(t, asset.Symbol("A"), platform.placed[0].Symbol)
	assert.Equal(t, asset.Symbol("B"), platform.placed[1].Symbol)
	assert.Equal(t, broker.Sell, platform.placed[2].Side)
	assert.Equal(t, asset.Symbol("OLD"), platform.placed[2].Symbol)
	assert.Equal(t, asset.Symbol("STALE"), platform.placed[3].Symbol)
	assert.Equal(t, "run1-1", platform.placed[0].ClientOrderID)
	assert.Equal(t, "run1-4", platform.placed[3].ClientOrderID)

	entries := readJournal(t, journalPath)
	require.Len(t, entries, 4)
	assert.Equal(t, ResultOrderFailed, entries[0].Result)
	assert.Equal(t, "rejected", entries[0].Error)
	assert.Equal(t, ResultOrderSubmitted, entries[1].Result)
	assert.Equal(t, "order-B", entries[1].OrderID)
	assert.Equal(t, ResultOrderFailed, entries[2].Result)
	assert.Equal(t, ResultOrderSubmitted, entries[3].Result)
	for _, entry := range entries {
		assert.Equal(t, "run1", entry.RunID)
		assert.Equal(t, "rotate", entry.Tactic)
	}
}

func TestRunTurnFetchesAnalysisForBelowMedian(t *testing.T) {
	platform := &fakePlatform{
		account: broker.Account{Cash: 100, Equity: 100},
		quotes:  []broker.Quote{{Symbol: "VTI", AskPrice: 90}},
		median:  100,
	}
	cache := analysis.NewCache(platform, nil, nil)
	dir := t.TempDir()
	journal, err := NewJournal(filepath.Join(dir, "actions.ndjson"), "run2")
	require.NoError(t, err)
	defer journal.Close()

	runner := NewRunner(platform, cache, journal, nil)
	tactic := config.TacticConfig{
		Name: "dip",
		Buy: config.RuleConfig{
			For:  config.Stock("VTI"),
			When: config.BelowMedian(5, analysis.PeriodDay),
			Do:   config.BuyPercent(50),
		},
	}
	require.NoError(t, runner.RunTurn(context.Background(), tactic))
	require.NoError(t, runner.RunTurn(context.Background(), tactic))

	assert.Equal(t, 3, platform.barCalls, "analysis refreshes once per day")
	assert.Equal(t, 2, platform.quoteCalls)
	require.Len(t, platform.placed, 2)
	assert.Equal(t, broker.MarketBuy("VTI", broker.Notional(50)), withoutClientID(platform.placed[0]))
}

func TestRunTurnRecordsSkips(t *testing.T) {
	platform := &fakePlatform{}
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "actions.ndjson")
	journal, err := NewJournal(journalPath, "run3")
	require.NoError(t, err)

	runner := NewRunner(platform, nil, journal, nil)
	tactic := config.TacticConfig{
		Name: "idle",
		Sell: config.RuleConfig{For: config.Stock("VTI"), When: config.WhenConfig{Kind: config.WhenNever}},
	}
	require.NoError(t, runner.RunTurn(context.Background(), tactic))
	require.NoError(t, journal.Close())

	entries := readJournal(t, journalPath)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{RunID: "run3", Timestamp: entries[0].Timestamp, Tactic: "idle", Side: "buy", Result: ResultSkipped, SkipReason: "no target assets"}, entries[0])
	assert.Equal(t, "when conditions were unsatisfied", entries[1].SkipReason)
	assert.Empty(t, platform.placed)
}

func TestRunTurnAbortsOnFetchErrors(t *testing.T) {
	buyDip := config.TacticConfig{
		Name: "dip",
		Buy: config.RuleConfig{
			For:  config.Stock("VTI"),
			When: config.BelowMedian(5, analysis.PeriodDay),
			Do:   config.BuyPercent(10),
		},
		Sell: config.RuleConfig{For: config.ForConfig{Kind: config.ForAllOtherPositions}, Do: config.SellAll()},
	}
	tests := []struct {
		name     string
		platform *fakePlatform
		want     string
	}{
		{"account", &fakePlatform{accountErr: errors.New("unauthorized")}, "unauthorized"},
		{"analysis refresh", &fakePlatform{barsErr: errors.New("bars unavailable")}, "bars unavailable"},
		{"positions", &fakePlatform{positionsErr: errors.New("positions timeout")}, "positions timeout"},
		{"open orders", &fakePlatform{ordersErr: errors.New("orders timeout")}, "orders timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.platform.account = broker.Account{Cash: 1000, Equity: 1000}
			tt.platform.quotes = []broker.Quote{{Symbol: "VTI", AskPrice: 1}}
			tt.platform.positions = []broker.Position{{Symbol: "OLD", QtyAvailable: 3}}
			tt.platform.median = 100
			runner := NewRunner(tt.platform, nil, nil, nil)

			err := runner.RunTurn(context.Background(), buyDip)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, tt.platform.placed)
		})
	}
}

func TestFetchStatusSortsPositions(t *testing.T) {
	platform := &fakePlatform{
		account:   broker.Account{Cash: 1},
		positions: []broker.Position{{Symbol: "VTI"}, {Symbol: "AAPL"}},
		orders:    []broker.Order{{ID: "1"}},
	}
	status, err := FetchStatus(context.Background(), platform)
	require.NoError(t, err)
	assert.Equal(t, asset.Symbol("AAPL"), status.Positions[0].Symbol)
	assert.Len(t, status.OpenOrders, 1)
	assert.Equal(t, 1.0, status.Account.Cash)
}

func TestFetchStatusLooksUpRequestedSymbols(t *testing.T) {
	platform := &fakePlatform{
		positions: []broker.Position{{Symbol: "VTI", Qty: 2}, {Symbol: "AAPL", Qty: 1}},
	}
	status, err := FetchStatus(context.Background(), platform, "VTI", "QQQ")
	require.NoError(t, err)
	require.Len(t, status.Positions, 1)
	assert.Equal(t, asset.Symbol("VTI"), status.Positions[0].Symbol)
	assert.Equal(t, []asset.Symbol{"QQQ"}, status.Missing)
}

func TestFetchStatusReturnsLookupErrors(t *testing.T) {
	platform := &fakePlatform{positionsErr: errors.New("forbidden")}
	_, err := FetchStatus(context.Background(), platform, "VTI")
	assert.EqualError(t, err, "forbidden")
}

func withoutClientID(req broker.OrderRequest) broker.OrderRequest {
	req.ClientOrderID = ""
	return req
}
