package analysis

import (
	"context"
	"fmt"
	"time"

	"tacticbot/internal/asset"
	"tacticbot/internal/broker"
	"tacticbot/internal/md"
)

// Period names the lookback window a median is taken over.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func ParsePeriod(value string) (Period, error) {
	switch Period(value) {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodWeek, PeriodMonth:
		return Period(value), nil
	default:
		return "", fmt.Errorf("unknown median period %q", value)
	}
}

// Result bundles the bar series for one symbol.
type Result struct {
	Symbol         asset.Symbol
	LastTradingDay md.Series
	SevenDay       md.Series
	ThirtyDay      md.Series
}

// Series maps a median period to its window: day to the last trading day
// at one-minute bars, week to seven days hourly, month to thirty days daily.
func (r Result) Series(period Period) md.Series {
	switch period {
	case PeriodWeek:
		return r.SevenDay
	case PeriodMonth:
		return r.ThirtyDay
	default:
		return r.LastTradingDay
	}
}

// Fetch pulls the three windows for symbol as of now.
func Fetch(ctx context.Context, platform broker.Platform, symbol asset.Symbol, now time.Time) (Result, error) {
	fetch := func(rng Range, timeFrame broker.TimeFrame) (md.Series, error) {
		series, err := platform.Bars(ctx, broker.BarsRequest{
			Symbol:    symbol,
			Start:     rng.Start,
			End:       rng.End,
			TimeFrame: timeFrame,
		})
		if err != nil {
			return md.Series{}, fmt.Errorf("analyze %s: %w", symbol, err)
		}
		series.Symbol = symbol
		return series, nil
	}

	var err error
	result := Result{Symbol: symbol}
	if result.LastTradingDay, err = fetch(LastTradingDay(now), broker.OneMinute); err != nil {
		return Result{}, err
	}
	if result.SevenDay, err = fetch(LastNDays(now, 7), broker.OneHour); err != nil {
		return Result{}, err
	}
	if result.ThirtyDay, err = fetch(LastNDays(now, 30), broker.OneDay); err != nil {
		return Result{}, err
	}
	return result, nil
}
