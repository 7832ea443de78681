package engine

import (
	"context"
	"sort"

	"tacticbot/internal/asset"
	"tacticbot/internal/broker"
)

// Status is a point-in-time view of the account.
type Status struct {
	Account    broker.Account
	Positions  []broker.Position
	OpenOrders []broker.Order
	// Missing lists requested symbols the account does not hold.
	Missing []asset.Symbol
}

// FetchStatus snapshots the account. With symbols, only those holdings are
// looked up; otherwise every position is listed.
func FetchStatus(ctx context.Context, platform broker.Platform, symbols ...asset.Symbol) (Status, error) {
	account, err := platform.Account(ctx)
	if err != nil {
		return Status{}, err
	}

	status := Status{Account: account}
	if len(symbols) == 0 {
		if status.Positions, err = platform.Positions(ctx); err != nil {
			return Status{}, err
		}
	}
	for _, symbol := range symbols {
		position, ok, err := platform.Position(ctx, symbol)
		if err != nil {
			return Status{}, err
		}
		if !ok {
			status.Missing = append(status.Missing, symbol)
			continue
		}
		status.Positions = append(status.Positions, position)
	}

	if status.OpenOrders, err = platform.OpenOrders(ctx); err != nil {
		return Status{}, err
	}
	sort.Slice(status.Positions, func(i, j int) bool { return status.Positions[i].Symbol < status.Positions[j].Symbol })
	return status, nil
}
