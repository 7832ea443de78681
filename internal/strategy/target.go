package strategy

import (
	"fmt"

	"tacticbot/internal/asset"
)

const FullPercent = 100.0

// TargetAsset is a candidate and its weight within the candidate set.
type TargetAsset struct {
	Symbol  asset.Symbol
	Percent float64
}

func (t TargetAsset) ApplyPercent(value float64) float64 {
	return value * t.Percent / 100
}

func (t TargetAsset) String() string {
	return fmt.Sprintf("%s (%.2f%%)", t.Symbol, t.Percent)
}
