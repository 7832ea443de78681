package config

import (
	"tacticbot/internal/analysis"
	"tacticbot/internal/asset"
)

// ForKind selects candidate assets. The zero value selects nothing.
type ForKind int

const (
	ForNothing ForKind = iota
	ForStock
	ForAnyOf
	ForAllOtherPositions
)

func (k ForKind) String() string {
	switch k {
	case ForStock:
		return "stock"
	case ForAnyOf:
		return "any_of"
	case ForAllOtherPositions:
		return "all_other_positions"
	default:
		return "nothing"
	}
}

type ForConfig struct {
	Kind    ForKind
	Symbols []asset.Symbol
}

func Stock(symbol asset.Symbol) ForConfig {
	return ForConfig{Kind: ForStock, Symbols: []asset.Symbol{symbol}}
}

func AnyOf(symbols ...asset.Symbol) ForConfig {
	return ForConfig{Kind: ForAnyOf, Symbols: symbols}
}

// Assets lists the symbols this rule names explicitly.
func (f ForConfig) Assets() []asset.Symbol {
	switch f.Kind {
	case ForStock, ForAnyOf:
		return f.Symbols
	default:
		return nil
	}
}

// WhenKind filters candidates. The zero value passes everything through.
type WhenKind int

const (
	WhenAlways WhenKind = iota
	WhenNever
	WhenBelowMedian
	WhenGainAbove
	WhenAllOf
)

func (k WhenKind) String() string {
	switch k {
	case WhenNever:
		return "never"
	case WhenBelowMedian:
		return "below_median"
	case WhenGainAbove:
		return "gain_above"
	case WhenAllOf:
		return "all_of"
	default:
		return "always"
	}
}

type WhenConfig struct {
	Kind    WhenKind
	Percent float64
	Period  analysis.Period
	All     []WhenConfig
}

func BelowMedian(percent float64, period analysis.Period) WhenConfig {
	return WhenConfig{Kind: WhenBelowMedian, Percent: percent, Period: period}
}

func GainAbove(percent float64) WhenConfig {
	return WhenConfig{Kind: WhenGainAbove, Percent: percent}
}

func AllOf(rules ...WhenConfig) WhenConfig {
	return WhenConfig{Kind: WhenAllOf, All: rules}
}

func (w WhenConfig) NeedsQuotes() bool {
	switch w.Kind {
	case WhenBelowMedian:
		return true
	case WhenAllOf:
		for _, rule := range w.All {
			if rule.NeedsQuotes() {
				return true
			}
		}
	}
	return false
}

// DoKind turns candidates into actions. The zero value does nothing.
type DoKind int

const (
	DoNothing DoKind = iota
	DoBuy
	DoSellAll
)

func (k DoKind) String() string {
	switch k {
	case DoBuy:
		return "buy"
	case DoSellAll:
		return "sell_all"
	default:
		return "nothing"
	}
}

type DoConfig struct {
	Kind    DoKind
	Percent float64
}

func BuyPercent(percent float64) DoConfig {
	return DoConfig{Kind: DoBuy, Percent: percent}
}

func SellAll() DoConfig {
	return DoConfig{Kind: DoSellAll}
}

func (d DoConfig) NeedsQuotes() bool {
	return d.Kind == DoBuy
}

type RuleConfig struct {
	For  ForConfig
	When WhenConfig
	Do   DoConfig
}

func (r RuleConfig) NeedsQuotes() bool {
	return r.When.NeedsQuotes() || r.Do.NeedsQuotes()
}

type TacticConfig struct {
	Name string
	Buy  RuleConfig
	Sell RuleConfig
}

// Assets is the tactic's universe: the unique For symbols of both sides,
// buy side first.
func (t TacticConfig) Assets() []asset.Symbol {
	all := append(asset.Strings(t.Buy.For.Assets()), asset.Strings(t.Sell.For.Assets())...)
	return asset.ParseAll(all)
}

// NeedsQuotes reports whether any rule reads live quotes or bar analysis.
func (t TacticConfig) NeedsQuotes() bool {
	return t.Buy.NeedsQuotes() || t.Sell.NeedsQuotes()
}

// Universe is every symbol named by any tactic.
func Universe(tactics []TacticConfig) []asset.Symbol {
	var all []string
	for _, tactic := range tactics {
		all = append(all, asset.Strings(tactic.Assets())...)
	}
	return asset.ParseAll(all)
}
