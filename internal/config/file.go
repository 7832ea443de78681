package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"tacticbot/internal/analysis"
	"tacticbot/internal/asset"
)

const defaultInterval = 60 * time.Second

var ErrMultipleVariants = errors.New("more than one variant set")

// File is the tactic file: where to trade, how often, and what.
type File struct {
	Platform string
	Interval time.Duration
	Tactics  []TacticConfig
}

type rawFile struct {
	Platform string      `toml:"platform" yaml:"platform"`
	Interval *int64      `toml:"interval" yaml:"interval"`
	Tactics  []rawTactic `toml:"tactics" yaml:"tactics"`
}

type rawTactic struct {
	Name string  `toml:"name" yaml:"name"`
	Buy  rawRule `toml:"buy" yaml:"buy"`
	Sell rawRule `toml:"sell" yaml:"sell"`
}

type rawRule struct {
	For  rawFor  `toml:"for" yaml:"for"`
	When rawWhen `toml:"when" yaml:"when"`
	Do   rawDo   `toml:"do" yaml:"do"`
}

type rawFor struct {
	Stock             *string  `toml:"stock" yaml:"stock"`
	AnyOf             []string `toml:"any_of" yaml:"any_of"`
	AllOtherPositions *bool    `toml:"all_other_positions" yaml:"all_other_positions"`
	Nothing           *bool    `toml:"nothing" yaml:"nothing"`
}

type rawWhen struct {
	Always             *bool     `toml:"always" yaml:"always"`
	Never              *bool     `toml:"never" yaml:"never"`
	BelowMedianPercent *float64  `toml:"below_median_percent" yaml:"below_median_percent"`
	MedianPeriod       string    `toml:"median_period" yaml:"median_period"`
	GainAbovePercent   *float64  `toml:"gain_above_percent" yaml:"gain_above_percent"`
	AllOf              []rawWhen `toml:"all_of" yaml:"all_of"`
}

type rawDo struct {
	BuyPercent *float64 `toml:"buy_percent" yaml:"buy_percent"`
	SellAll    *bool    `toml:"sell_all" yaml:"sell_all"`
	Nothing    *bool    `toml:"nothing" yaml:"nothing"`
}

// ReadFile decodes a tactic file. The format follows the extension:
// .yaml/.yml is YAML, anything else TOML.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw rawFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		_, err = toml.Decode(string(data), &raw)
	}
	if err != nil {
		return File{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return raw.resolve()
}

func (r rawFile) resolve() (File, error) {
	file := File{
		Platform: r.Platform,
		Interval: defaultInterval,
	}
	if file.Platform == "" {
		file.Platform = PlatformAlpaca
	}
	if r.Interval != nil {
		file.Interval = time.Duration(*r.Interval) * time.Second
	}
	for i, raw := range r.Tactics {
		tactic := TacticConfig{Name: raw.Name}
		var err error
		if tactic.Buy, err = raw.Buy.resolve(); err != nil {
			return File{}, fmt.Errorf("tactic %d (%s) buy: %w", i, raw.Name, err)
		}
		if tactic.Sell, err = raw.Sell.resolve(); err != nil {
			return File{}, fmt.Errorf("tactic %d (%s) sell: %w", i, raw.Name, err)
		}
		file.Tactics = append(file.Tactics, tactic)
	}
	return file, nil
}

func (r rawRule) resolve() (RuleConfig, error) {
	var rule RuleConfig
	var err error
	if rule.For, err = r.For.resolve(); err != nil {
		return RuleConfig{}, fmt.Errorf("for: %w", err)
	}
	if rule.When, err = r.When.resolve(); err != nil {
		return RuleConfig{}, fmt.Errorf("when: %w", err)
	}
	if rule.Do, err = r.Do.resolve(); err != nil {
		return RuleConfig{}, fmt.Errorf("do: %w", err)
	}
	return rule, nil
}

func (r rawFor) resolve() (ForConfig, error) {
	if count(r.Stock != nil, r.AnyOf != nil, r.AllOtherPositions != nil, r.Nothing != nil) > 1 {
		return ForConfig{}, ErrMultipleVariants
	}
	switch {
	case r.Stock != nil:
		return Stock(asset.Parse(*r.Stock)), nil
	case r.AnyOf != nil:
		return AnyOf(asset.ParseAll(r.AnyOf)...), nil
	case r.AllOtherPositions != nil:
		return ForConfig{Kind: ForAllOtherPositions}, nil
	default:
		return ForConfig{}, nil
	}
}

func (r rawWhen) resolve() (WhenConfig, error) {
	if count(r.Always != nil, r.Never != nil, r.BelowMedianPercent != nil, r.GainAbovePercent != nil, r.AllOf != nil) > 1 {
		return WhenConfig{}, ErrMultipleVariants
	}
	switch {
	case r.Never != nil:
		return WhenConfig{Kind: WhenNever}, nil
	case r.BelowMedianPercent != nil:
		period, err := analysis.ParsePeriod(r.MedianPeriod)
		if err != nil {
			return WhenConfig{}, err
		}
		return BelowMedian(*r.BelowMedianPercent, period), nil
	case r.GainAbovePercent != nil:
		return GainAbove(*r.GainAbovePercent), nil
	case r.AllOf != nil:
		rules := make([]WhenConfig, 0, len(r.AllOf))
		for _, sub := range r.AllOf {
			rule, err := sub.resolve()
			if err != nil {
				return WhenConfig{}, err
			}
			rules = append(rules, rule)
		}
		return AllOf(rules...), nil
	default:
		return WhenConfig{}, nil
	}
}

func (r rawDo) resolve() (DoConfig, error) {
	if count(r.BuyPercent != nil, r.SellAll != nil, r.Nothing != nil) > 1 {
		return DoConfig{}, ErrMultipleVariants
	}
	switch {
	case r.BuyPercent != nil:
		return BuyPercent(*r.BuyPercent), nil
	case r.SellAll != nil:
		return SellAll(), nil
	default:
		return DoConfig{}, nil
	}
}

func count(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
