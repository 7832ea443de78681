package md

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"tacticbot/internal/asset"
)

// Series is an ordered run of bars for one symbol, oldest first.
type Series struct {
	Symbol asset.Symbol `json:"symbol"`
	Bars   []Bar        `json:"bars"`
}

func (s Series) IsEmpty() bool {
	return len(s.Bars) == 0
}

func (s Series) Len() int {
	return len(s.Bars)
}

// Median returns the median of values without modifying them. The second
// return is false for empty input.
func Median(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2, true
	}
	return sorted[mid], true
}

func (s Series) MedianOf(selector func(Bar) float64) (float64, bool) {
	values := make([]float64, 0, len(s.Bars))
	for _, bar := range s.Bars {
		values = append(values, selector(bar))
	}
	return Median(values)
}

func (s Series) AverageMedian() (float64, bool) {
	return s.MedianOf(Bar.Average)
}

// DisplacementPercents is each bar's average expressed as a percent
// above (positive) or below (negative) the series' average median.
func (s Series) DisplacementPercents() []float64 {
	median, ok := s.AverageMedian()
	if !ok || median == 0 {
		return nil
	}
	out := make([]float64, 0, len(s.Bars))
	for _, bar := range s.Bars {
		out = append(out, (bar.Average()-median)/median*100)
	}
	return out
}

func (s Series) PositivePercentMedian() (float64, bool) {
	return Median(filter(s.DisplacementPercents(), func(v float64) bool { return v >= 0 }))
}

func (s Series) NegativePercentMedian() (float64, bool) {
	return Median(filter(s.DisplacementPercents(), func(v float64) bool { return v <= 0 }))
}

// PeriodBar joins the first and last bar of the series.
func (s Series) PeriodBar() (Bar, bool) {
	if s.IsEmpty() {
		return Bar{}, false
	}
	return s.Bars[0].Join(s.Bars[len(s.Bars)-1]), true
}

func (s Series) MeanClose() (float64, bool) {
	if s.IsEmpty() {
		return 0, false
	}
	return stat.Mean(s.closes(), nil), true
}

// VolumeWeightedClose weights every close by its bar volume. It falls back
// to the plain mean when the series carries no volume.
func (s Series) VolumeWeightedClose() (float64, bool) {
	if s.IsEmpty() {
		return 0, false
	}
	weights := make([]float64, len(s.Bars))
	total := 0.0
	for i, bar := range s.Bars {
		weights[i] = bar.Volume
		total += bar.Volume
	}
	if total == 0 {
		return stat.Mean(s.closes(), nil), true
	}
	return stat.Mean(s.closes(), weights), true
}

func (s Series) closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, bar := range s.Bars {
		out[i] = bar.Close
	}
	return out
}

func filter(values []float64, keep func(float64) bool) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
