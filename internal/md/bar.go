package md

import (
	"math"
	"time"
)

type Bar struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

func (b Bar) Average() float64 {
	return (b.Low + b.High) / 2
}

func (b Bar) Change() float64 {
	return b.Close - b.Open
}

// ChangePercent is the change relative to the open; zero when the open is zero.
func (b Bar) ChangePercent() float64 {
	if b.Open == 0 {
		return 0
	}
	return b.Change() / b.Open * 100
}

// Join merges two bars into one bar spanning both periods. The argument order
// does not matter; the earlier bar supplies the timestamp and open.
func (b Bar) Join(other Bar) Bar {
	first, last := b, other
	if other.Timestamp.Before(b.Timestamp) {
		first, last = other, b
	}
	return Bar{
		Timestamp: first.Timestamp,
		Open:      first.Open,
		Close:     last.Close,
		High:      math.Max(first.High, last.High),
		Low:       math.Min(first.Low, last.Low),
	}
}
