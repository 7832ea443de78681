package broker

import "github.com/shopspring/decimal"

const (
	quantityPlaces = 7
	notionalPlaces = 2
)

// RoundQuantity floors a share quantity to the precision the broker accepts.
func RoundQuantity(value float64) float64 {
	return floorTo(value, quantityPlaces).InexactFloat64()
}

// RoundNotional floors a dollar amount to cents.
func RoundNotional(value float64) float64 {
	return floorTo(value, notionalPlaces).InexactFloat64()
}

func floorTo(value float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(value).RoundFloor(places)
}

func (a Amount) decimal() decimal.Decimal {
	if a.Kind == KindNotional {
		return floorTo(a.Value, notionalPlaces)
	}
	return floorTo(a.Value, quantityPlaces)
}
