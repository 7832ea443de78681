package analysis

import "time"

// Range is a UTC window from Start to End.
type Range struct {
	Start time.Time
	End   time.Time
}

// PreviousTradingDay steps back over weekends only; holidays are not known.
func PreviousTradingDay(day time.Time) time.Time {
	switch day.Weekday() {
	case time.Sunday:
		return day.AddDate(0, 0, -2)
	case time.Monday:
		return day.AddDate(0, 0, -3)
	default:
		return day.AddDate(0, 0, -1)
	}
}

// LastTradingDay covers the whole of the most recent trading day before now.
func LastTradingDay(now time.Time) Range {
	day := PreviousTradingDay(startOfDay(now))
	return dayRange(day, day)
}

// LastNDays runs from n days ago through the end of yesterday.
func LastNDays(now time.Time, n int) Range {
	today := startOfDay(now)
	return dayRange(today.AddDate(0, 0, -n), today.AddDate(0, 0, -1))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayRange(start, end time.Time) Range {
	return Range{
		Start: start,
		End:   end.Add(23*time.Hour + 59*time.Minute),
	}
}
