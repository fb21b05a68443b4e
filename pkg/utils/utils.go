package utils

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Round2 rounds a monetary value to cents, half away from zero.
func Round2(value float64) float64 {
	if !IsFinite(value) {
		return value
	}
	return decimal.NewFromFloat(value).Round(2).InexactFloat64()
}

// IsFinite reports whether value is neither infinite nor NaN.
func IsFinite(value float64) bool {
	return !math.IsInf(value, 0) && !math.IsNaN(value)
}

// OrZero maps NaN and infinities to 0.
func OrZero(value float64) float64 {
	if !IsFinite(value) {
		return 0
	}
	return value
}

// FormatCurrency renders an amount as US dollars with thousands separators, e.g. -$1,234.50.
func FormatCurrency(amount float64) string {
	d := decimal.NewFromFloat(OrZero(amount)).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	s := d.StringFixed(2)
	whole, frac := s[:len(s)-3], s[len(s)-2:]

	var out []byte
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, byte(c))
	}
	return sign + "$" + string(out) + "." + frac
}

// AddMonths moves t forward by n months keeping the day of month. When the
// target month is shorter, the result is clamped to its last day.
func AddMonths(t time.Time, n int) time.Time {
	if n <= 0 {
		return t
	}
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// PayoffLabel formats the month in which a debt retires, counted from start.
func PayoffLabel(start time.Time, months int) string {
	if months <= 0 {
		return ""
	}
	return AddMonths(start, months).Format("January 2006")
}
