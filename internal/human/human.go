// Package human renders raw magnitudes as fixed, locale-independent display
// strings. Every value keeps exactly two decimals.
package human

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rsvihladremio/dqd-sub002/internal/models"
)

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
)

const (
	kilo = 1000
	mega = 1000 * kilo
	giga = 1000 * mega
)

// TimestampLayout is used for every absolute time shown in a report.
const TimestampLayout = "2006-01-02 15:04:05.000"

var countPrinter = message.NewPrinter(language.AmericanEnglish)

// Duration scales a millisecond count to ms, seconds, minutes or hours.
func Duration(ms float64) models.DisplayValue {
	var text string
	switch {
	case ms < msPerSecond:
		text = Fixed2(ms) + " ms"
	case ms < msPerMinute:
		text = Fixed2(ms/msPerSecond) + " seconds"
	case ms < msPerHour:
		text = Fixed2(ms/msPerMinute) + " minutes"
	default:
		text = Fixed2(ms/msPerHour) + " hours"
	}
	return models.NumericValue(text, ms)
}

// Bytes scales a byte count using powers of 1000. GB is the largest unit.
func Bytes(n float64) models.DisplayValue {
	var text string
	switch {
	case n < kilo:
		text = Fixed2(n) + " B"
	case n < mega:
		text = Fixed2(n/kilo) + " KB"
	case n < giga:
		text = Fixed2(n/mega) + " MB"
	default:
		text = Fixed2(n/giga) + " GB"
	}
	return models.NumericValue(text, n)
}

// Percent renders v followed by a percent sign.
func Percent(v float64) models.DisplayValue {
	return models.NumericValue(Fixed2(v)+"%", v)
}

// Number renders a unitless sensor value.
func Number(v float64) models.DisplayValue {
	return models.NumericValue(Fixed2(v), v)
}

// EpochMillis renders an epoch millisecond timestamp in UTC.
func EpochMillis(ms int64) models.DisplayValue {
	return models.NumericValue(time.UnixMilli(ms).UTC().Format(TimestampLayout), float64(ms))
}

// Count renders an integer with US digit grouping.
func Count(n int64) string {
	return countPrinter.Sprintf("%d", n)
}

// Round2 rounds v half-up to two decimals.
func Round2(v float64) float64 {
	f, err := strconv.ParseFloat(Fixed2(v), 64)
	if err != nil {
		return v
	}
	return f
}

// Fixed2 formats v with two decimals, rounding halves away from zero.
// Rounding is applied to the shortest decimal form of v, so 2.675 becomes
// 2.68 even though its binary value is slightly below the midpoint.
func Fixed2(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	neg := v < 0
	if neg {
		v = -v
	}
	intPart, frac, _ := strings.Cut(strconv.FormatFloat(v, 'f', -1, 64), ".")
	for len(frac) < 3 {
		frac += "0"
	}
	digits := intPart + frac[:2]
	if frac[2] >= '5' {
		digits = increment(digits)
	}
	out := digits[:len(digits)-2] + "." + digits[len(digits)-2:]
	if neg && out != "0.00" {
		out = "-" + out
	}
	return out
}

// increment adds one to a string of decimal digits.
func increment(digits string) string {
	b := []byte(digits)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	return "1" + string(b)
}
