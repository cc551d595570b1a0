// Package format turns numbers and timestamps into dashboard strings.
package format

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// NA is shown for missing values
const NA = "N/A"

// DateLayout is the timestamp layout of the "Last updated" line
const DateLayout = "1/2/2006, 3:04:05 PM"

// Number groups an integer with commas: 1234567 -> "1,234,567"
func Number(n int64) string {
	return humanize.Comma(n)
}

// NumberOrNA is Number for optional values
func NumberOrNA(n *int64) string {
	if n == nil {
		return NA
	}
	return Number(*n)
}

// Decimal groups the integer part with commas and keeps up to two decimals
func Decimal(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NA
	}
	return humanize.CommafWithDigits(f, 2)
}

// Compact abbreviates large values: 1234567 -> "1.23M", 4321 -> "4.32K", 12 -> "12.00"
func Compact(f float64) string {
	switch {
	case f >= 1e6:
		return fmt.Sprintf("%.2fM", f/1e6)
	case f >= 1e3:
		return fmt.Sprintf("%.2fK", f/1e3)
	default:
		return fmt.Sprintf("%.2f", f)
	}
}

// Percentage returns part/total with two decimals, "N/A" when either is zero
func Percentage(part, total int64) string {
	if part == 0 || total == 0 {
		return NA
	}
	return Percent(float64(part)/float64(total)*100, 2)
}

// Percent formats an already computed percentage
func Percent(pct float64, digits int) string {
	return fmt.Sprintf("%.*f%%", digits, pct)
}

// Date formats an epoch-ms timestamp in local time
func Date(ms int64) string {
	return DateIn(ms, time.Local)
}

// DateIn formats an epoch-ms timestamp in loc
func DateIn(ms int64, loc *time.Location) string {
	return time.UnixMilli(ms).In(loc).Format(DateLayout)
}

// Since describes how long ago an epoch-ms timestamp was: "5 minutes ago"
func Since(ms int64, now time.Time) string {
	if ms <= 0 {
		return "never"
	}
	return humanize.RelTime(time.UnixMilli(ms), now, "ago", "from now")
}
