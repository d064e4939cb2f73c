package share

import (
	"github.com/dustin/go-humanize"
)

// FormatNumber renders numbers with thousands separators, floats with one
// decimal.
func FormatNumber(value interface{}) string {
	switch e := value.(type) {
	case float32:
		return humanize.CommafWithDigits(float64(e), 1)
	case float64:
		return humanize.CommafWithDigits(e, 1)
	case int:
		return humanize.Comma(int64(e))
	case int64:
		return humanize.Comma(e)
	}
	return ""
}

// FormatPercent renders a percentile with one decimal.
func FormatPercent(v float64) string {
	if v <= 0 {
		return "-"
	}
	return humanize.FtoaWithDigits(v, 1)
}
