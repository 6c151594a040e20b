package chart

import (
	"fmt"
	"math"
	"strconv"
)

const notAvailable = "N/A"

func missing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// FormatPrice renders a price as dollars. NaN renders as N/A.
func FormatPrice(price float64) string {
	if missing(price) {
		return notAvailable
	}
	return fmt.Sprintf("$%.2f", price)
}

// FormatChange renders a signed dollar change.
func FormatChange(change float64) string {
	if missing(change) {
		return notAvailable
	}
	sign := ""
	if change >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s$%.2f", sign, change)
}

// FormatChangePercent renders change relative to the previous price
// (last - change). A previous price of zero renders as N/A.
func FormatChangePercent(change, last float64) string {
	if missing(change) || missing(last) {
		return notAvailable
	}
	prev := last - change
	if math.Abs(prev) < 1e-12 {
		return notAvailable
	}
	percent := change / prev * 100
	sign := ""
	if percent >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, percent)
}

// FormatVolume abbreviates thousands and millions.
func FormatVolume(volume float64) string {
	switch {
	case missing(volume):
		return notAvailable
	case volume >= 1e6:
		return fmt.Sprintf("%.1fM", volume/1e6)
	case volume >= 1e3:
		return fmt.Sprintf("%.1fK", volume/1e3)
	}
	return strconv.FormatFloat(volume, 'f', -1, 64)
}
