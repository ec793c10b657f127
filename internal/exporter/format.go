package exporter

import (
	"fmt"
	"strings"
)

// formatFloat formats a value with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatCount formats an additive counter without decimals
func formatCount(f float64) string {
	return fmt.Sprintf("%.0f", f)
}

// formatPercent formats a fraction as a percentage
func formatPercent(frac float64) string {
	return fmt.Sprintf("%.2f%%", frac*100)
}

// formatRatio formats a return multiple such as ROAS
func formatRatio(f float64) string {
	return fmt.Sprintf("%.2fx", f)
}

// formatList joins values, or returns "-" for an empty list
func formatList(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
