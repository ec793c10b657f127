package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatters(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"float rounds to two places", formatFloat(13.456), "13.46"},
		{"float pads zeros", formatFloat(13.4), "13.40"},
		{"negative float", formatFloat(-2), "-2.00"},
		{"count drops decimals", formatCount(1234.4), "1234"},
		{"percent from fraction", formatPercent(0.0125), "1.25%"},
		{"zero percent", formatPercent(0), "0.00%"},
		{"ratio", formatRatio(3.14159), "3.14x"},
		{"list", formatList([]string{"Meta", "TikTok"}), "Meta, TikTok"},
		{"empty list", formatList(nil), "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 1.23, round2(1.2345))
	assert.Equal(t, 0.0123, round4(0.012345))
}
