package lethality

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckMinimumHoldingTime(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   bool
	}{
		{"dip breaks run", []float64{122, 122, 100, 122, 122}, false},
		{"exact run", []float64{122, 122, 122}, true},
		{"run in the middle", []float64{120, 122, 122, 122, 120}, true},
		{"at threshold counts", []float64{121.1, 121.1, 121.1}, true},
		{"just below threshold", []float64{121.09, 121.09, 121.09, 121.09}, false},
		{"too short", []float64{125, 125}, false},
		{"empty", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CheckMinimumHoldingTime(tc.series, DefaultMinHoldTemp, 3)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTotalMinutesAtOrAbove_NotConsecutive(t *testing.T) {
	series := []float64{122, 122, 100, 122, 122}
	assert.Equal(t, 4, TotalMinutesAtOrAbove(series, 121))
	assert.False(t, CheckMinimumHoldingTime(series, 121, 3))
}

func TestTotalMinutesAtOrAbove_ThresholdMatters(t *testing.T) {
	series := []float64{121, 121.05, 121.1, 121.2}
	assert.Equal(t, 4, TotalMinutesAtOrAbove(series, 121))
	assert.Equal(t, 2, TotalMinutesAtOrAbove(series, 121.1))
}

func TestLongestRunAtOrAbove(t *testing.T) {
	assert.Equal(t, 0, LongestRunAtOrAbove(nil, 121.1))
	assert.Equal(t, 2, LongestRunAtOrAbove([]float64{122, 122, 100, 122, 122}, 121.1))
	assert.Equal(t, 3, LongestRunAtOrAbove([]float64{122, 100, 122, 123, 124, 90}, 121.1))
}
