package statsview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/stats"
)

func TestNextMilestone(t *testing.T) {
	tests := []struct {
		total int
		want  int
		ok    bool
	}{
		{0, 10, true},
		{10, 50, true},
		{499, 500, true},
		{10000, 0, false},
	}
	for _, tt := range tests {
		got, ok := NextMilestone(tt.total)
		assert.Equal(t, tt.want, got, "total %d", tt.total)
		assert.Equal(t, tt.ok, ok, "total %d", tt.total)
	}
}

func TestChartScalesToPeak(t *testing.T) {
	days := []stats.DayCount{
		{Date: model.Date("2026-10-12"), Count: 0},
		{Date: model.Date("2026-10-13"), Count: 1},
		{Date: model.Date("2026-10-14"), Count: 40},
	}
	lines := strings.Split(Chart(days), "\n")
	if assert.Len(t, lines, 3) {
		assert.Equal(t, 0, strings.Count(lines[0], "█"))
		assert.Equal(t, 1, strings.Count(lines[1], "█"))
		assert.Equal(t, barWidth, strings.Count(lines[2], "█"))
		assert.Contains(t, lines[2], "Wed")
	}
}
