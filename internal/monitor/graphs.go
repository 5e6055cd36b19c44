package monitor

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sparkLevels are the eight bar heights, lowest first.
var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// sparkLevel maps a machine CPU share (0-100) to an index into sparkLevels.
// Any non-zero load gets at least the lowest bar; only 100% reaches the top.
func sparkLevel(percent float64) int {
	top := len(sparkLevels) - 1
	if percent <= 0 || math.IsNaN(percent) {
		return 0
	}
	if percent >= 100 {
		return top
	}
	return clamp(int(math.Ceil(percent/100*float64(top))), 0, top)
}

// Sparkline draws the last width readings of a CPU trend, newest at the
// right edge. Shorter histories are padded on the left so trends of
// different ages stay aligned in a column. Colored by the newest reading.
func Sparkline(readings []float64, width int) string {
	if len(readings) == 0 || width <= 0 {
		return ""
	}
	if len(readings) > width {
		readings = readings[len(readings)-width:]
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", width-len(readings)))
	for _, v := range readings {
		b.WriteRune(sparkLevels[sparkLevel(v)])
	}

	latest := readings[len(readings)-1]
	return lipgloss.NewStyle().Foreground(MetricColor(latest)).Render(b.String())
}
