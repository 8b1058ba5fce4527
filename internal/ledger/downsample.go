package ledger

import (
	"sort"

	"github.com/hgpartners/ledger-analytics/internal/models"
)

// Downsample reduces a per-day series to roughly target points for charting.
// Every point with activity survives unconditionally; zero-activity points
// are stride-sampled to fill whatever budget remains, then the combined set
// is re-sorted chronologically. When activity alone exceeds the target the
// output exceeds it too: losing activity is worse than an oversized chart,
// so callers needing a hard cap must pre-filter.
func Downsample(points []models.SeriesPoint, target int) []models.SeriesPoint {
	if target <= 0 || len(points) <= target {
		return points
	}

	var signal, zero []models.SeriesPoint
	for _, p := range points {
		if p.HasActivity() {
			signal = append(signal, p)
		} else {
			zero = append(zero, p)
		}
	}

	remaining := target - len(signal)
	if remaining > 0 && len(zero) > 0 {
		step := (len(zero) + remaining - 1) / remaining
		for i := 0; i < len(zero); i += step {
			signal = append(signal, zero[i])
		}
	}

	sort.Slice(signal, func(i, j int) bool {
		return signal[i].Period.Before(signal[j].Period)
	})
	return signal
}
