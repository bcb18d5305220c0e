package scoring

import (
	"math"

	"github.com/dawnworks/tracer/internal/tracer"
)

// FamilyMatchFloor is the score a worker must exceed to be suggested for a family.
const FamilyMatchFloor = 0.4

// FamilyMatch scores how well a worker profile suits a genealogy family of the
// given depth, size and average entropy drift. The result is in [0,1].
func FamilyMatch(profile tracer.WorkerProfile, depth, size int, avgEntropy float64) float64 {
	var score float64

	if d := profile.DepthRange.Distance(float64(depth)); d == 0 {
		score += 0.3
	} else {
		score += math.Max(0, 0.3-0.1*d)
	}

	score += sizeTier(profile.Type, size)

	er := profile.EntropyRange
	switch {
	case er.Contains(avgEntropy):
		score += 0.4
	case avgEntropy < er.Min:
		if er.Min > 0 {
			score += math.Max(0, avgEntropy/er.Min*0.4)
		}
	default:
		score += math.Max(0, er.Max/avgEntropy*0.4)
	}

	return math.Min(1, score)
}

func sizeTier(w tracer.WorkerType, size int) float64 {
	switch {
	case w == tracer.Whale && size > 10:
		return 0.3
	case w == tracer.Spider && size >= 5:
		return 0.25
	case w == tracer.Owl && size >= 3 && size <= 12:
		return 0.25
	case w == tracer.Crow && size < 8:
		return 0.2
	default:
		return 0
	}
}
