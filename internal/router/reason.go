package router

import (
	"fmt"

	"github.com/dawnworks/tracer/internal/tracer"
)

// Reason explains in one sentence why worker suits target.
func Reason(worker tracer.WorkerType, target tracer.Target, score float64) string {
	switch worker {
	case tracer.Owl:
		if target.Status == tracer.StatusReblooming {
			return fmt.Sprintf("Pattern analysis of reblooming structure (depth %d, entropy %.2f)", target.Depth, target.Entropy)
		}
		return fmt.Sprintf("Deep cognitive pattern recognition in %s bloom", target.Status)
	case tracer.Crow:
		if target.SCUP.Utility < 0.4 {
			return fmt.Sprintf("SCUP weakness detected - low utility (%.2f), high pressure (%.2f)",
				target.SCUP.Utility, target.SCUP.Pressure)
		}
		return "Opportunistic analysis of cognitive vulnerabilities"
	case tracer.Spider:
		if target.TokenDensity > 0.6 {
			return fmt.Sprintf("Token bridging opportunity - high density (%.2f), %.1f complexity",
				target.TokenDensity, target.Complexity)
		}
		return "Information interconnection and synthesis pathway construction"
	case tracer.Whale:
		if target.Entropy > 0.6 {
			return fmt.Sprintf("High-density processing required - entropy %.2f, complexity %.2f",
				target.Entropy, target.Complexity)
		}
		return "Massive information consolidation and pattern extraction"
	}
	return fmt.Sprintf("Specialized cognitive analysis (score: %.2f)", score)
}
