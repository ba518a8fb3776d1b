package usecase

// Confidence formula constants. These are a fixed contract: downstream
// pass/fail thresholds are calibrated to this exact shape.
const (
	confidenceStructuredBase  = 0.9
	confidenceWeakBase        = 0.5
	confidenceMatchBonus      = 0.03
	confidenceMatchBonusCap   = 0.09
	confidenceConflictPenalty = 0.1
)

// scoreConfidence derives the single gating score. Monotonically
// non-decreasing in (structured hit, semantic match count), non-increasing in
// conflict count, clamped to [0,1]. No evidence at all stays at or below 0.5.
func scoreConfidence(structuredHit bool, semanticMatches, conflicts int) float64 {
	base := confidenceWeakBase
	if structuredHit {
		base = confidenceStructuredBase
	}

	bonus := confidenceMatchBonus * float64(semanticMatches)
	if bonus > confidenceMatchBonusCap {
		bonus = confidenceMatchBonusCap
	}

	score := base + bonus - confidenceConflictPenalty*float64(conflicts)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
