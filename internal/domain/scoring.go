package domain

// DefaultPassThreshold is the percentage an attempt needs to pass when the
// quiz's own passing score is not consulted.
const DefaultPassThreshold = 70

// ScoreResult is the frozen outcome of a finished attempt.
type ScoreResult struct {
	Score       int          `json:"score"`
	TotalPoints int          `json:"totalPoints"`
	Percentage  int          `json:"percentage"`
	Passed      bool         `json:"passed"`
	Feedback    FeedbackTier `json:"feedback"`
}

// Finalize scores answers against the fixed 70% threshold.
func Finalize(answers []Answer) ScoreResult {
	return FinalizeWithThreshold(answers, DefaultPassThreshold)
}

// FinalizeWithThreshold derives score, percentage, pass flag and feedback tier.
// It has no side effects and is defined for an empty list.
func FinalizeWithThreshold(answers []Answer, threshold int) ScoreResult {
	score, total := 0, 0
	for _, a := range answers {
		if a.IsCorrect {
			score += a.Points
		}
		total += a.Possible()
	}
	pct := Percentage(score, total)
	return ScoreResult{
		Score:       score,
		TotalPoints: total,
		Percentage:  pct,
		Passed:      pct >= threshold,
		Feedback:    TierFor(pct),
	}
}

// Percentage rounds score/total*100 half-up to an integer; zero when total is zero.
func Percentage(score, total int) int {
	if total <= 0 || score <= 0 {
		return 0
	}
	if score > total {
		score = total
	}
	// integer half-up: floor((200*score + total) / (2*total))
	return (200*score + total) / (2 * total)
}

// TierFor maps a percentage onto its feedback band, highest band first.
func TierFor(percentage int) FeedbackTier {
	switch {
	case percentage >= 90:
		return FeedbackExcellent
	case percentage >= 80:
		return FeedbackGood
	case percentage >= 70:
		return FeedbackAverage
	case percentage >= 60:
		return FeedbackNeedsImprovement
	default:
		return FeedbackPoor
	}
}
