package domain

import "testing"

func answers(correct, wrong, points int) []Answer {
	out := make([]Answer, 0, correct+wrong)
	for i := 0; i < correct; i++ {
		out = append(out, Answer{Points: points, IsCorrect: true})
	}
	for i := 0; i < wrong; i++ {
		out = append(out, Answer{Points: points, IsCorrect: false})
	}
	return out
}

func TestFinalizeHalfCorrect(t *testing.T) {
	got := Finalize(answers(1, 1, 10))
	want := ScoreResult{Score: 10, TotalPoints: 20, Percentage: 50, Passed: false, Feedback: FeedbackPoor}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestFinalizeNineOfTen(t *testing.T) {
	got := Finalize(answers(9, 1, 10))
	want := ScoreResult{Score: 90, TotalPoints: 100, Percentage: 90, Passed: true, Feedback: FeedbackExcellent}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestFinalizeEmpty(t *testing.T) {
	got := Finalize(nil)
	if got.Percentage != 0 || got.Passed || got.Feedback != FeedbackPoor || got.TotalPoints != 0 {
		t.Fatalf("unexpected result for empty answers: %+v", got)
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	in := []Answer{
		{Points: 10, IsCorrect: true},
		{Points: 0, IsCorrect: false, MaxPoints: 5},
		{Points: 20, IsCorrect: true},
	}
	first := Finalize(in)
	second := Finalize(in)
	if first != second {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestFinalizeUsesSnapshotForTotal(t *testing.T) {
	// incorrect answers carry zero awarded points but still count their question's value
	in := []Answer{
		{Points: 10, MaxPoints: 10, IsCorrect: true},
		{Points: 0, MaxPoints: 10, IsCorrect: false},
		{Points: 0, MaxPoints: 10, IsCorrect: false},
	}
	got := Finalize(in)
	if got.Score != 10 || got.TotalPoints != 30 || got.Percentage != 33 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestFinalizeWithThreshold(t *testing.T) {
	in := answers(3, 1, 10) // 75%
	if !Finalize(in).Passed {
		t.Fatalf("75%% should pass the fixed threshold")
	}
	if FinalizeWithThreshold(in, 80).Passed {
		t.Fatalf("75%% should fail an 80%% threshold")
	}
}

func TestPercentageBoundsAndRounding(t *testing.T) {
	cases := []struct {
		score, total, want int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 10, 0},
		{10, 10, 100},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},  // 12.5 rounds up
		{1, 200, 1}, // 0.5 rounds up
		{199, 200, 100},
	}
	for _, tc := range cases {
		if got := Percentage(tc.score, tc.total); got != tc.want {
			t.Fatalf("Percentage(%d, %d): expected %d, got %d", tc.score, tc.total, tc.want, got)
		}
	}
	for total := 1; total <= 40; total++ {
		for score := 0; score <= total; score++ {
			p := Percentage(score, total)
			if p < 0 || p > 100 {
				t.Fatalf("Percentage(%d, %d) out of bounds: %d", score, total, p)
			}
		}
	}
}

func TestTierPartition(t *testing.T) {
	want := map[int]FeedbackTier{
		0: FeedbackPoor, 59: FeedbackPoor,
		60: FeedbackNeedsImprovement, 69: FeedbackNeedsImprovement,
		70: FeedbackAverage, 79: FeedbackAverage,
		80: FeedbackGood, 89: FeedbackGood,
		90: FeedbackExcellent, 100: FeedbackExcellent,
	}
	for pct, tier := range want {
		if got := TierFor(pct); got != tier {
			t.Fatalf("TierFor(%d): expected %s, got %s", pct, tier, got)
		}
	}
	counts := map[FeedbackTier]int{}
	for pct := 0; pct <= 100; pct++ {
		counts[TierFor(pct)]++
	}
	if counts[FeedbackPoor] != 60 || counts[FeedbackNeedsImprovement] != 10 || counts[FeedbackAverage] != 10 ||
		counts[FeedbackGood] != 10 || counts[FeedbackExcellent] != 11 {
		t.Fatalf("unexpected band sizes: %v", counts)
	}
}
