package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"cybershield-quiz-service/internal/domain"
)

var base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func TestAttemptStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()

	a := domain.NewAttempt("a1", "u1", "quiz-1", 1, base)
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := domain.NewAttempt("a2", "u1", "quiz-1", 1, base)
	if err := store.Create(ctx, dup); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected conflict for duplicate attempt number, got %v", err)
	}

	a.Answers = append(a.Answers, domain.Answer{QuestionID: "q1"})
	if err := store.Update(ctx, a); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := store.Get(ctx, "a1")
	if err != nil || len(got.Answers) != 1 {
		t.Fatalf("expected stored answer, got %+v, %v", got, err)
	}
	got.Answers[0].QuestionID = "mutated"
	again, _ := store.Get(ctx, "a1")
	if again.Answers[0].QuestionID != "q1" {
		t.Fatalf("store leaked its answers slice")
	}

	if err := store.Update(ctx, domain.NewAttempt("missing", "u1", "quiz-1", 9, base)); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
}

func TestAttemptStoreQueries(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	passed := true

	seed := []domain.Attempt{
		{ID: "a1", UserID: "u1", QuizID: "quiz-1", AttemptNumber: 1, Status: domain.StatusCompleted, Score: 80, TimeSpent: 300, Passed: true, Percentage: 80, TotalPoints: 100, TimeStarted: base},
		{ID: "a2", UserID: "u1", QuizID: "quiz-1", AttemptNumber: 2, Status: domain.StatusCompleted, Score: 80, TimeSpent: 200, Passed: true, Percentage: 80, TotalPoints: 100, TimeStarted: base.Add(time.Hour)},
		{ID: "a3", UserID: "u1", QuizID: "quiz-2", AttemptNumber: 1, Status: domain.StatusAbandoned, TimeStarted: base.Add(2 * time.Hour)},
		{ID: "a4", UserID: "u2", QuizID: "quiz-1", AttemptNumber: 1, Status: domain.StatusCompleted, Score: 100, TimeStarted: base},
	}
	for _, a := range seed {
		if err := store.Create(ctx, a); err != nil {
			t.Fatalf("seed %s: %v", a.ID, err)
		}
	}

	all, _ := store.FindByUser(ctx, "u1", domain.AttemptFilter{})
	if len(all) != 3 || all[0].ID != "a3" || all[2].ID != "a1" {
		t.Fatalf("expected most recent first, got %v", attemptIDs(all))
	}
	onlyPassed, _ := store.FindByUser(ctx, "u1", domain.AttemptFilter{Passed: &passed})
	if len(onlyPassed) != 2 {
		t.Fatalf("expected 2 passed attempts, got %d", len(onlyPassed))
	}

	best, err := store.FindBest(ctx, "u1", "quiz-1")
	if err != nil || best.ID != "a2" {
		t.Fatalf("expected faster attempt a2 to win the tie, got %s, %v", best.ID, err)
	}
	if _, err := store.FindBest(ctx, "u3", "quiz-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for a user without attempts, got %v", err)
	}

	n, _ := store.CountByUserQuiz(ctx, "u1", "quiz-1")
	if n != 2 {
		t.Fatalf("expected 2 attempts, got %d", n)
	}

	stats := func(user string) domain.UserStats {
		totals, err := store.UserTotals(ctx, user)
		if err != nil {
			t.Fatalf("totals: %v", err)
		}
		return totals.Stats()
	}
	got := stats("u1")
	if got.TotalAttempts != 3 || got.TotalQuizzes != 2 || got.PassedAttempts != 2 || got.SuccessRate != 67 || got.AverageScore != 53.33 {
		t.Fatalf("unexpected stats %+v", got)
	}
	if stats("nobody") != (domain.UserStats{}) {
		t.Fatalf("expected zeroed stats for unknown user")
	}
}

func attemptIDs(attempts []domain.Attempt) []string {
	out := make([]string, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, a.ID)
	}
	return out
}
