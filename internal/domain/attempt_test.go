package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func phishingQuestion() Question {
	return Question{
		ID:     "q1",
		Prompt: "Your bank asks for your OTP over the phone. What do you do?",
		Type:   QuestionMultipleChoice,
		Options: []Option{
			{Text: "Share it", Correct: false},
			{Text: "Hang up", Correct: true},
		},
		CorrectAnswer: "Hang up",
		Difficulty:    DifficultyEasy,
		Points:        10,
		Category:      TopicPhishing,
		Active:        true,
	}
}

func TestRecordAnswerMarksAndReplaces(t *testing.T) {
	a := NewAttempt("attempt-0001", "u1", "quiz-1", 1, t0)
	q := phishingQuestion()

	ans, err := a.RecordAnswer(q, "Share it", 12, t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if ans.IsCorrect || ans.Points != 0 || ans.MaxPoints != 10 {
		t.Fatalf("expected incorrect answer with snapshot, got %+v", ans)
	}

	ans, err = a.RecordAnswer(q, "  hang UP ", 5, t0.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !ans.IsCorrect || ans.Points != 10 {
		t.Fatalf("expected correct answer, got %+v", ans)
	}
	if len(a.Answers) != 1 {
		t.Fatalf("expected the second answer to replace the first, got %d answers", len(a.Answers))
	}
}

func TestRecordAnswerRejectsNegativeTime(t *testing.T) {
	a := NewAttempt("attempt-0001", "u1", "quiz-1", 1, t0)
	if _, err := a.RecordAnswer(phishingQuestion(), "Hang up", -1, t0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCompleteFreezesScoreAndTiming(t *testing.T) {
	a := NewAttempt("attempt-0001", "u1", "quiz-1", 1, t0)
	if _, err := a.RecordAnswer(phishingQuestion(), "Hang up", 30, t0); err != nil {
		t.Fatalf("record: %v", err)
	}
	done := t0.Add(90*time.Second + 400*time.Millisecond)
	if err := a.Complete(done, DefaultPassThreshold); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if a.Status != StatusCompleted || a.TimeSpent != 90 || a.TimeCompleted == nil || !a.TimeCompleted.Equal(done) {
		t.Fatalf("unexpected completion state: %+v", a)
	}
	if a.Score != 10 || a.Percentage != 100 || !a.Passed || a.Feedback != FeedbackExcellent {
		t.Fatalf("unexpected score: %+v", a.Result())
	}

	_, err := a.RecordAnswer(phishingQuestion(), "Share it", 1, done)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state after completion, got %v", err)
	}
	if err := a.Complete(done, DefaultPassThreshold); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected re-completion to be rejected, got %v", err)
	}
	if a.Score != 10 {
		t.Fatalf("frozen score changed: %d", a.Score)
	}
}

func TestTimeoutScoresWithoutCompletionTime(t *testing.T) {
	a := NewAttempt("attempt-0001", "u1", "quiz-1", 1, t0)
	_, _ = a.RecordAnswer(phishingQuestion(), "Share it", 30, t0)
	if err := a.Timeout(t0.Add(45*time.Minute), DefaultPassThreshold); err != nil {
		t.Fatalf("timeout: %v", err)
	}
	if a.Status != StatusTimedOut || a.TimeCompleted != nil || a.TimeSpent != 0 {
		t.Fatalf("unexpected timeout state: %+v", a)
	}
	if a.TotalPoints != 10 || a.Percentage != 0 || a.Feedback != FeedbackPoor {
		t.Fatalf("expected frozen score on timeout, got %+v", a.Result())
	}
}

func TestAbandonLeavesScoreUnset(t *testing.T) {
	a := NewAttempt("attempt-0001", "u1", "quiz-1", 1, t0)
	_, _ = a.RecordAnswer(phishingQuestion(), "Hang up", 30, t0)
	if err := a.Abandon(t0.Add(time.Minute)); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if a.Status != StatusAbandoned || a.Score != 0 || a.Feedback != "" || len(a.Answers) != 1 {
		t.Fatalf("unexpected abandoned state: %+v", a)
	}
	var stateErr *StateError
	if err := a.Abandon(t0); !errors.As(err, &stateErr) || stateErr.Status != StatusAbandoned {
		t.Fatalf("expected state error naming the status, got %v", err)
	}
}

func TestLazyTimeoutIsDerived(t *testing.T) {
	a := NewAttempt("attempt-0001", "u1", "quiz-1", 1, t0)
	now := t0.Add(45 * time.Minute)
	if !a.Expired(30, now) {
		t.Fatalf("expected attempt to be expired")
	}
	if got := a.EffectiveStatus(30, now); got != StatusTimedOut {
		t.Fatalf("expected timed-out, got %s", got)
	}
	if a.Status != StatusInProgress {
		t.Fatalf("reading the status must not mutate the attempt")
	}
	if a.Expired(30, t0.Add(29*time.Minute)) {
		t.Fatalf("attempt within the limit must not be expired")
	}
	if got := a.TimeRemaining(30, t0.Add(20*time.Minute)); got != 10 {
		t.Fatalf("expected 10 minutes remaining, got %v", got)
	}
}

func TestIssueCertificateOnce(t *testing.T) {
	a := NewAttempt("9f1c2d3e-aaaa-bbbb-cccc-0123abcdef99", "u1", "quiz-1", 1, t0)
	_, _ = a.RecordAnswer(phishingQuestion(), "Hang up", 30, t0)
	if _, err := a.IssueCertificate(t0); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected in-progress issuance to fail, got %v", err)
	}
	_ = a.Complete(t0.Add(time.Minute), DefaultPassThreshold)

	first := time.UnixMilli(1767225600123)
	id, err := a.IssueCertificate(first)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if id != "CERT-ABCDEF99-600123" {
		t.Fatalf("unexpected certificate id %q", id)
	}

	again, err := a.IssueCertificate(first.Add(time.Hour))
	if err != nil || again != id {
		t.Fatalf("expected the same id on re-issue, got %q, %v", again, err)
	}
	if !a.Certificate.IssuedAt.Equal(first) {
		t.Fatalf("issuedAt changed on second call")
	}
}

func TestIssueCertificateRequiresPass(t *testing.T) {
	a := NewAttempt("attempt-0001", "u1", "quiz-1", 1, t0)
	_, _ = a.RecordAnswer(phishingQuestion(), "Share it", 30, t0)
	_ = a.Complete(t0.Add(time.Minute), DefaultPassThreshold)

	id, err := a.IssueCertificate(t0.Add(2 * time.Minute))
	if !errors.Is(err, ErrNotPassed) || id != "" {
		t.Fatalf("expected no identifier for a failed attempt, got %q, %v", id, err)
	}
	if a.Certificate.Issued {
		t.Fatalf("certificate must stay unissued")
	}
}

func TestCanRetake(t *testing.T) {
	for n := 1; n <= 3; n++ {
		a := NewAttempt("a", "u1", "quiz-1", n, t0)
		if got, want := a.CanRetake(3), n < 3; got != want {
			t.Fatalf("attempt %d: expected canRetake=%v", n, want)
		}
	}
	if !NewAttempt("a", "u1", "quiz-1", 2, t0).CanRetake(0) {
		t.Fatalf("zero limit should fall back to three attempts")
	}
}

func TestCertificateIDShortInputs(t *testing.T) {
	id := CertificateID("abc", time.UnixMilli(42))
	if !strings.HasPrefix(id, "CERT-ABC-") || !strings.HasSuffix(id, "-42") {
		t.Fatalf("unexpected id %q", id)
	}
}

func TestStatsZeroCase(t *testing.T) {
	if got := TotalsOf(nil).Stats(); got != (UserStats{}) {
		t.Fatalf("expected zeroed stats, got %+v", got)
	}
}

func TestStatsAggregates(t *testing.T) {
	attempts := []Attempt{
		{QuizID: "q1", Score: 90, TotalPoints: 100, Percentage: 90, Passed: true, TimeSpent: 100},
		{QuizID: "q1", Score: 50, TotalPoints: 100, Percentage: 50, TimeSpent: 60},
		{QuizID: "q2", Score: 7, TotalPoints: 10, Percentage: 70, Passed: true, TimeSpent: 20},
	}
	got := TotalsOf(attempts).Stats()
	want := UserStats{
		TotalAttempts:  3,
		TotalQuizzes:   2,
		TotalScore:     147,
		TotalPoints:    210,
		PassedAttempts: 2,
		AverageScore:   70,
		TotalTimeSpent: 180,
		SuccessRate:    67,
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
