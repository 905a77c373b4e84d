package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const certificatePrefix = "CERT"

// Answer is one submitted answer. The question's prompt, canonical answer and
// point value are copied in so the attempt stays reproducible after quiz edits.
type Answer struct {
	QuestionID     string `json:"questionId" bson:"questionId"`
	SelectedAnswer string `json:"selectedAnswer" bson:"selectedAnswer"`
	IsCorrect      bool   `json:"isCorrect" bson:"isCorrect"`
	TimeSpent      int    `json:"timeSpent" bson:"timeSpent"` // seconds
	Points         int    `json:"points" bson:"points"`

	Prompt        string `json:"prompt,omitempty" bson:"prompt,omitempty"`
	CorrectAnswer string `json:"correctAnswer,omitempty" bson:"correctAnswer,omitempty"`
	MaxPoints     int    `json:"maxPoints,omitempty" bson:"maxPoints,omitempty"`

	Category QuestionCategory `json:"category,omitempty" bson:"category,omitempty"`
}

// Possible is the point value the answer counts toward the total.
// Answers without a snapshot fall back to their own points.
func (a Answer) Possible() int {
	if a.MaxPoints > 0 {
		return a.MaxPoints
	}
	return a.Points
}

// AnswerSubmission is what a taker sends for one question.
type AnswerSubmission struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
	TimeSpent  int    `json:"timeSpent"`
}

// AnswerResult summarizes the outcome of a single submission.
type AnswerResult struct {
	QuestionID string `json:"questionId"`
	Correct    bool   `json:"correct"`
	Awarded    int    `json:"awarded"`
	Answered   int    `json:"answered"`
	RunningPct int    `json:"runningPercentage"`
}

// Certificate records the one-way issuance of a completion certificate.
type Certificate struct {
	Issued   bool       `json:"issued" bson:"issued"`
	IssuedAt *time.Time `json:"issuedAt,omitempty" bson:"issuedAt,omitempty"`
	ID       string     `json:"certificateId,omitempty" bson:"certificateId,omitempty"`
}

// Attempt is one user's run through a quiz.
type Attempt struct {
	ID            string        `json:"id" bson:"_id"`
	UserID        string        `json:"userId" bson:"userId"`
	QuizID        string        `json:"quizId" bson:"quizId"`
	AttemptNumber int           `json:"attemptNumber" bson:"attemptNumber"`
	Status        AttemptStatus `json:"status" bson:"status"`
	Answers       []Answer      `json:"answers" bson:"answers"`

	Score       int          `json:"score" bson:"score"`
	TotalPoints int          `json:"totalPoints" bson:"totalPoints"`
	Percentage  int          `json:"percentage" bson:"percentage"`
	Passed      bool         `json:"passed" bson:"passed"`
	Feedback    FeedbackTier `json:"feedback,omitempty" bson:"feedback,omitempty"`
	Review      Review       `json:"review" bson:"review"`

	TimeStarted   time.Time  `json:"timeStarted" bson:"timeStarted"`
	TimeCompleted *time.Time `json:"timeCompleted,omitempty" bson:"timeCompleted,omitempty"`
	TimeSpent     int        `json:"timeSpent" bson:"timeSpent"` // seconds

	Certificate Certificate `json:"certificate" bson:"certificate"`
	UpdatedAt   time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// NewAttempt opens an in-progress attempt.
func NewAttempt(id, userID, quizID string, number int, now time.Time) Attempt {
	return Attempt{
		ID:            id,
		UserID:        userID,
		QuizID:        quizID,
		AttemptNumber: number,
		Status:        StatusInProgress,
		Answers:       []Answer{},
		TimeStarted:   now,
		UpdatedAt:     now,
	}
}

// RecordAnswer marks the submission against the question's canonical answer and
// appends it, replacing any earlier answer to the same question.
func (a *Attempt) RecordAnswer(q Question, selected string, timeSpent int, now time.Time) (Answer, error) {
	if a.Status != StatusInProgress {
		return Answer{}, &StateError{Op: "record answer", Status: a.Status}
	}
	if timeSpent < 0 {
		verr := &ValidationError{}
		verr.add("timeSpent", "must not be negative")
		return Answer{}, verr
	}
	correct := q.IsCorrect(selected)
	answer := Answer{
		QuestionID:     q.ID,
		SelectedAnswer: selected,
		IsCorrect:      correct,
		TimeSpent:      timeSpent,
		Prompt:         q.Prompt,
		CorrectAnswer:  q.CorrectAnswer,
		MaxPoints:      q.Points,
		Category:       q.Category,
	}
	if correct {
		answer.Points = q.Points
	}

	replaced := false
	for i := range a.Answers {
		if a.Answers[i].QuestionID == q.ID {
			a.Answers[i] = answer
			replaced = true
			break
		}
	}
	if !replaced {
		a.Answers = append(a.Answers, answer)
	}
	a.UpdatedAt = now
	return answer, nil
}

// Complete finishes the attempt normally and freezes its score.
func (a *Attempt) Complete(now time.Time, threshold int) error {
	if a.Status != StatusInProgress {
		return &StateError{Op: "complete", Status: a.Status}
	}
	a.Status = StatusCompleted
	completed := now
	a.TimeCompleted = &completed
	a.TimeSpent = elapsedSeconds(a.TimeStarted, now)
	a.freeze(threshold)
	a.UpdatedAt = now
	return nil
}

// Timeout closes an attempt whose time limit elapsed and freezes its score.
func (a *Attempt) Timeout(now time.Time, threshold int) error {
	if a.Status != StatusInProgress {
		return &StateError{Op: "time out", Status: a.Status}
	}
	a.Status = StatusTimedOut
	a.freeze(threshold)
	a.UpdatedAt = now
	return nil
}

// Abandon closes the attempt without scoring it. Recorded answers are kept.
func (a *Attempt) Abandon(now time.Time) error {
	if a.Status != StatusInProgress {
		return &StateError{Op: "abandon", Status: a.Status}
	}
	a.Status = StatusAbandoned
	a.UpdatedAt = now
	return nil
}

func (a *Attempt) freeze(threshold int) {
	result := FinalizeWithThreshold(a.Answers, threshold)
	a.Score = result.Score
	a.TotalPoints = result.TotalPoints
	a.Percentage = result.Percentage
	a.Passed = result.Passed
	a.Feedback = result.Feedback
	a.Review = ReviewOf(a.Answers)
}

// Result returns the frozen outcome.
func (a Attempt) Result() ScoreResult {
	return ScoreResult{
		Score:       a.Score,
		TotalPoints: a.TotalPoints,
		Percentage:  a.Percentage,
		Passed:      a.Passed,
		Feedback:    a.Feedback,
	}
}

// IssueCertificate issues the certificate once. A second call returns the
// existing identifier without touching issuedAt.
func (a *Attempt) IssueCertificate(now time.Time) (string, error) {
	if !a.Status.Terminal() {
		return "", &StateError{Op: "issue certificate", Status: a.Status}
	}
	if !a.Passed {
		return "", ErrNotPassed
	}
	if a.Certificate.Issued {
		return a.Certificate.ID, nil
	}
	issuedAt := now
	a.Certificate = Certificate{
		Issued:   true,
		IssuedAt: &issuedAt,
		ID:       CertificateID(a.ID, now),
	}
	a.UpdatedAt = now
	return a.Certificate.ID, nil
}

// CertificateID combines the prefix, the last 8 characters of the attempt ID
// upper-cased and the last 6 digits of the epoch-millisecond timestamp.
func CertificateID(attemptID string, now time.Time) string {
	tail := attemptID
	if len(tail) > 8 {
		tail = tail[len(tail)-8:]
	}
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return fmt.Sprintf("%s-%s-%s", certificatePrefix, strings.ToUpper(tail), ms)
}

// CanRetake reports whether another attempt may be started after this one.
// A non-positive limit falls back to the default of three attempts.
func (a Attempt) CanRetake(maxAttempts int) bool {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return a.AttemptNumber < maxAttempts
}

// Expired reports whether an in-progress attempt has outlived the time limit.
func (a Attempt) Expired(timeLimitMinutes int, now time.Time) bool {
	if a.Status != StatusInProgress {
		return false
	}
	return now.Sub(a.TimeStarted) > limitDuration(timeLimitMinutes)
}

// EffectiveStatus is the status callers should act on: a stale in-progress
// attempt past its limit reads as timed out.
func (a Attempt) EffectiveStatus(timeLimitMinutes int, now time.Time) AttemptStatus {
	if a.Expired(timeLimitMinutes, now) {
		return StatusTimedOut
	}
	return a.Status
}

// TimeRemaining is the number of minutes left, zero unless in progress.
func (a Attempt) TimeRemaining(timeLimitMinutes int, now time.Time) float64 {
	if a.Status != StatusInProgress {
		return 0
	}
	left := limitDuration(timeLimitMinutes) - now.Sub(a.TimeStarted)
	if left <= 0 {
		return 0
	}
	return left.Minutes()
}

// DurationMinutes is the time spent in minutes, rounded to two decimals.
func (a Attempt) DurationMinutes() float64 {
	return math.Round(float64(a.TimeSpent)/60*100) / 100
}

func limitDuration(minutes int) time.Duration {
	if minutes <= 0 {
		minutes = DefaultTimeLimit
	}
	return time.Duration(minutes) * time.Minute
}

func elapsedSeconds(from, to time.Time) int {
	secs := int(math.Round(to.Sub(from).Seconds()))
	if secs < 0 {
		return 0
	}
	return secs
}

// AttemptFilter narrows a user's attempt history. Nil or empty fields match everything.
type AttemptFilter struct {
	QuizID string
	Status AttemptStatus
	Passed *bool
}

// Matches applies the filter in memory.
func (f AttemptFilter) Matches(a Attempt) bool {
	if f.QuizID != "" && a.QuizID != f.QuizID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Passed != nil && a.Passed != *f.Passed {
		return false
	}
	return true
}

// BetterThan orders attempts for best-attempt lookup: higher score wins, then less time spent.
func (a Attempt) BetterThan(b Attempt) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.TimeSpent < b.TimeSpent
}

// AttemptView is an attempt joined with a projection of its quiz and the
// values derived at read time.
type AttemptView struct {
	Attempt
	Quiz            QuizSummary `json:"quiz"`
	CanRetake       bool        `json:"canRetake"`
	TimeRemaining   float64     `json:"timeRemaining"`
	DurationMinutes float64     `json:"durationMinutes"`
}

// NewAttemptView derives the read-time fields against the owning quiz.
func NewAttemptView(a Attempt, q Quiz, now time.Time) AttemptView {
	return AttemptView{
		Attempt:         a,
		Quiz:            q.Summary(),
		CanRetake:       a.CanRetake(q.MaxAttempts),
		TimeRemaining:   a.TimeRemaining(q.TimeLimit, now),
		DurationMinutes: a.DurationMinutes(),
	}
}
