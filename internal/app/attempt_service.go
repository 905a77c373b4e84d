package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"cybershield-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// AttemptService runs the attempt lifecycle: start, answer, finish, certify.
type AttemptService struct {
	attempts AttemptRepository
	quizzes  QuizRepository
	events   EventPublisher
	feeds    FeedRepository
	now      func() time.Time
	newID    func() string

	useQuizPassingScore bool
}

// AttemptOption customizes an AttemptService.
type AttemptOption func(*AttemptService)

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) AttemptOption {
	return func(s *AttemptService) { s.now = now }
}

// WithIDGenerator replaces the UUID generator for attempt IDs.
func WithIDGenerator(newID func() string) AttemptOption {
	return func(s *AttemptService) { s.newID = newID }
}

// WithQuizPassingScore makes pass/fail use each quiz's passingScore instead of the fixed 70%.
func WithQuizPassingScore(enabled bool) AttemptOption {
	return func(s *AttemptService) { s.useQuizPassingScore = enabled }
}

func NewAttemptService(attempts AttemptRepository, quizzes QuizRepository, events EventPublisher, feeds FeedRepository, opts ...AttemptOption) *AttemptService {
	if events == nil {
		events = NopPublisher{}
	}
	s := &AttemptService{
		attempts: attempts,
		quizzes:  quizzes,
		events:   events,
		feeds:    feeds,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a new attempt. The attempt number is one more than the user's
// prior attempts on the quiz and may not exceed the quiz's maxAttempts.
func (s *AttemptService) Start(ctx context.Context, userID, quizID string) (domain.AttemptView, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.AttemptView{}, err
	}
	if !quiz.IsActive {
		return domain.AttemptView{}, domain.ErrQuizInactive
	}

	prior, err := s.attempts.CountByUserQuiz(ctx, userID, quizID)
	if err != nil {
		return domain.AttemptView{}, err
	}
	number := prior + 1
	if number > quiz.MaxAttempts {
		return domain.AttemptView{}, domain.ErrAttemptsExhausted
	}

	now := s.now()
	attempt := domain.NewAttempt(s.newID(), userID, quizID, number, now)
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return domain.AttemptView{}, err
	}
	attemptsStarted.Inc()
	if err := s.emit(ctx, domain.EventAttemptStarted, attempt); err != nil {
		return domain.NewAttemptView(attempt, quiz, now), err
	}
	return domain.NewAttemptView(attempt, quiz, now), nil
}

// Get returns an attempt owned by userID, applying a pending timeout first.
func (s *AttemptService) Get(ctx context.Context, userID, attemptID string) (domain.AttemptView, error) {
	attempt, quiz, err := s.load(ctx, userID, attemptID)
	if err != nil {
		return domain.AttemptView{}, err
	}
	return domain.NewAttemptView(attempt, quiz, s.now()), nil
}

// RecordAnswer marks one answer and stores it.
func (s *AttemptService) RecordAnswer(ctx context.Context, userID, attemptID string, sub domain.AnswerSubmission) (domain.AnswerResult, error) {
	_, results, err := s.RecordAnswers(ctx, userID, attemptID, []domain.AnswerSubmission{sub})
	if len(results) == 0 {
		return domain.AnswerResult{}, err
	}
	return results[0], err
}

// RecordAnswers marks a batch of answers. Either every submission is stored or none is.
func (s *AttemptService) RecordAnswers(ctx context.Context, userID, attemptID string, subs []domain.AnswerSubmission) (domain.AttemptView, []domain.AnswerResult, error) {
	attempt, quiz, err := s.load(ctx, userID, attemptID)
	if err != nil {
		return domain.AttemptView{}, nil, err
	}
	if len(subs) == 0 {
		verr := &domain.ValidationError{Fields: []domain.FieldError{{Field: "answers", Message: "is required"}}}
		return domain.AttemptView{}, nil, verr
	}

	now := s.now()
	working := attempt
	working.Answers = append([]domain.Answer(nil), attempt.Answers...)
	results := make([]domain.AnswerResult, 0, len(subs))
	for _, sub := range subs {
		question, ok := quiz.Question(sub.QuestionID)
		if !ok || !question.Active {
			return domain.AttemptView{}, nil, fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, sub.QuestionID)
		}
		answer, err := working.RecordAnswer(question, sub.Answer, sub.TimeSpent, now)
		if err != nil {
			return domain.AttemptView{}, nil, err
		}
		running := domain.Finalize(working.Answers)
		results = append(results, domain.AnswerResult{
			QuestionID: answer.QuestionID,
			Correct:    answer.IsCorrect,
			Awarded:    answer.Points,
			Answered:   len(working.Answers),
			RunningPct: running.Percentage,
		})
	}

	if err := s.attempts.Update(ctx, working); err != nil {
		return domain.AttemptView{}, nil, err
	}
	view := domain.NewAttemptView(working, quiz, now)
	if err := s.emit(ctx, domain.EventAnswerRecorded, working); err != nil {
		return view, results, err
	}
	return view, results, nil
}

// Complete finishes the attempt and freezes its score.
func (s *AttemptService) Complete(ctx context.Context, userID, attemptID string) (domain.AttemptView, error) {
	return s.transition(ctx, userID, attemptID, domain.EventAttemptCompleted, func(a *domain.Attempt, quiz domain.Quiz, now time.Time) error {
		return a.Complete(now, s.passThreshold(quiz))
	})
}

// Timeout closes an attempt that has outlived its time limit and freezes its score.
// An attempt still within its limit is refused.
func (s *AttemptService) Timeout(ctx context.Context, userID, attemptID string) (domain.AttemptView, error) {
	attempt, quiz, err := s.fetch(ctx, userID, attemptID)
	if err != nil {
		return domain.AttemptView{}, err
	}
	expired, err := s.expire(ctx, &attempt, quiz)
	if err != nil {
		return domain.AttemptView{}, err
	}
	if !expired {
		op := "time out"
		if attempt.Status == domain.StatusInProgress {
			op = "time out before the time limit"
		}
		return domain.AttemptView{}, &domain.StateError{Op: op, Status: attempt.Status}
	}
	return domain.NewAttemptView(attempt, quiz, s.now()), nil
}

// Abandon closes the attempt without scoring it.
func (s *AttemptService) Abandon(ctx context.Context, userID, attemptID string) (domain.AttemptView, error) {
	return s.transition(ctx, userID, attemptID, domain.EventAttemptAbandoned, func(a *domain.Attempt, _ domain.Quiz, now time.Time) error {
		return a.Abandon(now)
	})
}

// IssueCertificate issues the attempt's certificate, or returns the one already issued.
func (s *AttemptService) IssueCertificate(ctx context.Context, userID, attemptID string) (domain.Certificate, error) {
	attempt, _, err := s.load(ctx, userID, attemptID)
	if err != nil {
		return domain.Certificate{}, err
	}
	if attempt.Certificate.Issued {
		return attempt.Certificate, nil
	}
	if _, err := attempt.IssueCertificate(s.now()); err != nil {
		return domain.Certificate{}, err
	}
	if err := s.attempts.Update(ctx, attempt); err != nil {
		return domain.Certificate{}, err
	}
	certificatesIssued.Inc()
	if err := s.emit(ctx, domain.EventCertificateIssued, attempt); err != nil {
		return attempt.Certificate, err
	}
	return attempt.Certificate, nil
}

// CanRetake reports whether the user may start another attempt after this one.
func (s *AttemptService) CanRetake(ctx context.Context, userID, attemptID string) (bool, error) {
	attempt, quiz, err := s.load(ctx, userID, attemptID)
	if err != nil {
		return false, err
	}
	return attempt.CanRetake(quiz.MaxAttempts), nil
}

// History lists the user's attempts, most recent first, each joined with its quiz summary.
func (s *AttemptService) History(ctx context.Context, userID string, filter domain.AttemptFilter) ([]domain.AttemptView, error) {
	if err := s.expireStale(ctx, userID, filter.QuizID); err != nil {
		return nil, err
	}
	attempts, err := s.attempts.FindByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]domain.AttemptView, 0, len(attempts))
	for _, attempt := range attempts {
		quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
		if err != nil {
			return nil, err
		}
		views = append(views, domain.NewAttemptView(attempt, quiz, now))
	}
	return views, nil
}

// Best returns the user's best attempt at a quiz.
func (s *AttemptService) Best(ctx context.Context, userID, quizID string) (domain.AttemptView, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.AttemptView{}, err
	}
	if err := s.expireStale(ctx, userID, quizID); err != nil {
		return domain.AttemptView{}, err
	}
	attempt, err := s.attempts.FindBest(ctx, userID, quizID)
	if err != nil {
		return domain.AttemptView{}, err
	}
	return domain.NewAttemptView(attempt, quiz, s.now()), nil
}

// Stats aggregates all of the user's attempts.
func (s *AttemptService) Stats(ctx context.Context, userID string) (domain.UserStats, error) {
	if err := s.expireStale(ctx, userID, ""); err != nil {
		return domain.UserStats{}, err
	}
	totals, err := s.attempts.UserTotals(ctx, userID)
	if err != nil {
		return domain.UserStats{}, err
	}
	return totals.Stats(), nil
}

// Subscribe returns a channel of the user's attempt events.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *AttemptService) Subscribe(_ context.Context, userID string) (<-chan domain.AttemptEvent, func()) {
	feed := s.feeds.GetOrCreate(userID)
	ch, cancel := feed.Subscribe()
	return ch, func() {
		cancel()
		s.feeds.DeleteIfIdle(userID)
	}
}

func (s *AttemptService) transition(ctx context.Context, userID, attemptID string, evt domain.EventType, apply func(*domain.Attempt, domain.Quiz, time.Time) error) (domain.AttemptView, error) {
	attempt, quiz, err := s.load(ctx, userID, attemptID)
	if err != nil {
		return domain.AttemptView{}, err
	}
	now := s.now()
	if err := apply(&attempt, quiz, now); err != nil {
		return domain.AttemptView{}, err
	}
	if err := s.attempts.Update(ctx, attempt); err != nil {
		return domain.AttemptView{}, err
	}
	attemptsFinished.WithLabelValues(string(attempt.Status)).Inc()
	view := domain.NewAttemptView(attempt, quiz, now)
	if err := s.emit(ctx, evt, attempt); err != nil {
		return view, err
	}
	return view, nil
}

// load fetches an attempt owned by userID together with its quiz. An in-progress
// attempt past the time limit is timed out and stored before it is returned.
func (s *AttemptService) load(ctx context.Context, userID, attemptID string) (domain.Attempt, domain.Quiz, error) {
	attempt, quiz, err := s.fetch(ctx, userID, attemptID)
	if err != nil {
		return domain.Attempt{}, domain.Quiz{}, err
	}
	if _, err := s.expire(ctx, &attempt, quiz); err != nil {
		return domain.Attempt{}, domain.Quiz{}, err
	}
	return attempt, quiz, nil
}

func (s *AttemptService) fetch(ctx context.Context, userID, attemptID string) (domain.Attempt, domain.Quiz, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, domain.Quiz{}, err
	}
	if attempt.UserID != userID {
		return domain.Attempt{}, domain.Quiz{}, domain.ErrAttemptNotFound
	}
	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return domain.Attempt{}, domain.Quiz{}, err
	}
	return attempt, quiz, nil
}

// expire times out and stores an in-progress attempt that outlived the quiz's
// time limit. It reports whether the attempt was timed out by this call.
func (s *AttemptService) expire(ctx context.Context, attempt *domain.Attempt, quiz domain.Quiz) (bool, error) {
	now := s.now()
	if !attempt.Expired(quiz.TimeLimit, now) {
		return false, nil
	}
	if err := attempt.Timeout(now, s.passThreshold(quiz)); err != nil {
		return false, err
	}
	if err := s.attempts.Update(ctx, *attempt); err != nil {
		return false, err
	}
	attemptsFinished.WithLabelValues(string(attempt.Status)).Inc()
	log.Printf("attempt %s timed out after %d minutes", attempt.ID, quiz.TimeLimit)
	if err := s.emit(ctx, domain.EventAttemptTimedOut, *attempt); err != nil {
		log.Printf("timeout notification: %v", err)
	}
	return true, nil
}

// expireStale times out the user's stale in-progress attempts, optionally for one
// quiz, so listings and aggregates see the status and score they freeze to.
func (s *AttemptService) expireStale(ctx context.Context, userID, quizID string) error {
	open, err := s.attempts.FindByUser(ctx, userID, domain.AttemptFilter{QuizID: quizID, Status: domain.StatusInProgress})
	if err != nil {
		return err
	}
	for i := range open {
		quiz, err := s.quizzes.GetQuiz(ctx, open[i].QuizID)
		if err != nil {
			return err
		}
		if _, err := s.expire(ctx, &open[i], quiz); err != nil {
			return err
		}
	}
	return nil
}

func (s *AttemptService) passThreshold(quiz domain.Quiz) int {
	if s.useQuizPassingScore && quiz.PassingScore > 0 {
		return quiz.PassingScore
	}
	return domain.DefaultPassThreshold
}

// emit pushes the event to live subscribers and then to the external publisher.
// Publisher failures are returned to the caller rather than dropped.
func (s *AttemptService) emit(ctx context.Context, typ domain.EventType, attempt domain.Attempt) error {
	evt := domain.AttemptEvent{Type: typ, Attempt: attempt, OccurredAt: s.now()}
	if feed, ok := s.feeds.Get(attempt.UserID); ok {
		feed.Publish(evt)
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		return fmt.Errorf("publish %s for attempt %s: %w: %v", typ, attempt.ID, domain.ErrNotification, err)
	}
	return nil
}
