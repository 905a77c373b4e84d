package app

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"cybershield-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// QuizService contains the quiz authoring and catalogue use cases.
type QuizService struct {
	quizzes QuizRepository
	now     func() time.Time
	newID   func() string
}

func NewQuizService(quizzes QuizRepository) *QuizService {
	return &QuizService{quizzes: quizzes, now: time.Now, newID: uuid.NewString}
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(quizzes QuizRepository, now func() time.Time) *QuizService {
	s := NewQuizService(quizzes)
	s.now = now
	return s
}

// Create validates and stores a new quiz authored by authorID.
func (s *QuizService) Create(ctx context.Context, authorID string, quiz domain.Quiz) (domain.Quiz, error) {
	now := s.now()
	quiz.ID = s.newID()
	quiz.CreatedBy = authorID
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	quiz.SetQuestions(s.assignQuestionIDs(quiz.Questions))
	quiz.Normalize()
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.quizzes.SaveQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// Import stores a quiz under its own ID, creating or replacing it. Seed files use it
// so reloading them is idempotent.
func (s *QuizService) Import(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	now := s.now()
	if quiz.ID == "" {
		quiz.ID = s.newID()
	}
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = now
	}
	quiz.UpdatedAt = now
	quiz.SetQuestions(s.assignQuestionIDs(quiz.Questions))
	quiz.Normalize()
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, fmt.Errorf("quiz %s: %w", quiz.ID, err)
	}
	if err := s.quizzes.SaveQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// Update replaces the editable fields of an existing quiz. The duration estimate
// is recomputed only when the question list changed.
func (s *QuizService) Update(ctx context.Context, quizID string, edit domain.Quiz) (domain.Quiz, error) {
	current, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}

	updated := edit
	updated.ID = current.ID
	updated.CreatedBy = current.CreatedBy
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = s.now()
	questions := s.assignQuestionIDs(edit.Questions)
	if reflect.DeepEqual(questions, current.Questions) {
		updated.Questions = current.Questions
		updated.EstimatedDuration = current.EstimatedDuration
	} else {
		updated.SetQuestions(questions)
	}
	updated.Normalize()
	if err := updated.Validate(); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.quizzes.SaveQuiz(ctx, updated); err != nil {
		return domain.Quiz{}, err
	}
	return updated, nil
}

// Retire soft-deletes a quiz; attempts that reference it remain readable.
func (s *QuizService) Retire(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz.IsActive = false
	quiz.UpdatedAt = s.now()
	if err := s.quizzes.SaveQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// DeactivateQuestion hides a question from takers without removing it.
func (s *QuizService) DeactivateQuestion(ctx context.Context, quizID, questionID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	questions := append([]domain.Question(nil), quiz.Questions...)
	found := false
	for i := range questions {
		if questions[i].ID == questionID {
			questions[i].Active = false
			found = true
		}
	}
	if !found {
		return domain.Quiz{}, fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, questionID)
	}
	quiz.SetQuestions(questions)
	quiz.UpdatedAt = s.now()
	if err := s.quizzes.SaveQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// Get returns the full quiz, answers included. Use ForTaker before serving it to takers.
func (s *QuizService) Get(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// List returns quizzes matching the filter.
func (s *QuizService) List(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	return s.quizzes.ListQuizzes(ctx, filter)
}

// ListActivePublic returns every quiz open to takers.
func (s *QuizService) ListActivePublic(ctx context.Context) ([]domain.Quiz, error) {
	return s.List(ctx, domain.QuizFilter{Available: true})
}

// ListByDemographic returns open quizzes aimed at d or at everyone.
func (s *QuizService) ListByDemographic(ctx context.Context, d domain.Demographic) ([]domain.Quiz, error) {
	return s.List(ctx, domain.QuizFilter{Demographic: d, Available: true})
}

// ListByCategoryAndDifficulty returns open quizzes of a level and difficulty.
func (s *QuizService) ListByCategoryAndDifficulty(ctx context.Context, c domain.QuizCategory, d domain.Difficulty) ([]domain.Quiz, error) {
	return s.List(ctx, domain.QuizFilter{Category: c, Difficulty: d, Available: true})
}

func (s *QuizService) assignQuestionIDs(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	copy(out, questions)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = s.newID()
		}
	}
	return out
}
