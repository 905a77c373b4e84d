package app

import (
	"context"

	"cybershield-quiz-service/internal/domain"
)

// QuizStore is the backing document store for quizzes.
type QuizStore interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error)
}

// QuizRepository serves quizzes to the services, usually through a cache over a QuizStore.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error)
}

// AttemptRepository persists attempts. Stores return domain.ErrAttemptNotFound for
// unknown IDs, domain.ErrAttemptConflict when (user, quiz, attemptNumber) is taken,
// and wrap driver failures in domain.ErrStorage.
type AttemptRepository interface {
	Create(ctx context.Context, attempt domain.Attempt) error
	Update(ctx context.Context, attempt domain.Attempt) error
	Get(ctx context.Context, attemptID string) (domain.Attempt, error)
	CountByUserQuiz(ctx context.Context, userID, quizID string) (int, error)
	// FindByUser returns the user's attempts, most recent first.
	FindByUser(ctx context.Context, userID string, filter domain.AttemptFilter) ([]domain.Attempt, error)
	// FindBest returns the highest scoring attempt, faster completion breaking ties.
	FindBest(ctx context.Context, userID, quizID string) (domain.Attempt, error)
	UserTotals(ctx context.Context, userID string) (domain.StatsTotals, error)
}

// EventPublisher delivers attempt transitions to external notification services.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.AttemptEvent) error
}

// FeedRepository abstracts where per-user live feeds are kept (in-memory, Redis, etc).
type FeedRepository interface {
	GetOrCreate(userID string) *Feed
	Get(userID string) (*Feed, bool)
	DeleteIfIdle(userID string)
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.AttemptEvent) error { return nil }
