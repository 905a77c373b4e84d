package memory

import (
	"context"
	"sort"
	"sync"

	"cybershield-quiz-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[string]domain.Attempt)}
}

func (s *AttemptStore) Create(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.attempts {
		if existing.UserID == attempt.UserID && existing.QuizID == attempt.QuizID && existing.AttemptNumber == attempt.AttemptNumber {
			return domain.ErrAttemptConflict
		}
	}
	s.attempts[attempt.ID] = clone(attempt)
	return nil
}

func (s *AttemptStore) Update(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[attempt.ID]; !ok {
		return domain.ErrAttemptNotFound
	}
	s.attempts[attempt.ID] = clone(attempt)
	return nil
}

func (s *AttemptStore) Get(_ context.Context, attemptID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return clone(attempt), nil
}

func (s *AttemptStore) CountByUserQuiz(_ context.Context, userID, quizID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.attempts {
		if a.UserID == userID && a.QuizID == quizID {
			n++
		}
	}
	return n, nil
}

func (s *AttemptStore) FindByUser(_ context.Context, userID string, filter domain.AttemptFilter) ([]domain.Attempt, error) {
	out := s.byUser(userID, filter)
	sort.Slice(out, func(i, j int) bool {
		return out[i].TimeStarted.After(out[j].TimeStarted)
	})
	return out, nil
}

func (s *AttemptStore) FindBest(_ context.Context, userID, quizID string) (domain.Attempt, error) {
	candidates := s.byUser(userID, domain.AttemptFilter{QuizID: quizID})
	if len(candidates) == 0 {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	best := candidates[0]
	for _, a := range candidates[1:] {
		if a.BetterThan(best) {
			best = a
		}
	}
	return best, nil
}

func (s *AttemptStore) UserTotals(_ context.Context, userID string) (domain.StatsTotals, error) {
	return domain.TotalsOf(s.byUser(userID, domain.AttemptFilter{})), nil
}

func (s *AttemptStore) byUser(userID string, filter domain.AttemptFilter) []domain.Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Attempt, 0)
	for _, a := range s.attempts {
		if a.UserID == userID && filter.Matches(a) {
			out = append(out, clone(a))
		}
	}
	return out
}

// clone keeps callers from sharing the stored answers slice.
func clone(a domain.Attempt) domain.Attempt {
	a.Answers = append([]domain.Answer(nil), a.Answers...)
	return a
}
