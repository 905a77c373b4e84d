package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cybershield-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizStore keeps each quiz as a JSONB document. The columns beside it mirror the
// fields listings filter on so they can be indexed.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, domain.StorageError("load quiz", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}

func (s *QuizStore) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quizzes (id, data, is_active, is_public, category, target_demographic, difficulty, created_at, updated_at)
		VALUES ($1, $2::jsonb, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			is_active = EXCLUDED.is_active,
			is_public = EXCLUDED.is_public,
			category = EXCLUDED.category,
			target_demographic = EXCLUDED.target_demographic,
			difficulty = EXCLUDED.difficulty,
			updated_at = EXCLUDED.updated_at`,
		quiz.ID, string(data), quiz.IsActive, quiz.IsPublic,
		string(quiz.Category), string(quiz.TargetDemographic), string(quiz.Difficulty),
		quiz.CreatedAt, quiz.UpdatedAt,
	)
	if err != nil {
		return domain.StorageError("save quiz", err)
	}
	return nil
}

func (s *QuizStore) ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	query, args := listQuery(filter)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.StorageError("list quizzes", err)
	}
	defer rows.Close()

	quizzes := make([]domain.Quiz, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, domain.StorageError("scan quiz", err)
		}
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err != nil {
			return nil, fmt.Errorf("unmarshal quiz: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list quizzes", err)
	}
	return quizzes, nil
}

func listQuery(filter domain.QuizFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Available {
		where = append(where, "is_active AND is_public")
	}
	if filter.Demographic != "" {
		where = append(where, fmt.Sprintf("target_demographic IN (%s, %s)", arg(string(filter.Demographic)), arg(string(domain.DemographicAll))))
	}
	if filter.Category != "" {
		where = append(where, "category = "+arg(string(filter.Category)))
	}
	if filter.Difficulty != "" {
		where = append(where, "difficulty = "+arg(string(filter.Difficulty)))
	}

	query := "SELECT data FROM quizzes"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query + " ORDER BY created_at DESC, id", args
}
