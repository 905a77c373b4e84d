package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cybershield-quiz-service/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

const uniqueViolation = "23505"

// attemptRow maps an attempt onto quiz_attempts. Answers travel as one JSONB column.
type attemptRow struct {
	bun.BaseModel `bun:"table:quiz_attempts,alias:qa"`

	ID            string          `bun:"id,pk"`
	UserID        string          `bun:"user_id,notnull"`
	QuizID        string          `bun:"quiz_id,notnull"`
	AttemptNumber int             `bun:"attempt_number,notnull"`
	Status        string          `bun:"status,notnull"`
	Answers       []domain.Answer `bun:"answers,type:jsonb,notnull"`

	Score       int           `bun:"score,notnull"`
	TotalPoints int           `bun:"total_points,notnull"`
	Percentage  int           `bun:"percentage,notnull"`
	Passed      bool          `bun:"passed,notnull"`
	Feedback    string        `bun:"feedback,nullzero"`
	Review      domain.Review `bun:"review,type:jsonb,notnull"`

	TimeStarted   time.Time  `bun:"time_started,notnull"`
	TimeCompleted *time.Time `bun:"time_completed"`
	TimeSpent     int        `bun:"time_spent,notnull"`

	CertificateIssued   bool       `bun:"certificate_issued,notnull"`
	CertificateIssuedAt *time.Time `bun:"certificate_issued_at"`
	CertificateID       string     `bun:"certificate_id,nullzero"`

	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func toRow(a domain.Attempt) *attemptRow {
	answers := a.Answers
	if answers == nil {
		answers = []domain.Answer{}
	}
	return &attemptRow{
		ID:                  a.ID,
		UserID:              a.UserID,
		QuizID:              a.QuizID,
		AttemptNumber:       a.AttemptNumber,
		Status:              string(a.Status),
		Answers:             answers,
		Score:               a.Score,
		TotalPoints:         a.TotalPoints,
		Percentage:          a.Percentage,
		Passed:              a.Passed,
		Feedback:            string(a.Feedback),
		Review:              a.Review,
		TimeStarted:         a.TimeStarted,
		TimeCompleted:       a.TimeCompleted,
		TimeSpent:           a.TimeSpent,
		CertificateIssued:   a.Certificate.Issued,
		CertificateIssuedAt: a.Certificate.IssuedAt,
		CertificateID:       a.Certificate.ID,
		UpdatedAt:           a.UpdatedAt,
	}
}

func (r attemptRow) attempt() domain.Attempt {
	answers := r.Answers
	if answers == nil {
		answers = []domain.Answer{}
	}
	return domain.Attempt{
		ID:            r.ID,
		UserID:        r.UserID,
		QuizID:        r.QuizID,
		AttemptNumber: r.AttemptNumber,
		Status:        domain.AttemptStatus(r.Status),
		Answers:       answers,
		Score:         r.Score,
		TotalPoints:   r.TotalPoints,
		Percentage:    r.Percentage,
		Passed:        r.Passed,
		Feedback:      domain.FeedbackTier(r.Feedback),
		Review:        r.Review,
		TimeStarted:   r.TimeStarted,
		TimeCompleted: r.TimeCompleted,
		TimeSpent:     r.TimeSpent,
		Certificate: domain.Certificate{
			Issued:   r.CertificateIssued,
			IssuedAt: r.CertificateIssuedAt,
			ID:       r.CertificateID,
		},
		UpdatedAt: r.UpdatedAt,
	}
}

// AttemptStore persists attempts in Postgres through bun.
type AttemptStore struct {
	db *bun.DB
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

func (s *AttemptStore) Create(ctx context.Context, attempt domain.Attempt) error {
	_, err := s.db.NewInsert().Model(toRow(attempt)).Exec(ctx)
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation {
			return domain.ErrAttemptConflict
		}
		return domain.StorageError("create attempt", err)
	}
	return nil
}

func (s *AttemptStore) Update(ctx context.Context, attempt domain.Attempt) error {
	res, err := s.db.NewUpdate().Model(toRow(attempt)).WherePK().Exec(ctx)
	if err != nil {
		return domain.StorageError("update attempt", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, attemptID string) (domain.Attempt, error) {
	row := new(attemptRow)
	err := s.db.NewSelect().Model(row).Where("id = ?", attemptID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, domain.StorageError("get attempt", err)
	}
	return row.attempt(), nil
}

func (s *AttemptStore) CountByUserQuiz(ctx context.Context, userID, quizID string) (int, error) {
	n, err := s.db.NewSelect().
		Model((*attemptRow)(nil)).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		Count(ctx)
	if err != nil {
		return 0, domain.StorageError("count attempts", err)
	}
	return n, nil
}

func (s *AttemptStore) FindByUser(ctx context.Context, userID string, filter domain.AttemptFilter) ([]domain.Attempt, error) {
	var rows []attemptRow
	q := s.db.NewSelect().Model(&rows).Where("user_id = ?", userID)
	if filter.QuizID != "" {
		q = q.Where("quiz_id = ?", filter.QuizID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.Passed != nil {
		q = q.Where("passed = ?", *filter.Passed)
	}
	if err := q.Order("time_started DESC").Scan(ctx); err != nil {
		return nil, domain.StorageError("find attempts", err)
	}
	out := make([]domain.Attempt, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.attempt())
	}
	return out, nil
}

func (s *AttemptStore) FindBest(ctx context.Context, userID, quizID string) (domain.Attempt, error) {
	row := new(attemptRow)
	err := s.db.NewSelect().
		Model(row).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		Order("score DESC", "time_spent ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, domain.StorageError("find best attempt", err)
	}
	return row.attempt(), nil
}

func (s *AttemptStore) UserTotals(ctx context.Context, userID string) (domain.StatsTotals, error) {
	var totals domain.StatsTotals
	err := s.db.NewSelect().
		Model((*attemptRow)(nil)).
		ColumnExpr("COUNT(*) AS total_attempts").
		ColumnExpr("COUNT(DISTINCT quiz_id) AS total_quizzes").
		ColumnExpr("COALESCE(SUM(score), 0) AS total_score").
		ColumnExpr("COALESCE(SUM(total_points), 0) AS total_points").
		ColumnExpr("COUNT(*) FILTER (WHERE passed) AS passed_attempts").
		ColumnExpr("COALESCE(SUM(percentage), 0) AS percentage_sum").
		ColumnExpr("COALESCE(SUM(time_spent), 0) AS total_time_spent").
		Where("user_id = ?", userID).
		Scan(ctx, &totals)
	if err != nil {
		return domain.StatsTotals{}, domain.StorageError("aggregate attempts", err)
	}
	return totals, nil
}
