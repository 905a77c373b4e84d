package domain

import "math"

// UserStats aggregates every attempt a user has made.
type UserStats struct {
	TotalAttempts  int     `json:"totalAttempts"`
	TotalQuizzes   int     `json:"totalQuizzes"`
	TotalScore     int     `json:"totalScore"`
	TotalPoints    int     `json:"totalPoints"`
	PassedAttempts int     `json:"passedAttempts"`
	AverageScore   float64 `json:"averageScore"`
	TotalTimeSpent int     `json:"totalTimeSpent"`
	SuccessRate    int     `json:"successRate"`
}

// StatsTotals are the raw sums a store aggregates; Stats derives the averages.
type StatsTotals struct {
	TotalAttempts   int `bun:"total_attempts" bson:"totalAttempts"`
	DistinctQuizzes int `bun:"total_quizzes" bson:"totalQuizzes"`
	TotalScore      int `bun:"total_score" bson:"totalScore"`
	TotalPoints     int `bun:"total_points" bson:"totalPoints"`
	PassedAttempts  int `bun:"passed_attempts" bson:"passedAttempts"`
	PercentageSum   int `bun:"percentage_sum" bson:"percentageSum"`
	TotalTimeSpent  int `bun:"total_time_spent" bson:"totalTimeSpent"`
}

// Stats is zero-valued when there are no attempts.
func (t StatsTotals) Stats() UserStats {
	if t.TotalAttempts == 0 {
		return UserStats{}
	}
	avg := float64(t.PercentageSum) / float64(t.TotalAttempts)
	return UserStats{
		TotalAttempts:  t.TotalAttempts,
		TotalQuizzes:   t.DistinctQuizzes,
		TotalScore:     t.TotalScore,
		TotalPoints:    t.TotalPoints,
		PassedAttempts: t.PassedAttempts,
		AverageScore:   math.Round(avg*100) / 100,
		TotalTimeSpent: t.TotalTimeSpent,
		SuccessRate:    Percentage(t.PassedAttempts, t.TotalAttempts),
	}
}

// TotalsOf sums attempts in memory.
func TotalsOf(attempts []Attempt) StatsTotals {
	var t StatsTotals
	quizzes := make(map[string]struct{})
	for _, a := range attempts {
		t.TotalAttempts++
		quizzes[a.QuizID] = struct{}{}
		t.TotalScore += a.Score
		t.TotalPoints += a.TotalPoints
		if a.Passed {
			t.PassedAttempts++
		}
		t.PercentageSum += a.Percentage
		t.TotalTimeSpent += a.TimeSpent
	}
	t.DistinctQuizzes = len(quizzes)
	return t
}
