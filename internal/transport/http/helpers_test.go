package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cybershield-quiz-service/internal/app"
	"cybershield-quiz-service/internal/domain"
	"cybershield-quiz-service/internal/infra/memory"
)

func newTestRouter(t *testing.T, secret string, limiter Limiter) http.Handler {
	t.Helper()
	return newRouterWithPublisher(t, secret, limiter, nil)
}

func newRouterWithPublisher(t *testing.T, secret string, limiter Limiter, publisher app.EventPublisher) http.Handler {
	t.Helper()
	quizRepo := memory.NewQuizRepository(memory.NewQuizStore(sampleQuizzes()), time.Minute)
	attempts := app.NewAttemptService(memory.NewAttemptStore(), quizRepo, publisher, memory.NewFeedStore())
	return NewRouter(RouterConfig{
		Quizzes:  app.NewQuizService(quizRepo),
		Attempts: attempts,
		Auth:     NewAuthenticator(secret, time.Hour),
		Limiter:  limiter,
	})
}

// do sends a request as userID with role through the gateway headers.
func do(t *testing.T, h http.Handler, method, path, userID, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if role != "" {
		req.Header.Set("X-User-Role", role)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func sampleQuizzes() map[string]domain.Quiz {
	quiz := domain.NewQuiz()
	quiz.ID = "quiz-1"
	quiz.Title = "UPI safety"
	quiz.Description = "Keep your UPI PIN and OTPs to yourself"
	quiz.Category = domain.LevelBeginner
	quiz.TargetDemographic = domain.DemographicAll
	quiz.SetQuestions([]domain.Question{
		{
			ID:     "q1",
			Prompt: "Someone sends a collect request saying you will receive money. What should you do?",
			Type:   domain.QuestionMultipleChoice,
			Options: []domain.Option{
				{Text: "Enter PIN to receive"},
				{Text: "Decline the request", Correct: true},
			},
			CorrectAnswer: "Decline the request",
			Difficulty:    domain.DifficultyEasy,
			Points:        10,
			Category:      domain.TopicUPIScams,
			Active:        true,
		},
		{
			ID:            "q2",
			Prompt:        "Bank staff may ask for your OTP over the phone.",
			Type:          domain.QuestionTrueFalse,
			CorrectAnswer: "false",
			Difficulty:    domain.DifficultyEasy,
			Points:        10,
			Category:      domain.TopicBanking,
			Active:        true,
		},
	})
	return map[string]domain.Quiz{quiz.ID: quiz}
}
