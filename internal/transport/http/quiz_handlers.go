package http

import (
	"encoding/json"
	"net/http"

	"cybershield-quiz-service/internal/app"
	"cybershield-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

type quizHandlers struct {
	quizzes *app.QuizService
}

func (h quizHandlers) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.QuizFilter{
		Demographic: domain.Demographic(q.Get("demographic")),
		Category:    domain.QuizCategory(q.Get("category")),
		Difficulty:  domain.Difficulty(q.Get("difficulty")),
		Available:   true,
	}
	quizzes, err := h.quizzes.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]domain.Quiz, 0, len(quizzes))
	for _, quiz := range quizzes {
		out = append(out, quiz.ForTaker())
	}
	writeJSON(w, http.StatusOK, out)
}

// get serves authors the full quiz and everyone else the taker view.
func (h quizHandlers) get(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizzes.Get(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if id, _ := IdentityFromContext(r.Context()); !id.CanAuthor() {
		quiz = quiz.ForTaker()
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h quizHandlers) create(w http.ResponseWriter, r *http.Request) {
	quiz, ok := decodeQuiz(w, r)
	if !ok {
		return
	}
	id, _ := IdentityFromContext(r.Context())
	created, err := h.quizzes.Create(r.Context(), id.UserID, quiz)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h quizHandlers) update(w http.ResponseWriter, r *http.Request) {
	quiz, ok := decodeQuiz(w, r)
	if !ok {
		return
	}
	updated, err := h.quizzes.Update(r.Context(), chi.URLParam(r, "quizID"), quiz)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h quizHandlers) retire(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizzes.Retire(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h quizHandlers) deactivateQuestion(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizzes.DeactivateQuestion(r.Context(), chi.URLParam(r, "quizID"), chi.URLParam(r, "questionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func decodeQuiz(w http.ResponseWriter, r *http.Request) (domain.Quiz, bool) {
	var quiz domain.Quiz
	if err := json.NewDecoder(r.Body).Decode(&quiz); err != nil {
		writeError(w, invalidBody(err))
		return domain.Quiz{}, false
	}
	return quiz, true
}

func invalidBody(err error) error {
	return &domain.ValidationError{Fields: []domain.FieldError{{Field: "body", Message: "is not valid JSON: " + err.Error()}}}
}
