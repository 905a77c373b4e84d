package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"cybershield-quiz-service/internal/app"
	"cybershield-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

type attemptHandlers struct {
	attempts *app.AttemptService
}

// answersRequest accepts either a single submission or a batch under "answers".
type answersRequest struct {
	domain.AnswerSubmission
	Answers []domain.AnswerSubmission `json:"answers"`
}

type answersResponse struct {
	Attempt domain.AttemptView    `json:"attempt"`
	Results []domain.AnswerResult `json:"results"`
}

func (h attemptHandlers) start(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	view, err := h.attempts.Start(r.Context(), id.UserID, chi.URLParam(r, "quizID"))
	writeSaved(w, http.StatusCreated, view, err)
}

func (h attemptHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	view, err := h.attempts.Get(r.Context(), id.UserID, chi.URLParam(r, "attemptID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h attemptHandlers) answer(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, invalidBody(err))
		return
	}
	subs := req.Answers
	if len(subs) == 0 && req.QuestionID != "" {
		subs = []domain.AnswerSubmission{req.AnswerSubmission}
	}
	id, _ := IdentityFromContext(r.Context())
	view, results, err := h.attempts.RecordAnswers(r.Context(), id.UserID, chi.URLParam(r, "attemptID"), subs)
	writeSaved(w, http.StatusOK, answersResponse{Attempt: view, Results: results}, err)
}

func (h attemptHandlers) complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.attempts.Complete)
}

func (h attemptHandlers) abandon(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.attempts.Abandon)
}

func (h attemptHandlers) timeout(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.attempts.Timeout)
}

type transitionFunc func(ctx context.Context, userID, attemptID string) (domain.AttemptView, error)

func (h attemptHandlers) transition(w http.ResponseWriter, r *http.Request, apply transitionFunc) {
	id, _ := IdentityFromContext(r.Context())
	view, err := apply(r.Context(), id.UserID, chi.URLParam(r, "attemptID"))
	writeSaved(w, http.StatusOK, view, err)
}

func (h attemptHandlers) certificate(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	cert, err := h.attempts.IssueCertificate(r.Context(), id.UserID, chi.URLParam(r, "attemptID"))
	writeSaved(w, http.StatusOK, cert, err)
}

func (h attemptHandlers) retake(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	ok, err := h.attempts.CanRetake(r.Context(), id.UserID, chi.URLParam(r, "attemptID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"canRetake": ok})
}

func (h attemptHandlers) history(w http.ResponseWriter, r *http.Request) {
	filter, err := attemptFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, _ := IdentityFromContext(r.Context())
	views, err := h.attempts.History(r.Context(), id.UserID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h attemptHandlers) best(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	view, err := h.attempts.Best(r.Context(), id.UserID, chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h attemptHandlers) stats(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	stats, err := h.attempts.Stats(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func attemptFilter(r *http.Request) (domain.AttemptFilter, error) {
	q := r.URL.Query()
	filter := domain.AttemptFilter{QuizID: q.Get("quiz")}
	verr := &domain.ValidationError{}
	if raw := q.Get("status"); raw != "" {
		status := domain.AttemptStatus(raw)
		if !status.Valid() {
			verr.Fields = append(verr.Fields, domain.FieldError{Field: "status", Message: "is not a known attempt status"})
		}
		filter.Status = status
	}
	if raw := q.Get("passed"); raw != "" {
		passed, err := strconv.ParseBool(raw)
		if err != nil {
			verr.Fields = append(verr.Fields, domain.FieldError{Field: "passed", Message: "must be true or false"})
		}
		filter.Passed = &passed
	}
	if len(verr.Fields) > 0 {
		return domain.AttemptFilter{}, verr
	}
	return filter, nil
}
