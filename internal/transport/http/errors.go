package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"cybershield-quiz-service/internal/domain"
)

type errorResponse struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// notificationHeader flags a response whose change was saved but whose event
// could not be delivered.
const notificationHeader = "X-Notification-Status"

// writeSaved writes v for a change the service persisted. A failed event
// publish still returns the saved resource, flagged through notificationHeader.
func writeSaved(w http.ResponseWriter, status int, v any, err error) {
	if err != nil && !errors.Is(err, domain.ErrNotification) {
		writeError(w, err)
		return
	}
	if err != nil {
		log.Printf("notification error: %v", err)
		w.Header().Set(notificationHeader, "failed")
	}
	writeJSON(w, status, v)
}

// statusFor maps an error category onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrNotification):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	switch status {
	case http.StatusServiceUnavailable:
		log.Printf("storage error: %v", err)
		resp.Error = "temporarily unavailable, try again"
	case http.StatusBadGateway:
		log.Printf("notification error: %v", err)
		resp.Error = "the change was saved but notifying downstream services failed"
	case http.StatusInternalServerError:
		log.Printf("internal error: %v", err)
		resp.Error = "internal error"
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	writeJSON(w, status, resp)
}
