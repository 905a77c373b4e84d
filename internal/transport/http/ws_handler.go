package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"cybershield-quiz-service/internal/app"
	"cybershield-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	attempts *app.AttemptService
	upgrader websocket.Upgrader
}

func NewWSHandler(attempts *app.AttemptService) *WSHandler {
	return &WSHandler{
		attempts: attempts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type attemptPayload struct {
	AttemptID string `json:"attemptId"`
}

type answerPayload struct {
	AttemptID  string `json:"attemptId"`
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
	TimeSpent  int    `json:"timeSpent"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type subscribedPayload struct {
	UserID string `json:"userId"`
}

// ServeWS upgrades the request and streams the caller's attempt events. The
// socket also accepts answer, complete and abandon commands for the caller's attempts.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.attempts.Subscribe(r.Context(), id.UserID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	// single writer; gorilla connections allow one concurrent writer
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "event", Payload: evt}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	subscribed := outboundMessage[any]{Type: "subscribed", Payload: subscribedPayload{UserID: id.UserID}}
	if forward(send, writerDone, subscribed) {
		for {
			var inbound inboundMessage
			if err := conn.ReadJSON(&inbound); err != nil {
				break
			}
			if !forward(send, writerDone, h.handle(r, id.UserID, inbound)) {
				break
			}
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

// forward queues msg for the writer and reports false once the writer has stopped.
func forward(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

func (h *WSHandler) handle(r *http.Request, userID string, inbound inboundMessage) outboundMessage[any] {
	ctx := r.Context()
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid answer payload")
		}
		result, err := h.attempts.RecordAnswer(ctx, userID, payload.AttemptID, domain.AnswerSubmission{
			QuestionID: payload.QuestionID,
			Answer:     payload.Answer,
			TimeSpent:  payload.TimeSpent,
		})
		if !saved(err) {
			return errorMessage(err.Error())
		}
		return outboundMessage[any]{Type: "answerResult", Payload: result}
	case "complete", "abandon":
		var payload attemptPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid attempt payload")
		}
		apply := h.attempts.Complete
		if inbound.Type == "abandon" {
			apply = h.attempts.Abandon
		}
		view, err := apply(ctx, userID, payload.AttemptID)
		if !saved(err) {
			return errorMessage(err.Error())
		}
		return outboundMessage[any]{Type: "attempt", Payload: view}
	default:
		return errorMessage("unsupported message type")
	}
}

// saved reports whether the change persisted; a failed event publish still counts.
func saved(err error) bool {
	if err != nil && errors.Is(err, domain.ErrNotification) {
		log.Printf("notification error: %v", err)
		return true
	}
	return err == nil
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}
