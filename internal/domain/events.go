package domain

import "time"

// EventType doubles as the routing key when events leave the process.
type EventType string

const (
	EventAttemptStarted    EventType = "attempt.started"
	EventAnswerRecorded    EventType = "attempt.answered"
	EventAttemptCompleted  EventType = "attempt.completed"
	EventAttemptTimedOut   EventType = "attempt.timed_out"
	EventAttemptAbandoned  EventType = "attempt.abandoned"
	EventCertificateIssued EventType = "certificate.issued"
)

// AttemptEvent describes a transition of an attempt.
type AttemptEvent struct {
	Type       EventType `json:"type"`
	Attempt    Attempt   `json:"attempt"`
	OccurredAt time.Time `json:"occurredAt"`
}
