package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"cybershield-quiz-service/internal/domain"
	"github.com/rabbitmq/amqp091-go"
)

const DefaultExchange = "quiz.events"

// channel is the subset of *amqp091.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher sends attempt events to a topic exchange, routed by event type.
// Notification services bind queues to keys such as "attempt.completed" or "certificate.*".
type Publisher struct {
	conn     *amqp091.Connection
	channel  channel
	exchange string
	enabled  bool
	timeout  time.Duration
}

// NewPublisher connects and declares the exchange. An empty URL yields a
// disabled publisher that drops events.
func NewPublisher(url, exchange string) (*Publisher, error) {
	if url == "" {
		log.Println("amqp url is empty, event publishing is disabled")
		return &Publisher{enabled: false}, nil
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, channel: ch, exchange: exchange, enabled: true, timeout: 5 * time.Second}, nil
}

func newPublisherWithChannel(ch channel, exchange string) *Publisher {
	return &Publisher{channel: ch, exchange: exchange, enabled: true, timeout: 5 * time.Second}
}

// message is the wire form; the attempt travels without its answers.
type message struct {
	Type          domain.EventType     `json:"type"`
	OccurredAt    time.Time            `json:"occurredAt"`
	AttemptID     string               `json:"attemptId"`
	UserID        string               `json:"userId"`
	QuizID        string               `json:"quizId"`
	AttemptNumber int                  `json:"attemptNumber"`
	Status        domain.AttemptStatus `json:"status"`
	Score         int                  `json:"score"`
	TotalPoints   int                  `json:"totalPoints"`
	Percentage    int                  `json:"percentage"`
	Passed        bool                 `json:"passed"`
	CertificateID string               `json:"certificateId,omitempty"`
}

func newMessage(evt domain.AttemptEvent) message {
	a := evt.Attempt
	return message{
		Type:          evt.Type,
		OccurredAt:    evt.OccurredAt,
		AttemptID:     a.ID,
		UserID:        a.UserID,
		QuizID:        a.QuizID,
		AttemptNumber: a.AttemptNumber,
		Status:        a.Status,
		Score:         a.Score,
		TotalPoints:   a.TotalPoints,
		Percentage:    a.Percentage,
		Passed:        a.Passed,
		CertificateID: a.Certificate.ID,
	}
}

func (p *Publisher) Publish(ctx context.Context, evt domain.AttemptEvent) error {
	if !p.enabled {
		return nil
	}
	body, err := json.Marshal(newMessage(evt))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchange,       // exchange
		string(evt.Type), // routing key
		false,            // mandatory
		false,            // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    evt.Attempt.ID + ":" + string(evt.Type),
			Timestamp:    evt.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if !p.enabled {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
