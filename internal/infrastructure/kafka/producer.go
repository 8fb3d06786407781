package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"habit-service/internal/config"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Event types published to the habit events topic
const (
	EventHabitCompleted  = "habit.completed"
	EventStreakMilestone = "streak.milestone"
	EventStreakReset     = "streak.reset"
)

// Event is the JSON envelope written to the topic, keyed by user so one
// user's events stay ordered within a partition.
type Event struct {
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	UserID    string         `json:"user_id"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Producer handles publishing habit events to Kafka
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg *config.KafkaConfig) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    10,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
	}

	return &Producer{writer: writer}
}

// Publish writes one event to the topic
func (p *Producer) Publish(ctx context.Context, eventType string, userID uuid.UUID, payload map[string]any) error {
	event := Event{
		EventID:   uuid.New().String(),
		EventType: eventType,
		UserID:    userID.String(),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(userID.String()),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// Close flushes and closes the writer
func (p *Producer) Close() error {
	return p.writer.Close()
}
