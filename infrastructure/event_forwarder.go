package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"monkeybet/events"
)

const publishTimeout = 5 * time.Second

// EventEnvelope wraps a domain event for the message bus
type EventEnvelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Payload   json.RawMessage `json:"payload"`
}

// SubjectFor maps an event type to its NATS subject
func SubjectFor(eventType events.EventType) string {
	return fmt.Sprintf("%s.%s", EventSubjectPrefix, eventType)
}

// EventForwarder republishes committed domain events to an external bus
type EventForwarder struct {
	publisher MessagePublisher
	now       func() time.Time
}

// NewEventForwarder creates a forwarder writing through publisher
func NewEventForwarder(publisher MessagePublisher) *EventForwarder {
	return &EventForwarder{publisher: publisher, now: time.Now}
}

// Subscribe forwards every event emitted on bus
func (f *EventForwarder) Subscribe(bus *events.Bus) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		if err := f.Forward(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to forward event")
		}
	})
}

// Forward wraps the event in an envelope and publishes it
func (f *EventForwarder) Forward(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:   uuid.New().String(),
		EventType: string(event.Type()),
		Timestamp: f.now().UTC(),
		Source:    "monkeybet",
		Payload:   payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	subject := SubjectFor(event.Type())
	if err := f.publisher.Publish(ctx, subject, data); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Forwarded event")
	return nil
}
