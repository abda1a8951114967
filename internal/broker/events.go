package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"tattoo-market/internal/models"
	"tattoo-market/internal/util"
)

// NewBaseEvent stamps a fresh event id and time
func NewBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// EventPublisher handles publishing domain events. Work lifecycle events go to
// the events topic keyed by work; broadcasts go to the mailing topic.
type EventPublisher struct {
	events  *Producer
	mailing *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(events, mailing *Producer) *EventPublisher {
	return &EventPublisher{events: events, mailing: mailing}
}

// PublishWorkSubmitted publishes WorkSubmitted event
func (ep *EventPublisher) PublishWorkSubmitted(ctx context.Context, event *models.WorkSubmittedEvent) error {
	return ep.events.PublishEvent(ctx, workKey(event.WorkID), event)
}

// PublishWorkModerated publishes WorkModerated event
func (ep *EventPublisher) PublishWorkModerated(ctx context.Context, event *models.WorkModeratedEvent) error {
	return ep.events.PublishEvent(ctx, workKey(event.WorkID), event)
}

// PublishMailingRequested publishes MailingRequested event
func (ep *EventPublisher) PublishMailingRequested(ctx context.Context, event *models.MailingRequestedEvent) error {
	return ep.mailing.PublishEvent(ctx, event.EventID, event)
}

func workKey(workID int64) string {
	return fmt.Sprintf("work-%d", workID)
}

// EventHandler handles incoming events
type EventHandler struct {
	onWorkSubmitted    func(context.Context, *models.WorkSubmittedEvent) error
	onWorkModerated    func(context.Context, *models.WorkModeratedEvent) error
	onMailingRequested func(context.Context, *models.MailingRequestedEvent) error
	logger             *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnWorkSubmitted registers a handler for WorkSubmitted events
func (eh *EventHandler) OnWorkSubmitted(handler func(context.Context, *models.WorkSubmittedEvent) error) {
	eh.onWorkSubmitted = handler
}

// OnWorkModerated registers a handler for WorkModerated events
func (eh *EventHandler) OnWorkModerated(handler func(context.Context, *models.WorkModeratedEvent) error) {
	eh.onWorkModerated = handler
}

// OnMailingRequested registers a handler for MailingRequested events
func (eh *EventHandler) OnMailingRequested(handler func(context.Context, *models.MailingRequestedEvent) error) {
	eh.onMailingRequested = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeWorkSubmitted:
		if eh.onWorkSubmitted != nil {
			var event models.WorkSubmittedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal WorkSubmitted event: %w", err)
			}
			return eh.onWorkSubmitted(ctx, &event)
		}

	case models.EventTypeWorkModerated:
		if eh.onWorkModerated != nil {
			var event models.WorkModeratedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal WorkModerated event: %w", err)
			}
			return eh.onWorkModerated(ctx, &event)
		}

	case models.EventTypeMailingRequested:
		if eh.onMailingRequested != nil {
			var event models.MailingRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal MailingRequested event: %w", err)
			}
			return eh.onMailingRequested(ctx, &event)
		}

	default:
		eh.logger.Warn("unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
