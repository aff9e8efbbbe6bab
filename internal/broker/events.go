package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"commerce-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	orderProducer   *Producer
	webhookProducer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(orderProducer, webhookProducer *Producer) *EventPublisher {
	return &EventPublisher{
		orderProducer:   orderProducer,
		webhookProducer: webhookProducer,
	}
}

// PublishOrderCreated publishes OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.orderProducer.PublishEvent(ctx, key, event)
}

// PublishOrderConfirmed publishes OrderConfirmed event
func (ep *EventPublisher) PublishOrderConfirmed(ctx context.Context, event *models.OrderConfirmedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.orderProducer.PublishEvent(ctx, key, event)
}

// PublishOrderCancelled publishes OrderCancelled event
func (ep *EventPublisher) PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.orderProducer.PublishEvent(ctx, key, event)
}

// PublishPaymentSuccess publishes PaymentSuccess event
func (ep *EventPublisher) PublishPaymentSuccess(ctx context.Context, event *models.PaymentSuccessEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.orderProducer.PublishEvent(ctx, key, event)
}

// PublishPaymentFailed publishes PaymentFailed event
func (ep *EventPublisher) PublishPaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.orderProducer.PublishEvent(ctx, key, event)
}

// PublishWebhookReceived publishes WebhookReceived event on the webhook topic
func (ep *EventPublisher) PublishWebhookReceived(ctx context.Context, event *models.WebhookReceivedEvent) error {
	key := fmt.Sprintf("webhook-%s", event.GatewayOrderID)
	return ep.webhookProducer.PublishEvent(ctx, key, event)
}

// WebhookEventHandler routes webhook-topic messages
type WebhookEventHandler struct {
	onWebhookReceived func(context.Context, *models.WebhookReceivedEvent) error
}

// NewWebhookEventHandler creates a new webhook event handler
func NewWebhookEventHandler() *WebhookEventHandler {
	return &WebhookEventHandler{}
}

// OnWebhookReceived registers a handler for WebhookReceived events
func (eh *WebhookEventHandler) OnWebhookReceived(handler func(context.Context, *models.WebhookReceivedEvent) error) {
	eh.onWebhookReceived = handler
}

// HandleMessage routes messages to the appropriate handler
func (eh *WebhookEventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeWebhookReceived:
		if eh.onWebhookReceived != nil {
			var event models.WebhookReceivedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal WebhookReceived event: %w", err)
			}
			return eh.onWebhookReceived(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
