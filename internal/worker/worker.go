package worker

import (
	"context"
	"log"
	"time"

	"commerce-service/internal/broker"
	"commerce-service/internal/models"
	"commerce-service/internal/service"
	"commerce-service/internal/util"
)

const (
	replayInterval   = time.Minute
	replayMinAgeSecs = 60
	replayBatchSize  = 50
)

// WebhookWorker reconciles persisted gateway webhooks. The main path
// consumes WebhookReceived events from Kafka; a ticker-driven replay pass
// over unprocessed rows backstops broker outages and webhooks that arrived
// before their payment session existed.
type WebhookWorker struct {
	consumer       *broker.Consumer
	eventHandler   *broker.WebhookEventHandler
	paymentService *service.PaymentService
	replayer       WebhookReplayer
}

// WebhookReplayer lists unprocessed webhook rows for the replay pass
type WebhookReplayer interface {
	ListUnprocessedWebhooks(ctx context.Context, minAgeSeconds, limit int) ([]models.PaymentWebhook, error)
}

// NewWebhookWorker creates a new webhook worker
func NewWebhookWorker(
	consumer *broker.Consumer,
	paymentService *service.PaymentService,
	replayer WebhookReplayer,
) *WebhookWorker {
	eventHandler := broker.NewWebhookEventHandler()

	eventHandler.OnWebhookReceived(func(ctx context.Context, event *models.WebhookReceivedEvent) error {
		return paymentService.ProcessStoredWebhook(ctx, event.WebhookID)
	})

	return &WebhookWorker{
		consumer:       consumer,
		eventHandler:   eventHandler,
		paymentService: paymentService,
		replayer:       replayer,
	}
}

// Start runs the consumer loop and the replay ticker until ctx is cancelled
func (w *WebhookWorker) Start(ctx context.Context) error {
	log.Println("Starting webhook worker...")

	go w.runReplayLoop(ctx)

	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *WebhookWorker) Stop() error {
	log.Println("Stopping webhook worker...")
	return w.consumer.Close()
}

// runReplayLoop periodically re-drives unprocessed webhook rows
func (w *WebhookWorker) runReplayLoop(ctx context.Context) {
	ticker := time.NewTicker(replayInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.replayPass(ctx)
		}
	}
}

// replayPass processes one batch of stale unprocessed webhooks
func (w *WebhookWorker) replayPass(ctx context.Context) {
	webhooks, err := w.replayer.ListUnprocessedWebhooks(ctx, replayMinAgeSecs, replayBatchSize)
	if err != nil {
		log.Printf("Webhook replay listing failed: %v", err)
		return
	}

	for _, webhook := range webhooks {
		if err := w.paymentService.ProcessStoredWebhook(ctx, webhook.ID); err != nil {
			log.Printf("Webhook replay failed for webhook %d: %v", webhook.ID, err)
			continue
		}
		util.WebhooksReplayedTotal.Inc()
	}

	if len(webhooks) > 0 {
		log.Printf("Webhook replay pass handled %d rows", len(webhooks))
	}
}
