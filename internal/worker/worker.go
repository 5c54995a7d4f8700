package worker

import (
	"context"
	"log"

	"commerce-api/internal/broker"
	"commerce-api/internal/models"
	"commerce-api/internal/store"
)

// AuditWorker consumes order events and records them in the
// processed-events table, deduplicating by event id.
type AuditWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(consumer *broker.Consumer, st *store.Store) *AuditWorker {
	w := &AuditWorker{
		consumer: consumer,
		store:    st,
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(func(ctx context.Context, event *models.OrderPlacedEvent) error {
		return w.record(ctx, event.EventID, event.EventType)
	})
	eventHandler.OnOrderStatusChanged(func(ctx context.Context, event *models.OrderStatusChangedEvent) error {
		return w.record(ctx, event.EventID, event.EventType)
	})
	w.eventHandler = eventHandler

	return w
}

func (w *AuditWorker) record(ctx context.Context, eventID, eventType string) error {
	processed, err := w.store.IsEventProcessed(ctx, eventID)
	if err != nil {
		return err
	}
	if processed {
		log.Printf("Skipping already processed event: %s", eventID)
		return nil
	}
	return w.store.MarkEventProcessed(ctx, eventID, eventType)
}

// Start starts the worker
func (w *AuditWorker) Start(ctx context.Context) error {
	log.Println("Starting audit worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AuditWorker) Stop() error {
	log.Println("Stopping audit worker...")
	return w.consumer.Close()
}
