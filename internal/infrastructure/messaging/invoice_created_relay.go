package messaging

import (
	"context"
	"fmt"

	"github.com/suppliers/backend/internal/domain/invoicing"
	"github.com/suppliers/backend/internal/domain/shared"
)

// InvoiceCreatedRelay forwards the domain's invoice created event onto the
// messaging fabric so external consumers see new invoices without coupling
// to the invoice service.
type InvoiceCreatedRelay struct {
	publisher *NATSIntegrationPublisher
}

// NewInvoiceCreatedRelay creates a new InvoiceCreatedRelay
func NewInvoiceCreatedRelay(publisher *NATSIntegrationPublisher) *InvoiceCreatedRelay {
	return &InvoiceCreatedRelay{publisher: publisher}
}

// Handle relays an invoice created event to NATS
func (r *InvoiceCreatedRelay) Handle(ctx context.Context, event shared.DomainEvent) error {
	created, ok := event.(*invoicing.InvoiceCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %s", event.EventType())
	}
	return r.publisher.PublishInvoiceCreated(ctx, created)
}

// EventTypes returns the event types this relay subscribes to
func (r *InvoiceCreatedRelay) EventTypes() []string {
	return []string{invoicing.EventTypeInvoiceCreated}
}

// Ensure InvoiceCreatedRelay implements EventHandler
var _ shared.EventHandler = (*InvoiceCreatedRelay)(nil)
