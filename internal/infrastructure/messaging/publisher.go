package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/suppliers/backend/internal/application/documents"
	"github.com/suppliers/backend/internal/domain/invoicing"
)

// NATSIntegrationPublisher emits integration events to the messaging fabric
type NATSIntegrationPublisher struct {
	conn publisher
}

// NewNATSIntegrationPublisher creates a new NATSIntegrationPublisher
func NewNATSIntegrationPublisher(conn publisher) *NATSIntegrationPublisher {
	return &NATSIntegrationPublisher{conn: conn}
}

// PublishInvoiceProcessed correlates a created invoice back to the document
// that produced it
func (p *NATSIntegrationPublisher) PublishInvoiceProcessed(_ context.Context, event documents.InvoiceProcessedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode invoice processed event: %w", err)
	}
	if err := p.conn.Publish(SubjectInvoiceProcessed, payload); err != nil {
		return fmt.Errorf("failed to publish invoice processed event: %w", err)
	}
	return nil
}

// PublishInvoiceCreated announces a new invoice to downstream consumers
func (p *NATSIntegrationPublisher) PublishInvoiceCreated(_ context.Context, event *invoicing.InvoiceCreatedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode invoice created event: %w", err)
	}
	if err := p.conn.Publish(SubjectInvoiceCreated, payload); err != nil {
		return fmt.Errorf("failed to publish invoice created event: %w", err)
	}
	return nil
}

// Ensure NATSIntegrationPublisher implements IntegrationPublisher
var _ documents.IntegrationPublisher = (*NATSIntegrationPublisher)(nil)
