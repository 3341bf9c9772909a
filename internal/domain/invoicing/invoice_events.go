package invoicing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/suppliers/backend/internal/domain/shared"
)

// Event types for the invoicing context
const (
	EventTypeInvoiceCreated = "invoicing.invoice.created"
	EventTypeInvoiceDeleted = "invoicing.invoice.deleted"
)

// InvoiceCreatedEvent is raised when an invoice has been persisted
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	SupplierID    uuid.UUID       `json:"supplier_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	LineCount     int             `json:"line_count"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(invoice *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeInvoiceCreated, "Invoice", invoice.ID, invoice.EnterpriseID),
		SupplierID:    invoice.SupplierID,
		InvoiceNumber: invoice.InvoiceNumber,
		Amount:        invoice.Amount,
		LineCount:     len(invoice.Lines),
	}
}

// InvoiceDeletedEvent is raised when an invoice is removed
type InvoiceDeletedEvent struct {
	shared.BaseDomainEvent
	SupplierID uuid.UUID `json:"supplier_id"`
	BlobName   string    `json:"blob_name"`
}

// NewInvoiceDeletedEvent creates a new InvoiceDeletedEvent
func NewInvoiceDeletedEvent(invoice *Invoice) *InvoiceDeletedEvent {
	return &InvoiceDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeInvoiceDeleted, "Invoice", invoice.ID, invoice.EnterpriseID),
		SupplierID: invoice.SupplierID,
		BlobName:   invoice.BlobName,
	}
}
