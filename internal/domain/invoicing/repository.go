package invoicing

import (
	"context"

	"github.com/google/uuid"
)

// InvoiceRepository defines the persistence contract for invoices.
// Save persists the invoice together with its lines as a single atomic
// write; Delete cascades to the lines.
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindAllForEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]Invoice, error)
	Save(ctx context.Context, invoice *Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Exists reports whether an invoice with the given number and document
	// type already exists within an enterprise. Used as a redelivery
	// pre-check before creating an invoice from an analyzed document.
	Exists(ctx context.Context, enterpriseID uuid.UUID, invoiceNumber string, documentType DocumentType) (bool, error)
}
