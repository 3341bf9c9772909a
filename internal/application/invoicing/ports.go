package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	partnerapp "github.com/suppliers/backend/internal/application/partner"
	"github.com/suppliers/backend/internal/domain/invoicing"
)

// ProductDescriptor describes a catalog product to find or create
type ProductDescriptor struct {
	EnterpriseID        uuid.UUID       `json:"enterprise_id"`
	Description         string          `json:"description"`
	Code                string          `json:"code,omitempty"`
	Unit                string          `json:"unit,omitempty"`
	UnitCount           decimal.Decimal `json:"unit_count,omitempty"`
	LastUnitPrice       decimal.Decimal `json:"last_unit_price,omitempty"`
	AdditionalReference string          `json:"additional_reference,omitempty"`
}

// ProductRef is a weak reference to a catalog product owned by the external
// catalog collaborator; the pipeline does not manage product lifecycle.
type ProductRef struct {
	ID uuid.UUID `json:"id"`
}

// CatalogClient reaches the remote catalog capability. Implementations use
// request/response messaging with a bounded timeout; a timeout, transport
// error, or malformed response surfaces as an error the caller must treat
// as non-fatal to invoice creation.
type CatalogClient interface {
	FindOrCreateProduct(ctx context.Context, descriptor ProductDescriptor) (*ProductRef, error)
}

// StockItemResult is the per-product outcome of a stock update
type StockItemResult struct {
	ProductID uuid.UUID `json:"product_id"`
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
}

// StockUpdateResult is the batched response of the inventory capability
type StockUpdateResult struct {
	Success bool              `json:"success"`
	Items   []StockItemResult `json:"items,omitempty"`
}

// InventoryClient reaches the remote inventory capability. All of an
// invoice's deltas go out as a single batched request; idempotency of the
// adjustment itself is the inventory collaborator's responsibility.
type InventoryClient interface {
	UpdateStock(ctx context.Context, enterpriseID uuid.UUID, adjustments []invoicing.StockAdjustment) (*StockUpdateResult, error)
}

// DocumentStorage provides access to stored source documents
type DocumentStorage interface {
	// GetDocumentURL returns a time-limited signed URL for a stored document
	GetDocumentURL(ctx context.Context, blobName string, expiresIn time.Duration) (string, error)
	// GetDocumentURLs returns signed URLs for a batch of documents; blobs
	// that fail URL generation are absent from the result
	GetDocumentURLs(ctx context.Context, blobNames []string, expiresIn time.Duration) (map[string]string, error)
	// DocumentExists checks whether a document blob exists
	DocumentExists(ctx context.Context, blobName string) (bool, error)
	// DeleteDocument removes a document blob; returns false when it did not exist
	DeleteDocument(ctx context.Context, blobName string) (bool, error)
}

// SupplierResolver resolves a supplier identity by name and tax id,
// creating one lazily when none exists
type SupplierResolver interface {
	FindOrCreate(ctx context.Context, enterpriseID uuid.UUID, name, cifNif string) (*partnerapp.SupplierResponse, error)
}
