package documents

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	invoicingapp "github.com/suppliers/backend/internal/application/invoicing"
)

// Extraction is the structured output of the external OCR/extraction stage
type Extraction struct {
	SupplierName  string                       `json:"supplierName,omitempty"`
	SupplierTaxID string                       `json:"supplierTaxId,omitempty"`
	InvoiceNumber string                       `json:"invoiceNumber,omitempty"`
	IssueDate     string                       `json:"issueDate,omitempty"`
	TotalAmount   decimal.Decimal              `json:"totalAmount,omitempty"`
	TaxAmount     decimal.Decimal              `json:"taxAmount,omitempty"`
	Currency      string                       `json:"currency,omitempty"`
	Lines         []invoicingapp.ExtractedLine `json:"lines,omitempty"`
}

// DocumentAnalyzedEvent is produced once per analyzed document by the
// extraction stage. Delivery is at-least-once with no ordering guarantee
// across documents.
type DocumentAnalyzedEvent struct {
	DocumentID       string     `json:"documentId"`
	EnterpriseID     uuid.UUID  `json:"enterpriseId"`
	BlobName         string     `json:"blobName,omitempty"`
	DocumentType     string     `json:"documentType,omitempty"`
	HasDeliveryNotes bool       `json:"hasDeliveryNotes,omitempty"`
	Extraction       Extraction `json:"extraction"`
}

// DocumentAnalysisFailedEvent reports a failed extraction; logged only
type DocumentAnalysisFailedEvent struct {
	DocumentID string `json:"documentId"`
	Reason     string `json:"reason,omitempty"`
}

// InvoiceProcessedEvent correlates a created invoice back to the document
// that triggered it
type InvoiceProcessedEvent struct {
	DocumentID   string    `json:"documentId"`
	InvoiceID    uuid.UUID `json:"invoiceId"`
	EnterpriseID uuid.UUID `json:"enterpriseId"`
	Success      bool      `json:"success"`
}
