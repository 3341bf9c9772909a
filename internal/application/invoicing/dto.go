package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/suppliers/backend/internal/domain/invoicing"
)

// ExtractedLine is one line of extraction output. Every field is optional;
// a line lacking a description cannot be attributed to any product and is
// dropped before processing.
type ExtractedLine struct {
	ProductCode         string          `json:"productCode,omitempty"`
	Description         string          `json:"description,omitempty"`
	Unit                string          `json:"unit,omitempty"`
	UnitPrice           decimal.Decimal `json:"unitPrice,omitempty"`
	UnitCount           decimal.Decimal `json:"unitCount,omitempty"`
	Price               decimal.Decimal `json:"price,omitempty"`
	Quantity            decimal.Decimal `json:"quantity,omitempty"`
	Amount              decimal.Decimal `json:"amount,omitempty"`
	Tax                 string          `json:"tax,omitempty"`
	DiscountCode        string          `json:"discountCode,omitempty"`
	AdditionalReference string          `json:"additionalReference,omitempty"`
}

// CreateInvoiceRequest carries everything needed to persist an invoice.
// Either SupplierID or SupplierName must be set; when only the name is
// given the supplier is resolved lazily.
type CreateInvoiceRequest struct {
	EnterpriseID     uuid.UUID
	SupplierID       *uuid.UUID
	SupplierName     string
	SupplierCifNif   string
	InvoiceNumber    string
	BlobName         string
	DocumentType     invoicing.DocumentType
	HasDeliveryNotes bool
	Amount           decimal.Decimal
	TaxAmount        decimal.Decimal
	Currency         string
	Date             time.Time
	Type             string
	Lines            []invoicing.InvoiceLine
}

// SideEffectWarning records a non-fatal failure that happened after the
// primary commit. The invoice is durable; the side effect is degraded.
type SideEffectWarning struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// CreateInvoiceResult is the two-phase outcome of invoice creation:
// the committed invoice plus any side-effect warnings.
type CreateInvoiceResult struct {
	Invoice  InvoiceResponse     `json:"invoice"`
	Warnings []SideEffectWarning `json:"warnings,omitempty"`
}

// DeleteInvoiceResult reports a completed deletion and any non-blocking
// reversal failures encountered on the way.
type DeleteInvoiceResult struct {
	Warnings []SideEffectWarning `json:"warnings,omitempty"`
}

// InvoiceLineResponse represents an invoice line returned to callers
type InvoiceLineResponse struct {
	ID                  uuid.UUID       `json:"id"`
	Position            int             `json:"position"`
	Quantity            decimal.Decimal `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Price               decimal.Decimal `json:"price"`
	Amount              decimal.Decimal `json:"amount"`
	Description         string          `json:"description,omitempty"`
	Tax                 string          `json:"tax,omitempty"`
	DiscountCode        string          `json:"discount_code,omitempty"`
	AdditionalReference string          `json:"additional_reference,omitempty"`
	MasterProductID     *uuid.UUID      `json:"master_product_id,omitempty"`
}

// InvoiceResponse represents invoice data returned to callers
type InvoiceResponse struct {
	ID               uuid.UUID             `json:"id"`
	EnterpriseID     uuid.UUID             `json:"enterprise_id"`
	SupplierID       uuid.UUID             `json:"supplier_id"`
	SupplierName     string                `json:"supplier_name,omitempty"`
	InvoiceNumber    string                `json:"invoice_number,omitempty"`
	BlobName         string                `json:"blob_name,omitempty"`
	DocumentType     string                `json:"document_type"`
	HasDeliveryNotes bool                  `json:"has_delivery_notes"`
	Amount           decimal.Decimal       `json:"amount"`
	TaxAmount        decimal.Decimal       `json:"tax_amount"`
	Currency         string                `json:"currency,omitempty"`
	Date             time.Time             `json:"date"`
	Type             string                `json:"type,omitempty"`
	Lines            []InvoiceLineResponse `json:"lines,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// DocumentURLResponse carries a signed access URL for an invoice document
type DocumentURLResponse struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ToInvoiceResponse converts a domain invoice to a response DTO
func ToInvoiceResponse(inv *invoicing.Invoice) InvoiceResponse {
	lines := make([]InvoiceLineResponse, 0, len(inv.Lines))
	for i := range inv.Lines {
		l := &inv.Lines[i]
		lines = append(lines, InvoiceLineResponse{
			ID:                  l.ID,
			Position:            l.Position,
			Quantity:            l.Quantity,
			UnitPrice:           l.UnitPrice,
			Price:               l.Price,
			Amount:              l.Amount,
			Description:         l.Description,
			Tax:                 l.Tax,
			DiscountCode:        l.DiscountCode,
			AdditionalReference: l.AdditionalReference,
			MasterProductID:     l.MasterProductID,
		})
	}
	return InvoiceResponse{
		ID:               inv.ID,
		EnterpriseID:     inv.EnterpriseID,
		SupplierID:       inv.SupplierID,
		InvoiceNumber:    inv.InvoiceNumber,
		BlobName:         inv.BlobName,
		DocumentType:     string(inv.DocumentType),
		HasDeliveryNotes: inv.HasDeliveryNotes,
		Amount:           inv.Amount,
		TaxAmount:        inv.TaxAmount,
		Currency:         inv.Currency,
		Date:             inv.Date,
		Type:             inv.Type,
		Lines:            lines,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
	}
}
