package invoicing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/suppliers/backend/internal/domain/shared"
)

// DocumentType classifies the source document an invoice was created from
type DocumentType string

const (
	DocumentTypeInvoice      DocumentType = "invoice"
	DocumentTypeDeliveryNote DocumentType = "delivery_note"
)

// Invoice represents a supplier invoice reconstructed from an analyzed
// document. It is the aggregate root for the reconciliation pipeline;
// lines are owned by the invoice and deleted with it.
type Invoice struct {
	shared.EnterpriseAggregateRoot
	SupplierID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceNumber    string          `gorm:"type:varchar(100);index"`
	BlobName         string          `gorm:"type:varchar(500)"` // source document in object storage
	DocumentType     DocumentType    `gorm:"type:varchar(20);not null;default:'invoice'"`
	HasDeliveryNotes bool            `gorm:"not null;default:false"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency         string          `gorm:"type:varchar(10)"`
	Date             time.Time       `gorm:"not null"`
	Type             string          `gorm:"type:varchar(50)"`
	Lines            []InvoiceLine   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceLine is a single line of an invoice. MasterProductID is a weak
// reference to a catalog product owned by an external collaborator; it is
// nil when product resolution failed or was never attempted.
type InvoiceLine struct {
	shared.BaseEntity
	InvoiceID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position            int             `gorm:"not null;default:0"` // original extraction order
	Quantity            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Price               decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Amount              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Description         string          `gorm:"type:text"`
	Tax                 string          `gorm:"type:varchar(50)"`
	DiscountCode        string          `gorm:"type:varchar(50)"`
	AdditionalReference string          `gorm:"type:varchar(200)"`
	MasterProductID     *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (InvoiceLine) TableName() string {
	return "invoice_lines"
}

// HasProduct returns true when the line carries a resolved product reference
func (l *InvoiceLine) HasProduct() bool {
	return l.MasterProductID != nil && *l.MasterProductID != uuid.Nil
}

// NewInvoice creates a new invoice. An invoice always references a resolved
// supplier; creation fails otherwise.
func NewInvoice(enterpriseID, supplierID uuid.UUID, documentType DocumentType, amount decimal.Decimal, date time.Time) (*Invoice, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("SUPPLIER_REQUIRED", "Invoice requires a resolved supplier")
	}
	if err := validateDocumentType(documentType); err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = time.Now()
	}

	invoice := &Invoice{
		EnterpriseAggregateRoot: shared.NewEnterpriseAggregateRoot(enterpriseID),
		SupplierID:              supplierID,
		DocumentType:            documentType,
		Amount:                  amount,
		TaxAmount:               decimal.Zero,
		Date:                    date,
		Lines:                   make([]InvoiceLine, 0),
	}

	return invoice, nil
}

// SetInvoiceNumber sets the extracted invoice number
func (i *Invoice) SetInvoiceNumber(number string) error {
	if len(number) > 100 {
		return shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 100 characters")
	}
	i.InvoiceNumber = strings.TrimSpace(number)
	return nil
}

// SetBlobName sets the reference to the stored source document
func (i *Invoice) SetBlobName(blobName string) error {
	if len(blobName) > 500 {
		return shared.NewDomainError("INVALID_BLOB_NAME", "Blob name cannot exceed 500 characters")
	}
	i.BlobName = blobName
	return nil
}

// SetHasDeliveryNotes marks whether the invoice is backed by delivery notes.
// Only meaningful for documents of type invoice; delivery notes themselves
// always adjust stock.
func (i *Invoice) SetHasDeliveryNotes(has bool) {
	i.HasDeliveryNotes = has
}

// SetTaxDetails sets the extracted tax amount and currency
func (i *Invoice) SetTaxDetails(taxAmount decimal.Decimal, currency string) {
	i.TaxAmount = taxAmount
	i.Currency = currency
}

// SetType sets the free-form invoice type label
func (i *Invoice) SetType(invoiceType string) {
	i.Type = invoiceType
}

// AddLine appends a line to the invoice, normalizing absent values:
// quantity defaults to 1, unit price to 0. Position records the original
// extraction order so concurrent resolution cannot reorder lines.
func (i *Invoice) AddLine(line InvoiceLine) {
	if line.ID == uuid.Nil {
		line.BaseEntity = shared.NewBaseEntity()
	}
	line.InvoiceID = i.ID
	line.Position = len(i.Lines)
	if line.Quantity.IsZero() {
		line.Quantity = decimal.NewFromInt(1)
	}
	i.Lines = append(i.Lines, line)
}

// MarkCreated raises the created event once the invoice is fully assembled
func (i *Invoice) MarkCreated() {
	i.AddDomainEvent(NewInvoiceCreatedEvent(i))
}

// MarkDeleted raises the deleted event prior to removal
func (i *Invoice) MarkDeleted() {
	i.AddDomainEvent(NewInvoiceDeletedEvent(i))
}

func validateDocumentType(t DocumentType) error {
	switch t {
	case DocumentTypeInvoice, DocumentTypeDeliveryNote:
		return nil
	default:
		return shared.NewDomainError("INVALID_DOCUMENT_TYPE", "Document type must be invoice or delivery_note")
	}
}

// ParseDocumentType maps a raw document type string to a DocumentType,
// defaulting to invoice for unknown values.
func ParseDocumentType(raw string) DocumentType {
	if DocumentType(raw) == DocumentTypeDeliveryNote {
		return DocumentTypeDeliveryNote
	}
	return DocumentTypeInvoice
}
