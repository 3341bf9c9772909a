package invoicing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvoice(t *testing.T) {
	enterpriseID := uuid.New()
	supplierID := uuid.New()

	t.Run("valid invoice", func(t *testing.T) {
		invoice, err := NewInvoice(enterpriseID, supplierID, DocumentTypeInvoice, decimal.NewFromInt(100), time.Now())
		require.NoError(t, err)
		assert.Equal(t, supplierID, invoice.SupplierID)
		assert.Equal(t, DocumentTypeInvoice, invoice.DocumentType)
		assert.Empty(t, invoice.Lines)
	})

	t.Run("missing supplier rejected", func(t *testing.T) {
		_, err := NewInvoice(enterpriseID, uuid.Nil, DocumentTypeInvoice, decimal.NewFromInt(100), time.Now())
		assert.Error(t, err)
	})

	t.Run("invalid document type rejected", func(t *testing.T) {
		_, err := NewInvoice(enterpriseID, supplierID, DocumentType("receipt"), decimal.NewFromInt(100), time.Now())
		assert.Error(t, err)
	})

	t.Run("zero date defaults to now", func(t *testing.T) {
		invoice, err := NewInvoice(enterpriseID, supplierID, DocumentTypeInvoice, decimal.NewFromInt(100), time.Time{})
		require.NoError(t, err)
		assert.False(t, invoice.Date.IsZero())
	})
}

func TestInvoice_AddLine(t *testing.T) {
	invoice, err := NewInvoice(uuid.New(), uuid.New(), DocumentTypeInvoice, decimal.NewFromInt(50), time.Now())
	require.NoError(t, err)

	invoice.AddLine(InvoiceLine{Description: "Widget", Quantity: decimal.NewFromInt(5)})
	invoice.AddLine(InvoiceLine{Description: "Gadget"}) // no quantity given

	require.Len(t, invoice.Lines, 2)
	assert.Equal(t, 0, invoice.Lines[0].Position)
	assert.Equal(t, 1, invoice.Lines[1].Position)
	assert.Equal(t, invoice.ID, invoice.Lines[0].InvoiceID)
	assert.True(t, invoice.Lines[0].Quantity.Equal(decimal.NewFromInt(5)))
	// quantity defaults to 1 when extraction did not provide one
	assert.True(t, invoice.Lines[1].Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, invoice.Lines[1].UnitPrice.IsZero())
}

func TestInvoice_MarkCreated(t *testing.T) {
	invoice, err := NewInvoice(uuid.New(), uuid.New(), DocumentTypeDeliveryNote, decimal.NewFromInt(10), time.Now())
	require.NoError(t, err)
	invoice.AddLine(InvoiceLine{Description: "Widget"})
	invoice.MarkCreated()

	events := invoice.GetDomainEvents()
	require.Len(t, events, 1)
	created, ok := events[0].(*InvoiceCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, EventTypeInvoiceCreated, created.EventType())
	assert.Equal(t, 1, created.LineCount)
}

func TestInvoiceLine_HasProduct(t *testing.T) {
	productID := uuid.New()
	nilID := uuid.Nil

	assert.True(t, (&InvoiceLine{MasterProductID: &productID}).HasProduct())
	assert.False(t, (&InvoiceLine{}).HasProduct())
	assert.False(t, (&InvoiceLine{MasterProductID: &nilID}).HasProduct())
}

func TestParseDocumentType(t *testing.T) {
	assert.Equal(t, DocumentTypeDeliveryNote, ParseDocumentType("delivery_note"))
	assert.Equal(t, DocumentTypeInvoice, ParseDocumentType("invoice"))
	assert.Equal(t, DocumentTypeInvoice, ParseDocumentType(""))
	assert.Equal(t, DocumentTypeInvoice, ParseDocumentType("unknown"))
}
