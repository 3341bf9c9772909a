package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	invoicingapp "github.com/suppliers/backend/internal/application/invoicing"
	partnerapp "github.com/suppliers/backend/internal/application/partner"
	"github.com/suppliers/backend/internal/domain/invoicing"
	"github.com/suppliers/backend/internal/domain/partner"
	"github.com/suppliers/backend/internal/domain/shared"
	"github.com/suppliers/backend/internal/interfaces/http/dto"
)

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]invoicing.Invoice, error) {
	args := m.Called(ctx, enterpriseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *invoicing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Exists(ctx context.Context, enterpriseID uuid.UUID, invoiceNumber string, documentType invoicing.DocumentType) (bool, error) {
	args := m.Called(ctx, enterpriseID, invoiceNumber, documentType)
	return args.Bool(0), args.Error(1)
}

type MockSupplierResolver struct {
	mock.Mock
}

func (m *MockSupplierResolver) FindOrCreate(ctx context.Context, enterpriseID uuid.UUID, name, cifNif string) (*partnerapp.SupplierResponse, error) {
	args := m.Called(ctx, enterpriseID, name, cifNif)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.SupplierResponse), args.Error(1)
}

type MockInventoryClient struct {
	mock.Mock
}

func (m *MockInventoryClient) UpdateStock(ctx context.Context, enterpriseID uuid.UUID, adjustments []invoicing.StockAdjustment) (*invoicingapp.StockUpdateResult, error) {
	args := m.Called(ctx, enterpriseID, adjustments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicingapp.StockUpdateResult), args.Error(1)
}

type MockDocumentStorage struct {
	mock.Mock
}

func (m *MockDocumentStorage) GetDocumentURL(ctx context.Context, blobName string, expiresIn time.Duration) (string, error) {
	args := m.Called(ctx, blobName, expiresIn)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStorage) GetDocumentURLs(ctx context.Context, blobNames []string, expiresIn time.Duration) (map[string]string, error) {
	args := m.Called(ctx, blobNames, expiresIn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockDocumentStorage) DocumentExists(ctx context.Context, blobName string) (bool, error) {
	args := m.Called(ctx, blobName)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentStorage) DeleteDocument(ctx context.Context, blobName string) (bool, error) {
	args := m.Called(ctx, blobName)
	return args.Bool(0), args.Error(1)
}

type invoiceHandlerFixture struct {
	supplierHandlerFixture
	invoiceRepo *MockInvoiceRepository
	resolver    *MockSupplierResolver
	inventory   *MockInventoryClient
	storage     *MockDocumentStorage
}

func newInvoiceHandlerFixture() *invoiceHandlerFixture {
	f := &invoiceHandlerFixture{
		invoiceRepo: new(MockInvoiceRepository),
		resolver:    new(MockSupplierResolver),
		inventory:   new(MockInventoryClient),
		storage:     new(MockDocumentStorage),
	}
	f.repo = new(MockSupplierRepository)

	service := invoicingapp.NewInvoiceService(
		f.invoiceRepo, f.repo, f.resolver, f.inventory, f.storage, nil, zap.NewNop())
	handler := NewInvoiceHandler(service, 24*time.Hour, 48*time.Hour)

	f.engine = gin.New()
	handler.RegisterRoutes(f.engine.Group("/api/v1"))
	return f
}

func storedInvoice(t *testing.T, enterpriseID uuid.UUID, blobName string) *invoicing.Invoice {
	t.Helper()
	invoice, err := invoicing.NewInvoice(enterpriseID, uuid.New(), invoicing.DocumentTypeInvoice, decimal.NewFromInt(120), time.Now())
	require.NoError(t, err)
	require.NoError(t, invoice.SetInvoiceNumber("F-2024-001"))
	require.NoError(t, invoice.SetBlobName(blobName))
	invoice.SetHasDeliveryNotes(true)
	return invoice
}

func TestInvoiceHandler_Create(t *testing.T) {
	enterpriseID := uuid.New()

	t.Run("creates invoice with explicit supplier and adjusts stock", func(t *testing.T) {
		f := newInvoiceHandlerFixture()
		supplier, err := partner.NewSupplier(enterpriseID, "Acme Foods", "B12345678")
		require.NoError(t, err)
		productID := uuid.New()

		f.repo.On("FindByIDForEnterprise", mock.Anything, enterpriseID, supplier.ID).
			Return(supplier, nil)
		f.invoiceRepo.On("Save", mock.Anything, mock.MatchedBy(func(inv *invoicing.Invoice) bool {
			return inv.InvoiceNumber == "F-2024-001" && len(inv.Lines) == 1
		})).Return(nil)
		f.inventory.On("UpdateStock", mock.Anything, enterpriseID,
			mock.MatchedBy(func(deltas []invoicing.StockAdjustment) bool {
				return len(deltas) == 1 && deltas[0].ProductID == productID &&
					deltas[0].QuantityDelta.Equal(decimal.NewFromInt(5))
			})).Return(&invoicingapp.StockUpdateResult{Success: true}, nil)

		rec := f.request(t, http.MethodPost, "/api/v1/invoicing/invoices", gin.H{
			"supplier_id":    supplier.ID.String(),
			"invoice_number": "F-2024-001",
			"document_type":  "invoice",
			"amount":         120.50,
			"lines": []gin.H{
				{
					"description":       "Olive oil 5L",
					"quantity":          5,
					"unit_price":        20.1,
					"amount":            100.5,
					"master_product_id": productID.String(),
				},
			},
		}, enterpriseID.String())

		require.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeResponse(t, rec)
		require.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		invoice := data["invoice"].(map[string]any)
		assert.Equal(t, "F-2024-001", invoice["invoice_number"])
		assert.Nil(t, data["warnings"])
		f.inventory.AssertExpectations(t)
	})

	t.Run("resolves supplier lazily by name", func(t *testing.T) {
		f := newInvoiceHandlerFixture()
		resolved := &partnerapp.SupplierResponse{ID: uuid.New(), EnterpriseID: enterpriseID, Name: "Acme Foods"}
		f.resolver.On("FindOrCreate", mock.Anything, enterpriseID, "Acme Foods", "B12345678").
			Return(resolved, nil)
		f.invoiceRepo.On("Save", mock.Anything, mock.MatchedBy(func(inv *invoicing.Invoice) bool {
			return inv.SupplierID == resolved.ID
		})).Return(nil)

		rec := f.request(t, http.MethodPost, "/api/v1/invoicing/invoices", gin.H{
			"supplier_name":      "Acme Foods",
			"supplier_cif_nif":   "B12345678",
			"invoice_number":     "F-2024-002",
			"amount":             80,
			"has_delivery_notes": true,
		}, enterpriseID.String())

		require.Equal(t, http.StatusCreated, rec.Code)
		f.resolver.AssertExpectations(t)
		f.inventory.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects missing supplier reference", func(t *testing.T) {
		f := newInvoiceHandlerFixture()

		rec := f.request(t, http.MethodPost, "/api/v1/invoicing/invoices", gin.H{
			"invoice_number": "F-2024-003",
			"amount":         50,
		}, enterpriseID.String())

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, dto.ErrCodeSupplierRequired, resp.Error.Code)
	})

	t.Run("reports failed stock adjustment as warning", func(t *testing.T) {
		f := newInvoiceHandlerFixture()
		supplier, err := partner.NewSupplier(enterpriseID, "Acme Foods", "B12345678")
		require.NoError(t, err)
		productID := uuid.New()

		f.repo.On("FindByIDForEnterprise", mock.Anything, enterpriseID, supplier.ID).
			Return(supplier, nil)
		f.invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.inventory.On("UpdateStock", mock.Anything, enterpriseID, mock.Anything).
			Return(nil, errors.New("inventory unreachable"))

		rec := f.request(t, http.MethodPost, "/api/v1/invoicing/invoices", gin.H{
			"supplier_id": supplier.ID.String(),
			"amount":      60,
			"lines": []gin.H{
				{"description": "Flour 25kg", "quantity": 2, "master_product_id": productID.String()},
			},
		}, enterpriseID.String())

		require.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeResponse(t, rec)
		data := resp.Data.(map[string]any)
		warnings := data["warnings"].([]any)
		require.Len(t, warnings, 1)
		assert.Equal(t, "stock_adjustment", warnings[0].(map[string]any)["step"])
	})

	t.Run("rejects unknown document type", func(t *testing.T) {
		f := newInvoiceHandlerFixture()

		rec := f.request(t, http.MethodPost, "/api/v1/invoicing/invoices", gin.H{
			"supplier_name": "Acme Foods",
			"document_type": "receipt",
			"amount":        10,
		}, enterpriseID.String())

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestInvoiceHandler_GetByID(t *testing.T) {
	enterpriseID := uuid.New()

	t.Run("returns invoice with supplier name", func(t *testing.T) {
		f := newInvoiceHandlerFixture()
		invoice := storedInvoice(t, enterpriseID, "docs/f-2024-001.pdf")
		supplier, err := partner.NewSupplier(enterpriseID, "Acme Foods", "B12345678")
		require.NoError(t, err)

		f.invoiceRepo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
		f.repo.On("FindByID", mock.Anything, invoice.SupplierID).Return(supplier, nil)

		rec := f.request(t, http.MethodGet, "/api/v1/invoicing/invoices/"+invoice.ID.String(), nil, enterpriseID.String())

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "Acme Foods", data["supplier_name"])
		assert.Equal(t, "F-2024-001", data["invoice_number"])
	})

	t.Run("returns 404 for unknown invoice", func(t *testing.T) {
		f := newInvoiceHandlerFixture()
		unknownID := uuid.New()
		f.invoiceRepo.On("FindByID", mock.Anything, unknownID).
			Return(nil, shared.NewDomainError("NOT_FOUND", "Invoice not found"))

		rec := f.request(t, http.MethodGet, "/api/v1/invoicing/invoices/"+unknownID.String(), nil, enterpriseID.String())

		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		f := newInvoiceHandlerFixture()

		rec := f.request(t, http.MethodGet, "/api/v1/invoicing/invoices/nope", nil, enterpriseID.String())

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestInvoiceHandler_CheckExists(t *testing.T) {
	enterpriseID := uuid.New()

	t.Run("reports existing invoice", func(t *testing.T) {
		f := newInvoiceHandlerFixture()
		f.invoiceRepo.On("Exists", mock.Anything, enterpriseID, "F-2024-001", invoicing.DocumentTypeInvoice).
			Return(true, nil)

		rec := f.request(t, http.MethodGet,
			"/api/v1/invoicing/invoices/exists?invoice_number=F-2024-001&document_type=invoice",
			nil, enterpriseID.String())

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, true, resp.Data.(map[string]any)["exists"])
	})

	t.Run("requires invoice number", func(t *testing.T) {
		f := newInvoiceHandlerFixture()

		rec := f.request(t, http.MethodGet, "/api/v1/invoicing/invoices/exists", nil, enterpriseID.String())

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestInvoiceHandler_DocumentURLs(t *testing.T) {
	enterpriseID := uuid.New()

	t.Run("returns signed url for single invoice", func(t *testing.T) {
		f := newInvoiceHandlerFixture()
		invoice := storedInvoice(t, enterpriseID, "docs/f-2024-001.pdf")
		f.invoiceRepo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
		f.storage.On("GetDocumentURL", mock.Anything, "docs/f-2024-001.pdf", 24*time.Hour).
			Return("https://storage.example.com/docs/f-2024-001.pdf?signed", nil)

		rec := f.request(t, http.MethodGet,
			"/api/v1/invoicing/invoices/"+invoice.ID.String()+"/document-url", nil, enterpriseID.String())

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "https://storage.example.com/docs/f-2024-001.pdf?signed", data["url"])
	})

	t.Run("returns 404 when invoice has no stored document", func(t *testing.T) {
		f := newInvoiceHandlerFixture()
		invoice := storedInvoice(t, enterpriseID, "")
		f.invoiceRepo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)

		rec := f.request(t, http.MethodGet,
			"/api/v1/invoicing/invoices/"+invoice.ID.String()+"/document-url", nil, enterpriseID.String())

		require.Equal(t, http.StatusNotFound, rec.Code)
		f.storage.AssertNotCalled(t, "GetDocumentURL", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("returns batch of signed urls", func(t *testing.T) {
		f := newInvoiceHandlerFixture()
		first := storedInvoice(t, enterpriseID, "docs/a.pdf")
		second := storedInvoice(t, enterpriseID, "")
		f.invoiceRepo.On("FindByID", mock.Anything, first.ID).Return(first, nil)
		f.invoiceRepo.On("FindByID", mock.Anything, second.ID).Return(second, nil)
		f.storage.On("GetDocumentURLs", mock.Anything, []string{"docs/a.pdf"}, 48*time.Hour).
			Return(map[string]string{"docs/a.pdf": "https://storage.example.com/docs/a.pdf?signed"}, nil)

		rec := f.request(t, http.MethodPost, "/api/v1/invoicing/invoices/document-urls", gin.H{
			"invoice_ids": []string{first.ID.String(), second.ID.String()},
		}, enterpriseID.String())

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		urls := resp.Data.([]any)
		require.Len(t, urls, 1)
		assert.Equal(t, first.ID.String(), urls[0].(map[string]any)["invoice_id"])
	})

	t.Run("rejects empty batch", func(t *testing.T) {
		f := newInvoiceHandlerFixture()

		rec := f.request(t, http.MethodPost, "/api/v1/invoicing/invoices/document-urls", gin.H{
			"invoice_ids": []string{},
		}, enterpriseID.String())

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestInvoiceHandler_Delete(t *testing.T) {
	enterpriseID := uuid.New()

	t.Run("deletes invoice and its document", func(t *testing.T) {
		f := newInvoiceHandlerFixture()
		invoice := storedInvoice(t, enterpriseID, "docs/f-2024-001.pdf")

		f.invoiceRepo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
		f.storage.On("DeleteDocument", mock.Anything, "docs/f-2024-001.pdf").Return(true, nil)
		f.invoiceRepo.On("Delete", mock.Anything, invoice.ID).Return(nil)

		rec := f.request(t, http.MethodDelete, "/api/v1/invoicing/invoices/"+invoice.ID.String(), nil, enterpriseID.String())

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
		f.invoiceRepo.AssertExpectations(t)
		f.storage.AssertExpectations(t)
	})

	t.Run("surfaces blob deletion failure as warning", func(t *testing.T) {
		f := newInvoiceHandlerFixture()
		invoice := storedInvoice(t, enterpriseID, "docs/f-2024-001.pdf")

		f.invoiceRepo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
		f.storage.On("DeleteDocument", mock.Anything, "docs/f-2024-001.pdf").
			Return(false, errors.New("storage unreachable"))
		f.invoiceRepo.On("Delete", mock.Anything, invoice.ID).Return(nil)

		rec := f.request(t, http.MethodDelete, "/api/v1/invoicing/invoices/"+invoice.ID.String(), nil, enterpriseID.String())

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		warnings := resp.Data.(map[string]any)["warnings"].([]any)
		require.Len(t, warnings, 1)
		assert.Equal(t, "blob_deletion", warnings[0].(map[string]any)["step"])
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		f := newInvoiceHandlerFixture()

		rec := f.request(t, http.MethodDelete, "/api/v1/invoicing/invoices/nope", nil, enterpriseID.String())

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
