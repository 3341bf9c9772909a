package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	partnerapp "github.com/suppliers/backend/internal/application/partner"
	"github.com/suppliers/backend/internal/domain/partner"
	"github.com/suppliers/backend/internal/domain/shared"
	"github.com/suppliers/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockSupplierRepository struct {
	mock.Mock
}

func (m *MockSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindByIDForEnterprise(ctx context.Context, enterpriseID, id uuid.UUID) (*partner.Supplier, error) {
	args := m.Called(ctx, enterpriseID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindByCifNif(ctx context.Context, enterpriseID uuid.UUID, cifNif string) (*partner.Supplier, error) {
	args := m.Called(ctx, enterpriseID, cifNif)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindByName(ctx context.Context, enterpriseID uuid.UUID, name string) (*partner.Supplier, error) {
	args := m.Called(ctx, enterpriseID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindAllForEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]partner.Supplier, error) {
	args := m.Called(ctx, enterpriseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

func (m *MockSupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSupplierRepository) CountInvoices(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

type supplierHandlerFixture struct {
	repo   *MockSupplierRepository
	engine *gin.Engine
}

func newSupplierHandlerFixture() *supplierHandlerFixture {
	repo := new(MockSupplierRepository)
	service := partnerapp.NewSupplierService(repo, nil, zap.NewNop())
	handler := NewSupplierHandler(service)

	engine := gin.New()
	handler.RegisterRoutes(engine.Group("/api/v1"))

	return &supplierHandlerFixture{repo: repo, engine: engine}
}

func (f *supplierHandlerFixture) request(t *testing.T, method, path string, body any, enterpriseID string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if enterpriseID != "" {
		req.Header.Set("X-Enterprise-ID", enterpriseID)
	}

	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSupplierHandler_Create(t *testing.T) {
	enterpriseID := uuid.New()

	t.Run("creates supplier", func(t *testing.T) {
		f := newSupplierHandlerFixture()
		f.repo.On("FindByCifNif", mock.Anything, enterpriseID, "B12345678").
			Return(nil, shared.ErrNotFound)
		f.repo.On("Save", mock.Anything, mock.MatchedBy(func(s *partner.Supplier) bool {
			return s.Name == "Acme Foods" && s.CifNif == "B12345678" && s.EnterpriseID == enterpriseID
		})).Return(nil)

		rec := f.request(t, http.MethodPost, "/api/v1/partner/suppliers", gin.H{
			"name":    "Acme Foods",
			"cif_nif": "B12345678",
		}, enterpriseID.String())

		require.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "Acme Foods", data["name"])
		assert.Equal(t, "B12345678", data["cif_nif"])
		f.repo.AssertExpectations(t)
	})

	t.Run("rejects duplicate tax id with conflict", func(t *testing.T) {
		f := newSupplierHandlerFixture()
		existing, err := partner.NewSupplier(enterpriseID, "Acme Foods", "B12345678")
		require.NoError(t, err)
		f.repo.On("FindByCifNif", mock.Anything, enterpriseID, "B12345678").
			Return(existing, nil)

		rec := f.request(t, http.MethodPost, "/api/v1/partner/suppliers", gin.H{
			"name":    "Acme Clone",
			"cif_nif": "B12345678",
		}, enterpriseID.String())

		require.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeResponse(t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeAlreadyExists, resp.Error.Code)
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects missing name", func(t *testing.T) {
		f := newSupplierHandlerFixture()

		rec := f.request(t, http.MethodPost, "/api/v1/partner/suppliers", gin.H{
			"cif_nif": "B12345678",
		}, enterpriseID.String())

		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	})

	t.Run("rejects missing enterprise header", func(t *testing.T) {
		f := newSupplierHandlerFixture()

		rec := f.request(t, http.MethodPost, "/api/v1/partner/suppliers", gin.H{
			"name": "Acme Foods",
		}, "")

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSupplierHandler_List(t *testing.T) {
	enterpriseID := uuid.New()
	f := newSupplierHandlerFixture()

	first, err := partner.NewSupplier(enterpriseID, "Acme Foods", "B12345678")
	require.NoError(t, err)
	second, err := partner.NewSupplier(enterpriseID, "Beta Drinks", "")
	require.NoError(t, err)
	f.repo.On("FindAllForEnterprise", mock.Anything, enterpriseID).
		Return([]partner.Supplier{*first, *second}, nil)

	rec := f.request(t, http.MethodGet, "/api/v1/partner/suppliers", nil, enterpriseID.String())

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)
	assert.Len(t, resp.Data.([]any), 2)
}

func TestSupplierHandler_GetByID(t *testing.T) {
	enterpriseID := uuid.New()

	t.Run("returns supplier", func(t *testing.T) {
		f := newSupplierHandlerFixture()
		supplier, err := partner.NewSupplier(enterpriseID, "Acme Foods", "B12345678")
		require.NoError(t, err)
		f.repo.On("FindByID", mock.Anything, supplier.ID).Return(supplier, nil)

		rec := f.request(t, http.MethodGet, "/api/v1/partner/suppliers/"+supplier.ID.String(), nil, enterpriseID.String())

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		data := resp.Data.(map[string]any)
		assert.Equal(t, supplier.ID.String(), data["id"])
	})

	t.Run("returns 404 for unknown supplier", func(t *testing.T) {
		f := newSupplierHandlerFixture()
		unknownID := uuid.New()
		f.repo.On("FindByID", mock.Anything, unknownID).
			Return(nil, shared.NewDomainError("NOT_FOUND", "Supplier not found"))

		rec := f.request(t, http.MethodGet, "/api/v1/partner/suppliers/"+unknownID.String(), nil, enterpriseID.String())

		require.Equal(t, http.StatusNotFound, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		f := newSupplierHandlerFixture()

		rec := f.request(t, http.MethodGet, "/api/v1/partner/suppliers/not-a-uuid", nil, enterpriseID.String())

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSupplierHandler_Delete(t *testing.T) {
	enterpriseID := uuid.New()

	t.Run("deletes supplier without invoices", func(t *testing.T) {
		f := newSupplierHandlerFixture()
		supplier, err := partner.NewSupplier(enterpriseID, "Acme Foods", "B12345678")
		require.NoError(t, err)
		f.repo.On("FindByID", mock.Anything, supplier.ID).Return(supplier, nil)
		f.repo.On("CountInvoices", mock.Anything, supplier.ID).Return(int64(0), nil)
		f.repo.On("Delete", mock.Anything, supplier.ID).Return(nil)

		rec := f.request(t, http.MethodDelete, "/api/v1/partner/suppliers/"+supplier.ID.String(), nil, enterpriseID.String())

		require.Equal(t, http.StatusNoContent, rec.Code)
		f.repo.AssertExpectations(t)
	})

	t.Run("blocks deletion while invoices reference the supplier", func(t *testing.T) {
		f := newSupplierHandlerFixture()
		supplier, err := partner.NewSupplier(enterpriseID, "Acme Foods", "B12345678")
		require.NoError(t, err)
		f.repo.On("FindByID", mock.Anything, supplier.ID).Return(supplier, nil)
		f.repo.On("CountInvoices", mock.Anything, supplier.ID).Return(int64(3), nil)

		rec := f.request(t, http.MethodDelete, "/api/v1/partner/suppliers/"+supplier.ID.String(), nil, enterpriseID.String())

		require.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, dto.ErrCodeConflict, resp.Error.Code)
		f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
