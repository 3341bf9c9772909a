package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	partnerapp "github.com/suppliers/backend/internal/application/partner"
)

// SupplierHandler handles supplier API endpoints
type SupplierHandler struct {
	BaseHandler
	supplierService *partnerapp.SupplierService
}

// NewSupplierHandler creates a new SupplierHandler
func NewSupplierHandler(supplierService *partnerapp.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

// RegisterRoutes registers supplier routes
func (h *SupplierHandler) RegisterRoutes(rg *gin.RouterGroup) {
	suppliers := rg.Group("/partner/suppliers")
	{
		suppliers.POST("", h.Create)
		suppliers.GET("", h.List)
		suppliers.GET("/:id", h.GetByID)
		suppliers.DELETE("/:id", h.Delete)
	}
}

// CreateSupplierRequest represents a request to create a new supplier
type CreateSupplierRequest struct {
	Name                       string   `json:"name" binding:"required,min=1,max=200"`
	CifNif                     string   `json:"cif_nif" binding:"max=50"`
	Address                    string   `json:"address" binding:"max=500"`
	PhoneNumber                string   `json:"phone_number" binding:"max=50"`
	CommercialName             string   `json:"commercial_name" binding:"max=100"`
	CommercialPhoneNumber      string   `json:"commercial_phone_number" binding:"max=50"`
	DeliveryDays               string   `json:"delivery_days" binding:"max=100"`
	MinPriceDelivery           *float64 `json:"min_price_delivery" binding:"omitempty,min=0"`
	SanitaryRegistrationNumber string   `json:"sanitary_registration_number" binding:"max=100"`
}

// Create creates a supplier. A duplicate tax identifier within the
// enterprise is a conflict.
func (h *SupplierHandler) Create(c *gin.Context) {
	enterpriseID, err := getEnterpriseID(c)
	if err != nil {
		h.BadRequest(c, "Invalid enterprise ID")
		return
	}

	var req CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := partnerapp.CreateSupplierRequest{
		Name:                       req.Name,
		CifNif:                     req.CifNif,
		Address:                    req.Address,
		PhoneNumber:                req.PhoneNumber,
		CommercialName:             req.CommercialName,
		CommercialPhoneNumber:      req.CommercialPhoneNumber,
		DeliveryDays:               req.DeliveryDays,
		SanitaryRegistrationNumber: req.SanitaryRegistrationNumber,
	}
	if req.MinPriceDelivery != nil {
		d := decimal.NewFromFloat(*req.MinPriceDelivery)
		appReq.MinPriceDelivery = &d
	}

	supplier, err := h.supplierService.Create(c.Request.Context(), enterpriseID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, supplier)
}

// List returns all suppliers of the enterprise ordered by name
func (h *SupplierHandler) List(c *gin.Context) {
	enterpriseID, err := getEnterpriseID(c)
	if err != nil {
		h.BadRequest(c, "Invalid enterprise ID")
		return
	}

	suppliers, err := h.supplierService.List(c.Request.Context(), enterpriseID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, suppliers)
}

// GetByID returns one supplier
func (h *SupplierHandler) GetByID(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid supplier ID format")
		return
	}

	supplier, err := h.supplierService.GetByID(c.Request.Context(), supplierID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, supplier)
}

// Delete removes a supplier. Deletion is blocked while invoices still
// reference the supplier.
func (h *SupplierHandler) Delete(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid supplier ID format")
		return
	}

	if err := h.supplierService.Delete(c.Request.Context(), supplierID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
