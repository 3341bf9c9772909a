package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	invoicingapp "github.com/suppliers/backend/internal/application/invoicing"
	"github.com/suppliers/backend/internal/domain/invoicing"
)

// InvoiceHandler handles invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *invoicingapp.InvoiceService
	urlExpiry      time.Duration
	batchURLExpiry time.Duration
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *invoicingapp.InvoiceService, urlExpiry, batchURLExpiry time.Duration) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		urlExpiry:      urlExpiry,
		batchURLExpiry: batchURLExpiry,
	}
}

// RegisterRoutes registers invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoicing/invoices")
	{
		invoices.POST("", h.Create)
		invoices.GET("", h.List)
		invoices.GET("/exists", h.CheckExists)
		invoices.POST("/document-urls", h.GetDocumentURLs)
		invoices.GET("/:id", h.GetByID)
		invoices.GET("/:id/document-url", h.GetDocumentURL)
		invoices.DELETE("/:id", h.Delete)
	}
}

// InvoiceLineRequest represents one invoice line in a create request
type InvoiceLineRequest struct {
	Description         string     `json:"description" binding:"max=500"`
	Quantity            *float64   `json:"quantity" binding:"omitempty,gt=0"`
	UnitPrice           float64    `json:"unit_price"`
	Price               float64    `json:"price"`
	Amount              float64    `json:"amount"`
	Tax                 string     `json:"tax" binding:"max=50"`
	DiscountCode        string     `json:"discount_code" binding:"max=50"`
	AdditionalReference string     `json:"additional_reference" binding:"max=200"`
	MasterProductID     *uuid.UUID `json:"master_product_id"`
}

// CreateInvoiceRequest represents a request to create an invoice
type CreateInvoiceRequest struct {
	SupplierID       *uuid.UUID           `json:"supplier_id"`
	SupplierName     string               `json:"supplier_name" binding:"max=200"`
	SupplierCifNif   string               `json:"supplier_cif_nif" binding:"max=50"`
	InvoiceNumber    string               `json:"invoice_number" binding:"max=100"`
	BlobName         string               `json:"blob_name" binding:"max=500"`
	DocumentType     string               `json:"document_type" binding:"omitempty,oneof=invoice delivery_note"`
	HasDeliveryNotes bool                 `json:"has_delivery_notes"`
	Amount           float64              `json:"amount" binding:"required"`
	TaxAmount        float64              `json:"tax_amount"`
	Currency         string               `json:"currency" binding:"max=10"`
	Date             time.Time            `json:"date"`
	Type             string               `json:"type" binding:"max=50"`
	Lines            []InvoiceLineRequest `json:"lines"`
}

// Create persists an invoice with its lines and applies the inventory
// policy. Side-effect warnings come back alongside the created invoice.
func (h *InvoiceHandler) Create(c *gin.Context) {
	enterpriseID, err := getEnterpriseID(c)
	if err != nil {
		h.BadRequest(c, "Invalid enterprise ID")
		return
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lines := make([]invoicing.InvoiceLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		quantity := decimal.NewFromInt(1)
		if line.Quantity != nil {
			quantity = decimal.NewFromFloat(*line.Quantity)
		}
		lines = append(lines, invoicing.InvoiceLine{
			Description:         line.Description,
			Quantity:            quantity,
			UnitPrice:           decimal.NewFromFloat(line.UnitPrice),
			Price:               decimal.NewFromFloat(line.Price),
			Amount:              decimal.NewFromFloat(line.Amount),
			Tax:                 line.Tax,
			DiscountCode:        line.DiscountCode,
			AdditionalReference: line.AdditionalReference,
			MasterProductID:     line.MasterProductID,
		})
	}

	result, err := h.invoiceService.Create(c.Request.Context(), invoicingapp.CreateInvoiceRequest{
		EnterpriseID:     enterpriseID,
		SupplierID:       req.SupplierID,
		SupplierName:     req.SupplierName,
		SupplierCifNif:   req.SupplierCifNif,
		InvoiceNumber:    req.InvoiceNumber,
		BlobName:         req.BlobName,
		DocumentType:     invoicing.ParseDocumentType(req.DocumentType),
		HasDeliveryNotes: req.HasDeliveryNotes,
		Amount:           decimal.NewFromFloat(req.Amount),
		TaxAmount:        decimal.NewFromFloat(req.TaxAmount),
		Currency:         req.Currency,
		Date:             req.Date,
		Type:             req.Type,
		Lines:            lines,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// List returns the enterprise's invoices, newest first
func (h *InvoiceHandler) List(c *gin.Context) {
	enterpriseID, err := getEnterpriseID(c)
	if err != nil {
		h.BadRequest(c, "Invalid enterprise ID")
		return
	}

	invoices, err := h.invoiceService.List(c.Request.Context(), enterpriseID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoices)
}

// GetByID returns one invoice with its lines
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoiceService.GetByID(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Delete removes an invoice, reversing its stock adjustments and deleting
// the stored document. Reversal failures surface as warnings, not errors.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	result, err := h.invoiceService.Delete(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// CheckExistsResponse reports whether an invoice already exists
type CheckExistsResponse struct {
	Exists bool `json:"exists"`
}

// CheckExists answers whether an invoice with the given number and document
// type exists within the enterprise
func (h *InvoiceHandler) CheckExists(c *gin.Context) {
	enterpriseID, err := getEnterpriseID(c)
	if err != nil {
		h.BadRequest(c, "Invalid enterprise ID")
		return
	}

	invoiceNumber := c.Query("invoice_number")
	if invoiceNumber == "" {
		h.BadRequest(c, "invoice_number is required")
		return
	}
	documentType := invoicing.ParseDocumentType(c.Query("document_type"))

	exists, err := h.invoiceService.CheckExists(c.Request.Context(), enterpriseID, invoiceNumber, documentType)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, CheckExistsResponse{Exists: exists})
}

// GetDocumentURL returns a time-limited signed URL for an invoice's stored
// document
func (h *InvoiceHandler) GetDocumentURL(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	url, err := h.invoiceService.GetDocumentURL(c.Request.Context(), invoiceID, h.urlExpiry)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, url)
}

// DocumentURLsRequest asks for signed URLs of a batch of invoices
type DocumentURLsRequest struct {
	InvoiceIDs []uuid.UUID `json:"invoice_ids" binding:"required,min=1,max=100"`
}

// GetDocumentURLs returns signed URLs for a batch of invoices. Invoices
// without a stored document are absent from the result.
func (h *InvoiceHandler) GetDocumentURLs(c *gin.Context) {
	var req DocumentURLsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	urls, err := h.invoiceService.GetDocumentURLs(c.Request.Context(), req.InvoiceIDs, h.batchURLExpiry)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, urls)
}
