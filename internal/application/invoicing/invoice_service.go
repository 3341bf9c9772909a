package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/suppliers/backend/internal/domain/invoicing"
	"github.com/suppliers/backend/internal/domain/partner"
	"github.com/suppliers/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Stock adjustment signs for the forward and reverse paths
const (
	stockSignCreate   = 1
	stockSignReversal = -1
)

// InvoiceService coordinates invoice persistence with its surrounding side
// effects: supplier resolution, inventory adjustment, and document blobs.
// Invoice persistence is the primary commit; inventory and blob operations
// are eventually-consistent side effects that never roll it back.
type InvoiceService struct {
	invoiceRepo  invoicing.InvoiceRepository
	supplierRepo partner.SupplierRepository
	suppliers    SupplierResolver
	inventory    InventoryClient
	storage      DocumentStorage
	eventBus     shared.EventPublisher
	logger       *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo invoicing.InvoiceRepository,
	supplierRepo partner.SupplierRepository,
	suppliers SupplierResolver,
	inventory InventoryClient,
	storage DocumentStorage,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		supplierRepo: supplierRepo,
		suppliers:    suppliers,
		inventory:    inventory,
		storage:      storage,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// Create persists an invoice with its lines as a single atomic write, then
// applies the conditional inventory adjustment. A failed adjustment does not
// roll back the invoice; it is reported as a side-effect warning.
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*CreateInvoiceResult, error) {
	supplierID, err := s.resolveSupplier(ctx, req)
	if err != nil {
		return nil, err
	}

	invoice, err := invoicing.NewInvoice(req.EnterpriseID, supplierID, req.DocumentType, req.Amount, req.Date)
	if err != nil {
		return nil, err
	}
	if err := invoice.SetInvoiceNumber(req.InvoiceNumber); err != nil {
		return nil, err
	}
	if err := invoice.SetBlobName(req.BlobName); err != nil {
		return nil, err
	}
	invoice.SetHasDeliveryNotes(req.HasDeliveryNotes)
	invoice.SetTaxDetails(req.TaxAmount, req.Currency)
	invoice.SetType(req.Type)
	for _, line := range req.Lines {
		invoice.AddLine(line)
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("supplier_id", supplierID.String()),
		zap.Int("lines", len(invoice.Lines)),
	)

	var warnings []SideEffectWarning
	if warning := s.applyStockAdjustments(ctx, invoice, stockSignCreate); warning != nil {
		warnings = append(warnings, *warning)
	}

	invoice.MarkCreated()
	s.publishEvents(ctx, invoice)

	return &CreateInvoiceResult{
		Invoice:  ToInvoiceResponse(invoice),
		Warnings: warnings,
	}, nil
}

// resolveSupplier produces the supplier ID the invoice must reference.
// An explicit supplier ID is validated; otherwise the identity resolver
// finds or creates a supplier from the extracted name and tax id.
func (s *InvoiceService) resolveSupplier(ctx context.Context, req CreateInvoiceRequest) (uuid.UUID, error) {
	if req.SupplierID != nil && *req.SupplierID != uuid.Nil {
		if _, err := s.supplierRepo.FindByIDForEnterprise(ctx, req.EnterpriseID, *req.SupplierID); err != nil {
			return uuid.Nil, err
		}
		return *req.SupplierID, nil
	}

	if req.SupplierName == "" {
		return uuid.Nil, shared.NewDomainError("SUPPLIER_REQUIRED", "supplierId or supplierName is required")
	}

	supplier, err := s.suppliers.FindOrCreate(ctx, req.EnterpriseID, req.SupplierName, req.SupplierCifNif)
	if err != nil {
		return uuid.Nil, err
	}
	return supplier.ID, nil
}

// GetByID retrieves an invoice with its lines and supplier name
func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(invoice)
	if supplier, err := s.supplierRepo.FindByID(ctx, invoice.SupplierID); err == nil {
		response.SupplierName = supplier.Name
	}
	return &response, nil
}

// List retrieves all invoices for an enterprise, newest first
func (s *InvoiceService) List(ctx context.Context, enterpriseID uuid.UUID) ([]InvoiceResponse, error) {
	invoices, err := s.invoiceRepo.FindAllForEnterprise(ctx, enterpriseID)
	if err != nil {
		return nil, err
	}

	supplierNames := make(map[uuid.UUID]string)
	responses := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		response := ToInvoiceResponse(&invoices[i])
		name, ok := supplierNames[invoices[i].SupplierID]
		if !ok {
			if supplier, err := s.supplierRepo.FindByID(ctx, invoices[i].SupplierID); err == nil {
				name = supplier.Name
			}
			supplierNames[invoices[i].SupplierID] = name
		}
		response.SupplierName = name
		responses = append(responses, response)
	}
	return responses, nil
}

// CheckExists reports whether an invoice with the given number and document
// type already exists within an enterprise
func (s *InvoiceService) CheckExists(ctx context.Context, enterpriseID uuid.UUID, invoiceNumber string, documentType invoicing.DocumentType) (bool, error) {
	if invoiceNumber == "" {
		return false, nil
	}
	return s.invoiceRepo.Exists(ctx, enterpriseID, invoiceNumber, documentType)
}

// Delete removes an invoice, compensating its side effects first.
//
// The stored document type and delivery-note flag re-derive the same policy
// decision made at creation, so the reversal deltas mirror the forward ones
// exactly. Failures to reverse inventory or delete the blob are logged and
// never block the deletion: an invoice must not outlive a failed side
// effect. The lines are removed with the invoice (cascade).
func (s *InvoiceService) Delete(ctx context.Context, id uuid.UUID) (*DeleteInvoiceResult, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var warnings []SideEffectWarning
	if warning := s.applyStockAdjustments(ctx, invoice, stockSignReversal); warning != nil {
		warnings = append(warnings, *warning)
	}

	if invoice.BlobName != "" {
		if _, err := s.storage.DeleteDocument(ctx, invoice.BlobName); err != nil {
			s.logger.Warn("failed to delete invoice document blob",
				zap.String("invoice_id", id.String()),
				zap.String("blob_name", invoice.BlobName),
				zap.Error(err),
			)
			warnings = append(warnings, SideEffectWarning{
				Step:    "blob_deletion",
				Message: err.Error(),
			})
		}
	}

	if err := s.invoiceRepo.Delete(ctx, id); err != nil {
		return nil, err
	}

	invoice.MarkDeleted()
	s.publishEvents(ctx, invoice)

	s.logger.Info("invoice deleted",
		zap.String("invoice_id", id.String()),
		zap.Int("warnings", len(warnings)),
	)
	return &DeleteInvoiceResult{Warnings: warnings}, nil
}

// GetDocumentURL returns a signed access URL for the invoice's stored
// source document
func (s *InvoiceService) GetDocumentURL(ctx context.Context, invoiceID uuid.UUID, expiresIn time.Duration) (*DocumentURLResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.BlobName == "" {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice has no stored document")
	}

	url, err := s.storage.GetDocumentURL(ctx, invoice.BlobName, expiresIn)
	if err != nil {
		return nil, err
	}

	return &DocumentURLResponse{
		InvoiceID: invoiceID,
		URL:       url,
		ExpiresAt: time.Now().Add(expiresIn),
	}, nil
}

// GetDocumentURLs returns signed access URLs for a batch of invoices.
// Invoices without a stored document, or whose URL generation fails, are
// absent from the result.
func (s *InvoiceService) GetDocumentURLs(ctx context.Context, invoiceIDs []uuid.UUID, expiresIn time.Duration) ([]DocumentURLResponse, error) {
	blobToInvoice := make(map[string]uuid.UUID, len(invoiceIDs))
	blobNames := make([]string, 0, len(invoiceIDs))
	for _, id := range invoiceIDs {
		invoice, err := s.invoiceRepo.FindByID(ctx, id)
		if err != nil {
			s.logger.Warn("skipping invoice for batch document URLs",
				zap.String("invoice_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		if invoice.BlobName == "" {
			continue
		}
		blobToInvoice[invoice.BlobName] = id
		blobNames = append(blobNames, invoice.BlobName)
	}

	urls, err := s.storage.GetDocumentURLs(ctx, blobNames, expiresIn)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(expiresIn)
	responses := make([]DocumentURLResponse, 0, len(urls))
	for blobName, url := range urls {
		responses = append(responses, DocumentURLResponse{
			InvoiceID: blobToInvoice[blobName],
			URL:       url,
			ExpiresAt: expiresAt,
		})
	}
	return responses, nil
}

// applyStockAdjustments evaluates the stock policy and issues one batched
// adjustment request when it applies. Returns a warning on failure instead
// of an error: inventory is a side effect of the already-durable invoice.
func (s *InvoiceService) applyStockAdjustments(ctx context.Context, invoice *invoicing.Invoice, sign int64) *SideEffectWarning {
	if !invoicing.ShouldAdjustStock(invoice.DocumentType, invoice.HasDeliveryNotes) {
		s.logger.Debug("stock adjustment skipped by policy",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("document_type", string(invoice.DocumentType)),
			zap.Bool("has_delivery_notes", invoice.HasDeliveryNotes),
		)
		return nil
	}

	deltas := invoicing.ComputeStockDeltas(invoice.Lines, sign)
	if len(deltas) == 0 {
		return nil
	}

	if s.inventory == nil {
		s.logger.Warn("inventory collaborator not configured, stock adjustment skipped",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Int("deltas", len(deltas)),
		)
		return &SideEffectWarning{Step: "stock_adjustment", Message: "inventory collaborator unavailable"}
	}

	result, err := s.inventory.UpdateStock(ctx, invoice.EnterpriseID, deltas)
	if err != nil {
		s.logger.Warn("stock adjustment failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Int64("sign", sign),
			zap.Int("deltas", len(deltas)),
			zap.Error(err),
		)
		return &SideEffectWarning{Step: "stock_adjustment", Message: err.Error()}
	}
	if !result.Success {
		s.logger.Warn("stock adjustment partially failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Int64("sign", sign),
		)
		return &SideEffectWarning{Step: "stock_adjustment", Message: "inventory reported a failed update"}
	}

	return nil
}

// publishEvents drains pending domain events to the bus after the commit
func (s *InvoiceService) publishEvents(ctx context.Context, invoice *invoicing.Invoice) {
	if s.eventBus == nil {
		return
	}
	events := invoice.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish invoice events", zap.Error(err))
	}
	invoice.ClearDomainEvents()
}
