package documents

import (
	"context"
	"time"

	"github.com/google/uuid"
	invoicingapp "github.com/suppliers/backend/internal/application/invoicing"
	"github.com/suppliers/backend/internal/domain/invoicing"
	"go.uber.org/zap"
)

// ReconcileState is the terminal state of one reconciliation run
type ReconcileState string

const (
	// StateRejected marks a data-quality rejection: the event is
	// acknowledged and never retried, and no invoice is created.
	StateRejected ReconcileState = "rejected"
	// StateDuplicate marks an event whose invoice already exists
	StateDuplicate ReconcileState = "duplicate"
	// StateCompleted marks a fully successful run
	StateCompleted ReconcileState = "completed"
	// StateCompletedWithWarnings marks a run whose invoice is durable but
	// whose side effects partially failed
	StateCompletedWithWarnings ReconcileState = "completed_with_warnings"
)

// ReconcileOutcome reports how an analyzed document was handled
type ReconcileOutcome struct {
	State     ReconcileState
	InvoiceID uuid.UUID
	Warnings  []invoicingapp.SideEffectWarning
}

// InvoiceCreator persists invoices and answers redelivery pre-checks
type InvoiceCreator interface {
	Create(ctx context.Context, req invoicingapp.CreateInvoiceRequest) (*invoicingapp.CreateInvoiceResult, error)
	CheckExists(ctx context.Context, enterpriseID uuid.UUID, invoiceNumber string, documentType invoicing.DocumentType) (bool, error)
}

// LineProcessor normalizes extracted lines and resolves their products
type LineProcessor interface {
	Process(ctx context.Context, enterpriseID uuid.UUID, lines []invoicingapp.ExtractedLine) []invoicing.InvoiceLine
}

// IntegrationPublisher emits integration events to downstream consumers
type IntegrationPublisher interface {
	PublishInvoiceProcessed(ctx context.Context, event InvoiceProcessedEvent) error
}

// Reconciler turns an analyzed document event into a durable invoice.
//
// One run walks a fixed sequence: validate the extraction, resolve the
// supplier, process the lines, persist the invoice atomically, apply the
// inventory policy, and emit the completion event. Validation failures are
// terminal rejections; supplier resolution and persistence failures are
// surfaced so the transport can redeliver; everything after persistence is
// a side effect that degrades to a warning.
type Reconciler struct {
	invoices  InvoiceCreator
	lines     LineProcessor
	publisher IntegrationPublisher
	logger    *zap.Logger
}

// NewReconciler creates a new Reconciler
func NewReconciler(invoices InvoiceCreator, lines LineProcessor, publisher IntegrationPublisher, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		invoices:  invoices,
		lines:     lines,
		publisher: publisher,
		logger:    logger,
	}
}

// HandleDocumentAnalyzed processes one documents.analyzed event.
//
// A nil error means the event is settled (including rejections and
// duplicates) and must be acknowledged. A non-nil error means a dependency
// failed and the event is eligible for redelivery.
func (r *Reconciler) HandleDocumentAnalyzed(ctx context.Context, event DocumentAnalyzedEvent) (*ReconcileOutcome, error) {
	log := r.logger.With(
		zap.String("document_id", event.DocumentID),
		zap.String("enterprise_id", event.EnterpriseID.String()),
	)
	log.Info("received documents.analyzed event")

	if reason := validate(event); reason != "" {
		log.Warn("rejecting analyzed document", zap.String("reason", reason))
		return &ReconcileOutcome{State: StateRejected}, nil
	}

	documentType := invoicing.ParseDocumentType(event.DocumentType)

	// Redelivery pre-check: an invoice already created from a previous
	// delivery of this document makes the event a no-op.
	if event.Extraction.InvoiceNumber != "" {
		exists, err := r.invoices.CheckExists(ctx, event.EnterpriseID, event.Extraction.InvoiceNumber, documentType)
		if err != nil {
			return nil, err
		}
		if exists {
			log.Info("invoice already exists, skipping redelivered document",
				zap.String("invoice_number", event.Extraction.InvoiceNumber),
			)
			return &ReconcileOutcome{State: StateDuplicate}, nil
		}
	}

	lines := r.lines.Process(ctx, event.EnterpriseID, event.Extraction.Lines)

	result, err := r.invoices.Create(ctx, invoicingapp.CreateInvoiceRequest{
		EnterpriseID:     event.EnterpriseID,
		SupplierName:     event.Extraction.SupplierName,
		SupplierCifNif:   event.Extraction.SupplierTaxID,
		InvoiceNumber:    event.Extraction.InvoiceNumber,
		BlobName:         event.BlobName,
		DocumentType:     documentType,
		HasDeliveryNotes: event.HasDeliveryNotes,
		Amount:           event.Extraction.TotalAmount,
		TaxAmount:        event.Extraction.TaxAmount,
		Currency:         event.Extraction.Currency,
		Date:             parseIssueDate(event.Extraction.IssueDate),
		Lines:            lines,
	})
	if err != nil {
		log.Error("failed to create invoice from analyzed document", zap.Error(err))
		return nil, err
	}

	outcome := &ReconcileOutcome{
		State:     StateCompleted,
		InvoiceID: result.Invoice.ID,
		Warnings:  result.Warnings,
	}
	if len(result.Warnings) > 0 {
		outcome.State = StateCompletedWithWarnings
	}

	if err := r.publisher.PublishInvoiceProcessed(ctx, InvoiceProcessedEvent{
		DocumentID:   event.DocumentID,
		InvoiceID:    result.Invoice.ID,
		EnterpriseID: event.EnterpriseID,
		Success:      true,
	}); err != nil {
		// The invoice is durable; a lost completion event degrades the run
		// rather than failing it.
		log.Warn("failed to publish invoice processed event", zap.Error(err))
		outcome.State = StateCompletedWithWarnings
		outcome.Warnings = append(outcome.Warnings, invoicingapp.SideEffectWarning{
			Step:    "completion_event",
			Message: err.Error(),
		})
	}

	log.Info("analyzed document reconciled",
		zap.String("invoice_id", outcome.InvoiceID.String()),
		zap.String("state", string(outcome.State)),
	)
	return outcome, nil
}

// HandleAnalysisFailed records a failed extraction; no state changes
func (r *Reconciler) HandleAnalysisFailed(_ context.Context, event DocumentAnalysisFailedEvent) {
	r.logger.Warn("document analysis failed",
		zap.String("document_id", event.DocumentID),
		zap.String("reason", event.Reason),
	)
}

// validate checks the minimum extraction quality needed to attribute an
// invoice. Returns an empty string when the event is acceptable.
func validate(event DocumentAnalyzedEvent) string {
	switch {
	case event.Extraction.SupplierName == "":
		return "missing supplier name"
	case event.Extraction.SupplierTaxID == "":
		return "missing supplier tax id"
	case event.Extraction.TotalAmount.IsZero():
		return "missing total amount"
	default:
		return ""
	}
}

// parseIssueDate parses the extraction's issue date, tolerating date-only
// values. A zero time lets invoice creation default to now.
func parseIssueDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	return time.Time{}
}
