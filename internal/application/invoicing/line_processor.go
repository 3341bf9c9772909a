package invoicing

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/suppliers/backend/internal/domain/invoicing"
	"go.uber.org/zap"
)

// defaultLineConcurrency bounds the fan-out of per-line catalog calls
const defaultLineConcurrency = 8

// LineProcessor turns extraction output into persistable invoice lines.
// Product resolution runs concurrently per line; a per-line failure is
// absorbed, leaving the line without a product reference.
type LineProcessor struct {
	catalog        CatalogClient
	logger         *zap.Logger
	maxConcurrency int
}

// NewLineProcessor creates a new LineProcessor
func NewLineProcessor(catalog CatalogClient, logger *zap.Logger) *LineProcessor {
	return &LineProcessor{
		catalog:        catalog,
		logger:         logger,
		maxConcurrency: defaultLineConcurrency,
	}
}

// Process normalizes extracted lines and resolves their products.
//
// Lines without a description are dropped with a warning: they are unusable
// extraction output, not a pipeline failure. Resolution calls fan out with
// bounded concurrency and recombine by original line index, so the order of
// the returned lines always matches the extraction order regardless of
// completion order.
func (p *LineProcessor) Process(ctx context.Context, enterpriseID uuid.UUID, lines []ExtractedLine) []invoicing.InvoiceLine {
	usable := make([]ExtractedLine, 0, len(lines))
	for i, line := range lines {
		if line.Description == "" {
			p.logger.Warn("dropping extracted line without description",
				zap.Int("line_index", i),
				zap.String("enterprise_id", enterpriseID.String()),
			)
			continue
		}
		usable = append(usable, line)
	}

	results := make([]invoicing.InvoiceLine, len(usable))
	sem := make(chan struct{}, p.maxConcurrency)
	var wg sync.WaitGroup

	for i := range usable {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[idx] = p.processLine(ctx, enterpriseID, usable[idx])
		}(i)
	}
	wg.Wait()

	return results
}

// processLine normalizes a single line and attempts product resolution
func (p *LineProcessor) processLine(ctx context.Context, enterpriseID uuid.UUID, line ExtractedLine) invoicing.InvoiceLine {
	quantity := line.Quantity
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}

	result := invoicing.InvoiceLine{
		Quantity:            quantity,
		UnitPrice:           line.UnitPrice,
		Price:               line.Price,
		Amount:              line.Amount,
		Description:         line.Description,
		Tax:                 line.Tax,
		DiscountCode:        line.DiscountCode,
		AdditionalReference: line.AdditionalReference,
	}

	product, err := p.catalog.FindOrCreateProduct(ctx, ProductDescriptor{
		EnterpriseID:        enterpriseID,
		Description:         line.Description,
		Code:                line.ProductCode,
		Unit:                line.Unit,
		UnitCount:           line.UnitCount,
		LastUnitPrice:       line.UnitPrice,
		AdditionalReference: line.AdditionalReference,
	})
	if err != nil {
		// Non-fatal: the line is persisted without a product reference.
		p.logger.Warn("product resolution failed",
			zap.String("description", line.Description),
			zap.String("enterprise_id", enterpriseID.String()),
			zap.Error(err),
		)
		return result
	}

	result.MasterProductID = &product.ID
	return result
}
