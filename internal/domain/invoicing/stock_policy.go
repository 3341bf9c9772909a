package invoicing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockAdjustment is a signed quantity delta applied to a product's
// inventory count. It is sent to the external inventory capability and
// never persisted here.
type StockAdjustment struct {
	ProductID     uuid.UUID
	QuantityDelta decimal.Decimal
}

// ShouldAdjustStock decides whether a document affects inventory.
//
// A delivery note always increments stock. An invoice increments stock only
// when it is not backed by delivery notes: if it is, stock was already
// incremented when the linked delivery notes were processed, and adjusting
// again would double-count.
//
// Both the creation path and the deletion (reversal) path must call this
// function so the two stay symmetric.
func ShouldAdjustStock(documentType DocumentType, hasDeliveryNotes bool) bool {
	if documentType == DocumentTypeDeliveryNote {
		return true
	}
	return documentType == DocumentTypeInvoice && !hasDeliveryNotes
}

// ComputeStockDeltas emits one adjustment per line carrying a resolved
// product reference, with delta = sign * quantity. Lines without a product
// are skipped: no adjustment is possible for them. sign is +1 on creation
// and -1 on reversal.
func ComputeStockDeltas(lines []InvoiceLine, sign int64) []StockAdjustment {
	deltas := make([]StockAdjustment, 0, len(lines))
	factor := decimal.NewFromInt(sign)
	for _, line := range lines {
		if !line.HasProduct() {
			continue
		}
		deltas = append(deltas, StockAdjustment{
			ProductID:     *line.MasterProductID,
			QuantityDelta: line.Quantity.Mul(factor),
		})
	}
	return deltas
}
