package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	invoicingapp "github.com/suppliers/backend/internal/application/invoicing"
	"github.com/suppliers/backend/internal/domain/invoicing"
)

// stockUpdateRequest is the wire shape of a batched stock update
type stockUpdateRequest struct {
	EnterpriseID uuid.UUID         `json:"enterprise_id"`
	Items        []stockUpdateItem `json:"items"`
}

type stockUpdateItem struct {
	ProductID     uuid.UUID       `json:"product_id"`
	QuantityDelta decimal.Decimal `json:"quantity_delta"`
}

// NATSInventoryClient implements InventoryClient over NATS request/response
type NATSInventoryClient struct {
	conn    requester
	timeout time.Duration
}

// NewNATSInventoryClient creates a new NATSInventoryClient
func NewNATSInventoryClient(conn requester, timeout time.Duration) *NATSInventoryClient {
	return &NATSInventoryClient{conn: conn, timeout: timeout}
}

// UpdateStock sends all of an invoice's quantity deltas as one batched
// request to the inventory service
func (c *NATSInventoryClient) UpdateStock(ctx context.Context, enterpriseID uuid.UUID, adjustments []invoicing.StockAdjustment) (*invoicingapp.StockUpdateResult, error) {
	request := stockUpdateRequest{
		EnterpriseID: enterpriseID,
		Items:        make([]stockUpdateItem, 0, len(adjustments)),
	}
	for _, adjustment := range adjustments {
		request.Items = append(request.Items, stockUpdateItem{
			ProductID:     adjustment.ProductID,
			QuantityDelta: adjustment.QuantityDelta,
		})
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stock update: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.conn.RequestWithContext(ctx, SubjectInventoryStockUpdate, payload)
	if err != nil {
		return nil, fmt.Errorf("inventory request failed: %w", err)
	}

	var result invoicingapp.StockUpdateResult
	if err := json.Unmarshal(msg.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode inventory response: %w", err)
	}
	if !result.Success {
		return &result, fmt.Errorf("inventory rejected stock update")
	}

	return &result, nil
}

// Ensure NATSInventoryClient implements InventoryClient
var _ invoicingapp.InventoryClient = (*NATSInventoryClient)(nil)
