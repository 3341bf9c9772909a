package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	invoicingapp "github.com/suppliers/backend/internal/application/invoicing"
)

// catalogResponse is the wire shape of a findOrCreate reply
type catalogResponse struct {
	Success bool                      `json:"success"`
	Data    *invoicingapp.ProductRef  `json:"data,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

// NATSCatalogClient implements CatalogClient over NATS request/response
type NATSCatalogClient struct {
	conn    requester
	timeout time.Duration
}

// NewNATSCatalogClient creates a new NATSCatalogClient
func NewNATSCatalogClient(conn requester, timeout time.Duration) *NATSCatalogClient {
	return &NATSCatalogClient{conn: conn, timeout: timeout}
}

// FindOrCreateProduct asks the catalog service to resolve a product for the
// given descriptor, creating one when none matches
func (c *NATSCatalogClient) FindOrCreateProduct(ctx context.Context, descriptor invoicingapp.ProductDescriptor) (*invoicingapp.ProductRef, error) {
	payload, err := json.Marshal(descriptor)
	if err != nil {
		return nil, fmt.Errorf("failed to encode product descriptor: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.conn.RequestWithContext(ctx, SubjectCatalogFindOrCreate, payload)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}

	var response catalogResponse
	if err := json.Unmarshal(msg.Data, &response); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	if !response.Success || response.Data == nil {
		return nil, fmt.Errorf("catalog rejected product descriptor: %s", response.Error)
	}

	return response.Data, nil
}

// Ensure NATSCatalogClient implements CatalogClient
var _ invoicingapp.CatalogClient = (*NATSCatalogClient)(nil)
