package messaging

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/suppliers/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Subjects of the messaging fabric shared with the extraction, catalog and
// inventory services
const (
	SubjectDocumentAnalyzed     = "documents.analyzed"
	SubjectAnalysisFailed       = "documents.analysis.failed"
	SubjectCatalogFindOrCreate  = "catalog.product.findOrCreate"
	SubjectInventoryStockUpdate = "inventory.stock.update"
	SubjectInvoiceCreated       = "suppliers.invoice.created"
	SubjectInvoiceProcessed     = "suppliers.invoice.processed"
)

// Connect establishes a NATS connection with reconnect handling wired to the
// logger
func Connect(cfg *config.NATSConfig, logger *zap.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("suppliers-backend"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("nats connection closed")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}
	return conn, nil
}

// requester is the request/response slice of *nats.Conn used by the remote
// capability clients
type requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// publisher is the fire-and-forget slice of *nats.Conn
type publisher interface {
	Publish(subj string, data []byte) error
}
