package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/suppliers/backend/internal/application/documents"
	"github.com/suppliers/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DocumentReconciler is the slice of the documents application service the
// consumer drives
type DocumentReconciler interface {
	HandleDocumentAnalyzed(ctx context.Context, event documents.DocumentAnalyzedEvent) (*documents.ReconcileOutcome, error)
	HandleAnalysisFailed(ctx context.Context, event documents.DocumentAnalysisFailedEvent)
}

// acker is the settlement slice of *nats.Msg
type acker interface {
	Ack(opts ...nats.AckOpt) error
	Nak(opts ...nats.AckOpt) error
}

// DocumentsConsumer subscribes to the extraction stage's subjects and drives
// the reconciler. Delivery is at-least-once: a dedup store short-circuits
// documents already settled by this or another instance, and the reconciler's
// own invoice-number pre-check covers marks lost to the store's TTL.
type DocumentsConsumer struct {
	js         nats.JetStreamContext
	reconciler DocumentReconciler
	dedup      shared.IdempotencyStore
	dedupTTL   time.Duration
	queueGroup string
	logger     *zap.Logger
	subs       []*nats.Subscription
}

// NewDocumentsConsumer creates a new DocumentsConsumer
func NewDocumentsConsumer(
	js nats.JetStreamContext,
	reconciler DocumentReconciler,
	dedup shared.IdempotencyStore,
	dedupTTL time.Duration,
	queueGroup string,
	logger *zap.Logger,
) *DocumentsConsumer {
	return &DocumentsConsumer{
		js:         js,
		reconciler: reconciler,
		dedup:      dedup,
		dedupTTL:   dedupTTL,
		queueGroup: queueGroup,
		logger:     logger,
	}
}

// Start subscribes to the document subjects. Instances sharing a queue group
// split the load; each message is settled explicitly.
func (c *DocumentsConsumer) Start(ctx context.Context) error {
	analyzedSub, err := c.js.QueueSubscribe(
		SubjectDocumentAnalyzed,
		c.queueGroup,
		func(msg *nats.Msg) {
			c.handleAnalyzed(ctx, msg.Data, msg)
		},
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.Durable("suppliers-documents-analyzed"),
	)
	if err != nil {
		return err
	}
	c.subs = append(c.subs, analyzedSub)

	failedSub, err := c.js.QueueSubscribe(
		SubjectAnalysisFailed,
		c.queueGroup,
		func(msg *nats.Msg) {
			c.handleAnalysisFailed(ctx, msg.Data, msg)
		},
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.Durable("suppliers-documents-failed"),
	)
	if err != nil {
		return err
	}
	c.subs = append(c.subs, failedSub)

	c.logger.Info("documents consumer started",
		zap.String("queue_group", c.queueGroup),
	)
	return nil
}

// Stop drains the subscriptions so in-flight messages finish before shutdown
func (c *DocumentsConsumer) Stop() error {
	for _, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			c.logger.Warn("failed to drain subscription",
				zap.String("subject", sub.Subject),
				zap.Error(err),
			)
		}
	}
	c.subs = nil
	c.logger.Info("documents consumer stopped")
	return nil
}

// handleAnalyzed settles one documents.analyzed delivery. A nil reconciler
// error acknowledges the message; a non-nil error leaves it for redelivery.
func (c *DocumentsConsumer) handleAnalyzed(ctx context.Context, data []byte, msg acker) {
	var event documents.DocumentAnalyzedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		// A payload that cannot be decoded will never succeed on redelivery.
		c.logger.Error("discarding malformed documents.analyzed payload", zap.Error(err))
		c.ack(msg)
		return
	}

	processed, err := c.dedup.IsProcessed(ctx, event.DocumentID)
	if err != nil {
		c.logger.Warn("dedup check failed, relying on invoice pre-check",
			zap.String("document_id", event.DocumentID),
			zap.Error(err),
		)
	} else if processed {
		c.logger.Info("skipping already processed document",
			zap.String("document_id", event.DocumentID),
		)
		c.ack(msg)
		return
	}

	outcome, err := c.reconciler.HandleDocumentAnalyzed(ctx, event)
	if err != nil {
		c.logger.Warn("reconciliation failed, leaving message for redelivery",
			zap.String("document_id", event.DocumentID),
			zap.Error(err),
		)
		if nakErr := msg.Nak(); nakErr != nil {
			c.logger.Error("failed to nak message", zap.Error(nakErr))
		}
		return
	}

	if _, err := c.dedup.MarkProcessed(ctx, event.DocumentID, c.dedupTTL); err != nil {
		c.logger.Warn("failed to mark document as processed",
			zap.String("document_id", event.DocumentID),
			zap.Error(err),
		)
	}

	c.logger.Debug("documents.analyzed settled",
		zap.String("document_id", event.DocumentID),
		zap.String("state", string(outcome.State)),
	)
	c.ack(msg)
}

// handleAnalysisFailed logs a failed extraction and acknowledges it
func (c *DocumentsConsumer) handleAnalysisFailed(ctx context.Context, data []byte, msg acker) {
	var event documents.DocumentAnalysisFailedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.logger.Error("discarding malformed documents.analysis.failed payload", zap.Error(err))
		c.ack(msg)
		return
	}

	c.reconciler.HandleAnalysisFailed(ctx, event)
	c.ack(msg)
}

func (c *DocumentsConsumer) ack(msg acker) {
	if err := msg.Ack(); err != nil {
		c.logger.Error("failed to ack message", zap.Error(err))
	}
}
