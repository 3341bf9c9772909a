package shared

import (
	"context"
	"time"
)

// IdempotencyStore stores processed message IDs to guard against redelivery.
// At-least-once transports may hand the same document event to the consumer
// more than once; the store lets the consumer drop duplicates best-effort.
type IdempotencyStore interface {
	// MarkProcessed marks a message as processed with a TTL.
	// Returns true if the message was newly marked, false if already seen.
	MarkProcessed(ctx context.Context, messageID string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a message has already been processed
	IsProcessed(ctx context.Context, messageID string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}
