package messaging

import (
	"context"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// FactHandler consumes one committed fact
type FactHandler func(ctx context.Context, fact models.Fact)

// FactPublisher carries committed facts from the ledgers to the
// dispatcher. Publishing must never block or fail the ledger operation
// that produced the fact: implementations log and drop on overflow or
// transport failure.
type FactPublisher interface {
	Publish(ctx context.Context, fact models.Fact)
	Close() error
}
