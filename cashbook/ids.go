package cashbook

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// =============================================================================
// IDENTIFIER GENERATOR
// =============================================================================

// IDGenerator produces unique, opaque identifiers for books and transactions.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues UUIDv7 identifiers. Their leading 48 bits are the
// creation time in milliseconds, so lexical order approximates creation order.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Only fails when the random source does; fall back to v4.
		return uuid.NewString()
	}
	return id.String()
}

// SequenceGenerator issues "<prefix>-000001", "<prefix>-000002", ...
// Deterministic, for tests and demo data.
type SequenceGenerator struct {
	Prefix string
	n      atomic.Uint64
}

func (g *SequenceGenerator) NewID() string {
	return fmt.Sprintf("%s-%06d", g.Prefix, g.n.Add(1))
}
