package ledger

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator hands out transaction identifiers. Implementations must never
// repeat a value within a process.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues time-ordered UUIDv7 identifiers.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// SequenceGenerator issues "tx-1", "tx-2", ... from a monotonic counter.
type SequenceGenerator struct {
	n atomic.Int64
}

func (g *SequenceGenerator) NewID() string {
	return "tx-" + strconv.FormatInt(g.n.Add(1), 10)
}

// NewIDGenerator maps the ID_STRATEGY setting to a generator.
func NewIDGenerator(strategy string) IDGenerator {
	if strategy == "sequence" {
		return &SequenceGenerator{}
	}
	return UUIDGenerator{}
}
