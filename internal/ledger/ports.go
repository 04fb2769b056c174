// Package ledger holds the in-process state store: the ordered transaction
// list and the per-category budget.
package ledger

import (
	"context"
	"errors"

	"tracker/internal/core"
)

// ErrNotFound is returned when no record has the requested identifier.
var ErrNotFound = errors.New("transaction not found")

// Store keeps transactions most-recent-first and the budget map.
type Store interface {
	// Prepend inserts tx at the head of the list.
	Prepend(ctx context.Context, tx core.Transaction) error
	// Replace overwrites the record with tx.ID in place.
	Replace(ctx context.Context, tx core.Transaction) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (core.Transaction, error)
	// List returns a copy of all records, most recent first.
	List(ctx context.Context) ([]core.Transaction, error)

	Budget(ctx context.Context) (core.Budget, error)
	SetBudget(ctx context.Context, c core.Category, amount core.Money) error
}
