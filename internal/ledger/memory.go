package ledger

import (
	"context"
	"fmt"
	"sync"

	"tracker/internal/core"
)

// MemoryStore is the default Store: a slice and a map behind a mutex.
type MemoryStore struct {
	mu     sync.Mutex
	items  []core.Transaction
	budget core.Budget
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{budget: core.NewBudget()}
}

func (s *MemoryStore) Prepend(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(tx.ID) >= 0 {
		return fmt.Errorf("duplicate transaction id %q", tx.ID)
	}
	s.items = append([]core.Transaction{tx}, s.items...)
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(tx.ID)
	if i < 0 {
		return ErrNotFound
	}
	s.items[i] = tx
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Transaction{}, ErrNotFound
	}
	return s.items[i], nil
}

func (s *MemoryStore) List(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...), nil
}

func (s *MemoryStore) Budget(_ context.Context) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budget.Clone(), nil
}

func (s *MemoryStore) SetBudget(_ context.Context, c core.Category, amount core.Money) error {
	if !c.Valid() {
		return core.ErrUnknownCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budget[c] = amount
	return nil
}

func (s *MemoryStore) indexOf(id string) int {
	for i, tx := range s.items {
		if tx.ID == id {
			return i
		}
	}
	return -1
}
