package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/ledger"
)

// Publisher receives one event per successful ledger mutation.
type Publisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// State is a consistent copy of the ledger for rendering.
type State struct {
	Transactions []core.Transaction
	Budget       core.Budget
}

// LedgerService orchestrates ledger mutations across the store and the event feed
type LedgerService struct {
	store     ledger.Store
	ids       ledger.IDGenerator
	publisher Publisher
}

// NewLedgerService wires a store and id generator. publisher may be nil.
func NewLedgerService(store ledger.Store, ids ledger.IDGenerator, publisher Publisher) *LedgerService {
	if ids == nil {
		ids = ledger.UUIDGenerator{}
	}
	return &LedgerService{
		store:     store,
		ids:       ids,
		publisher: publisher,
	}
}

// Add assigns a fresh identifier and puts tx at the head of the list.
func (s *LedgerService) Add(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID = s.ids.NewID()
	if err := s.store.Prepend(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction added",
		"id", tx.ID,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category)

	s.publish(ctx, transactionEvent(amqp.EventTransactionCreated, tx))
	return tx, nil
}

// Replace overwrites every field of the record sharing tx.ID.
func (s *LedgerService) Replace(ctx context.Context, tx core.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("replace transaction: %w", ledger.ErrNotFound)
	}
	if err := s.store.Replace(ctx, tx); err != nil {
		return fmt.Errorf("replace transaction %s: %w", tx.ID, err)
	}

	slog.InfoContext(ctx, "Transaction replaced", "id", tx.ID)
	s.publish(ctx, transactionEvent(amqp.EventTransactionUpdated, tx))
	return nil
}

func (s *LedgerService) Delete(ctx context.Context, id string) error {
	tx, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	s.publish(ctx, transactionEvent(amqp.EventTransactionDeleted, tx))
	return nil
}

func (s *LedgerService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.Get(ctx, id)
}

// SetBudget stores the target for c. Any amount is accepted, including negatives.
func (s *LedgerService) SetBudget(ctx context.Context, c core.Category, amount core.Money) error {
	if err := s.store.SetBudget(ctx, c, amount); err != nil {
		return fmt.Errorf("set budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget updated", "category", c, "amount_cents", amount.Cents)

	ev := amqp.NewTransactionEvent(amqp.EventBudgetSet)
	ev.Category = string(c)
	ev.AmountCents = amount.Cents
	s.publish(ctx, ev)
	return nil
}

func (s *LedgerService) Snapshot(ctx context.Context) (State, error) {
	txs, err := s.store.List(ctx)
	if err != nil {
		return State{}, fmt.Errorf("list transactions: %w", err)
	}
	b, err := s.store.Budget(ctx)
	if err != nil {
		return State{}, fmt.Errorf("read budget: %w", err)
	}
	return State{Transactions: txs, Budget: b}, nil
}

// Ping reports store health when the backend supports it.
func (s *LedgerService) Ping(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *LedgerService) publish(ctx context.Context, ev *amqp.TransactionEvent) {
	if s.publisher == nil {
		return
	}
	// Don't fail the request, the ledger is already updated
	if err := s.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"type", ev.Type,
			"transaction_id", ev.TransactionID,
			"error", err)
	}
}

func transactionEvent(eventType string, tx core.Transaction) *amqp.TransactionEvent {
	ev := amqp.NewTransactionEvent(eventType)
	ev.TransactionID = tx.ID
	ev.AmountCents = tx.Amount.Cents
	ev.Date = tx.Date.String()
	ev.Description = tx.Description
	ev.Category = string(tx.Category)
	return ev
}

// Close closes both store and publisher when they hold resources
func (s *LedgerService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
