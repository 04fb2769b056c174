package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"tracker/internal/amqp"
	"tracker/internal/core"
)

// EventProcessor folds the mutation feed into running totals so a consumer
// can follow spend per category without access to the ledger itself.
type EventProcessor struct {
	mu       sync.Mutex
	counts   map[string]int
	amounts  map[string]int64 // transaction id -> cents
	category map[string]core.Category
	budget   core.Budget
}

func NewEventProcessor() *EventProcessor {
	return &EventProcessor{
		counts:   make(map[string]int),
		amounts:  make(map[string]int64),
		category: make(map[string]core.Category),
		budget:   core.NewBudget(),
	}
}

// Handle applies one event. Its signature matches amqp.Client.ConsumeTransactionEvents.
func (p *EventProcessor) Handle(ctx context.Context, ev *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Type {
	case amqp.EventTransactionCreated, amqp.EventTransactionUpdated:
		cat, err := core.ParseCategory(ev.Category)
		if err != nil {
			return fmt.Errorf("event %s: %w", ev.TransactionID, err)
		}
		p.amounts[ev.TransactionID] = ev.AmountCents
		p.category[ev.TransactionID] = cat
	case amqp.EventTransactionDeleted:
		delete(p.amounts, ev.TransactionID)
		delete(p.category, ev.TransactionID)
	case amqp.EventBudgetSet:
		cat, err := core.ParseCategory(ev.Category)
		if err != nil {
			return fmt.Errorf("budget event: %w", err)
		}
		p.budget[cat] = core.Money{Cents: ev.AmountCents}
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	p.counts[ev.Type]++

	slog.InfoContext(ctx, "Ledger event applied",
		"type", ev.Type,
		"transaction_id", ev.TransactionID,
		"category", ev.Category,
		"amount_cents", ev.AmountCents,
		"live_transactions", len(p.amounts))
	return nil
}

// Overview reports budget status per category from the events seen so far.
func (p *EventProcessor) Overview() []core.CategoryBudget {
	p.mu.Lock()
	defer p.mu.Unlock()

	spend := make(map[core.Category]core.Money, len(core.Categories()))
	for id, cents := range p.amounts {
		c := p.category[id]
		spend[c] = spend[c].Add(core.Money{Cents: cents})
	}
	return core.BudgetOverview(p.budget.Clone(), spend, core.Categories())
}

// Count returns how many events of eventType were applied.
func (p *EventProcessor) Count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[eventType]
}
