package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Event types published on every ledger mutation.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
	EventBudgetSet          = "budget.set"
)

// TransactionEvent describes one ledger mutation. Transaction fields are
// empty for budget events; Category and AmountCents carry the new target.
type TransactionEvent struct {
	Type          string    `json:"type"`
	TransactionID string    `json:"transaction_id,omitempty"`
	AmountCents   int64     `json:"amount_cents"`
	Date          string    `json:"date,omitempty"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEvent stamps an event with the current time.
func NewTransactionEvent(eventType string) *TransactionEvent {
	return &TransactionEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes and checks a message body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventTransactionCreated, EventTransactionUpdated, EventTransactionDeleted:
		if msg.TransactionID == "" {
			return nil, errors.New("transaction event without transaction_id")
		}
	case EventBudgetSet:
		if msg.Category == "" {
			return nil, errors.New("budget event without category")
		}
	default:
		return nil, errors.New("unknown event type " + msg.Type)
	}
	return &msg, nil
}
