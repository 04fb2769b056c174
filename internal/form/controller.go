// Package form binds user input to a draft transaction and commits it to the
// ledger, either as a new record or as a replacement in edit mode.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"tracker/internal/core"
)

// Field names accepted by SetField. They match the HTML input names.
const (
	FieldAmount      = "amount"
	FieldDate        = "date"
	FieldDescription = "description"
	FieldCategory    = "category"
)

var fieldOrder = []string{FieldAmount, FieldDate, FieldDescription, FieldCategory}

var (
	ErrUnknownField = errors.New("unknown form field")
	ErrNotConfirmed = errors.New("delete not confirmed")
)

// Ledger is the part of the ledger service the controller drives.
type Ledger interface {
	Add(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	Replace(ctx context.Context, tx core.Transaction) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (core.Transaction, error)
	SetBudget(ctx context.Context, c core.Category, amount core.Money) error
}

// Draft is the not-yet-committed form content, kept as raw text.
type Draft struct {
	Amount      string
	Date        string
	Description string
	Category    string
}

func (d Draft) value(field string) string {
	switch field {
	case FieldAmount:
		return d.Amount
	case FieldDate:
		return d.Date
	case FieldDescription:
		return d.Description
	case FieldCategory:
		return d.Category
	}
	return ""
}

// Empty reports whether no field has content.
func (d Draft) Empty() bool {
	return d == Draft{}
}

// State is what the form view renders.
type State struct {
	Draft   Draft
	Editing bool
	EditID  string
}

// ValidationError lists the fields that blocked a submit. The draft is left
// untouched so the user can correct it.
type ValidationError struct {
	Missing []string
	Invalid map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	for _, f := range fieldOrder {
		if msg, ok := e.Invalid[f]; ok {
			parts = append(parts, f+": "+msg)
		}
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Controller owns the draft and edit mode. All methods are serialized so each
// interaction runs to completion before the next one starts.
type Controller struct {
	mu      sync.Mutex
	ledger  Ledger
	draft   Draft
	editing bool
	editID  string
}

func NewController(l Ledger) *Controller {
	return &Controller{ledger: l}
}

// SetField updates one draft field and leaves the others unchanged.
func (c *Controller) SetField(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch field {
	case FieldAmount:
		c.draft.Amount = value
	case FieldDate:
		c.draft.Date = value
	case FieldDescription:
		c.draft.Description = value
	case FieldCategory:
		c.draft.Category = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Submit commits the draft. In edit mode it replaces the tracked record and
// leaves edit mode; otherwise it adds a new record. The draft is cleared only
// on success.
func (c *Controller) Submit(ctx context.Context) (core.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := parseDraft(c.draft)
	if err != nil {
		return core.Transaction{}, err
	}

	if c.editing {
		tx.ID = c.editID
		if err := c.ledger.Replace(ctx, tx); err != nil {
			return core.Transaction{}, err
		}
		slog.DebugContext(ctx, "Edit committed", "id", tx.ID)
	} else {
		tx, err = c.ledger.Add(ctx, tx)
		if err != nil {
			return core.Transaction{}, err
		}
	}

	c.reset()
	return tx, nil
}

// BeginEdit loads the record into the draft and enters edit mode.
func (c *Controller) BeginEdit(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.ledger.Get(ctx, id)
	if err != nil {
		return err
	}
	c.draft = Draft{
		Amount:      tx.Amount.Input(),
		Date:        tx.Date.String(),
		Description: tx.Description,
		Category:    string(tx.Category),
	}
	c.editing = true
	c.editID = tx.ID
	return nil
}

// CancelEdit leaves edit mode and clears the draft without touching the ledger.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Delete removes the record only when the user confirmed. Without
// confirmation it is a no-op that returns ErrNotConfirmed.
func (c *Controller) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ledger.Delete(ctx, id); err != nil {
		return err
	}
	if c.editing && c.editID == id {
		c.reset()
	}
	return nil
}

// SetBudget coerces text to an amount. Negative and zero values are accepted.
func (c *Controller) SetBudget(ctx context.Context, category, text string) (core.Money, error) {
	cat, err := core.ParseCategory(category)
	if err != nil {
		return core.Money{}, err
	}
	cents, err := core.ParseSignedDecimalToCents(text)
	if errors.Is(err, core.ErrAmountTooLarge) {
		return core.Money{}, &ValidationError{Invalid: map[string]string{string(cat): "too large"}}
	} else if err != nil {
		return core.Money{}, &ValidationError{Invalid: map[string]string{string(cat): "not a number"}}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	m := core.Money{Cents: cents}
	if err := c.ledger.SetBudget(ctx, cat, m); err != nil {
		return core.Money{}, err
	}
	return m, nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Draft: c.draft, Editing: c.editing, EditID: c.editID}
}

func (c *Controller) reset() {
	c.draft = Draft{}
	c.editing = false
	c.editID = ""
}

func parseDraft(d Draft) (core.Transaction, error) {
	var missing []string
	for _, f := range fieldOrder {
		if strings.TrimSpace(d.value(f)) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return core.Transaction{}, &ValidationError{Missing: missing}
	}

	invalid := make(map[string]string)
	var tx core.Transaction

	if cents, err := core.ParseDecimalToCents(d.Amount); errors.Is(err, core.ErrAmountTooLarge) {
		invalid[FieldAmount] = "is too large"
	} else if err != nil {
		invalid[FieldAmount] = "must be a positive number"
	} else {
		tx.Amount = core.Money{Cents: cents}
	}

	if date, err := core.ParseDate(d.Date); err != nil {
		invalid[FieldDate] = "use YYYY-MM-DD"
	} else {
		tx.Date = date
	}

	tx.Description = strings.TrimSpace(d.Description)
	if len(tx.Description) > 200 {
		invalid[FieldDescription] = "at most 200 characters"
	}

	if cat, err := core.ParseCategory(d.Category); err != nil {
		invalid[FieldCategory] = "unknown category"
	} else {
		tx.Category = cat
	}

	if len(invalid) > 0 {
		return core.Transaction{}, &ValidationError{Invalid: invalid}
	}
	return tx, nil
}
