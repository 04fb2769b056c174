package core

import (
	"errors"
	"strings"
	"time"
)

// Fixed spending categories.
const (
	Food     Category = "Food"
	Travel   Category = "Travel"
	Rent     Category = "Rent"
	Shopping Category = "Shopping"
	Misc     Category = "Misc"
)

// DateLayout is the only accepted date input format.
const DateLayout = "2006-01-02"

type (
	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          string
		Amount      Money
		Date        Date
		Description string
		Category    Category
	}

	// Budget maps every category to its target spend.
	Budget map[Category]Money
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrAmountTooLarge   = errors.New("amount too large")
	ErrEmptyDescription = errors.New("empty description")
	ErrUnknownCategory  = errors.New("unknown category")
)

var categories = []Category{Food, Travel, Rent, Shopping, Misc}

// Categories returns the closed category set in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory matches s exactly (case-sensitive) against the category set.
func ParseCategory(s string) (Category, error) {
	for _, c := range categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", ErrUnknownCategory
}

func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

func (c Category) String() string {
	return string(c)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the date back in input format.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	if m.Cents > MaxAmountCents {
		return ErrAmountTooLarge
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !t.Category.Valid() {
		return ErrUnknownCategory
	}
	return nil
}

// NewBudget returns a budget with every category set to zero.
func NewBudget() Budget {
	b := make(Budget, len(categories))
	for _, c := range categories {
		b[c] = Money{}
	}
	return b
}

// Clone copies the budget so callers cannot mutate store state.
func (b Budget) Clone() Budget {
	out := make(Budget, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
