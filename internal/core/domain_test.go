package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-10", true},
		{" 2024-02-29 ", true},
		{"2023-02-29", false},
		{"10/01/2024", false},
		{"", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
		}
		if tc.ok && d.Location() != time.UTC {
			t.Fatalf("%q expected UTC date, got %v", tc.in, d.Location())
		}
	}
}

func TestParseCategoryIsExact(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(string(c))
		if err != nil || got != c {
			t.Fatalf("expected %q to parse, got %q err=%v", c, got, err)
		}
	}
	for _, bad := range []string{"food", "FOOD", " Food", "Groceries", ""} {
		if _, err := ParseCategory(bad); !errors.Is(err, ErrUnknownCategory) {
			t.Fatalf("%q expected ErrUnknownCategory, got %v", bad, err)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:          "1",
		Amount:      Money{Cents: 50000},
		Date:        NewDate(2024, 1, 10),
		Description: "Groceries",
		Category:    Food,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		mutate func(*Transaction)
		want   error
	}{
		{func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{func(tx *Transaction) { tx.Description = "   " }, ErrEmptyDescription},
		{func(tx *Transaction) { tx.Category = "Pets" }, ErrUnknownCategory},
	}
	for i, b := range bads {
		tx := good
		b.mutate(&tx)
		if err := tx.Validate(); !errors.Is(err, b.want) {
			t.Fatalf("case %d expected %v, got %v", i, b.want, err)
		}
	}
}

func TestNewBudgetCoversEveryCategory(t *testing.T) {
	b := NewBudget()
	if len(b) != len(Categories()) {
		t.Fatalf("expected %d entries, got %d", len(Categories()), len(b))
	}
	for _, c := range Categories() {
		if v, ok := b[c]; !ok || v.Cents != 0 {
			t.Fatalf("expected zero budget for %s, got %v (present=%v)", c, v, ok)
		}
	}

	clone := b.Clone()
	clone[Food] = Money{Cents: 1}
	if b[Food].Cents != 0 {
		t.Fatalf("clone must not alias the original")
	}
}
