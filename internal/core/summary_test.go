package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(id string, cents int64, date string, cat Category) Transaction {
	d, err := ParseDate(date)
	if err != nil {
		panic(err)
	}
	return Transaction{ID: id, Amount: Money{Cents: cents}, Date: d, Description: id, Category: cat}
}

func TestMonthlyTotals_GroupsByCalendarMonth(t *testing.T) {
	records := []Transaction{
		tx("a", 1000, "2024-01-05", Food),
		tx("b", 2500, "2024-01-20", Travel),
		tx("c", 700, "2024-02-01", Food),
	}

	got := MonthlyTotals(records)
	require.Len(t, got, 2)
	assert.Equal(t, "Jan 2024", got[0].Label)
	assert.Equal(t, int64(3500), got[0].Total.Cents)
	assert.Equal(t, "Feb 2024", got[1].Label)
	assert.Equal(t, int64(700), got[1].Total.Cents)
}

func TestMonthlyTotals_FirstSeenOrder(t *testing.T) {
	// most-recent-first list: the Feb record was added last
	records := []Transaction{
		tx("taxi", 30000, "2024-02-01", Travel),
		tx("groceries", 50000, "2024-01-10", Food),
	}

	firstSeen := MonthlyTotals(records)
	require.Len(t, firstSeen, 2)
	assert.Equal(t, []string{"Feb 2024", "Jan 2024"}, labels(firstSeen))

	chrono := ChronologicalMonthlyTotals(records)
	assert.Equal(t, []string{"Jan 2024", "Feb 2024"}, labels(chrono))
	assert.Equal(t, int64(50000), chrono[0].Total.Cents)
	assert.Equal(t, int64(30000), chrono[1].Total.Cents)
}

func TestChronologicalMonthlyTotals_AcrossYears(t *testing.T) {
	records := []Transaction{
		tx("a", 100, "2024-01-01", Misc),
		tx("b", 100, "2023-12-31", Misc),
		tx("c", 100, "2023-02-15", Misc),
	}
	assert.Equal(t, []string{"Feb 2023", "Dec 2023", "Jan 2024"}, labels(ChronologicalMonthlyTotals(records)))
}

func TestMonthlyTotals_Empty(t *testing.T) {
	assert.Empty(t, MonthlyTotals(nil))
}

func TestCategorySpending(t *testing.T) {
	records := []Transaction{
		tx("a", 50000, "2024-01-10", Food),
		tx("b", 30000, "2024-02-01", Travel),
		tx("c", 1250, "2024-02-03", Food),
	}

	spend := CategorySpending(records, Categories())
	require.Len(t, spend, len(Categories()))
	assert.Equal(t, int64(51250), spend[Food].Cents)
	assert.Equal(t, int64(30000), spend[Travel].Cents)
	assert.Zero(t, spend[Rent].Cents)
	assert.Zero(t, spend[Shopping].Cents)
	assert.Zero(t, spend[Misc].Cents)

	var sum Money
	for _, m := range spend {
		sum = sum.Add(m)
	}
	assert.Equal(t, Total(records), sum)
}

func TestCategorySpending_IgnoresOtherCategories(t *testing.T) {
	records := []Transaction{tx("a", 100, "2024-01-10", Category("food"))}
	spend := CategorySpending(records, Categories())
	assert.Zero(t, spend[Food].Cents)
}

func TestRemaining(t *testing.T) {
	over := Remaining(Money{Cents: 40000}, Money{Cents: 50000})
	assert.Equal(t, int64(-10000), over.Remaining.Cents)
	assert.True(t, over.Over)

	exact := Remaining(Money{Cents: 500}, Money{Cents: 500})
	assert.Zero(t, exact.Remaining.Cents)
	assert.False(t, exact.Over)

	negativeBudget := Remaining(Money{Cents: -100}, Money{})
	assert.True(t, negativeBudget.Over)
}

func TestBudgetOverview(t *testing.T) {
	budget := NewBudget()
	budget[Food] = Money{Cents: 40000}
	spend := CategorySpending([]Transaction{tx("a", 50000, "2024-01-10", Food)}, Categories())

	rows := BudgetOverview(budget, spend, Categories())
	require.Len(t, rows, 5)
	assert.Equal(t, Food, rows[0].Category)
	assert.Equal(t, int64(-10000), rows[0].Remaining.Cents)
	assert.True(t, rows[0].Over)
	for _, r := range rows[1:] {
		assert.False(t, r.Over, r.Category)
		assert.Zero(t, r.Remaining.Cents, r.Category)
	}
}

func labels(totals []MonthTotal) []string {
	out := make([]string, len(totals))
	for i, m := range totals {
		out[i] = m.Label
	}
	return out
}
