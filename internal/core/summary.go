package core

import (
	"sort"
	"time"
)

// MonthTotal is the summed spend for one calendar month.
type MonthTotal struct {
	Label string
	Year  int
	Month time.Month
	Total Money
}

// BudgetStatus compares a budget target with actual spend.
type BudgetStatus struct {
	Remaining Money
	Over      bool
}

// CategoryBudget is one row of the budget overview.
type CategoryBudget struct {
	Category Category
	Budget   Money
	Spent    Money
	BudgetStatus
}

// MonthLabel formats the short month and full year of d, e.g. "Jan 2024".
func MonthLabel(d Date) string {
	return d.Format("Jan 2006")
}

// MonthlyTotals groups records by calendar month. Groups appear in the order
// their label is first met while scanning records, so for a most-recent-first
// list the newest month comes first. Use ChronologicalMonthlyTotals for
// calendar order.
func MonthlyTotals(records []Transaction) []MonthTotal {
	index := make(map[string]int)
	var out []MonthTotal
	for _, tx := range records {
		label := MonthLabel(tx.Date)
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, MonthTotal{Label: label, Year: tx.Date.Year(), Month: tx.Date.Month()})
		}
		out[i].Total = out[i].Total.Add(tx.Amount)
	}
	return out
}

// ChronologicalMonthlyTotals returns MonthlyTotals sorted by year and month.
func ChronologicalMonthlyTotals(records []Transaction) []MonthTotal {
	out := MonthlyTotals(records)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// CategorySpending sums amounts per category. Every category in cats is
// present in the result; records in other categories are ignored.
func CategorySpending(records []Transaction, cats []Category) map[Category]Money {
	out := make(map[Category]Money, len(cats))
	for _, c := range cats {
		out[c] = Money{}
	}
	for _, tx := range records {
		if cur, ok := out[tx.Category]; ok {
			out[tx.Category] = cur.Add(tx.Amount)
		}
	}
	return out
}

// Remaining computes budget minus spend. A negative remainder is over budget.
func Remaining(budget, spend Money) BudgetStatus {
	r := budget.Sub(spend)
	return BudgetStatus{Remaining: r, Over: r.Cents < 0}
}

// BudgetOverview builds one row per category in cats order.
func BudgetOverview(budget Budget, spend map[Category]Money, cats []Category) []CategoryBudget {
	rows := make([]CategoryBudget, 0, len(cats))
	for _, c := range cats {
		b := budget[c]
		s := spend[c]
		rows = append(rows, CategoryBudget{
			Category:     c,
			Budget:       b,
			Spent:        s,
			BudgetStatus: Remaining(b, s),
		})
	}
	return rows
}

// Total sums every record.
func Total(records []Transaction) Money {
	var m Money
	for _, tx := range records {
		m = m.Add(tx.Amount)
	}
	return m
}
