package http

import (
	"html/template"
	"strings"

	"tracker/internal/chart"
	"tracker/internal/config"
	"tracker/internal/core"
	"tracker/internal/form"
	"tracker/internal/services"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"lower": strings.ToLower,
	}
}

type formView struct {
	Draft      form.Draft
	Editing    bool
	EditID     string
	Categories []string
	Missing    map[string]bool
	Invalid    map[string]string
	Message    string
}

type transactionRow struct {
	ID          string
	Date        string
	Description string
	Category    string
	Amount      string
	Editing     bool
}

type transactionsView struct {
	Rows  []transactionRow
	Count int
	Total string
}

type budgetRow struct {
	Category string
	Input    string
}

type overviewRow struct {
	Category  string
	Budget    string
	Spent     string
	Remaining string
	Over      bool
}

type overviewView struct {
	Rows  []overviewRow
	Spent string
}

type chartView struct {
	chart.Chart
	Order string
}

type pageView struct {
	Form         formView
	Transactions transactionsView
	Budgets      []budgetRow
	Overview     overviewView
	Chart        chartView
	Currency     string
	Events       bool
}

func (s *Server) buildFormView(st form.State, verr *form.ValidationError) formView {
	v := formView{
		Draft:      st.Draft,
		Editing:    st.Editing,
		EditID:     st.EditID,
		Categories: categoryNames(),
	}
	if verr != nil {
		v.Missing = make(map[string]bool, len(verr.Missing))
		for _, f := range verr.Missing {
			v.Missing[f] = true
		}
		v.Invalid = verr.Invalid
		v.Message = verr.Error()
	}
	return v
}

func (s *Server) buildTransactionsView(state services.State, fs form.State) transactionsView {
	v := transactionsView{
		Count: len(state.Transactions),
		Total: core.Total(state.Transactions).Format(s.opts.CurrencySymbol),
	}
	for _, tx := range state.Transactions {
		v.Rows = append(v.Rows, transactionRow{
			ID:          tx.ID,
			Date:        tx.Date.String(),
			Description: tx.Description,
			Category:    string(tx.Category),
			Amount:      tx.Amount.Format(s.opts.CurrencySymbol),
			Editing:     fs.Editing && fs.EditID == tx.ID,
		})
	}
	return v
}

func (s *Server) buildBudgetRows(state services.State) []budgetRow {
	rows := make([]budgetRow, 0, len(core.Categories()))
	for _, c := range core.Categories() {
		rows = append(rows, budgetRow{Category: string(c), Input: state.Budget[c].Input()})
	}
	return rows
}

func (s *Server) buildOverviewView(state services.State) overviewView {
	cats := core.Categories()
	spend := core.CategorySpending(state.Transactions, cats)
	v := overviewView{Spent: core.Total(state.Transactions).Format(s.opts.CurrencySymbol)}
	for _, row := range core.BudgetOverview(state.Budget, spend, cats) {
		v.Rows = append(v.Rows, overviewRow{
			Category:  string(row.Category),
			Budget:    row.Budget.Format(s.opts.CurrencySymbol),
			Spent:     row.Spent.Format(s.opts.CurrencySymbol),
			Remaining: row.Remaining.Format(s.opts.CurrencySymbol),
			Over:      row.Over,
		})
	}
	return v
}

func (s *Server) buildChartView(state services.State, order string) chartView {
	totals := s.monthlyTotals(state.Transactions, order)
	return chartView{
		Chart: chart.Build(totals, chartWidth, chartHeight, s.opts.CurrencySymbol),
		Order: order,
	}
}

// monthlyTotals applies the configured or requested month order.
func (s *Server) monthlyTotals(txs []core.Transaction, order string) []core.MonthTotal {
	if order == config.MonthOrderFirstSeen {
		return core.MonthlyTotals(txs)
	}
	return core.ChronologicalMonthlyTotals(txs)
}

func categoryNames() []string {
	cats := core.Categories()
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}
