package http

import (
	"net/http"

	"tracker/internal/core"
	"tracker/internal/form"
)

type transactionDTO struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type monthTotalDTO struct {
	Label      string `json:"label"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	TotalCents int64  `json:"total_cents"`
	Total      string `json:"total"`
}

type categorySpendDTO struct {
	Category   string `json:"category"`
	SpentCents int64  `json:"spent_cents"`
}

type budgetOverviewDTO struct {
	Category       string `json:"category"`
	BudgetCents    int64  `json:"budget_cents"`
	SpentCents     int64  `json:"spent_cents"`
	RemainingCents int64  `json:"remaining_cents"`
	Over           bool   `json:"over"`
}

type validationDTO struct {
	Error   string            `json:"error"`
	Missing []string          `json:"missing,omitempty"`
	Invalid map[string]string `json:"invalid,omitempty"`
}

func validationJSON(e *form.ValidationError) validationDTO {
	return validationDTO{Error: e.Error(), Missing: e.Missing, Invalid: e.Invalid}
}

func (s *Server) transactionJSON(tx core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          tx.ID,
		AmountCents: tx.Amount.Cents,
		Amount:      tx.Amount.Format(s.opts.CurrencySymbol),
		Date:        tx.Date.String(),
		Description: tx.Description,
		Category:    string(tx.Category),
	}
}

// handleAPITransactions lists transactions newest-first, as stored.
func (s *Server) handleAPITransactions(w http.ResponseWriter, r *http.Request) {
	state, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	out := make([]transactionDTO, 0, len(state.Transactions))
	for _, tx := range state.Transactions {
		out = append(out, s.transactionJSON(tx))
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleAPIMonthlyTotals honours ?order=chronological|first_seen.
func (s *Server) handleAPIMonthlyTotals(w http.ResponseWriter, r *http.Request) {
	state, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	totals := s.monthlyTotals(state.Transactions, s.monthOrder(r))
	out := make([]monthTotalDTO, 0, len(totals))
	for _, mt := range totals {
		out = append(out, monthTotalDTO{
			Label:      mt.Label,
			Year:       mt.Year,
			Month:      int(mt.Month),
			TotalCents: mt.Total.Cents,
			Total:      mt.Total.Format(s.opts.CurrencySymbol),
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleAPICategorySpending(w http.ResponseWriter, r *http.Request) {
	state, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	cats := core.Categories()
	spend := core.CategorySpending(state.Transactions, cats)
	out := make([]categorySpendDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, categorySpendDTO{Category: string(c), SpentCents: spend[c].Cents})
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleAPIBudgetOverview(w http.ResponseWriter, r *http.Request) {
	state, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	cats := core.Categories()
	rows := core.BudgetOverview(state.Budget, core.CategorySpending(state.Transactions, cats), cats)
	out := make([]budgetOverviewDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, budgetOverviewDTO{
			Category:       string(row.Category),
			BudgetCents:    row.Budget.Cents,
			SpentCents:     row.Spent.Cents,
			RemainingCents: row.Remaining.Cents,
			Over:           row.Over,
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}
