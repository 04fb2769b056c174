package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tracker/internal/core"
	"tracker/internal/form"
	"tracker/internal/ledger"
	"tracker/internal/log"
	"tracker/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.started).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.ledger.Ping(ctx); err != nil {
		checks["ledger"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["ledger"] = "ok"
	}

	checks["events"] = s.opts.EventsEnabled
	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, r, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (services.State, bool) {
	state, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		s.events.LogError(r.Context(), "Failed to read ledger", err, log.ComponentLedger, log.OpList, nil)
		InternalServerError("Could not load transactions").Write(w)
		return services.State{}, false
	}
	return state, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	state, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	fs := s.form.State()
	s.render(w, r, nil, "index.html", pageView{
		Form:         s.buildFormView(fs, nil),
		Transactions: s.buildTransactionsView(state, fs),
		Budgets:      s.buildBudgetRows(state),
		Overview:     s.buildOverviewView(state),
		Chart:        s.buildChartView(state, s.opts.MonthOrder),
		Currency:     s.opts.CurrencySymbol,
		Events:       s.opts.EventsEnabled,
	})
}

func (s *Server) handleFormPartial(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, nil, "transaction_form", s.buildFormView(s.form.State(), nil))
}

func (s *Server) handleTransactionsPartial(w http.ResponseWriter, r *http.Request) {
	state, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	s.render(w, r, nil, "transaction_list", s.buildTransactionsView(state, s.form.State()))
}

func (s *Server) handleBudgetsPartial(w http.ResponseWriter, r *http.Request) {
	state, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	s.render(w, r, nil, "budget_table", s.buildBudgetRows(state))
}

func (s *Server) handleOverviewPartial(w http.ResponseWriter, r *http.Request) {
	state, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	s.render(w, r, nil, "budget_overview", s.buildOverviewView(state))
}

func (s *Server) handleChartPartial(w http.ResponseWriter, r *http.Request) {
	state, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	s.render(w, r, nil, "monthly_chart", s.buildChartView(state, s.monthOrder(r)))
}

// handleFormField stores whichever draft fields are present in the request.
func (s *Server) handleFormField(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	if err := s.bindDraft(p); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// bindDraft merges the fields present in p into the draft. Absent fields keep
// what earlier /form/field posts bound.
func (s *Server) bindDraft(p *RequestBodyParser) error {
	for _, field := range draftFields {
		if v, ok := p.Lookup(field); ok {
			if err := s.form.SetField(field, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Server) handleSubmitTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	editing := s.form.State().Editing
	if err := s.bindDraft(p); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	tx, err := s.form.Submit(ctx)

	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		s.appMetrics.validationFailures.Inc()
		log.FromContext(ctx).WithComponent(log.ComponentForm).InfoContext(ctx, "Transaction rejected",
			log.FieldOperation, log.OpValidate,
			log.FieldError, verr.Error())
		if p.IsJSON() {
			writeJSON(w, r, http.StatusUnprocessableEntity, validationJSON(verr))
			return
		}
		s.render(w, r,
			NewHTMXResponse().Status(http.StatusUnprocessableEntity).TriggerErrorNotification("Please fix the highlighted fields"),
			"transaction_form", s.buildFormView(s.form.State(), verr))
		return
	case errors.Is(err, ledger.ErrNotFound):
		NotFoundError("The transaction being edited no longer exists").Write(w)
		return
	case err != nil:
		s.events.LogError(ctx, "Failed to save transaction", err, log.ComponentLedger, log.OpCreate, nil)
		InternalServerError("Error saving transaction").Write(w)
		return
	}

	op, msg := log.OpCreate, "Transaction added"
	if editing {
		op, msg = log.OpUpdate, "Transaction updated"
	}
	s.appMetrics.mutation(op)
	s.events.LogTransaction(ctx, op, tx.ID, tx.Description, tx.Amount.Cents, string(tx.Category))

	if p.IsJSON() {
		status := http.StatusCreated
		if editing {
			status = http.StatusOK
		}
		writeJSON(w, r, status, s.transactionJSON(tx))
		return
	}

	s.render(w, r,
		NewHTMXResponse().TriggerLedgerChanged().TriggerSuccessNotification(msg),
		"transaction_form", s.buildFormView(s.form.State(), nil))
}

func (s *Server) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.form.BeginEdit(r.Context(), id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			NotFoundError("Transaction not found").Write(w)
			return
		}
		s.events.LogError(r.Context(), "Failed to load transaction", err, log.ComponentForm, log.OpUpdate,
			log.NewFields().WithTransaction(id, "", 0, ""))
		InternalServerError("Could not load transaction").Write(w)
		return
	}
	s.render(w, r, NewHTMXResponse().TriggerFormChanged(), "transaction_form", s.buildFormView(s.form.State(), nil))
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	s.form.CancelEdit()
	s.render(w, r, NewHTMXResponse().TriggerFormChanged(), "transaction_form", s.buildFormView(s.form.State(), nil))
}

// handleDeleteTransaction requires confirmed=true in the query or body.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	err := s.form.Delete(ctx, id, p.Bool("confirmed"))
	switch {
	case errors.Is(err, form.ErrNotConfirmed):
		BadRequestError("Deletion must be confirmed").Write(w)
		return
	case errors.Is(err, ledger.ErrNotFound):
		NotFoundError("Transaction not found").Write(w)
		return
	case err != nil:
		s.events.LogError(ctx, "Failed to delete transaction", err, log.ComponentLedger, log.OpDelete,
			log.NewFields().WithTransaction(id, "", 0, ""))
		InternalServerError("Error deleting transaction").Write(w)
		return
	}

	s.appMetrics.mutation(log.OpDelete)
	log.FromContext(ctx).WithComponent(log.ComponentLedger).InfoContext(ctx, "Transaction deleted",
		log.FieldTransactionID, id,
		log.FieldOperation, log.OpDelete)

	NewHTMXResponse().
		TriggerLedgerChanged().
		TriggerFormChanged().
		TriggerSuccessNotification("Transaction deleted").
		Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := r.PathValue("category")
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	amount, err := s.form.SetBudget(ctx, category, p.Get(form.FieldAmount))
	var verr *form.ValidationError
	switch {
	case errors.Is(err, core.ErrUnknownCategory):
		NotFoundError("Unknown category").Write(w)
		return
	case errors.As(err, &verr):
		UnprocessableEntityError("Budget must be a number").
			TriggerErrorNotification(fmt.Sprintf("Budget for %s must be a number", category)).
			Write(w)
		return
	case err != nil:
		s.events.LogError(ctx, "Failed to set budget", err, log.ComponentLedger, log.OpBudget,
			log.NewFields().WithTransaction("", "", 0, category))
		InternalServerError("Error saving budget").Write(w)
		return
	}

	s.appMetrics.mutation(log.OpBudget)
	log.FromContext(ctx).WithComponent(log.ComponentLedger).InfoContext(ctx, "Budget set",
		log.FieldCategory, category,
		log.FieldAmountCents, amount.Cents,
		log.FieldOperation, log.OpBudget)

	if p.IsJSON() {
		writeJSON(w, r, http.StatusOK, map[string]interface{}{"category": category, "budget_cents": amount.Cents})
		return
	}
	NewHTMXResponse().TriggerLedgerChanged().Write(w)
}
