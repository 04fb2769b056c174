package form

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/core"
	"tracker/internal/ledger"
	"tracker/internal/services"
)

func newController(t *testing.T) (*Controller, *services.LedgerService) {
	t.Helper()
	svc := services.NewLedgerService(ledger.NewMemoryStore(), &ledger.SequenceGenerator{}, nil)
	return NewController(svc), svc
}

func fill(t *testing.T, c *Controller, amount, date, desc, cat string) {
	t.Helper()
	require.NoError(t, c.SetField(FieldAmount, amount))
	require.NoError(t, c.SetField(FieldDate, date))
	require.NoError(t, c.SetField(FieldDescription, desc))
	require.NoError(t, c.SetField(FieldCategory, cat))
}

func list(t *testing.T, svc *services.LedgerService) []core.Transaction {
	t.Helper()
	state, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	return state.Transactions
}

func TestSetField_LeavesOthersUnchanged(t *testing.T) {
	c, _ := newController(t)
	fill(t, c, "10", "2024-01-01", "x", "Food")

	require.NoError(t, c.SetField(FieldDescription, "lunch"))
	assert.Equal(t, Draft{Amount: "10", Date: "2024-01-01", Description: "lunch", Category: "Food"}, c.State().Draft)

	err := c.SetField("colour", "red")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestSubmit_AddsOneRecordFirst(t *testing.T) {
	ctx := context.Background()
	c, svc := newController(t)

	fill(t, c, "500", "2024-01-10", "Groceries", "Food")
	first, err := c.Submit(ctx)
	require.NoError(t, err)

	fill(t, c, "300", "2024-02-01", "Taxi", "Travel")
	second, err := c.Submit(ctx)
	require.NoError(t, err)

	txs := list(t, svc)
	require.Len(t, txs, 2)
	assert.Equal(t, second.ID, txs[0].ID)
	assert.Equal(t, first.ID, txs[1].ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, c.State().Draft.Empty(), "draft should be cleared after submit")
}

func TestSubmit_MissingFieldLeavesListUnchanged(t *testing.T) {
	ctx := context.Background()
	fields := []string{FieldAmount, FieldDate, FieldDescription, FieldCategory}

	for _, missing := range fields {
		t.Run(missing, func(t *testing.T) {
			c, svc := newController(t)
			fill(t, c, "500", "2024-01-10", "Groceries", "Food")
			_, err := c.Submit(ctx)
			require.NoError(t, err)

			fill(t, c, "20", "2024-01-11", "Coffee", "Food")
			require.NoError(t, c.SetField(missing, ""))
			before := c.State().Draft

			_, err = c.Submit(ctx)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, []string{missing}, verr.Missing)
			assert.Len(t, list(t, svc), 1)
			assert.Equal(t, before, c.State().Draft, "draft should be preserved for correction")
		})
	}
}

func TestSubmit_RejectsNonNumericAmount(t *testing.T) {
	c, svc := newController(t)
	fill(t, c, "abc", "2024-13-01", "x", "food")

	_, err := c.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Invalid, FieldAmount)
	assert.Contains(t, verr.Invalid, FieldDate)
	assert.Contains(t, verr.Invalid, FieldCategory, "category match is case-sensitive")
	assert.Empty(t, list(t, svc))
}

func TestSubmit_RejectsAmountAboveCap(t *testing.T) {
	c, svc := newController(t)
	fill(t, c, "10000000000000000", "2024-01-10", "Yacht", "Shopping")

	_, err := c.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is too large", verr.Invalid[FieldAmount])
	assert.Empty(t, list(t, svc))
	assert.Equal(t, "10000000000000000", c.State().Draft.Amount, "draft kept for correction")

	_, err = c.SetBudget(context.Background(), "Shopping", "-10000000000000000")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "too large", verr.Invalid["Shopping"])
}

func TestEdit_ReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	c, svc := newController(t)

	var ids []string
	for _, d := range []string{"a", "b", "c"} {
		fill(t, c, "100", "2024-01-01", d, "Misc")
		tx, err := c.Submit(ctx)
		require.NoError(t, err)
		ids = append(ids, tx.ID)
	}
	before := list(t, svc)

	require.NoError(t, c.BeginEdit(ctx, ids[1]))
	st := c.State()
	assert.True(t, st.Editing)
	assert.Equal(t, ids[1], st.EditID)
	assert.Equal(t, Draft{Amount: "100", Date: "2024-01-01", Description: "b", Category: "Misc"}, st.Draft)

	require.NoError(t, c.SetField(FieldAmount, "250.50"))
	require.NoError(t, c.SetField(FieldCategory, "Shopping"))
	edited, err := c.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids[1], edited.ID)

	after := list(t, svc)
	require.Len(t, after, 3)
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, before[2], after[2])
	assert.Equal(t, ids[1], after[1].ID)
	assert.Equal(t, int64(25050), after[1].Amount.Cents)
	assert.Equal(t, core.Shopping, after[1].Category)
	assert.False(t, c.State().Editing)
	assert.True(t, c.State().Draft.Empty())
}

func TestCancelEdit(t *testing.T) {
	ctx := context.Background()
	c, svc := newController(t)
	fill(t, c, "100", "2024-01-01", "a", "Food")
	tx, err := c.Submit(ctx)
	require.NoError(t, err)

	require.NoError(t, c.BeginEdit(ctx, tx.ID))
	require.NoError(t, c.SetField(FieldDescription, "changed"))
	c.CancelEdit()

	assert.Equal(t, State{}, c.State())
	assert.Equal(t, "a", list(t, svc)[0].Description)

	assert.ErrorIs(t, c.BeginEdit(ctx, "missing"), ledger.ErrNotFound)
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	c, svc := newController(t)
	var ids []string
	for _, d := range []string{"a", "b"} {
		fill(t, c, "100", "2024-01-01", d, "Rent")
		tx, err := c.Submit(ctx)
		require.NoError(t, err)
		ids = append(ids, tx.ID)
	}

	assert.ErrorIs(t, c.Delete(ctx, ids[0], false), ErrNotConfirmed)
	assert.Len(t, list(t, svc), 2)

	require.NoError(t, c.Delete(ctx, ids[0], true))
	txs := list(t, svc)
	require.Len(t, txs, 1)
	assert.Equal(t, ids[1], txs[0].ID)

	assert.True(t, errors.Is(c.Delete(ctx, ids[0], true), ledger.ErrNotFound))
}

func TestDelete_RecordUnderEditLeavesEditMode(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t)
	fill(t, c, "100", "2024-01-01", "a", "Rent")
	tx, err := c.Submit(ctx)
	require.NoError(t, err)

	require.NoError(t, c.BeginEdit(ctx, tx.ID))
	require.NoError(t, c.Delete(ctx, tx.ID, true))
	assert.False(t, c.State().Editing)
}

func TestSetBudget_AcceptsNegative(t *testing.T) {
	ctx := context.Background()
	c, svc := newController(t)

	m, err := c.SetBudget(ctx, "Food", "-25")
	require.NoError(t, err)
	assert.Equal(t, int64(-2500), m.Cents)

	_, err = c.SetBudget(ctx, "Food", "lots")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = c.SetBudget(ctx, "Pets", "10")
	assert.ErrorIs(t, err, core.ErrUnknownCategory)

	state, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(-2500), state.Budget[core.Food].Cents)
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	c, svc := newController(t)

	fill(t, c, "500", "2024-01-10", "Groceries", "Food")
	_, err := c.Submit(ctx)
	require.NoError(t, err)

	txs := list(t, svc)
	require.Len(t, txs, 1)
	spend := core.CategorySpending(txs, core.Categories())
	assert.Equal(t, int64(50000), spend[core.Food].Cents)
	totals := core.MonthlyTotals(txs)
	require.Len(t, totals, 1)
	assert.Equal(t, "Jan 2024", totals[0].Label)
	assert.Equal(t, int64(50000), totals[0].Total.Cents)

	fill(t, c, "300", "2024-02-01", "Taxi", "Travel")
	_, err = c.Submit(ctx)
	require.NoError(t, err)

	txs = list(t, svc)
	require.Len(t, txs, 2)
	assert.Equal(t, "Taxi", txs[0].Description)

	chrono := core.ChronologicalMonthlyTotals(txs)
	require.Len(t, chrono, 2)
	assert.Equal(t, "Jan 2024", chrono[0].Label)
	assert.Equal(t, int64(50000), chrono[0].Total.Cents)
	assert.Equal(t, "Feb 2024", chrono[1].Label)
	assert.Equal(t, int64(30000), chrono[1].Total.Cents)

	_, err = c.SetBudget(ctx, "Food", "400")
	require.NoError(t, err)
	state, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	status := core.Remaining(state.Budget[core.Food], core.CategorySpending(state.Transactions, core.Categories())[core.Food])
	assert.Equal(t, int64(-10000), status.Remaining.Cents)
	assert.True(t, status.Over)
}
