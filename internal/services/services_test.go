package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carteira/internal/core"
	"carteira/internal/gateway"
	"carteira/internal/gateway/memory"
	"carteira/internal/log"
)

func testWorkspace(t *testing.T) (*memory.Store, *Registry, core.Identity) {
	t.Helper()
	store := memory.New()
	u, err := store.CreateUser(context.Background(), gateway.User{Email: "ana@example.com", Name: "Ana"})
	require.NoError(t, err)

	owner := core.Identity{ID: u.ID, Email: u.Email, Name: u.Name}
	registry := NewRegistry(store, owner, log.New(log.DefaultConfig()))
	return store, registry, owner
}

func TestRegistryFirstAccountIsDefaultAndSelected(t *testing.T) {
	_, registry, _ := testWorkspace(t)
	ctx := context.Background()

	a, err := registry.Create(ctx, "Wallet")
	require.NoError(t, err)
	assert.True(t, a.IsDefault)
	require.NotNil(t, registry.Current())
	assert.Equal(t, a.ID, registry.Current().ID)

	b, err := registry.Create(ctx, "Savings")
	require.NoError(t, err)
	assert.False(t, b.IsDefault)
	assert.Equal(t, a.ID, registry.Current().ID, "selection unchanged")
}

func TestRegistrySelectAndDeleteFallback(t *testing.T) {
	_, registry, _ := testWorkspace(t)
	ctx := context.Background()

	def, err := registry.Create(ctx, "Wallet")
	require.NoError(t, err)
	other, err := registry.Create(ctx, "Savings")
	require.NoError(t, err)

	require.NoError(t, registry.Select(other.ID))
	assert.Equal(t, other.ID, registry.CurrentID())

	require.NoError(t, registry.Delete(ctx, other.ID))
	assert.Equal(t, def.ID, registry.CurrentID(), "selection falls back to default")

	assert.ErrorIs(t, registry.Select("missing"), ErrAccountNotFound)
}

func TestRegistryDefaultAccountProtected(t *testing.T) {
	_, registry, _ := testWorkspace(t)
	ctx := context.Background()

	def, err := registry.Create(ctx, "Wallet")
	require.NoError(t, err)
	assert.ErrorIs(t, registry.Delete(ctx, def.ID), ErrDefaultAccountDelete)

	list := registry.List()
	require.Len(t, list, 1)
}

func TestRegistryRename(t *testing.T) {
	_, registry, _ := testWorkspace(t)
	ctx := context.Background()

	a, err := registry.Create(ctx, "Wallet")
	require.NoError(t, err)
	require.NoError(t, registry.Rename(ctx, a.ID, "Daily"))
	assert.Equal(t, "Daily", registry.Current().Name)

	assert.ErrorIs(t, registry.Rename(ctx, "missing", "X"), ErrAccountNotFound)
	assert.ErrorIs(t, registry.Rename(ctx, a.ID, "  "), core.ErrEmptyName)
}

func newLedger(t *testing.T) (*memory.Store, *Registry, *Ledger) {
	t.Helper()
	store, registry, owner := testWorkspace(t)
	_, err := registry.Create(context.Background(), "Wallet")
	require.NoError(t, err)
	return store, registry, NewLedger(store, registry, owner, log.New(log.DefaultConfig()))
}

func TestLedgerAddAndTotals(t *testing.T) {
	store, _, ledger := newLedger(t)
	ctx := context.Background()
	salary := store.CategoryIDByName("Salary")
	food := store.CategoryIDByName("Food")

	_, err := ledger.Add(ctx, core.Transaction{
		Amount: core.Money{Cents: 500000}, Kind: core.Income,
		CategoryID: salary, Title: "Salary",
	})
	require.NoError(t, err)
	_, err = ledger.Add(ctx, core.Transaction{
		Amount: core.Money{Cents: 120050}, Kind: core.Expense,
		CategoryID: food, Title: "Groceries",
	})
	require.NoError(t, err)

	totals, err := ledger.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(500000), totals.Income.Cents)
	assert.Equal(t, int64(120050), totals.Expense.Cents)
	assert.Equal(t, int64(379950), totals.Balance.Cents)
}

func TestLedgerRejectsInvalidTransaction(t *testing.T) {
	_, _, ledger := newLedger(t)
	ctx := context.Background()

	_, err := ledger.Add(ctx, core.Transaction{
		Amount: core.Money{Cents: -1}, Kind: core.Expense, Title: "Bad",
	})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = ledger.Add(ctx, core.Transaction{
		Amount: core.Money{Cents: 100}, Kind: "transfer", Title: "Bad",
	})
	assert.ErrorIs(t, err, core.ErrInvalidKind)

	_, err = ledger.Add(ctx, core.Transaction{
		Amount: core.Money{Cents: 100}, Kind: core.Expense, Title: "Future",
		OccurredOn: time.Now().Add(48 * time.Hour),
	})
	assert.ErrorIs(t, err, core.ErrFutureDate)
}

func TestLedgerNoAccountSelected(t *testing.T) {
	store, registry, owner := testWorkspace(t)
	ledger := NewLedger(store, registry, owner, log.New(log.DefaultConfig()))
	ctx := context.Background()

	txs, err := ledger.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)

	_, err = ledger.Add(ctx, core.Transaction{
		Amount: core.Money{Cents: 100}, Kind: core.Expense, Title: "Coffee",
	})
	assert.ErrorIs(t, err, ErrNoAccountSelected)
}

func TestLedgerUpdateAndDelete(t *testing.T) {
	_, _, ledger := newLedger(t)
	ctx := context.Background()

	tx, err := ledger.Add(ctx, core.Transaction{
		Amount: core.Money{Cents: 100}, Kind: core.Expense, Title: "Coffee",
	})
	require.NoError(t, err)

	amount := core.Money{Cents: 250}
	require.NoError(t, ledger.Update(ctx, tx.ID, gateway.TransactionUpdate{Amount: &amount}))

	list, err := ledger.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(250), list[0].Amount.Cents)

	require.NoError(t, ledger.Delete(ctx, tx.ID))
	assert.ErrorIs(t, ledger.Delete(ctx, tx.ID), ErrTransactionNotFound)
}

func newGoalLedger(t *testing.T) *GoalLedger {
	t.Helper()
	store, registry, owner := testWorkspace(t)
	_, err := registry.Create(context.Background(), "Wallet")
	require.NoError(t, err)
	return NewGoalLedger(store, registry, owner, log.New(log.DefaultConfig()))
}

func TestGoalLifecycle(t *testing.T) {
	goals := newGoalLedger(t)
	ctx := context.Background()

	g, err := goals.Create(ctx, core.Goal{Title: "Trip", Target: core.Money{Cents: 100000}})
	require.NoError(t, err)

	g, err = goals.Contribute(ctx, g.ID, core.Money{Cents: 60000})
	require.NoError(t, err)
	assert.InDelta(t, 60.0, g.Progress(), 0.001)
	assert.False(t, g.IsComplete())

	g, err = goals.Contribute(ctx, g.ID, core.Money{Cents: 50000})
	require.NoError(t, err)
	assert.Equal(t, 100.0, g.Progress(), "progress clamps at 100")
	assert.True(t, g.IsComplete())

	contribs, err := goals.Contributions(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, contribs, 2)

	stats, err := goals.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, int64(110000), stats.Saved.Cents)
}

func TestGoalValidation(t *testing.T) {
	goals := newGoalLedger(t)
	ctx := context.Background()

	_, err := goals.Create(ctx, core.Goal{Title: "", Target: core.Money{Cents: 100}})
	assert.ErrorIs(t, err, core.ErrEmptyTitle)

	_, err = goals.Create(ctx, core.Goal{Title: "Trip", Target: core.Money{Cents: 0}})
	assert.ErrorIs(t, err, core.ErrInvalidTarget)

	g, err := goals.Create(ctx, core.Goal{Title: "Trip", Target: core.Money{Cents: 100000}})
	require.NoError(t, err)

	_, err = goals.Contribute(ctx, g.ID, core.Money{Cents: 0})
	assert.ErrorIs(t, err, core.ErrInvalidContribution)

	_, err = goals.Contribute(ctx, "missing", core.Money{Cents: 100})
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestRegistrySelectionFallsBackToFirstAccount(t *testing.T) {
	store, registry, owner := testWorkspace(t)
	ctx := context.Background()

	// Seed two non-default accounts straight through the store so no
	// default exists to repair the selection with.
	a, err := store.CreateAccount(ctx, core.Account{OwnerID: owner.ID, Name: "Wallet"})
	require.NoError(t, err)
	b, err := store.CreateAccount(ctx, core.Account{OwnerID: owner.ID, Name: "Savings"})
	require.NoError(t, err)

	require.NoError(t, registry.Refresh(ctx))
	require.NoError(t, registry.Select(b.ID))

	require.NoError(t, store.DeleteAccount(ctx, b.ID, owner.ID))
	require.NoError(t, registry.Refresh(ctx))

	require.NotNil(t, registry.Current())
	assert.Equal(t, a.ID, registry.Current().ID)
}
