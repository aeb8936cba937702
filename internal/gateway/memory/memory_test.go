package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carteira/internal/core"
	"carteira/internal/gateway"
)

func newTestStore(t *testing.T) (*Store, core.Account) {
	t.Helper()
	s := New()
	u, err := s.CreateUser(context.Background(), gateway.User{Email: "ana@example.com", Name: "Ana", PasswordHash: "x"})
	require.NoError(t, err)
	a, err := s.CreateAccount(context.Background(), core.Account{OwnerID: u.ID, Name: "Wallet", IsDefault: true})
	require.NoError(t, err)
	return s, a
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.CreateUser(ctx, gateway.User{Email: "ana@example.com"})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, gateway.User{Email: "ANA@example.com"})
	assert.True(t, gateway.IsConflict(err), "case-insensitive duplicate should conflict, got %v", err)
}

func TestAccountOrdering(t *testing.T) {
	s, def := newTestStore(t)
	ctx := context.Background()

	second, err := s.CreateAccount(ctx, core.Account{OwnerID: def.OwnerID, Name: "Savings"})
	require.NoError(t, err)
	third, err := s.CreateAccount(ctx, core.Account{OwnerID: def.OwnerID, Name: "Travel"})
	require.NoError(t, err)

	list, err := s.ListAccounts(ctx, def.OwnerID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, def.ID, list[0].ID, "default account first")
	assert.Equal(t, second.ID, list[1].ID)
	assert.Equal(t, third.ID, list[2].ID)
}

func TestSecondDefaultAccountConflicts(t *testing.T) {
	s, def := newTestStore(t)
	_, err := s.CreateAccount(context.Background(), core.Account{OwnerID: def.OwnerID, Name: "Other", IsDefault: true})
	assert.True(t, gateway.IsConflict(err))
}

func TestTransactionOrderingAndJoin(t *testing.T) {
	s, acc := newTestStore(t)
	ctx := context.Background()
	food := s.CategoryIDByName("Food")
	require.NotEmpty(t, food)

	older, err := s.CreateTransaction(ctx, core.Transaction{
		AccountID:  acc.ID,
		OwnerID:    acc.OwnerID,
		Amount:     core.Money{Cents: 1500},
		Kind:       core.Expense,
		CategoryID: food,
		Title:      "Lunch",
		OccurredOn: time.Now().Add(-48 * time.Hour),
	})
	require.NoError(t, err)
	newer, err := s.CreateTransaction(ctx, core.Transaction{
		AccountID:  acc.ID,
		OwnerID:    acc.OwnerID,
		Amount:     core.Money{Cents: 4200},
		Kind:       core.Expense,
		CategoryID: food,
		Title:      "Groceries",
		OccurredOn: time.Now(),
	})
	require.NoError(t, err)

	list, err := s.ListTransactions(ctx, acc.ID, acc.OwnerID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID, "newest occurred_on first")
	assert.Equal(t, older.ID, list[1].ID)
	require.NotNil(t, list[0].Category)
	assert.Equal(t, "Food", list[0].Category.Name)
}

func TestUpdateTransactionOwnerScoped(t *testing.T) {
	s, acc := newTestStore(t)
	ctx := context.Background()
	tx, err := s.CreateTransaction(ctx, core.Transaction{
		AccountID: acc.ID, OwnerID: acc.OwnerID,
		Amount: core.Money{Cents: 100}, Kind: core.Expense, Title: "Coffee",
	})
	require.NoError(t, err)

	title := "Espresso"
	err = s.UpdateTransaction(ctx, tx.ID, "someone-else", gateway.TransactionUpdate{Title: &title})
	assert.True(t, gateway.IsNotFound(err), "foreign owner must not see the row")

	require.NoError(t, s.UpdateTransaction(ctx, tx.ID, acc.OwnerID, gateway.TransactionUpdate{Title: &title}))
	list, err := s.ListTransactions(ctx, acc.ID, acc.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, "Espresso", list[0].Title)
}

func TestDeleteAccountCascades(t *testing.T) {
	s, acc := newTestStore(t)
	ctx := context.Background()
	_, err := s.CreateTransaction(ctx, core.Transaction{
		AccountID: acc.ID, OwnerID: acc.OwnerID,
		Amount: core.Money{Cents: 100}, Kind: core.Expense, Title: "Coffee",
	})
	require.NoError(t, err)
	g, err := s.CreateGoal(ctx, core.Goal{AccountID: acc.ID, OwnerID: acc.OwnerID, Title: "Trip", Target: core.Money{Cents: 100000}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAccount(ctx, acc.ID, acc.OwnerID))

	txs, err := s.ListTransactions(ctx, acc.ID, acc.OwnerID)
	require.NoError(t, err)
	assert.Empty(t, txs)
	_, err = s.ListContributions(ctx, g.ID, acc.OwnerID)
	assert.True(t, gateway.IsNotFound(err))
}

func TestAddContribution(t *testing.T) {
	s, acc := newTestStore(t)
	ctx := context.Background()
	g, err := s.CreateGoal(ctx, core.Goal{AccountID: acc.ID, OwnerID: acc.OwnerID, Title: "Trip", Target: core.Money{Cents: 100000}})
	require.NoError(t, err)

	updated, err := s.AddContribution(ctx, g.ID, acc.OwnerID, core.Money{Cents: 2500})
	require.NoError(t, err)
	assert.Equal(t, int64(2500), updated.Current.Cents)

	updated, err = s.AddContribution(ctx, g.ID, acc.OwnerID, core.Money{Cents: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), updated.Current.Cents)

	contribs, err := s.ListContributions(ctx, g.ID, acc.OwnerID)
	require.NoError(t, err)
	require.Len(t, contribs, 2)
	assert.Equal(t, int64(500), contribs[0].Amount.Cents, "newest first")
}

func TestDuplicateLimitConflicts(t *testing.T) {
	s, acc := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateLimit(ctx, core.CategoryLimit{
		OwnerID: acc.OwnerID, AccountID: acc.ID,
		Category: "Food", Limit: core.Money{Cents: 50000}, AlertPercentage: 80,
	})
	require.NoError(t, err)

	_, err = s.CreateLimit(ctx, core.CategoryLimit{
		OwnerID: acc.OwnerID, AccountID: acc.ID,
		Category: "Food", Limit: core.Money{Cents: 70000}, AlertPercentage: 90,
	})
	assert.True(t, gateway.IsConflict(err))
}

func TestLimitsUnprovisioned(t *testing.T) {
	s, acc := newTestStore(t)
	s.ProvisionLimits(false)

	_, err := s.ListLimits(context.Background(), acc.OwnerID, "")
	assert.True(t, gateway.IsSchemaMissing(err))
	_, err = s.ListLimitProgress(context.Background(), acc.OwnerID, "")
	assert.True(t, gateway.IsSchemaMissing(err))
}

func TestLimitProgressCurrentMonthOnly(t *testing.T) {
	s, acc := newTestStore(t)
	ctx := context.Background()
	food := s.CategoryIDByName("Food")

	_, err := s.CreateLimit(ctx, core.CategoryLimit{
		OwnerID: acc.OwnerID, AccountID: acc.ID,
		Category: "Food", Limit: core.Money{Cents: 50000}, AlertPercentage: 80,
	})
	require.NoError(t, err)

	// One expense this month, one last month, one income this month.
	_, err = s.CreateTransaction(ctx, core.Transaction{
		AccountID: acc.ID, OwnerID: acc.OwnerID,
		Amount: core.Money{Cents: 42000}, Kind: core.Expense,
		CategoryID: food, Title: "Groceries", OccurredOn: time.Now(),
	})
	require.NoError(t, err)
	_, err = s.CreateTransaction(ctx, core.Transaction{
		AccountID: acc.ID, OwnerID: acc.OwnerID,
		Amount: core.Money{Cents: 9000}, Kind: core.Expense,
		CategoryID: food, Title: "Old groceries", OccurredOn: time.Now().AddDate(0, 0, -45),
	})
	require.NoError(t, err)
	_, err = s.CreateTransaction(ctx, core.Transaction{
		AccountID: acc.ID, OwnerID: acc.OwnerID,
		Amount: core.Money{Cents: 100000}, Kind: core.Income,
		CategoryID: food, Title: "Refund", OccurredOn: time.Now(),
	})
	require.NoError(t, err)

	progress, err := s.ListLimitProgress(ctx, acc.OwnerID, acc.ID)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, int64(42000), progress[0].Spent.Cents)
	assert.InDelta(t, 84.0, progress[0].Percentage, 0.001)
	assert.Equal(t, core.StatusWarning, progress[0].Status)
}

func TestListCategoriesSeeded(t *testing.T) {
	s := New()
	cats, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, cats)
	for i := 1; i < len(cats); i++ {
		assert.LessOrEqual(t, cats[i-1].Name, cats[i].Name, "sorted by name")
	}

	subs, err := s.ListSubcategories(context.Background(), s.CategoryIDByName("Food"))
	require.NoError(t, err)
	assert.Len(t, subs, 3)
}
