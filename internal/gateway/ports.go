// Package gateway defines the contract between the application and the
// row store that holds its data. Implementations live in subpackages
// (memory, sqlite, postgres) and are selected by the backend factory.
//
// Every read and write is scoped by owner id even where the store also
// enforces authorization; the duplicated predicate is deliberate.
package gateway

import (
	"context"
	"time"

	"carteira/internal/core"
)

// User is the stored identity row, including credential material that
// never leaves the auth layer.
type User struct {
	ID             string
	Email          string
	Name           string
	PasswordHash   string
	EmailConfirmed bool
	CreatedAt      time.Time
}

// TransactionUpdate carries a partial update; nil fields are left untouched.
type TransactionUpdate struct {
	Amount        *core.Money
	Kind          *core.TransactionKind
	CategoryID    *string
	SubcategoryID *string
	Title         *string
	Description   *string
	OccurredOn    *time.Time
}

// GoalUpdate carries a partial update; nil fields are left untouched.
type GoalUpdate struct {
	Title      *string
	Target     *core.Money
	TargetDate *time.Time
}

// LimitUpdate carries a partial update; nil fields are left untouched.
type LimitUpdate struct {
	Limit           *core.Money
	AlertPercentage *int
}

type UserStore interface {
	CreateUser(ctx context.Context, u User) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id string) (User, error)
}

type AccountStore interface {
	// ListAccounts returns the owner's accounts ordered by is_default
	// descending, then created_at ascending.
	ListAccounts(ctx context.Context, ownerID string) ([]core.Account, error)
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	UpdateAccountName(ctx context.Context, id, ownerID, name string) error
	DeleteAccount(ctx context.Context, id, ownerID string) error
}

type TransactionStore interface {
	// ListTransactions returns the account's transactions ordered by
	// occurred_on descending, then created_at descending, with category
	// and subcategory reference rows joined in.
	ListTransactions(ctx context.Context, accountID, ownerID string) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id, ownerID string, upd TransactionUpdate) error
	DeleteTransaction(ctx context.Context, id, ownerID string) error
}

type GoalStore interface {
	// ListGoals returns the account's goals ordered by created_at descending.
	ListGoals(ctx context.Context, accountID, ownerID string) ([]core.Goal, error)
	CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	UpdateGoal(ctx context.Context, id, ownerID string, upd GoalUpdate) error
	DeleteGoal(ctx context.Context, id, ownerID string) error

	// AddContribution atomically increments the goal's current amount and
	// records a contribution row, returning the updated goal.
	AddContribution(ctx context.Context, goalID, ownerID string, amount core.Money) (core.Goal, error)
	ListContributions(ctx context.Context, goalID, ownerID string) ([]core.GoalContribution, error)
}

type LimitStore interface {
	// ListLimits returns limit definitions ordered by created_at
	// descending. An empty accountID means all of the owner's accounts.
	ListLimits(ctx context.Context, ownerID, accountID string) ([]core.CategoryLimit, error)

	// ListLimitProgress returns the derived spend-vs-limit view. The
	// spent amount covers the current calendar month.
	ListLimitProgress(ctx context.Context, ownerID, accountID string) ([]core.LimitProgress, error)

	CreateLimit(ctx context.Context, l core.CategoryLimit) (core.CategoryLimit, error)
	UpdateLimit(ctx context.Context, id, ownerID string, upd LimitUpdate) error
	DeleteLimit(ctx context.Context, id, ownerID string) error
}

type CategoryStore interface {
	// ListCategories returns the global reference categories ordered by name.
	ListCategories(ctx context.Context) ([]core.Category, error)

	// ListSubcategories returns subcategories ordered by name, optionally
	// filtered to one category.
	ListSubcategories(ctx context.Context, categoryID string) ([]core.Subcategory, error)
}

// Gateway bundles every store the application needs.
type Gateway interface {
	UserStore
	AccountStore
	TransactionStore
	GoalStore
	LimitStore
	CategoryStore

	Close() error
}
