package services

import (
	"context"
	"errors"
	"fmt"

	"carteira/internal/core"
	"carteira/internal/gateway"
	"carteira/internal/log"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// Totals is the fold of an account's transactions.
type Totals struct {
	Income  core.Money
	Expense core.Money
	Balance core.Money
}

// Ledger records and lists transactions for the registry's selected
// account. With no selected account, listing yields nothing and writes
// are refused.
type Ledger struct {
	store    gateway.TransactionStore
	registry *Registry
	owner    core.Identity
	logger   *log.Logger
}

func NewLedger(store gateway.TransactionStore, registry *Registry, owner core.Identity, logger *log.Logger) *Ledger {
	return &Ledger{
		store:    store,
		registry: registry,
		owner:    owner,
		logger:   logger.WithComponent(log.ComponentLedger),
	}
}

var ErrNoAccountSelected = errors.New("no account selected")

// List returns the selected account's transactions, newest first. An
// empty selection lists nothing rather than failing.
func (l *Ledger) List(ctx context.Context) ([]core.Transaction, error) {
	accountID := l.registry.CurrentID()
	if accountID == "" {
		return nil, nil
	}
	txs, err := l.store.ListTransactions(ctx, accountID, l.owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Add validates and stores a transaction against the selected account.
func (l *Ledger) Add(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	accountID := l.registry.CurrentID()
	if accountID == "" {
		return core.Transaction{}, ErrNoAccountSelected
	}
	t.AccountID = accountID
	t.OwnerID = l.owner.ID
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := l.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	l.logger.InfoContext(ctx, "transaction recorded",
		log.FieldAccountID, accountID,
		log.FieldAmountCents, created.Amount.Cents,
		log.FieldKind, string(created.Kind))
	return created, nil
}

// Update applies a partial update to one of the owner's transactions.
func (l *Ledger) Update(ctx context.Context, id string, upd gateway.TransactionUpdate) error {
	if upd.Amount != nil {
		if err := upd.Amount.Validate(); err != nil {
			return err
		}
	}
	if upd.Kind != nil && !upd.Kind.Valid() {
		return core.ErrInvalidKind
	}
	if err := l.store.UpdateTransaction(ctx, id, l.owner.ID, upd); err != nil {
		if gateway.IsNotFound(err) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (l *Ledger) Delete(ctx context.Context, id string) error {
	if err := l.store.DeleteTransaction(ctx, id, l.owner.ID); err != nil {
		if gateway.IsNotFound(err) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// Totals folds the selected account's transactions into income, expense
// and balance. It recomputes on every call.
func (l *Ledger) Totals(ctx context.Context) (Totals, error) {
	txs, err := l.List(ctx)
	if err != nil {
		return Totals{}, err
	}
	var t Totals
	for _, tx := range txs {
		switch tx.Kind {
		case core.Income:
			t.Income.Cents += tx.Amount.Cents
		case core.Expense:
			t.Expense.Cents += tx.Amount.Cents
		}
	}
	t.Balance.Cents = t.Income.Cents - t.Expense.Cents
	return t, nil
}
