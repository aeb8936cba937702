// Package sqlite implements the gateway on an embedded SQLite database.
// It is the default durable backend for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"carteira/internal/core"
	"carteira/internal/gateway"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// mapErr translates driver errors into the gateway's kind taxonomy.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return gateway.NewError(gateway.KindNotFound, op, err)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return gateway.NewError(gateway.KindConflict, op, err)
	case strings.Contains(msg, "no such table"), strings.Contains(msg, "no such view"):
		return gateway.NewError(gateway.KindSchemaMissing, op, err)
	}
	return gateway.NewError(gateway.KindUnknown, op, err)
}

func notFoundIfZero(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(op, err)
	}
	if n == 0 {
		return gateway.NewError(gateway.KindNotFound, op, nil)
	}
	return nil
}

// --- UserStore ---

func (s *Store) CreateUser(ctx context.Context, u gateway.User) (gateway.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, email_confirmed, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.EmailConfirmed, u.CreatedAt)
	if err != nil {
		return gateway.User{}, mapErr("create user", err)
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (gateway.User, error) {
	return s.scanUser(ctx, "user by email", `
		SELECT id, email, name, password_hash, email_confirmed, created_at
		FROM users WHERE email = ?`, email)
}

func (s *Store) UserByID(ctx context.Context, id string) (gateway.User, error) {
	return s.scanUser(ctx, "user by id", `
		SELECT id, email, name, password_hash, email_confirmed, created_at
		FROM users WHERE id = ?`, id)
}

func (s *Store) scanUser(ctx context.Context, op, query string, arg any) (gateway.User, error) {
	var u gateway.User
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.EmailConfirmed, &u.CreatedAt)
	if err != nil {
		return gateway.User{}, mapErr(op, err)
	}
	return u, nil
}

// --- AccountStore ---

func (s *Store) ListAccounts(ctx context.Context, ownerID string) ([]core.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, is_default, created_at, updated_at
		FROM accounts
		WHERE owner_id = ?
		ORDER BY is_default DESC, created_at ASC`, ownerID)
	if err != nil {
		return nil, mapErr("list accounts", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Name, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, mapErr("list accounts", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, owner_id, name, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.OwnerID, a.Name, a.IsDefault, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return core.Account{}, mapErr("create account", err)
	}
	return a, nil
}

func (s *Store) UpdateAccountName(ctx context.Context, id, ownerID, name string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`, name, time.Now(), id, ownerID)
	if err != nil {
		return mapErr("update account", err)
	}
	return notFoundIfZero("update account", res)
}

func (s *Store) DeleteAccount(ctx context.Context, id, ownerID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM accounts WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return mapErr("delete account", err)
	}
	return notFoundIfZero("delete account", res)
}

// --- TransactionStore ---

const transactionColumns = `
	t.id, t.account_id, t.owner_id, t.amount_cents, t.kind,
	t.category_id, t.subcategory_id, t.title, t.description,
	t.occurred_on, t.created_at,
	c.id, c.name, c.color,
	sc.id, sc.category_id, sc.name`

func (s *Store) ListTransactions(ctx context.Context, accountID, ownerID string) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		LEFT JOIN subcategories sc ON sc.id = t.subcategory_id
		WHERE t.account_id = ? AND t.owner_id = ?
		ORDER BY t.occurred_on DESC, t.created_at DESC`, accountID, ownerID)
	if err != nil {
		return nil, mapErr("list transactions", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, mapErr("list transactions", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var (
		t          core.Transaction
		categoryID sql.NullString
		subID      sql.NullString
		catID      sql.NullString
		catName    sql.NullString
		catColor   sql.NullString
		scID       sql.NullString
		scCatID    sql.NullString
		scName     sql.NullString
	)
	err := rows.Scan(
		&t.ID, &t.AccountID, &t.OwnerID, &t.Amount.Cents, &t.Kind,
		&categoryID, &subID, &t.Title, &t.Description,
		&t.OccurredOn, &t.CreatedAt,
		&catID, &catName, &catColor,
		&scID, &scCatID, &scName)
	if err != nil {
		return core.Transaction{}, err
	}
	t.CategoryID = categoryID.String
	t.SubcategoryID = subID.String
	if catID.Valid {
		t.Category = &core.Category{ID: catID.String, Name: catName.String, Color: catColor.String}
	}
	if scID.Valid {
		t.Subcategory = &core.Subcategory{ID: scID.String, CategoryID: scCatID.String, Name: scName.String}
	}
	return t, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	if t.OccurredOn.IsZero() {
		t.OccurredOn = t.CreatedAt
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, account_id, owner_id, amount_cents, kind, category_id,
			 subcategory_id, title, description, occurred_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.OwnerID, t.Amount.Cents, t.Kind,
		nullIfEmpty(t.CategoryID), nullIfEmpty(t.SubcategoryID),
		t.Title, t.Description, t.OccurredOn, t.CreatedAt)
	if err != nil {
		return core.Transaction{}, mapErr("create transaction", err)
	}
	return t, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *Store) UpdateTransaction(ctx context.Context, id, ownerID string, upd gateway.TransactionUpdate) error {
	set := make([]string, 0, 7)
	args := make([]any, 0, 9)
	if upd.Amount != nil {
		set = append(set, "amount_cents = ?")
		args = append(args, upd.Amount.Cents)
	}
	if upd.Kind != nil {
		set = append(set, "kind = ?")
		args = append(args, *upd.Kind)
	}
	if upd.CategoryID != nil {
		set = append(set, "category_id = ?")
		args = append(args, nullIfEmpty(*upd.CategoryID))
	}
	if upd.SubcategoryID != nil {
		set = append(set, "subcategory_id = ?")
		args = append(args, nullIfEmpty(*upd.SubcategoryID))
	}
	if upd.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.OccurredOn != nil {
		set = append(set, "occurred_on = ?")
		args = append(args, *upd.OccurredOn)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id, ownerID)
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET `+strings.Join(set, ", ")+`
		WHERE id = ? AND owner_id = ?`, args...)
	if err != nil {
		return mapErr("update transaction", err)
	}
	return notFoundIfZero("update transaction", res)
}

func (s *Store) DeleteTransaction(ctx context.Context, id, ownerID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return mapErr("delete transaction", err)
	}
	return notFoundIfZero("delete transaction", res)
}

// --- GoalStore ---

func (s *Store) ListGoals(ctx context.Context, accountID, ownerID string) ([]core.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, owner_id, title, target_cents, current_cents,
		       target_date, created_at, updated_at
		FROM goals
		WHERE account_id = ? AND owner_id = ?
		ORDER BY created_at DESC`, accountID, ownerID)
	if err != nil {
		return nil, mapErr("list goals", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, mapErr("list goals", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanGoal(r rowScanner) (core.Goal, error) {
	var (
		g          core.Goal
		targetDate sql.NullTime
	)
	err := r.Scan(&g.ID, &g.AccountID, &g.OwnerID, &g.Title,
		&g.Target.Cents, &g.Current.Cents, &targetDate, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return core.Goal{}, err
	}
	if targetDate.Valid {
		g.TargetDate = targetDate.Time
	}
	return g, nil
}

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.ID = uuid.NewString()
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt
	var targetDate any
	if !g.TargetDate.IsZero() {
		targetDate = g.TargetDate
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals
			(id, account_id, owner_id, title, target_cents, current_cents,
			 target_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.AccountID, g.OwnerID, g.Title, g.Target.Cents, g.Current.Cents,
		targetDate, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return core.Goal{}, mapErr("create goal", err)
	}
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, id, ownerID string, upd gateway.GoalUpdate) error {
	set := make([]string, 0, 4)
	args := make([]any, 0, 6)
	if upd.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Target != nil {
		set = append(set, "target_cents = ?")
		args = append(args, upd.Target.Cents)
	}
	if upd.TargetDate != nil {
		set = append(set, "target_date = ?")
		if upd.TargetDate.IsZero() {
			args = append(args, nil)
		} else {
			args = append(args, *upd.TargetDate)
		}
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = ?")
	args = append(args, time.Now(), id, ownerID)
	res, err := s.db.ExecContext(ctx, `
		UPDATE goals SET `+strings.Join(set, ", ")+`
		WHERE id = ? AND owner_id = ?`, args...)
	if err != nil {
		return mapErr("update goal", err)
	}
	return notFoundIfZero("update goal", res)
}

func (s *Store) DeleteGoal(ctx context.Context, id, ownerID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM goals WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return mapErr("delete goal", err)
	}
	return notFoundIfZero("delete goal", res)
}

func (s *Store) AddContribution(ctx context.Context, goalID, ownerID string, amount core.Money) (core.Goal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Goal{}, mapErr("add contribution", err)
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		UPDATE goals SET current_cents = current_cents + ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`, amount.Cents, now, goalID, ownerID)
	if err != nil {
		return core.Goal{}, mapErr("add contribution", err)
	}
	if err := notFoundIfZero("add contribution", res); err != nil {
		return core.Goal{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO goal_contributions (id, goal_id, owner_id, amount_cents, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), goalID, ownerID, amount.Cents, now)
	if err != nil {
		return core.Goal{}, mapErr("add contribution", err)
	}

	g, err := scanGoal(tx.QueryRowContext(ctx, `
		SELECT id, account_id, owner_id, title, target_cents, current_cents,
		       target_date, created_at, updated_at
		FROM goals WHERE id = ?`, goalID))
	if err != nil {
		return core.Goal{}, mapErr("add contribution", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Goal{}, mapErr("add contribution", err)
	}
	return g, nil
}

func (s *Store) ListContributions(ctx context.Context, goalID, ownerID string) ([]core.GoalContribution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, goal_id, owner_id, amount_cents, created_at
		FROM goal_contributions
		WHERE goal_id = ? AND owner_id = ?
		ORDER BY created_at DESC`, goalID, ownerID)
	if err != nil {
		return nil, mapErr("list contributions", err)
	}
	defer rows.Close()

	var out []core.GoalContribution
	for rows.Next() {
		var c core.GoalContribution
		if err := rows.Scan(&c.ID, &c.GoalID, &c.OwnerID, &c.Amount.Cents, &c.CreatedAt); err != nil {
			return nil, mapErr("list contributions", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- LimitStore ---

func (s *Store) ListLimits(ctx context.Context, ownerID, accountID string) ([]core.CategoryLimit, error) {
	query := `
		SELECT id, owner_id, account_id, category, limit_cents, alert_percentage,
		       created_at, updated_at
		FROM category_limits
		WHERE owner_id = ?`
	args := []any{ownerID}
	if accountID != "" {
		query += " AND account_id = ?"
		args = append(args, accountID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list limits", err)
	}
	defer rows.Close()

	var out []core.CategoryLimit
	for rows.Next() {
		var l core.CategoryLimit
		err := rows.Scan(&l.ID, &l.OwnerID, &l.AccountID, &l.Category,
			&l.Limit.Cents, &l.AlertPercentage, &l.CreatedAt, &l.UpdatedAt)
		if err != nil {
			return nil, mapErr("list limits", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) ListLimitProgress(ctx context.Context, ownerID, accountID string) ([]core.LimitProgress, error) {
	query := `
		SELECT id, owner_id, account_id, category, limit_cents, alert_percentage,
		       created_at, updated_at, spent_cents
		FROM category_limits_progress
		WHERE owner_id = ?`
	args := []any{ownerID}
	if accountID != "" {
		query += " AND account_id = ?"
		args = append(args, accountID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list limit progress", err)
	}
	defer rows.Close()

	var out []core.LimitProgress
	for rows.Next() {
		var p core.LimitProgress
		err := rows.Scan(&p.ID, &p.OwnerID, &p.AccountID, &p.Category,
			&p.Limit.Cents, &p.AlertPercentage, &p.CreatedAt, &p.UpdatedAt,
			&p.Spent.Cents)
		if err != nil {
			return nil, mapErr("list limit progress", err)
		}
		p.Classify()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) CreateLimit(ctx context.Context, l core.CategoryLimit) (core.CategoryLimit, error) {
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category_limits
			(id, owner_id, account_id, category, limit_cents, alert_percentage,
			 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.OwnerID, l.AccountID, l.Category, l.Limit.Cents,
		l.AlertPercentage, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return core.CategoryLimit{}, mapErr("create limit", err)
	}
	return l, nil
}

func (s *Store) UpdateLimit(ctx context.Context, id, ownerID string, upd gateway.LimitUpdate) error {
	set := make([]string, 0, 3)
	args := make([]any, 0, 5)
	if upd.Limit != nil {
		set = append(set, "limit_cents = ?")
		args = append(args, upd.Limit.Cents)
	}
	if upd.AlertPercentage != nil {
		set = append(set, "alert_percentage = ?")
		args = append(args, *upd.AlertPercentage)
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = ?")
	args = append(args, time.Now(), id, ownerID)
	res, err := s.db.ExecContext(ctx, `
		UPDATE category_limits SET `+strings.Join(set, ", ")+`
		WHERE id = ? AND owner_id = ?`, args...)
	if err != nil {
		return mapErr("update limit", err)
	}
	return notFoundIfZero("update limit", res)
}

func (s *Store) DeleteLimit(ctx context.Context, id, ownerID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM category_limits WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return mapErr("delete limit", err)
	}
	return notFoundIfZero("delete limit", res)
}

// --- CategoryStore ---

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, color FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, mapErr("list categories", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, mapErr("list categories", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListSubcategories(ctx context.Context, categoryID string) ([]core.Subcategory, error) {
	query := `SELECT id, category_id, name FROM subcategories`
	var args []any
	if categoryID != "" {
		query += " WHERE category_id = ?"
		args = append(args, categoryID)
	}
	query += " ORDER BY name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list subcategories", err)
	}
	defer rows.Close()

	var out []core.Subcategory
	for rows.Next() {
		var sc core.Subcategory
		if err := rows.Scan(&sc.ID, &sc.CategoryID, &sc.Name); err != nil {
			return nil, mapErr("list subcategories", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

var _ gateway.Gateway = (*Store)(nil)
