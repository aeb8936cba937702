package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"carteira/internal/core"
	"carteira/internal/gateway"
)

// --- UserStore ---

func (s *Store) CreateUser(ctx context.Context, u gateway.User) (gateway.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt = time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, email_confirmed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.EmailConfirmed, u.CreatedAt)
	if err != nil {
		return gateway.User{}, mapErr("create user", err)
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (gateway.User, error) {
	return s.scanUser(ctx, "user by email", `
		SELECT id, email, name, password_hash, email_confirmed, created_at
		FROM users WHERE email = LOWER($1)`, email)
}

func (s *Store) UserByID(ctx context.Context, id string) (gateway.User, error) {
	return s.scanUser(ctx, "user by id", `
		SELECT id, email, name, password_hash, email_confirmed, created_at
		FROM users WHERE id = $1`, id)
}

func (s *Store) scanUser(ctx context.Context, op, query string, arg any) (gateway.User, error) {
	var u gateway.User
	err := s.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.EmailConfirmed, &u.CreatedAt)
	if err != nil {
		return gateway.User{}, mapErr(op, err)
	}
	return u, nil
}

// --- AccountStore ---

func (s *Store) ListAccounts(ctx context.Context, ownerID string) ([]core.Account, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, name, is_default, created_at, updated_at
		FROM accounts
		WHERE owner_id = $1
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
	return out, mapErr("list accounts", rows.Err())
}

func (s *Store) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (id, owner_id, name, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.OwnerID, a.Name, a.IsDefault, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return core.Account{}, mapErr("create account", err)
	}
	return a, nil
}

func (s *Store) UpdateAccountName(ctx context.Context, id, ownerID, name string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts SET name = $1, updated_at = NOW()
		WHERE id = $2 AND owner_id = $3`, name, id, ownerID)
	if err != nil {
		return mapErr("update account", err)
	}
	if tag.RowsAffected() == 0 {
		return gateway.NewError(gateway.KindNotFound, "update account", nil)
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, id, ownerID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM accounts WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return mapErr("delete account", err)
	}
	if tag.RowsAffected() == 0 {
		return gateway.NewError(gateway.KindNotFound, "delete account", nil)
	}
	return nil
}

// --- TransactionStore ---

func (s *Store) ListTransactions(ctx context.Context, accountID, ownerID string) ([]core.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.account_id, t.owner_id, t.amount_cents, t.kind,
		       t.category_id, t.subcategory_id, t.title, t.description,
		       t.occurred_on, t.created_at,
		       c.id, c.name, c.color,
		       sc.id, sc.category_id, sc.name
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		LEFT JOIN subcategories sc ON sc.id = t.subcategory_id
		WHERE t.account_id = $1 AND t.owner_id = $2
		ORDER BY t.occurred_on DESC, t.created_at DESC`, accountID, ownerID)
	if err != nil {
		return nil, mapErr("list transactions", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
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
			return nil, mapErr("list transactions", err)
		}
		t.CategoryID = categoryID.String
		t.SubcategoryID = subID.String
		if catID.Valid {
			t.Category = &core.Category{ID: catID.String, Name: catName.String, Color: catColor.String}
		}
		if scID.Valid {
			t.Subcategory = &core.Subcategory{ID: scID.String, CategoryID: scCatID.String, Name: scName.String}
		}
		out = append(out, t)
	}
	return out, mapErr("list transactions", rows.Err())
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	if t.OccurredOn.IsZero() {
		t.OccurredOn = t.CreatedAt
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transactions
			(id, account_id, owner_id, amount_cents, kind, category_id,
			 subcategory_id, title, description, occurred_on, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
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
	// COALESCE keeps the stored value where the update carries nil.
	var (
		amount     *int64
		kind       *string
		occurredOn *time.Time
	)
	if upd.Amount != nil {
		amount = &upd.Amount.Cents
	}
	if upd.Kind != nil {
		k := string(*upd.Kind)
		kind = &k
	}
	if upd.OccurredOn != nil {
		occurredOn = upd.OccurredOn
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE transactions SET
			amount_cents   = COALESCE($1, amount_cents),
			kind           = COALESCE($2, kind),
			category_id    = COALESCE($3, category_id),
			subcategory_id = COALESCE($4, subcategory_id),
			title          = COALESCE($5, title),
			description    = COALESCE($6, description),
			occurred_on    = COALESCE($7, occurred_on)
		WHERE id = $8 AND owner_id = $9`,
		amount, kind, optionalUUID(upd.CategoryID), optionalUUID(upd.SubcategoryID),
		upd.Title, upd.Description, occurredOn, id, ownerID)
	if err != nil {
		return mapErr("update transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return gateway.NewError(gateway.KindNotFound, "update transaction", nil)
	}
	return nil
}

func optionalUUID(p *string) any {
	if p == nil {
		return nil
	}
	return nullIfEmpty(*p)
}

func (s *Store) DeleteTransaction(ctx context.Context, id, ownerID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM transactions WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return mapErr("delete transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return gateway.NewError(gateway.KindNotFound, "delete transaction", nil)
	}
	return nil
}

// --- GoalStore ---

func (s *Store) ListGoals(ctx context.Context, accountID, ownerID string) ([]core.Goal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, account_id, owner_id, title, target_cents, current_cents,
		       target_date, created_at, updated_at
		FROM goals
		WHERE account_id = $1 AND owner_id = $2
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
	return out, mapErr("list goals", rows.Err())
}

func scanGoal(r pgx.Row) (core.Goal, error) {
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
	_, err := s.pool.Exec(ctx, `
		INSERT INTO goals
			(id, account_id, owner_id, title, target_cents, current_cents,
			 target_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		g.ID, g.AccountID, g.OwnerID, g.Title, g.Target.Cents, g.Current.Cents,
		targetDate, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return core.Goal{}, mapErr("create goal", err)
	}
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, id, ownerID string, upd gateway.GoalUpdate) error {
	var target *int64
	if upd.Target != nil {
		target = &upd.Target.Cents
	}
	var targetDate any
	if upd.TargetDate != nil && !upd.TargetDate.IsZero() {
		targetDate = *upd.TargetDate
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE goals SET
			title        = COALESCE($1, title),
			target_cents = COALESCE($2, target_cents),
			target_date  = COALESCE($3, target_date),
			updated_at   = NOW()
		WHERE id = $4 AND owner_id = $5`,
		upd.Title, target, targetDate, id, ownerID)
	if err != nil {
		return mapErr("update goal", err)
	}
	if tag.RowsAffected() == 0 {
		return gateway.NewError(gateway.KindNotFound, "update goal", nil)
	}
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, id, ownerID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM goals WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return mapErr("delete goal", err)
	}
	if tag.RowsAffected() == 0 {
		return gateway.NewError(gateway.KindNotFound, "delete goal", nil)
	}
	return nil
}

func (s *Store) AddContribution(ctx context.Context, goalID, ownerID string, amount core.Money) (core.Goal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return core.Goal{}, mapErr("add contribution", err)
	}
	defer tx.Rollback(ctx)

	g, err := scanGoal(tx.QueryRow(ctx, `
		UPDATE goals SET current_cents = current_cents + $1, updated_at = NOW()
		WHERE id = $2 AND owner_id = $3
		RETURNING id, account_id, owner_id, title, target_cents, current_cents,
		          target_date, created_at, updated_at`,
		amount.Cents, goalID, ownerID))
	if err != nil {
		return core.Goal{}, mapErr("add contribution", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO goal_contributions (id, goal_id, owner_id, amount_cents, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		uuid.NewString(), goalID, ownerID, amount.Cents)
	if err != nil {
		return core.Goal{}, mapErr("add contribution", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return core.Goal{}, mapErr("add contribution", err)
	}
	return g, nil
}

func (s *Store) ListContributions(ctx context.Context, goalID, ownerID string) ([]core.GoalContribution, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, goal_id, owner_id, amount_cents, created_at
		FROM goal_contributions
		WHERE goal_id = $1 AND owner_id = $2
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
	return out, mapErr("list contributions", rows.Err())
}

// --- LimitStore ---

func (s *Store) ListLimits(ctx context.Context, ownerID, accountID string) ([]core.CategoryLimit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, account_id, category, limit_cents, alert_percentage,
		       created_at, updated_at
		FROM category_limits
		WHERE owner_id = $1 AND ($2 = '' OR account_id::text = $2)
		ORDER BY created_at DESC`, ownerID, accountID)
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
	return out, mapErr("list limits", rows.Err())
}

func (s *Store) ListLimitProgress(ctx context.Context, ownerID, accountID string) ([]core.LimitProgress, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, account_id, category, limit_cents, alert_percentage,
		       created_at, updated_at, spent_cents
		FROM category_limits_progress
		WHERE owner_id = $1 AND ($2 = '' OR account_id::text = $2)
		ORDER BY created_at DESC`, ownerID, accountID)
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
	return out, mapErr("list limit progress", rows.Err())
}

func (s *Store) CreateLimit(ctx context.Context, l core.CategoryLimit) (core.CategoryLimit, error) {
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	_, err := s.pool.Exec(ctx, `
		INSERT INTO category_limits
			(id, owner_id, account_id, category, limit_cents, alert_percentage,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, l.OwnerID, l.AccountID, l.Category, l.Limit.Cents,
		l.AlertPercentage, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return core.CategoryLimit{}, mapErr("create limit", err)
	}
	return l, nil
}

func (s *Store) UpdateLimit(ctx context.Context, id, ownerID string, upd gateway.LimitUpdate) error {
	var limit *int64
	if upd.Limit != nil {
		limit = &upd.Limit.Cents
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE category_limits SET
			limit_cents      = COALESCE($1, limit_cents),
			alert_percentage = COALESCE($2, alert_percentage),
			updated_at       = NOW()
		WHERE id = $3 AND owner_id = $4`,
		limit, upd.AlertPercentage, id, ownerID)
	if err != nil {
		return mapErr("update limit", err)
	}
	if tag.RowsAffected() == 0 {
		return gateway.NewError(gateway.KindNotFound, "update limit", nil)
	}
	return nil
}

func (s *Store) DeleteLimit(ctx context.Context, id, ownerID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM category_limits WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return mapErr("delete limit", err)
	}
	if tag.RowsAffected() == 0 {
		return gateway.NewError(gateway.KindNotFound, "delete limit", nil)
	}
	return nil
}

// --- CategoryStore ---

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.pool.Query(ctx, `
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
	return out, mapErr("list categories", rows.Err())
}

func (s *Store) ListSubcategories(ctx context.Context, categoryID string) ([]core.Subcategory, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, category_id, name FROM subcategories
		WHERE $1 = '' OR category_id::text = $1
		ORDER BY name ASC`, categoryID)
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
	return out, mapErr("list subcategories", rows.Err())
}

var _ gateway.Gateway = (*Store)(nil)
