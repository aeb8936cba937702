// Package memory provides an in-process gateway implementation. It backs
// the default development configuration and the test suites; data is lost
// on restart.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"carteira/internal/core"
	"carteira/internal/gateway"
)

type Store struct {
	mu sync.Mutex

	users         map[string]gateway.User
	usersByEmail  map[string]string
	accounts      map[string]core.Account
	transactions  map[string]core.Transaction
	goals         map[string]core.Goal
	contributions map[string][]core.GoalContribution
	limits        map[string]core.CategoryLimit

	categories    []core.Category
	subcategories []core.Subcategory

	// limitsProvisioned simulates the not-yet-migrated limit schema; when
	// false every limit operation fails with KindSchemaMissing.
	limitsProvisioned bool

	now func() time.Time
}

func New() *Store {
	s := &Store{
		users:             make(map[string]gateway.User),
		usersByEmail:      make(map[string]string),
		accounts:          make(map[string]core.Account),
		transactions:      make(map[string]core.Transaction),
		goals:             make(map[string]core.Goal),
		contributions:     make(map[string][]core.GoalContribution),
		limits:            make(map[string]core.CategoryLimit),
		limitsProvisioned: true,
		now:               time.Now,
	}
	s.seedCategories()
	return s
}

func (s *Store) Close() error { return nil }

// ProvisionLimits toggles the simulated presence of the limit tables.
func (s *Store) ProvisionLimits(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limitsProvisioned = ok
}

// SetClock overrides the store's time source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) seedCategories() {
	names := []struct{ name, color string }{
		{"Food", "#F59E0B"},
		{"Housing", "#3B82F6"},
		{"Transport", "#10B981"},
		{"Health", "#EF4444"},
		{"Leisure", "#8B5CF6"},
		{"Salary", "#22C55E"},
		{"Other", "#6B7280"},
	}
	for _, n := range names {
		s.categories = append(s.categories, core.Category{
			ID:    uuid.NewString(),
			Name:  n.name,
			Color: n.color,
		})
	}
	food := s.categories[0].ID
	for _, sub := range []string{"Groceries", "Restaurants", "Delivery"} {
		s.subcategories = append(s.subcategories, core.Subcategory{
			ID:         uuid.NewString(),
			CategoryID: food,
			Name:       sub,
		})
	}
}

// --- UserStore ---

func (s *Store) CreateUser(_ context.Context, u gateway.User) (gateway.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := s.usersByEmail[key]; exists {
		return gateway.User{}, gateway.NewError(gateway.KindConflict, "create user", errors.New("email already registered"))
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = s.now()
	s.users[u.ID] = u
	s.usersByEmail[key] = u.ID
	return u, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (gateway.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return gateway.User{}, gateway.NewError(gateway.KindNotFound, "user by email", nil)
	}
	return s.users[id], nil
}

func (s *Store) UserByID(_ context.Context, id string) (gateway.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return gateway.User{}, gateway.NewError(gateway.KindNotFound, "user by id", nil)
	}
	return u, nil
}

// --- AccountStore ---

func (s *Store) ListAccounts(_ context.Context, ownerID string) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Account
	for _, a := range s.accounts {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.IsDefault {
		for _, existing := range s.accounts {
			if existing.OwnerID == a.OwnerID && existing.IsDefault {
				return core.Account{}, gateway.NewError(gateway.KindConflict, "create account", errors.New("owner already has a default account"))
			}
		}
	}
	a.ID = uuid.NewString()
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) UpdateAccountName(_ context.Context, id, ownerID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok || a.OwnerID != ownerID {
		return gateway.NewError(gateway.KindNotFound, "update account", nil)
	}
	a.Name = name
	a.UpdatedAt = s.now()
	s.accounts[id] = a
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok || a.OwnerID != ownerID {
		return gateway.NewError(gateway.KindNotFound, "delete account", nil)
	}
	delete(s.accounts, id)
	for txID, tx := range s.transactions {
		if tx.AccountID == id {
			delete(s.transactions, txID)
		}
	}
	for goalID, g := range s.goals {
		if g.AccountID == id {
			delete(s.goals, goalID)
			delete(s.contributions, goalID)
		}
	}
	return nil
}

// --- TransactionStore ---

func (s *Store) ListTransactions(_ context.Context, accountID, ownerID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Transaction
	for _, t := range s.transactions {
		if t.AccountID == accountID && t.OwnerID == ownerID {
			out = append(out, s.joinReferences(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredOn.Equal(out[j].OccurredOn) {
			return out[i].OccurredOn.After(out[j].OccurredOn)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) joinReferences(t core.Transaction) core.Transaction {
	for i := range s.categories {
		if s.categories[i].ID == t.CategoryID {
			c := s.categories[i]
			t.Category = &c
			break
		}
	}
	if t.SubcategoryID != "" {
		for i := range s.subcategories {
			if s.subcategories[i].ID == t.SubcategoryID {
				sub := s.subcategories[i]
				t.Subcategory = &sub
				break
			}
		}
	}
	return t
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = uuid.NewString()
	t.CreatedAt = s.now()
	if t.OccurredOn.IsZero() {
		t.OccurredOn = s.now()
	}
	s.transactions[t.ID] = t
	return s.joinReferences(t), nil
}

func (s *Store) UpdateTransaction(_ context.Context, id, ownerID string, upd gateway.TransactionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok || t.OwnerID != ownerID {
		return gateway.NewError(gateway.KindNotFound, "update transaction", nil)
	}
	if upd.Amount != nil {
		t.Amount = *upd.Amount
	}
	if upd.Kind != nil {
		t.Kind = *upd.Kind
	}
	if upd.CategoryID != nil {
		t.CategoryID = *upd.CategoryID
	}
	if upd.SubcategoryID != nil {
		t.SubcategoryID = *upd.SubcategoryID
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.OccurredOn != nil {
		t.OccurredOn = *upd.OccurredOn
	}
	s.transactions[id] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok || t.OwnerID != ownerID {
		return gateway.NewError(gateway.KindNotFound, "delete transaction", nil)
	}
	delete(s.transactions, id)
	return nil
}

// --- GoalStore ---

func (s *Store) ListGoals(_ context.Context, accountID, ownerID string) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Goal
	for _, g := range s.goals {
		if g.AccountID == accountID && g.OwnerID == ownerID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g.ID = uuid.NewString()
	g.CreatedAt = s.now()
	g.UpdatedAt = g.CreatedAt
	s.goals[g.ID] = g
	return g, nil
}

func (s *Store) UpdateGoal(_ context.Context, id, ownerID string, upd gateway.GoalUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[id]
	if !ok || g.OwnerID != ownerID {
		return gateway.NewError(gateway.KindNotFound, "update goal", nil)
	}
	if upd.Title != nil {
		g.Title = *upd.Title
	}
	if upd.Target != nil {
		g.Target = *upd.Target
	}
	if upd.TargetDate != nil {
		g.TargetDate = *upd.TargetDate
	}
	g.UpdatedAt = s.now()
	s.goals[id] = g
	return nil
}

func (s *Store) DeleteGoal(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[id]
	if !ok || g.OwnerID != ownerID {
		return gateway.NewError(gateway.KindNotFound, "delete goal", nil)
	}
	delete(s.goals, id)
	delete(s.contributions, id)
	return nil
}

func (s *Store) AddContribution(_ context.Context, goalID, ownerID string, amount core.Money) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[goalID]
	if !ok || g.OwnerID != ownerID {
		return core.Goal{}, gateway.NewError(gateway.KindNotFound, "add contribution", nil)
	}
	g.Current.Cents += amount.Cents
	g.UpdatedAt = s.now()
	s.goals[goalID] = g

	s.contributions[goalID] = append(s.contributions[goalID], core.GoalContribution{
		ID:        uuid.NewString(),
		GoalID:    goalID,
		OwnerID:   ownerID,
		Amount:    amount,
		CreatedAt: s.now(),
	})
	return g, nil
}

func (s *Store) ListContributions(_ context.Context, goalID, ownerID string) ([]core.GoalContribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[goalID]
	if !ok || g.OwnerID != ownerID {
		return nil, gateway.NewError(gateway.KindNotFound, "list contributions", nil)
	}
	list := s.contributions[goalID]
	out := make([]core.GoalContribution, len(list))
	copy(out, list)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// --- LimitStore ---

func (s *Store) ListLimits(_ context.Context, ownerID, accountID string) ([]core.CategoryLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.limitsProvisioned {
		return nil, gateway.NewError(gateway.KindSchemaMissing, "list limits", errors.New(`relation "category_limits" does not exist`))
	}

	var out []core.CategoryLimit
	for _, l := range s.limits {
		if l.OwnerID != ownerID {
			continue
		}
		if accountID != "" && l.AccountID != accountID {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) ListLimitProgress(_ context.Context, ownerID, accountID string) ([]core.LimitProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.limitsProvisioned {
		return nil, gateway.NewError(gateway.KindSchemaMissing, "list limit progress", errors.New(`relation "category_limits_progress" does not exist`))
	}

	now := s.now()
	var out []core.LimitProgress
	for _, l := range s.limits {
		if l.OwnerID != ownerID {
			continue
		}
		if accountID != "" && l.AccountID != accountID {
			continue
		}
		p := core.LimitProgress{
			CategoryLimit: l,
			Spent:         s.monthSpendLocked(l.AccountID, l.Category, now),
		}
		p.Classify()
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// monthSpendLocked sums expense transactions for the account whose category
// name matches and whose date falls in the same calendar month as now.
func (s *Store) monthSpendLocked(accountID, category string, now time.Time) core.Money {
	var names = make(map[string]string, len(s.categories))
	for _, c := range s.categories {
		names[c.ID] = c.Name
	}
	var total int64
	for _, t := range s.transactions {
		if t.AccountID != accountID || t.Kind != core.Expense {
			continue
		}
		if names[t.CategoryID] != category {
			continue
		}
		if t.OccurredOn.Year() != now.Year() || t.OccurredOn.Month() != now.Month() {
			continue
		}
		total += t.Amount.Cents
	}
	return core.Money{Cents: total}
}

func (s *Store) CreateLimit(_ context.Context, l core.CategoryLimit) (core.CategoryLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.limitsProvisioned {
		return core.CategoryLimit{}, gateway.NewError(gateway.KindSchemaMissing, "create limit", errors.New(`relation "category_limits" does not exist`))
	}
	for _, existing := range s.limits {
		if existing.AccountID == l.AccountID && existing.Category == l.Category {
			return core.CategoryLimit{}, gateway.NewError(gateway.KindConflict, "create limit", errors.New("duplicate key value violates unique constraint"))
		}
	}
	l.ID = uuid.NewString()
	l.CreatedAt = s.now()
	l.UpdatedAt = l.CreatedAt
	s.limits[l.ID] = l
	return l, nil
}

func (s *Store) UpdateLimit(_ context.Context, id, ownerID string, upd gateway.LimitUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limits[id]
	if !ok || l.OwnerID != ownerID {
		return gateway.NewError(gateway.KindNotFound, "update limit", nil)
	}
	if upd.Limit != nil {
		l.Limit = *upd.Limit
	}
	if upd.AlertPercentage != nil {
		l.AlertPercentage = *upd.AlertPercentage
	}
	l.UpdatedAt = s.now()
	s.limits[id] = l
	return nil
}

func (s *Store) DeleteLimit(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limits[id]
	if !ok || l.OwnerID != ownerID {
		return gateway.NewError(gateway.KindNotFound, "delete limit", nil)
	}
	delete(s.limits, id)
	return nil
}

// --- CategoryStore ---

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Category, len(s.categories))
	copy(out, s.categories)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) ListSubcategories(_ context.Context, categoryID string) ([]core.Subcategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Subcategory
	for _, sub := range s.subcategories {
		if categoryID == "" || sub.CategoryID == categoryID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CategoryIDByName resolves a seeded category id, for tests and seeding.
func (s *Store) CategoryIDByName(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == name {
			return c.ID
		}
	}
	return ""
}

var _ gateway.Gateway = (*Store)(nil)
