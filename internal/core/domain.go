package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

type (
	TransactionKind string

	// Identity is the authenticated user as seen by this system. It is
	// created by the auth layer and immutable afterwards.
	Identity struct {
		ID    string
		Email string
		Name  string
	}

	Money struct {
		Cents int64
	}

	Account struct {
		ID        string
		OwnerID   string
		Name      string
		IsDefault bool
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Category struct {
		ID    string
		Name  string
		Color string
	}

	Subcategory struct {
		ID         string
		CategoryID string
		Name       string
	}

	Transaction struct {
		ID            string
		AccountID     string
		OwnerID       string
		Amount        Money
		Kind          TransactionKind
		CategoryID    string
		SubcategoryID string
		Title         string
		Description   string
		OccurredOn    time.Time
		CreatedAt     time.Time

		// Joined reference rows, populated on list queries.
		Category    *Category
		Subcategory *Subcategory
	}

	Goal struct {
		ID         string
		AccountID  string
		OwnerID    string
		Title      string
		Target     Money
		Current    Money
		TargetDate time.Time
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	GoalContribution struct {
		ID        string
		GoalID    string
		OwnerID   string
		Amount    Money
		CreatedAt time.Time
	}

	CategoryLimit struct {
		ID              string
		OwnerID         string
		AccountID       string
		Category        string
		Limit           Money
		AlertPercentage int
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidKind         = errors.New("invalid transaction kind")
	ErrEmptyTitle          = errors.New("empty title")
	ErrEmptyName           = errors.New("empty name")
	ErrEmptyCategory       = errors.New("empty category")
	ErrFutureDate          = errors.New("date cannot be in the future")
	ErrInvalidTarget       = errors.New("target amount must be positive")
	ErrInvalidAlertPercent = errors.New("alert percentage must be between 1 and 100")
	ErrInvalidContribution = errors.New("contribution amount must be positive")
)

func (k TransactionKind) Valid() bool {
	return k == Income || k == Expense
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsZero reports whether the amount is exactly zero cents.
func (m Money) IsZero() bool { return m.Cents == 0 }

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if len(t.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if !t.OccurredOn.IsZero() && t.OccurredOn.After(endOfToday(t.OccurredOn.Location())) {
		return ErrFutureDate
	}
	return nil
}

func endOfToday(loc *time.Location) time.Time {
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, loc)
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyTitle
	}
	if g.Target.Cents <= 0 {
		return ErrInvalidTarget
	}
	if g.Current.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Progress returns the goal completion percentage clamped to [0, 100].
func (g Goal) Progress() float64 {
	if g.Target.Cents <= 0 {
		return 0
	}
	p := float64(g.Current.Cents) / float64(g.Target.Cents) * 100
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// IsComplete reports whether the goal reached its target. Unlike Progress
// it is not clamped, so overshooting still counts as complete.
func (g Goal) IsComplete() bool {
	return g.Current.Cents >= g.Target.Cents
}

func (l CategoryLimit) Validate() error {
	if strings.TrimSpace(l.Category) == "" {
		return ErrEmptyCategory
	}
	if l.Limit.Cents <= 0 {
		return ErrInvalidTarget
	}
	if l.AlertPercentage < 1 || l.AlertPercentage > 100 {
		return ErrInvalidAlertPercent
	}
	return nil
}
