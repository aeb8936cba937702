// Package reports derives summaries from transaction lists. All
// functions are pure folds; they never touch the gateway.
package reports

import (
	"sort"
	"time"

	"carteira/internal/core"
)

// MonthBucket aggregates one calendar month.
type MonthBucket struct {
	Year    int
	Month   time.Month
	Income  core.Money
	Expense core.Money
	Balance core.Money
}

// CategoryBreakdown aggregates expenses for one category.
type CategoryBreakdown struct {
	Category   string
	Color      string
	Total      core.Money
	Percentage float64
}

// Summary is the whole-period fold.
type Summary struct {
	Income       core.Money
	Expense      core.Money
	Balance      core.Money
	Transactions int
}

// Summarize folds the transactions into period totals.
func Summarize(txs []core.Transaction) Summary {
	var s Summary
	for _, t := range txs {
		s.Transactions++
		switch t.Kind {
		case core.Income:
			s.Income.Cents += t.Amount.Cents
		case core.Expense:
			s.Expense.Cents += t.Amount.Cents
		}
	}
	s.Balance.Cents = s.Income.Cents - s.Expense.Cents
	return s
}

// MonthlySeries buckets the transactions by calendar month, oldest
// first. Months with no transactions do not appear.
func MonthlySeries(txs []core.Transaction) []MonthBucket {
	type key struct {
		year  int
		month time.Month
	}
	buckets := make(map[key]*MonthBucket)
	for _, t := range txs {
		k := key{t.OccurredOn.Year(), t.OccurredOn.Month()}
		b, ok := buckets[k]
		if !ok {
			b = &MonthBucket{Year: k.year, Month: k.month}
			buckets[k] = b
		}
		switch t.Kind {
		case core.Income:
			b.Income.Cents += t.Amount.Cents
		case core.Expense:
			b.Expense.Cents += t.Amount.Cents
		}
	}

	out := make([]MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		b.Balance.Cents = b.Income.Cents - b.Expense.Cents
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// ExpenseByCategory breaks expenses down per category, largest first,
// with each share as a percentage of total expenses. Transactions with
// no joined category fall under "Uncategorized".
func ExpenseByCategory(txs []core.Transaction) []CategoryBreakdown {
	totals := make(map[string]*CategoryBreakdown)
	var totalExpense int64
	for _, t := range txs {
		if t.Kind != core.Expense {
			continue
		}
		name := "Uncategorized"
		color := ""
		if t.Category != nil {
			name = t.Category.Name
			color = t.Category.Color
		}
		b, ok := totals[name]
		if !ok {
			b = &CategoryBreakdown{Category: name, Color: color}
			totals[name] = b
		}
		b.Total.Cents += t.Amount.Cents
		totalExpense += t.Amount.Cents
	}

	out := make([]CategoryBreakdown, 0, len(totals))
	for _, b := range totals {
		if totalExpense > 0 {
			b.Percentage = float64(b.Total.Cents) / float64(totalExpense) * 100
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}
