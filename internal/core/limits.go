package core

import "time"

const (
	StatusSafe     LimitStatus = "safe"
	StatusWarning  LimitStatus = "warning"
	StatusExceeded LimitStatus = "exceeded"
)

type (
	LimitStatus string

	// LimitProgress is the derived spend-vs-limit view for one category
	// limit. It is recomputed on every fetch, never stored.
	LimitProgress struct {
		CategoryLimit
		Spent      Money
		Percentage float64
		Status     LimitStatus
	}

	// LimitNotification is an ephemeral, session-local alert. It is kept
	// only in memory and garbage-collected after a retention window.
	LimitNotification struct {
		ID         string
		Category   string
		Limit      Money
		Spent      Money
		Percentage float64
		Status     LimitStatus
		Message    string
		Timestamp  time.Time
	}
)

// ClassifyLimit derives the three-state limit status from raw amounts.
//
// The classification is monotonic in the spent amount for a fixed alert
// percentage: safe below the alert threshold, warning from the threshold
// up to and including exactly 100%, exceeded strictly above 100%.
func ClassifyLimit(spent, limit Money, alertPercentage int) (float64, LimitStatus) {
	if limit.Cents <= 0 {
		return 0, StatusSafe
	}
	pct := float64(spent.Cents) / float64(limit.Cents) * 100

	switch {
	case pct > 100:
		return pct, StatusExceeded
	case pct >= float64(alertPercentage):
		return pct, StatusWarning
	default:
		return pct, StatusSafe
	}
}

// Classify fills Percentage and Status from the progress row's own amounts.
func (p *LimitProgress) Classify() {
	p.Percentage, p.Status = ClassifyLimit(p.Spent, p.Limit, p.AlertPercentage)
}
