package limits

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"carteira/internal/core"
	"carteira/internal/log"
)

// EngineConfig tunes the background alert engine.
type EngineConfig struct {
	// CheckInterval is how often spending is re-checked against limits.
	CheckInterval time.Duration

	// SweepInterval is how often expired notifications are collected.
	SweepInterval time.Duration

	// DedupWindow suppresses repeat alerts for the same category.
	DedupWindow time.Duration

	// Retention caps how many notifications are kept, newest first.
	Retention int

	// Expiry is how long a notification lives before the sweep drops it.
	Expiry time.Duration
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		CheckInterval: 5 * time.Minute,
		SweepInterval: 30 * time.Minute,
		DedupWindow:   30 * time.Minute,
		Retention:     10,
		Expiry:        2 * time.Hour,
	}
}

// Engine periodically checks spending against the owner's limits and
// raises notifications. Notifications live only in the engine's memory;
// they vanish with the session.
type Engine struct {
	service   *Service
	notifiers []Notifier
	config    EngineConfig
	logger    *log.Logger

	// now is swappable for tests.
	now func() time.Time

	mu            sync.Mutex
	running       bool
	stopCh        chan struct{}
	doneCh        chan struct{}
	notifications []core.LimitNotification
	lastAlert     map[string]time.Time
}

func NewEngine(service *Service, config EngineConfig, logger *log.Logger, notifiers ...Notifier) *Engine {
	if config.Retention <= 0 {
		config.Retention = DefaultEngineConfig().Retention
	}
	return &Engine{
		service:   service,
		notifiers: notifiers,
		config:    config,
		logger:    logger.WithComponent(log.ComponentLimits),
		now:       time.Now,
		lastAlert: make(map[string]time.Time),
	}
}

// Start begins the check and sweep loops. It fails when already running.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("limit engine is already running")
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	e.mu.Unlock()

	go e.runLoop(ctx)

	e.logger.InfoContext(ctx, "limit engine started",
		"check_interval", e.config.CheckInterval,
		"sweep_interval", e.config.SweepInterval)
	return nil
}

// Stop signals the loop and waits for it to finish or the context to
// expire.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	stop, done := e.stopCh, e.doneCh
	e.mu.Unlock()

	close(stop)

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) runLoop(ctx context.Context) {
	defer func() {
		e.mu.Lock()
		e.running = false
		close(e.doneCh)
		e.mu.Unlock()
	}()

	checkTicker := time.NewTicker(e.config.CheckInterval)
	defer checkTicker.Stop()

	sweepTicker := time.NewTicker(e.config.SweepInterval)
	defer sweepTicker.Stop()

	// Check immediately on startup.
	e.CheckNow(ctx)

	for {
		select {
		case <-e.stopCh:
			return
		case <-ctx.Done():
			e.logger.Warn("limit engine context cancelled", log.FieldError, ctx.Err())
			return
		case <-checkTicker.C:
			e.CheckNow(ctx)
		case <-sweepTicker.C:
			e.Sweep()
		}
	}
}

// CheckNow fetches the current progress rows and raises a notification
// for every limit at warning or exceeded, unless the category alerted
// within the dedup window.
func (e *Engine) CheckNow(ctx context.Context) {
	progress, err := e.service.Progress(ctx, "")
	if err != nil {
		e.logger.ErrorContext(ctx, "limit check failed", log.FieldError, err)
		return
	}

	for _, p := range progress {
		if p.Status == core.StatusSafe {
			continue
		}
		e.raise(ctx, p)
	}
}

func (e *Engine) raise(ctx context.Context, p core.LimitProgress) {
	now := e.now()

	e.mu.Lock()
	if last, ok := e.lastAlert[p.Category]; ok && now.Sub(last) < e.config.DedupWindow {
		e.mu.Unlock()
		return
	}
	e.lastAlert[p.Category] = now

	n := core.LimitNotification{
		ID:         uuid.NewString(),
		Category:   p.Category,
		Limit:      p.Limit,
		Spent:      p.Spent,
		Percentage: p.Percentage,
		Status:     p.Status,
		Message:    alertMessage(p),
		Timestamp:  now,
	}
	e.notifications = append([]core.LimitNotification{n}, e.notifications...)
	if len(e.notifications) > e.config.Retention {
		e.notifications = e.notifications[:e.config.Retention]
	}
	e.mu.Unlock()

	e.logger.WarnContext(ctx, "limit notification raised",
		log.FieldCategory, n.Category,
		log.FieldStatus, string(n.Status),
		log.FieldPercentage, n.Percentage)

	for _, notifier := range e.notifiers {
		notifier.Notify(ctx, n)
	}
}

func alertMessage(p core.LimitProgress) string {
	if p.Status == core.StatusExceeded {
		over := core.Money{Cents: p.Spent.Cents - p.Limit.Cents}
		return fmt.Sprintf("%s limit exceeded! You spent %s, which is %s over the %s limit",
			p.Category, core.FormatPlain(p.Spent), core.FormatPlain(over), core.FormatPlain(p.Limit))
	}
	return fmt.Sprintf("%s spending reached %.1f%% of its limit (%s of %s)",
		p.Category, p.Percentage, core.FormatPlain(p.Spent), core.FormatPlain(p.Limit))
}

// Sweep drops notifications older than the expiry window and dedup
// entries older than the dedup window.
func (e *Engine) Sweep() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	cutoff := now.Add(-e.config.Expiry)
	kept := e.notifications[:0]
	for _, n := range e.notifications {
		if n.Timestamp.After(cutoff) {
			kept = append(kept, n)
		}
	}
	e.notifications = kept

	for category, last := range e.lastAlert {
		if now.Sub(last) >= e.config.DedupWindow {
			delete(e.lastAlert, category)
		}
	}
}

// Notifications returns a copy of the live notifications, newest first.
func (e *Engine) Notifications() []core.LimitNotification {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]core.LimitNotification, len(e.notifications))
	copy(out, e.notifications)
	return out
}

// Dismiss removes one notification by id.
func (e *Engine) Dismiss(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, n := range e.notifications {
		if n.ID == id {
			e.notifications = append(e.notifications[:i], e.notifications[i+1:]...)
			return true
		}
	}
	return false
}

// ClearAll drops every notification but keeps the dedup state, so
// cleared categories do not immediately re-alert.
func (e *Engine) ClearAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifications = nil
}

// SetClock overrides the engine's time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}
