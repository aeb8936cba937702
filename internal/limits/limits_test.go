package limits

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carteira/internal/core"
	"carteira/internal/gateway"
	"carteira/internal/gateway/memory"
	"carteira/internal/log"
)

func testService(t *testing.T) (*memory.Store, *Service, core.Account) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	u, err := store.CreateUser(ctx, gateway.User{Email: "ana@example.com", Name: "Ana"})
	require.NoError(t, err)
	acc, err := store.CreateAccount(ctx, core.Account{OwnerID: u.ID, Name: "Wallet", IsDefault: true})
	require.NoError(t, err)

	owner := core.Identity{ID: u.ID, Email: u.Email, Name: u.Name}
	return store, NewService(store, owner, log.New(log.DefaultConfig())), acc
}

func TestServiceCreateDuplicate(t *testing.T) {
	_, svc, acc := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, core.CategoryLimit{
		AccountID: acc.ID, Category: "Food",
		Limit: core.Money{Cents: 50000}, AlertPercentage: 80,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, core.CategoryLimit{
		AccountID: acc.ID, Category: "Food",
		Limit: core.Money{Cents: 70000}, AlertPercentage: 90,
	})
	assert.ErrorIs(t, err, ErrDuplicateLimit)
}

func TestServiceValidation(t *testing.T) {
	_, svc, acc := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, core.CategoryLimit{
		AccountID: acc.ID, Category: "",
		Limit: core.Money{Cents: 50000}, AlertPercentage: 80,
	})
	assert.ErrorIs(t, err, core.ErrEmptyCategory)

	_, err = svc.Create(ctx, core.CategoryLimit{
		AccountID: acc.ID, Category: "Food",
		Limit: core.Money{Cents: 50000}, AlertPercentage: 0,
	})
	assert.ErrorIs(t, err, core.ErrInvalidAlertPercent)
}

func TestServiceSchemaMissingIsSilent(t *testing.T) {
	store, svc, _ := testService(t)
	store.ProvisionLimits(false)
	ctx := context.Background()

	list, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	progress, err := svc.Progress(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, progress)
}

func TestServiceUpdateDelete(t *testing.T) {
	_, svc, acc := testService(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, core.CategoryLimit{
		AccountID: acc.ID, Category: "Food",
		Limit: core.Money{Cents: 50000}, AlertPercentage: 80,
	})
	require.NoError(t, err)

	newLimit := core.Money{Cents: 60000}
	require.NoError(t, svc.Update(ctx, l.ID, gateway.LimitUpdate{Limit: &newLimit}))

	list, err := svc.List(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(60000), list[0].Limit.Cents)

	require.NoError(t, svc.Delete(ctx, l.ID))
	assert.ErrorIs(t, svc.Delete(ctx, l.ID), ErrLimitNotFound)

	badPct := 150
	assert.ErrorIs(t, svc.Update(ctx, "whatever", gateway.LimitUpdate{AlertPercentage: &badPct}), core.ErrInvalidAlertPercent)
}

type captureNotifier struct {
	alerts []core.LimitNotification
}

func (c *captureNotifier) Notify(_ context.Context, n core.LimitNotification) {
	c.alerts = append(c.alerts, n)
}

func spend(t *testing.T, store *memory.Store, acc core.Account, cents int64) {
	t.Helper()
	_, err := store.CreateTransaction(context.Background(), core.Transaction{
		AccountID: acc.ID, OwnerID: acc.OwnerID,
		Amount: core.Money{Cents: cents}, Kind: core.Expense,
		CategoryID: store.CategoryIDByName("Food"), Title: "Groceries",
		OccurredOn: time.Now(),
	})
	require.NoError(t, err)
}

func TestEngineWarningThenExceeded(t *testing.T) {
	store, svc, acc := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, core.CategoryLimit{
		AccountID: acc.ID, Category: "Food",
		Limit: core.Money{Cents: 50000}, AlertPercentage: 80,
	})
	require.NoError(t, err)

	sink := &captureNotifier{}
	engine := NewEngine(svc, DefaultEngineConfig(), log.New(log.DefaultConfig()), sink)

	clock := time.Now()
	engine.SetClock(func() time.Time { return clock })

	spend(t, store, acc, 42000)
	engine.CheckNow(ctx)

	notifications := engine.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, core.StatusWarning, notifications[0].Status)
	assert.Contains(t, notifications[0].Message, "Food")
	assert.Contains(t, notifications[0].Message, "84.0%")
	require.Len(t, sink.alerts, 1)

	// Push past the limit; the dedup window must not swallow the
	// escalation once it elapses.
	clock = clock.Add(31 * time.Minute)
	spend(t, store, acc, 10000)
	engine.CheckNow(ctx)

	notifications = engine.Notifications()
	require.Len(t, notifications, 2)
	assert.Equal(t, core.StatusExceeded, notifications[0].Status)
	assert.Contains(t, notifications[0].Message, "20.00")
	assert.Contains(t, notifications[0].Message, "exceeded")
}

func TestEngineDedupWindow(t *testing.T) {
	store, svc, acc := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, core.CategoryLimit{
		AccountID: acc.ID, Category: "Food",
		Limit: core.Money{Cents: 50000}, AlertPercentage: 80,
	})
	require.NoError(t, err)

	engine := NewEngine(svc, DefaultEngineConfig(), log.New(log.DefaultConfig()))
	clock := time.Now()
	engine.SetClock(func() time.Time { return clock })

	spend(t, store, acc, 45000)
	engine.CheckNow(ctx)
	engine.CheckNow(ctx)
	assert.Len(t, engine.Notifications(), 1, "repeat within window suppressed")

	clock = clock.Add(29 * time.Minute)
	engine.CheckNow(ctx)
	assert.Len(t, engine.Notifications(), 1)

	clock = clock.Add(2 * time.Minute)
	engine.CheckNow(ctx)
	assert.Len(t, engine.Notifications(), 2, "re-alert after window")
}

func TestEngineRetention(t *testing.T) {
	store, svc, acc := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, core.CategoryLimit{
		AccountID: acc.ID, Category: "Food",
		Limit: core.Money{Cents: 1000}, AlertPercentage: 50,
	})
	require.NoError(t, err)

	cfg := DefaultEngineConfig()
	cfg.Retention = 3
	engine := NewEngine(svc, cfg, log.New(log.DefaultConfig()))
	clock := time.Now()
	engine.SetClock(func() time.Time { return clock })

	spend(t, store, acc, 2000)
	for i := 0; i < 5; i++ {
		engine.CheckNow(ctx)
		clock = clock.Add(31 * time.Minute)
	}

	notifications := engine.Notifications()
	assert.LessOrEqual(t, len(notifications), 3)
	for i := 1; i < len(notifications); i++ {
		assert.True(t, !notifications[i-1].Timestamp.Before(notifications[i].Timestamp), "newest first")
	}
}

func TestEngineSweepExpiry(t *testing.T) {
	store, svc, acc := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, core.CategoryLimit{
		AccountID: acc.ID, Category: "Food",
		Limit: core.Money{Cents: 50000}, AlertPercentage: 80,
	})
	require.NoError(t, err)

	engine := NewEngine(svc, DefaultEngineConfig(), log.New(log.DefaultConfig()))
	clock := time.Now()
	engine.SetClock(func() time.Time { return clock })

	spend(t, store, acc, 45000)
	engine.CheckNow(ctx)
	require.Len(t, engine.Notifications(), 1)

	clock = clock.Add(90 * time.Minute)
	engine.Sweep()
	assert.Len(t, engine.Notifications(), 1, "within expiry window")

	clock = clock.Add(31 * time.Minute)
	engine.Sweep()
	assert.Empty(t, engine.Notifications(), "expired after two hours")
}

func TestEngineDismissAndClear(t *testing.T) {
	store, svc, acc := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, core.CategoryLimit{
		AccountID: acc.ID, Category: "Food",
		Limit: core.Money{Cents: 50000}, AlertPercentage: 80,
	})
	require.NoError(t, err)

	engine := NewEngine(svc, DefaultEngineConfig(), log.New(log.DefaultConfig()))
	spend(t, store, acc, 45000)
	engine.CheckNow(ctx)

	notifications := engine.Notifications()
	require.Len(t, notifications, 1)

	assert.False(t, engine.Dismiss("missing"))
	assert.True(t, engine.Dismiss(notifications[0].ID))
	assert.Empty(t, engine.Notifications())

	engine.CheckNow(ctx)
	engine.ClearAll()
	assert.Empty(t, engine.Notifications())
}

func TestEngineStartStop(t *testing.T) {
	_, svc, _ := testService(t)
	cfg := DefaultEngineConfig()
	cfg.CheckInterval = 10 * time.Millisecond
	cfg.SweepInterval = 10 * time.Millisecond
	engine := NewEngine(svc, cfg, log.New(log.DefaultConfig()))

	ctx := context.Background()
	require.NoError(t, engine.Start(ctx))
	assert.Error(t, engine.Start(ctx), "double start refused")
	assert.True(t, engine.IsRunning())

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, engine.Stop(stopCtx))
	assert.False(t, engine.IsRunning())
	assert.NoError(t, engine.Stop(stopCtx), "stop is idempotent")
}

func TestEngineStopsWhenContextCancelled(t *testing.T) {
	_, svc, _ := testService(t)
	cfg := DefaultEngineConfig()
	cfg.CheckInterval = 10 * time.Millisecond
	engine := NewEngine(svc, cfg, log.New(log.DefaultConfig()))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, engine.Start(ctx))
	require.True(t, engine.IsRunning())

	cancel()
	require.Eventually(t, func() bool { return !engine.IsRunning() },
		time.Second, 10*time.Millisecond, "cancelled context must be visible as a stopped engine")
}

func TestEngineTickerRaisesNotifications(t *testing.T) {
	store, svc, acc := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, core.CategoryLimit{
		AccountID: acc.ID, Category: "Food",
		Limit: core.Money{Cents: 50000}, AlertPercentage: 80,
	})
	require.NoError(t, err)

	cfg := DefaultEngineConfig()
	cfg.CheckInterval = 10 * time.Millisecond
	engine := NewEngine(svc, cfg, log.New(log.DefaultConfig()))
	require.NoError(t, engine.Start(context.Background()))
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, engine.Stop(stopCtx))
	}()

	// The startup check sees no spending; only a later tick can raise.
	spend(t, store, acc, 45000)
	require.Eventually(t, func() bool { return len(engine.Notifications()) == 1 },
		time.Second, 10*time.Millisecond, "periodic check must pick up new spending")
}

func TestSweepPrunesDedupEntries(t *testing.T) {
	store, svc, acc := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, core.CategoryLimit{
		AccountID: acc.ID, Category: "Food",
		Limit: core.Money{Cents: 50000}, AlertPercentage: 80,
	})
	require.NoError(t, err)

	engine := NewEngine(svc, DefaultEngineConfig(), log.New(log.DefaultConfig()))
	clock := time.Now()
	engine.SetClock(func() time.Time { return clock })

	spend(t, store, acc, 45000)
	engine.CheckNow(ctx)
	require.Len(t, engine.Notifications(), 1)

	engine.mu.Lock()
	tracked := len(engine.lastAlert)
	engine.mu.Unlock()
	require.Equal(t, 1, tracked)

	clock = clock.Add(31 * time.Minute)
	engine.Sweep()

	engine.mu.Lock()
	tracked = len(engine.lastAlert)
	engine.mu.Unlock()
	assert.Zero(t, tracked, "entries past the dedup window are dropped")
}
