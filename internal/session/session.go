// Package session keeps the per-login workspace: the authenticated
// identity, the account-scoped services built for it, and the running
// limit engine. Sessions are held in memory and expire on a TTL.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"carteira/internal/amqp"
	"carteira/internal/config"
	"carteira/internal/core"
	"carteira/internal/gateway"
	"carteira/internal/limits"
	"carteira/internal/log"
	"carteira/internal/services"
)

// Session is one login's workspace. Everything hanging off it is scoped
// to the identity and dies with the session.
type Session struct {
	Token    string
	Identity core.Identity

	Accounts *services.Registry
	Ledger   *services.Ledger
	Goals    *services.GoalLedger
	Limits   *limits.Service
	Engine   *limits.Engine

	CreatedAt time.Time
	ExpiresAt time.Time
}

// Close stops the session's background engine.
func (s *Session) Close(ctx context.Context) error {
	return s.Engine.Stop(ctx)
}

// Store issues, resolves and expires sessions.
type Store struct {
	gw     gateway.Gateway
	cfg    *config.Config
	logger *log.Logger
	broker *amqp.Client

	mu       sync.Mutex
	sessions map[string]*Session

	cleanupOnce sync.Once
	stopCleanup chan struct{}
}

func NewStore(gw gateway.Gateway, cfg *config.Config, logger *log.Logger, broker *amqp.Client) *Store {
	return &Store{
		gw:          gw,
		cfg:         cfg,
		logger:      logger.WithComponent(log.ComponentSession),
		broker:      broker,
		sessions:    make(map[string]*Session),
		stopCleanup: make(chan struct{}),
	}
}

// Create builds a workspace for the identity, loads its accounts and
// starts its limit engine.
func (st *Store) Create(ctx context.Context, identity core.Identity) (*Session, error) {
	registry := services.NewRegistry(st.gw, identity, st.logger)
	if err := registry.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	limitService := limits.NewService(st.gw, identity, st.logger)

	notifiers := []limits.Notifier{limits.NewLogNotifier(st.logger)}
	if st.broker != nil {
		notifiers = append(notifiers, amqp.NewAlertPublisher(st.broker, identity.ID))
	}

	engineCfg := limits.DefaultEngineConfig()
	if st.cfg.LimitCheckInterval > 0 {
		engineCfg.CheckInterval = st.cfg.LimitCheckInterval
	}
	if st.cfg.NotificationSweepInterval > 0 {
		engineCfg.SweepInterval = st.cfg.NotificationSweepInterval
	}
	engine := limits.NewEngine(limitService, engineCfg, st.logger, notifiers...)
	// The login request's context dies when the handler returns; the
	// engine's timers must outlive it and stop only on session teardown.
	if err := engine.Start(context.WithoutCancel(ctx)); err != nil {
		return nil, fmt.Errorf("start limit engine: %w", err)
	}

	now := time.Now()
	s := &Session{
		Token:     uuid.NewString(),
		Identity:  identity,
		Accounts:  registry,
		Ledger:    services.NewLedger(st.gw, registry, identity, st.logger),
		Goals:     services.NewGoalLedger(st.gw, registry, identity, st.logger),
		Limits:    limitService,
		Engine:    engine,
		CreatedAt: now,
		ExpiresAt: now.Add(st.cfg.SessionTTL),
	}

	st.mu.Lock()
	st.sessions[s.Token] = s
	st.mu.Unlock()

	st.startCleanup()

	st.logger.InfoContext(ctx, "session created",
		log.FieldUserID, identity.ID)
	return s, nil
}

// Get resolves a token. Expired sessions resolve to nothing and are
// torn down lazily.
func (st *Store) Get(token string) (*Session, bool) {
	st.mu.Lock()
	s, ok := st.sessions[token]
	if ok && time.Now().After(s.ExpiresAt) {
		delete(st.sessions, token)
		st.mu.Unlock()
		st.teardown(s)
		return nil, false
	}
	st.mu.Unlock()
	return s, ok
}

// Delete ends a session and stops its engine.
func (st *Store) Delete(ctx context.Context, token string) {
	st.mu.Lock()
	s, ok := st.sessions[token]
	delete(st.sessions, token)
	st.mu.Unlock()
	if !ok {
		return
	}
	st.teardown(s)
	st.logger.InfoContext(ctx, "session ended", log.FieldUserID, s.Identity.ID)
}

func (st *Store) teardown(s *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		st.logger.Warn("session engine stop failed", log.FieldError, err)
	}
}

// Count reports the live session count.
func (st *Store) Count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) startCleanup() {
	st.cleanupOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-st.stopCleanup:
					return
				case <-ticker.C:
					st.expireSessions()
				}
			}
		}()
	})
}

func (st *Store) expireSessions() {
	now := time.Now()
	var expired []*Session

	st.mu.Lock()
	for token, s := range st.sessions {
		if now.After(s.ExpiresAt) {
			delete(st.sessions, token)
			expired = append(expired, s)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		st.teardown(s)
	}
	if len(expired) > 0 {
		st.logger.Info("expired sessions cleaned up", "count", len(expired))
	}
}

// Close stops the cleanup loop and every live session.
func (st *Store) Close(ctx context.Context) {
	close(st.stopCleanup)

	st.mu.Lock()
	all := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		all = append(all, s)
	}
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, s := range all {
		if err := s.Close(ctx); err != nil {
			st.logger.Warn("session engine stop failed", log.FieldError, err)
		}
	}
}
