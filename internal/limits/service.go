// Package limits manages category spending limits and the background
// engine that raises alerts when spending approaches or passes them.
package limits

import (
	"context"
	"errors"
	"fmt"

	"carteira/internal/core"
	"carteira/internal/gateway"
	"carteira/internal/log"
)

var (
	ErrDuplicateLimit = errors.New("a limit already exists for this category on this account")
	ErrLimitNotFound  = errors.New("limit not found")
)

// Service wraps the gateway's limit store with owner scoping and the
// degraded-mode behavior: when the limit schema has not been provisioned
// yet, reads silently return nothing instead of failing.
type Service struct {
	store  gateway.LimitStore
	owner  core.Identity
	logger *log.Logger
}

func NewService(store gateway.LimitStore, owner core.Identity, logger *log.Logger) *Service {
	return &Service{
		store:  store,
		owner:  owner,
		logger: logger.WithComponent(log.ComponentLimits),
	}
}

// List returns the owner's limit definitions, optionally scoped to one
// account. A missing schema yields an empty list.
func (s *Service) List(ctx context.Context, accountID string) ([]core.CategoryLimit, error) {
	list, err := s.store.ListLimits(ctx, s.owner.ID, accountID)
	if err != nil {
		if gateway.IsSchemaMissing(err) {
			s.logger.DebugContext(ctx, "limit schema not provisioned, returning empty list")
			return nil, nil
		}
		return nil, fmt.Errorf("list limits: %w", err)
	}
	return list, nil
}

// Progress returns the derived spend-vs-limit rows. A missing schema
// yields an empty list.
func (s *Service) Progress(ctx context.Context, accountID string) ([]core.LimitProgress, error) {
	list, err := s.store.ListLimitProgress(ctx, s.owner.ID, accountID)
	if err != nil {
		if gateway.IsSchemaMissing(err) {
			s.logger.DebugContext(ctx, "limit schema not provisioned, returning empty progress")
			return nil, nil
		}
		return nil, fmt.Errorf("list limit progress: %w", err)
	}
	return list, nil
}

// Create stores a new limit definition. One limit per category per
// account; a duplicate maps to ErrDuplicateLimit.
func (s *Service) Create(ctx context.Context, l core.CategoryLimit) (core.CategoryLimit, error) {
	l.OwnerID = s.owner.ID
	if err := l.Validate(); err != nil {
		return core.CategoryLimit{}, err
	}

	created, err := s.store.CreateLimit(ctx, l)
	if err != nil {
		switch {
		case gateway.IsConflict(err):
			return core.CategoryLimit{}, ErrDuplicateLimit
		case gateway.IsSchemaMissing(err):
			return core.CategoryLimit{}, fmt.Errorf("limit feature not provisioned: %w", err)
		}
		return core.CategoryLimit{}, fmt.Errorf("create limit: %w", err)
	}

	s.logger.InfoContext(ctx, "limit created",
		log.FieldAccountID, created.AccountID,
		log.FieldCategory, created.Category,
		log.FieldLimitCents, created.Limit.Cents)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, upd gateway.LimitUpdate) error {
	if upd.Limit != nil && upd.Limit.Cents <= 0 {
		return core.ErrInvalidTarget
	}
	if upd.AlertPercentage != nil && (*upd.AlertPercentage < 1 || *upd.AlertPercentage > 100) {
		return core.ErrInvalidAlertPercent
	}
	if err := s.store.UpdateLimit(ctx, id, s.owner.ID, upd); err != nil {
		if gateway.IsNotFound(err) {
			return ErrLimitNotFound
		}
		return fmt.Errorf("update limit: %w", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteLimit(ctx, id, s.owner.ID); err != nil {
		if gateway.IsNotFound(err) {
			return ErrLimitNotFound
		}
		return fmt.Errorf("delete limit: %w", err)
	}
	return nil
}
