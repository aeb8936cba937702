package services

import (
	"context"
	"errors"
	"fmt"

	"carteira/internal/core"
	"carteira/internal/gateway"
	"carteira/internal/log"
)

var ErrGoalNotFound = errors.New("goal not found")

// GoalStats is the fold of an account's goals.
type GoalStats struct {
	Count     int
	Completed int
	Target    core.Money
	Saved     core.Money
}

// GoalLedger manages savings goals for the registry's selected account.
type GoalLedger struct {
	store    gateway.GoalStore
	registry *Registry
	owner    core.Identity
	logger   *log.Logger
}

func NewGoalLedger(store gateway.GoalStore, registry *Registry, owner core.Identity, logger *log.Logger) *GoalLedger {
	return &GoalLedger{
		store:    store,
		registry: registry,
		owner:    owner,
		logger:   logger.WithComponent(log.ComponentGoals),
	}
}

func (g *GoalLedger) List(ctx context.Context) ([]core.Goal, error) {
	accountID := g.registry.CurrentID()
	if accountID == "" {
		return nil, nil
	}
	goals, err := g.store.ListGoals(ctx, accountID, g.owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

func (g *GoalLedger) Create(ctx context.Context, goal core.Goal) (core.Goal, error) {
	accountID := g.registry.CurrentID()
	if accountID == "" {
		return core.Goal{}, ErrNoAccountSelected
	}
	goal.AccountID = accountID
	goal.OwnerID = g.owner.ID
	if err := goal.Validate(); err != nil {
		return core.Goal{}, err
	}

	created, err := g.store.CreateGoal(ctx, goal)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	g.logger.InfoContext(ctx, "goal created",
		log.FieldAccountID, accountID, log.FieldGoalID, created.ID)
	return created, nil
}

func (g *GoalLedger) Update(ctx context.Context, id string, upd gateway.GoalUpdate) error {
	if upd.Target != nil && upd.Target.Cents <= 0 {
		return core.ErrInvalidTarget
	}
	if err := g.store.UpdateGoal(ctx, id, g.owner.ID, upd); err != nil {
		if gateway.IsNotFound(err) {
			return ErrGoalNotFound
		}
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

func (g *GoalLedger) Delete(ctx context.Context, id string) error {
	if err := g.store.DeleteGoal(ctx, id, g.owner.ID); err != nil {
		if gateway.IsNotFound(err) {
			return ErrGoalNotFound
		}
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

// Contribute adds a positive amount to the goal's saved total. The
// increment and the history row are written atomically by the gateway.
func (g *GoalLedger) Contribute(ctx context.Context, goalID string, amount core.Money) (core.Goal, error) {
	if amount.Cents <= 0 {
		return core.Goal{}, core.ErrInvalidContribution
	}
	goal, err := g.store.AddContribution(ctx, goalID, g.owner.ID, amount)
	if err != nil {
		if gateway.IsNotFound(err) {
			return core.Goal{}, ErrGoalNotFound
		}
		return core.Goal{}, fmt.Errorf("add contribution: %w", err)
	}
	g.logger.InfoContext(ctx, "goal contribution recorded",
		log.FieldGoalID, goalID, log.FieldAmountCents, amount.Cents)
	return goal, nil
}

func (g *GoalLedger) Contributions(ctx context.Context, goalID string) ([]core.GoalContribution, error) {
	list, err := g.store.ListContributions(ctx, goalID, g.owner.ID)
	if err != nil {
		if gateway.IsNotFound(err) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	return list, nil
}

// Stats folds the selected account's goals.
func (g *GoalLedger) Stats(ctx context.Context) (GoalStats, error) {
	goals, err := g.List(ctx)
	if err != nil {
		return GoalStats{}, err
	}
	var s GoalStats
	for _, goal := range goals {
		s.Count++
		if goal.IsComplete() {
			s.Completed++
		}
		s.Target.Cents += goal.Target.Cents
		s.Saved.Cents += goal.Current.Cents
	}
	return s, nil
}
