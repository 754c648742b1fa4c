package courseware

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
)

var (
	// errors
	ErrNotFound         = errors.New("courseware element not found")
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrBadReorder       = errors.New("reorder must list every scenario of the parent exactly once")
)

type (
	Repository interface {
		GetPathway(ctx context.Context, pathwayID, changeID uuid.UUID) (Pathway, error)
		GetWalkable(ctx context.Context, id uuid.UUID) (Walkable, error)

		CreateScenario(ctx context.Context, sc Scenario) (Scenario, error)
		GetScenario(ctx context.Context, id uuid.UUID) (Scenario, error)
		// QueryScenarios returns the parent's scenarios for a lifecycle in
		// their persisted authoring order.
		QueryScenarios(ctx context.Context, parentID uuid.UUID, lifecycle Lifecycle) ([]Scenario, error)
		UpdateScenario(ctx context.Context, sc Scenario) (Scenario, error)
		DeleteScenario(ctx context.Context, id uuid.UUID) error
		// ReorderScenarios persists ids as the new authoring order for the
		// parent+lifecycle. Order is first-class: a later Query returns ids
		// in exactly this order.
		ReorderScenarios(ctx context.Context, parentID uuid.UUID, lifecycle Lifecycle, ids []uuid.UUID) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetPathway(ctx context.Context, pathwayID, changeID uuid.UUID) (Pathway, error) {
	return svc.repo.GetPathway(ctx, pathwayID, changeID)
}

func (svc *Service) GetWalkable(ctx context.Context, id uuid.UUID) (Walkable, error) {
	return svc.repo.GetWalkable(ctx, id)
}

func (svc *Service) CreateScenario(ctx context.Context, ns NewScenario) (Scenario, error) {
	now := time.Now().UTC()
	cond := AlwaysTrue()
	if ns.Condition != nil {
		cond = *ns.Condition
	}
	sc := Scenario{
		ID:          uuid.New(),
		ParentID:    ns.ParentID,
		ParentType:  ns.ParentType,
		Lifecycle:   ns.Lifecycle,
		Name:        core.CleanString(ns.Name),
		Description: core.CleanString(ns.Description),
		Condition:   cond,
		Actions:     ns.Actions,
		Correctness: ns.Correctness,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateScenario(ctx, sc)
}

func (svc *Service) GetScenario(ctx context.Context, id uuid.UUID) (Scenario, error) {
	return svc.repo.GetScenario(ctx, id)
}

func (svc *Service) QueryScenarios(ctx context.Context, parentID uuid.UUID, lifecycle Lifecycle) ([]Scenario, error) {
	return svc.repo.QueryScenarios(ctx, parentID, lifecycle)
}

func (svc *Service) UpdateScenario(ctx context.Context, id uuid.UUID, us UpdateScenario) (Scenario, error) {
	sc, err := svc.repo.GetScenario(ctx, id)
	if err != nil {
		return Scenario{}, err
	}
	if us.Name != "" {
		sc.Name = core.CleanString(us.Name)
	}
	if us.Description != "" {
		sc.Description = core.CleanString(us.Description)
	}
	if us.Condition != nil {
		sc.Condition = *us.Condition
	}
	if us.Actions != nil {
		sc.Actions = us.Actions
	}
	if us.Correctness != "" {
		sc.Correctness = us.Correctness
	}
	sc.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateScenario(ctx, sc)
}

func (svc *Service) DeleteScenario(ctx context.Context, id uuid.UUID) error {
	return svc.repo.DeleteScenario(ctx, id)
}

// ReorderScenarios replaces the authoring order of the parent's scenarios.
// ids must be a permutation of the parent's current scenario ids.
func (svc *Service) ReorderScenarios(ctx context.Context, parentID uuid.UUID, lifecycle Lifecycle, ids []uuid.UUID) error {
	existing, err := svc.repo.QueryScenarios(ctx, parentID, lifecycle)
	if err != nil {
		return err
	}
	if len(existing) != len(ids) {
		return core.NewValidationError(ErrBadReorder, core.FieldError{Field: "scenarioIds", Error: ErrBadReorder.Error()})
	}
	known := make(map[uuid.UUID]bool, len(existing))
	for _, sc := range existing {
		known[sc.ID] = true
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !known[id] || seen[id] {
			return core.NewValidationError(ErrBadReorder, core.FieldError{Field: "scenarioIds", Error: ErrBadReorder.Error()})
		}
		seen[id] = true
	}
	return svc.repo.ReorderScenarios(ctx, parentID, lifecycle, ids)
}
