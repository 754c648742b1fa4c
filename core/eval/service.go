package eval

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/progress"
	"github.com/darasahq/darasa/core/scope"
)

type (
	// ScenarioReader loads the scenarios eligible for a lifecycle on a parent
	// element, in authored order.
	ScenarioReader interface {
		QueryScenarios(ctx context.Context, parentID uuid.UUID, lifecycle courseware.Lifecycle) ([]courseware.Scenario, error)
	}

	// FiredScenario identifies one scenario whose condition held.
	FiredScenario struct {
		ID          uuid.UUID              `json:"id"`
		Name        string                 `json:"name"`
		Correctness courseware.Correctness `json:"correctness,omitempty"`
	}

	// Result is the outcome of one evaluation, handed back to the transport
	// and persistence collaborators.
	Result struct {
		ID              uuid.UUID               `json:"id"`
		AttemptID       uuid.UUID               `json:"attemptId"`
		Fired           []FiredScenario         `json:"firedScenarios"`
		ProgressUpdates []progress.Progress     `json:"progressUpdates,omitempty"`
		NextWalkable    *courseware.WalkableRef `json:"nextWalkable,omitempty"`
		ScopeMutations  []scope.Entry           `json:"scopeMutations,omitempty"`
		SideEffects     []Mutation              `json:"sideEffects,omitempty"`
	}

	Service struct {
		scenarios  ScenarioReader
		scopes     ScopeReader
		dispatcher *Dispatcher
		locks      *keyLock
		logger     core.Logger
	}
)

func NewService(scenarios ScenarioReader, scopes ScopeReader, dispatcher *Dispatcher, logger core.Logger) *Service {
	return &Service{
		scenarios:  scenarios,
		scopes:     scopes,
		dispatcher: dispatcher,
		locks:      newKeyLock(),
		logger:     logger,
	}
}

// Evaluate runs one learner interaction through the engine: select the
// matching scenarios for the trigger's lifecycle, evaluate their conditions,
// and dispatch every fired scenario's actions in authored order. The whole
// run is serialized per trigger key; an evaluation either completes and
// persists its records or fails whole, so the caller can retry from scratch
// (recomputing from the same prior state yields the same result).
func (svc *Service) Evaluate(ctx context.Context, trigger Trigger) (Result, error) {
	key := trigger.Key()
	svc.locks.Lock(key)
	defer svc.locks.Unlock(key)

	ec := NewContext(trigger, svc.scopes)

	scenarios, err := svc.scenarios.QueryScenarios(ctx, trigger.ElementID, trigger.Lifecycle)
	if err != nil {
		return Result{}, errors.Wrap(err, "loading scenarios")
	}

	result := Result{ID: ec.ID, AttemptID: trigger.AttemptID, Fired: []FiredScenario{}}
	for _, sc := range scenarios {
		fired, cErr := EvaluateCondition(ctx, ec, sc.Condition)
		if cErr != nil {
			// malformed condition trees are an authoring defect; the scenario
			// is skipped, the rest of the evaluation continues best-effort
			svc.logger.Warn(fmt.Sprintf("skipping scenario %s: %v", sc.ID, cErr), cErr)
			continue
		}
		if !fired {
			continue
		}
		// all matching scenarios fire; there is no first-match-wins
		result.Fired = append(result.Fired, FiredScenario{ID: sc.ID, Name: sc.Name, Correctness: sc.Correctness})

		for _, action := range sc.Actions {
			mutation, aErr := svc.dispatcher.Apply(ctx, ec, action)
			if aErr != nil {
				// unsupported action types and structural faults must reach
				// the caller with the offending scenario identified
				return Result{}, errors.Wrapf(aErr, "scenario %s (%s)", sc.ID, sc.Name)
			}
			collect(&result, mutation)
		}
	}
	return result, nil
}

func collect(result *Result, m Mutation) {
	if m.NoOp {
		return
	}
	result.ProgressUpdates = append(result.ProgressUpdates, m.Progress...)
	if m.NextWalkable != nil {
		result.NextWalkable = m.NextWalkable
	}
	if m.Scope != nil {
		result.ScopeMutations = append(result.ScopeMutations, *m.Scope)
	}
	if m.Score != nil || m.Competency != nil || m.Feedback != nil || m.Passback != nil {
		result.SideEffects = append(result.SideEffects, m)
	}
}
