package eval

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/progress"
)

// linearPolicy walks children in authored order. A child joins the completed
// set when its completion value reaches 1.0; the next walkable is the first
// child not yet completed. Calling Next twice with no intervening completion
// change returns the same walkable.
type linearPolicy struct{}

func (linearPolicy) Next(_ context.Context, ec *Context, in PolicyInput) (*courseware.WalkableRef, progress.Progress, error) {
	prior, err := linearPrior(in.Prior)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := in.Pathway.Child(in.Walkable.ElementID); !ok {
		return nil, nil, core.NewStructuralError(
			in.Walkable.ElementID.String(), string(in.Walkable.ElementType),
			"triggering walkable is not a child of the pathway in this change")
	}

	cc := prior.ChildCompletions.Record(in.Walkable.ElementID, in.Completion)
	completedIDs := append([]uuid.UUID(nil), prior.CompletedWalkables...)
	if in.Completion.IsCompleted() {
		completedIDs = markCompleted(completedIDs, in.Walkable.ElementID)
	}

	updated := progress.Linear{
		Common:             newPathwayCommon(ec, in.Pathway, aggregateCompletion(in.Pathway, cc, completedIDs)),
		ChildCompletions:   cc,
		CompletedWalkables: completedIDs,
	}
	return firstUnfinished(in.Pathway, completedIDs), updated, nil
}

func linearPrior(p progress.Progress) (progress.Linear, error) {
	if p == nil {
		return progress.Linear{}, nil
	}
	prior, ok := p.(progress.Linear)
	if !ok {
		return progress.Linear{}, errors.Errorf("prior progress is %s, want %s", p.Kind(), progress.KindLinear)
	}
	return prior, nil
}
