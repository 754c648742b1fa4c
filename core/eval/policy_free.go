package eval

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/progress"
)

// freePolicy imposes no ordering: the caller picks the walkable, the policy
// only keeps the completion books (same aggregation rule as LINEAR). Next
// never nominates a walkable.
type freePolicy struct{}

func (freePolicy) Next(_ context.Context, ec *Context, in PolicyInput) (*courseware.WalkableRef, progress.Progress, error) {
	prior, err := freePrior(in.Prior)
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

	updated := progress.Free{
		Common:             newPathwayCommon(ec, in.Pathway, aggregateCompletion(in.Pathway, cc, completedIDs)),
		ChildCompletions:   cc,
		CompletedWalkables: completedIDs,
	}
	return nil, updated, nil
}

func freePrior(p progress.Progress) (progress.Free, error) {
	if p == nil {
		return progress.Free{}, nil
	}
	prior, ok := p.(progress.Free)
	if !ok {
		return progress.Free{}, errors.Errorf("prior progress is %s, want %s", p.Kind(), progress.KindFree)
	}
	return prior, nil
}
