package eval

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/progress"
)

// randomPolicy draws uniformly from the children not yet completed. The draw
// is recorded as the in-progress element before it is returned, so a learner
// who abandons a walkable mid-attempt is shown the same walkable on return
// rather than a fresh draw. The in-progress element clears once it completes.
type randomPolicy struct{}

func (randomPolicy) Next(_ context.Context, ec *Context, in PolicyInput) (*courseware.WalkableRef, progress.Progress, error) {
	prior, err := randomPrior(in.Prior)
	if err != nil {
		return nil, nil, err
	}

	completedIDs := append([]uuid.UUID(nil), prior.CompletedWalkables...)
	inProgress := prior.InProgressElementID
	inProgressType := prior.InProgressElementType

	if inProgress.Valid {
		ref, ok := in.Pathway.Child(inProgress.UUID)
		if !ok {
			// The previously drawn walkable was removed from the pathway.
			// No fallback draw: this is a structural fault for the caller.
			return nil, nil, core.NewStructuralError(
				inProgress.UUID.String(), string(inProgressType),
				"in-progress walkable is no longer a child of the pathway")
		}
		if inProgress.UUID == in.Walkable.ElementID && in.Completion.IsCompleted() {
			completedIDs = markCompleted(completedIDs, inProgress.UUID)
			inProgress = uuid.NullUUID{}
			inProgressType = ""
		} else {
			// resume: same walkable again, no new draw
			updated := progress.Random{
				Common:                newPathwayCommon(ec, in.Pathway, randomCompletion(in.Pathway, completedIDs, in.Completion)),
				CompletedWalkables:    completedIDs,
				InProgressElementID:   inProgress,
				InProgressElementType: inProgressType,
			}
			return &ref, updated, nil
		}
	} else if in.Completion.IsCompleted() {
		if _, ok := in.Pathway.Child(in.Walkable.ElementID); ok {
			completedIDs = markCompleted(completedIDs, in.Walkable.ElementID)
		}
	}

	remaining := remainingChildren(in.Pathway, completedIDs)
	if len(remaining) == 0 {
		updated := progress.Random{
			Common:             newPathwayCommon(ec, in.Pathway, progress.NewCompletion(1, confidenceOf(in.Completion))),
			CompletedWalkables: completedIDs,
		}
		return nil, updated, nil
	}

	draw := remaining[ec.Rand.Intn(len(remaining))]
	updated := progress.Random{
		Common:                newPathwayCommon(ec, in.Pathway, randomCompletion(in.Pathway, completedIDs, in.Completion)),
		CompletedWalkables:    completedIDs,
		InProgressElementID:   uuid.NullUUID{UUID: draw.ElementID, Valid: true},
		InProgressElementType: draw.ElementType,
	}
	return &draw, updated, nil
}

func randomPrior(p progress.Progress) (progress.Random, error) {
	if p == nil {
		return progress.Random{}, nil
	}
	prior, ok := p.(progress.Random)
	if !ok {
		return progress.Random{}, errors.Errorf("prior progress is %s, want %s", p.Kind(), progress.KindRandom)
	}
	return prior, nil
}

func randomCompletion(pw courseware.Pathway, completed []uuid.UUID, latest progress.Completion) progress.Completion {
	total := len(pw.Children)
	if total == 0 {
		return progress.NewCompletion(0, 0)
	}
	value := float64(countCompleted(pw, completed)) / float64(total)
	return progress.NewCompletion(value, confidenceOf(latest))
}

func confidenceOf(c progress.Completion) float64 {
	if c.Confidence.Valid {
		return c.Confidence.Float64
	}
	return 0
}
