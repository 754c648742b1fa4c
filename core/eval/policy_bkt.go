package eval

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/progress"
)

// bktPolicy treats the children as a pool of walkables targeting one skill.
// Selection behaves like RANDOM (including the in-progress resume
// guarantee), but pathway completion is driven by mastery: the pathway is
// complete once pLn holds at or above the authored threshold for the
// configured number of consecutive responses, not once every child has
// been visited. The Bayesian update runs once per learner response,
// before the threshold check.
type bktPolicy struct {
	defaultMastery float64
	logger         core.Logger
}

func (pol bktPolicy) Next(_ context.Context, ec *Context, in PolicyInput) (*courseware.WalkableRef, progress.Progress, error) {
	prior, err := bktPrior(in.Prior)
	if err != nil {
		return nil, nil, err
	}

	cfg := courseware.BKTConfig{MasteryThreshold: pol.defaultMastery}
	if in.Pathway.BKT != nil {
		cfg = *in.Pathway.BKT
	}
	threshold := cfg.MasteryThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = pol.defaultMastery
	}

	pLnPrev := cfg.PL0
	if in.Prior != nil {
		pLnPrev = prior.PLn
	}
	res := UpdateBKT(cfg, pLnPrev, ec.Correct)
	if res.Clamped && pol.logger != nil {
		pol.logger.Warn(fmt.Sprintf(
			"clamped out-of-range BKT probabilities for pathway %s (student %s)",
			in.Pathway.ID, ec.StudentID))
	}

	window := cfg.MaintainFor
	if window < 1 {
		window = 1
	}
	streak := 0
	if res.PLn >= threshold {
		streak = prior.MasteryStreak + 1
	}
	mastered := streak >= window

	completedIDs := append([]uuid.UUID(nil), prior.CompletedWalkables...)
	inProgress := prior.InProgressElementID
	inProgressType := prior.InProgressElementType

	if inProgress.Valid {
		ref, ok := in.Pathway.Child(inProgress.UUID)
		if !ok {
			return nil, nil, core.NewStructuralError(
				inProgress.UUID.String(), string(inProgressType),
				"in-progress walkable is no longer a child of the pathway")
		}
		if inProgress.UUID == in.Walkable.ElementID && in.Completion.IsCompleted() {
			completedIDs = markCompleted(completedIDs, inProgress.UUID)
			inProgress = uuid.NullUUID{}
			inProgressType = ""
		} else if !mastered {
			// resume the abandoned walkable
			updated := bktProgress(ec, in.Pathway, res, streak, mastered, completedIDs, inProgress, inProgressType)
			return &ref, updated, nil
		}
	} else if in.Completion.IsCompleted() {
		if _, ok := in.Pathway.Child(in.Walkable.ElementID); ok {
			completedIDs = markCompleted(completedIDs, in.Walkable.ElementID)
		}
	}

	if mastered {
		// mastered: the pathway completes regardless of unvisited children
		updated := bktProgress(ec, in.Pathway, res, streak, true, completedIDs, uuid.NullUUID{}, "")
		return nil, updated, nil
	}

	remaining := remainingChildren(in.Pathway, completedIDs)
	if len(remaining) == 0 {
		// pool exhausted before mastery: recycle it so practice continues
		completedIDs = nil
		remaining = remainingChildren(in.Pathway, nil)
	}
	if len(remaining) == 0 {
		updated := bktProgress(ec, in.Pathway, res, streak, false, completedIDs, uuid.NullUUID{}, "")
		return nil, updated, nil
	}

	draw := remaining[ec.Rand.Intn(len(remaining))]
	updated := bktProgress(ec, in.Pathway, res, streak, false, completedIDs,
		uuid.NullUUID{UUID: draw.ElementID, Valid: true}, draw.ElementType)
	return &draw, updated, nil
}

func bktPrior(p progress.Progress) (progress.BKT, error) {
	if p == nil {
		return progress.BKT{}, nil
	}
	prior, ok := p.(progress.BKT)
	if !ok {
		return progress.BKT{}, errors.Errorf("prior progress is %s, want %s", p.Kind(), progress.KindBKT)
	}
	return prior, nil
}

// bktProgress builds the new BKT pathway record. Completion value is the
// mastery estimate, pinned to exactly 1.0 once the mastery criterion is
// met; confidence carries the model's predicted correctness.
func bktProgress(
	ec *Context,
	pw courseware.Pathway,
	res BKTResult,
	streak int,
	mastered bool,
	completed []uuid.UUID,
	inProgress uuid.NullUUID,
	inProgressType courseware.ElementType,
) progress.BKT {
	value := res.PLn
	if mastered {
		value = 1.0
	} else if value >= 1 {
		// an unmastered record must never read as complete, even when an
		// authored pT of 1 drives the estimate to exactly 1.0
		value = math.Nextafter(1, 0)
	}
	return progress.BKT{
		Common:                newPathwayCommon(ec, pw, progress.NewCompletion(value, res.PCorrect)),
		CompletedWalkables:    completed,
		InProgressElementID:   inProgress,
		InProgressElementType: inProgressType,
		PLn:                   res.PLn,
		PLnMinusGivenActual:   res.PLnGivenActual,
		PCorrect:              res.PCorrect,
		MasteryStreak:         streak,
	}
}
