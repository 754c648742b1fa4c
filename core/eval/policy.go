package eval

import (
	"context"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/progress"
)

// PolicyInput is one traversal step: the pathway structure for the current
// change, the prior pathway progress (nil on first evaluation), and the
// triggering child walkable with its freshly computed completion.
type PolicyInput struct {
	Pathway    courseware.Pathway
	Prior      progress.Progress
	Walkable   courseware.WalkableRef
	Completion progress.Completion
}

// Policy selects the next walkable of a pathway and recomputes the
// pathway's aggregate progress. Implementations construct a brand-new
// Progress record of their own variant; they never mutate the prior one.
type Policy interface {
	Next(ctx context.Context, ec *Context, in PolicyInput) (*courseware.WalkableRef, progress.Progress, error)
}

// PolicyRegistry maps a pathway kind to its traversal policy.
type PolicyRegistry map[courseware.PathwayKind]Policy

// NewPolicyRegistry builds the standard registry. defaultMastery is the
// fallback BKT mastery threshold for pathways authored without one.
func NewPolicyRegistry(defaultMastery float64, logger core.Logger) PolicyRegistry {
	return PolicyRegistry{
		courseware.PathwayLinear: linearPolicy{},
		courseware.PathwayFree:   freePolicy{},
		courseware.PathwayRandom: randomPolicy{},
		courseware.PathwayGraph:  graphPolicy{},
		courseware.PathwayBKT:    bktPolicy{defaultMastery: defaultMastery, logger: logger},
	}
}

// newPathwayCommon stamps the shared fields of a pathway progress record.
func newPathwayCommon(ec *Context, pw courseware.Pathway, completion progress.Completion) progress.Common {
	return progress.Common{
		ID:                    progress.NewID(),
		DeploymentID:          pw.DeploymentID,
		ChangeID:              pw.ChangeID,
		CoursewareElementID:   pw.ID,
		CoursewareElementType: courseware.ElementPathway,
		StudentID:             ec.StudentID,
		AttemptID:             ec.AttemptID,
		EvaluationID:          ec.ID,
		Completion:            completion,
	}
}

// markCompleted returns a copy of the completed set with id added once.
func markCompleted(completed []uuid.UUID, id uuid.UUID) []uuid.UUID {
	if progress.HasCompleted(completed, id) {
		return append([]uuid.UUID(nil), completed...)
	}
	next := make([]uuid.UUID, 0, len(completed)+1)
	next = append(next, completed...)
	return append(next, id)
}

// countCompleted counts the pathway's current children present in the
// completed set; stale ids from earlier changes do not count.
func countCompleted(pw courseware.Pathway, completed []uuid.UUID) int {
	var n int
	for _, child := range pw.Children {
		if progress.HasCompleted(completed, child.ElementID) {
			n++
		}
	}
	return n
}

// aggregateCompletion implements the LINEAR/FREE aggregation rule:
// value = completed children / total children; confidence = the minimum
// recorded child confidence (unseen children count as 0, so a single
// low-confidence child caps the whole pathway).
func aggregateCompletion(pw courseware.Pathway, cc progress.ChildCompletions, completed []uuid.UUID) progress.Completion {
	total := len(pw.Children)
	if total == 0 {
		return progress.NewCompletion(0, 0)
	}
	value := float64(countCompleted(pw, completed)) / float64(total)

	confidence := 1.0
	for _, child := range pw.Children {
		c, ok := cc.ChildConfidences[child.ElementID]
		if !ok {
			c = 0
		}
		if c < confidence {
			confidence = c
		}
	}
	return progress.NewCompletion(value, confidence)
}

// firstUnfinished returns the first child, in authored order, not yet in the
// completed set.
func firstUnfinished(pw courseware.Pathway, completed []uuid.UUID) *courseware.WalkableRef {
	for _, child := range pw.Children {
		if !progress.HasCompleted(completed, child.ElementID) {
			ref := child
			return &ref
		}
	}
	return nil
}

// remainingChildren lists children not yet completed, in authored order.
func remainingChildren(pw courseware.Pathway, completed []uuid.UUID) []courseware.WalkableRef {
	var out []courseware.WalkableRef
	for _, child := range pw.Children {
		if !progress.HasCompleted(completed, child.ElementID) {
			out = append(out, child)
		}
	}
	return out
}
