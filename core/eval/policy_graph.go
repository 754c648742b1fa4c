package eval

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/progress"
)

// graphPolicy walks a directed graph of children. The active node persists
// in progress as the current walkable (same resume guarantee as RANDOM).
// When the current node completes, its outgoing edges are evaluated in
// authored order and the first edge whose predicate holds is followed; a
// completed node with no satisfied edge is terminal for the traversal.
type graphPolicy struct{}

func (graphPolicy) Next(ctx context.Context, ec *Context, in PolicyInput) (*courseware.WalkableRef, progress.Progress, error) {
	prior, err := graphPrior(in.Prior)
	if err != nil {
		return nil, nil, err
	}
	if len(in.Pathway.Children) == 0 {
		updated := progress.Graph{
			Common: newPathwayCommon(ec, in.Pathway, progress.NewCompletion(0, 0)),
		}
		return nil, updated, nil
	}

	// the entry node is the first authored child
	currentID := in.Pathway.Children[0].ElementID
	if prior.CurrentWalkableID.Valid {
		currentID = prior.CurrentWalkableID.UUID
	}
	current, ok := in.Pathway.Child(currentID)
	if !ok {
		// the active node was removed from the pathway: structural fault,
		// no fallback node is guessed
		return nil, nil, core.NewStructuralError(
			currentID.String(), string(prior.CurrentWalkableType),
			"current walkable is no longer a child of the pathway")
	}

	completedIDs := append([]uuid.UUID(nil), prior.CompletedWalkables...)

	if !(in.Walkable.ElementID == currentID && in.Completion.IsCompleted()) {
		// resume the active node
		updated := progress.Graph{
			Common:              newPathwayCommon(ec, in.Pathway, graphCompletion(in.Pathway, completedIDs, in.Completion, false)),
			CompletedWalkables:  completedIDs,
			CurrentWalkableID:   uuid.NullUUID{UUID: current.ElementID, Valid: true},
			CurrentWalkableType: current.ElementType,
		}
		return &current, updated, nil
	}

	completedIDs = markCompleted(completedIDs, currentID)

	for _, edge := range in.Pathway.OutgoingEdges(currentID) {
		satisfied := true
		if edge.Condition != nil {
			satisfied, err = EvaluateCondition(ctx, ec, *edge.Condition)
			if err != nil {
				return nil, nil, errors.Wrap(err, "evaluating edge predicate")
			}
		}
		if !satisfied {
			continue
		}
		next, ok := in.Pathway.Child(edge.To)
		if !ok {
			return nil, nil, core.NewStructuralError(
				edge.To.String(), string(courseware.ElementInteractive),
				"edge target is not a child of the pathway")
		}
		updated := progress.Graph{
			Common:              newPathwayCommon(ec, in.Pathway, graphCompletion(in.Pathway, completedIDs, in.Completion, false)),
			CompletedWalkables:  completedIDs,
			CurrentWalkableID:   uuid.NullUUID{UUID: next.ElementID, Valid: true},
			CurrentWalkableType: next.ElementType,
		}
		return &next, updated, nil
	}

	// completed node, no satisfied outgoing edge: terminal
	updated := progress.Graph{
		Common:             newPathwayCommon(ec, in.Pathway, graphCompletion(in.Pathway, completedIDs, in.Completion, true)),
		CompletedWalkables: completedIDs,
	}
	return nil, updated, nil
}

func graphPrior(p progress.Progress) (progress.Graph, error) {
	if p == nil {
		return progress.Graph{}, nil
	}
	prior, ok := p.(progress.Graph)
	if !ok {
		return progress.Graph{}, errors.Errorf("prior progress is %s, want %s", p.Kind(), progress.KindGraph)
	}
	return prior, nil
}

// graphCompletion aggregates visited/total; a terminal traversal pins the
// value to 1.0 regardless of how many nodes the chosen path visited.
func graphCompletion(pw courseware.Pathway, completed []uuid.UUID, latest progress.Completion, terminal bool) progress.Completion {
	if terminal {
		return progress.NewCompletion(1, confidenceOf(latest))
	}
	total := len(pw.Children)
	if total == 0 {
		return progress.NewCompletion(0, 0)
	}
	value := float64(countCompleted(pw, completed)) / float64(total)
	if value == 1.0 && !terminal {
		// every node visited but traversal not terminal: hold just below
		// completion until the walk actually ends
		value = float64(total-1) / float64(total)
	}
	return progress.NewCompletion(value, confidenceOf(latest))
}
