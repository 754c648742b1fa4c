package eval

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/progress"
)

func activityRef() courseware.WalkableRef {
	return courseware.WalkableRef{ElementID: uuid.New(), ElementType: courseware.ElementActivity}
}

func testPathway(kind courseware.PathwayKind, children ...courseware.WalkableRef) courseware.Pathway {
	return courseware.Pathway{
		ID:           uuid.New(),
		DeploymentID: uuid.New(),
		ChangeID:     uuid.New(),
		Kind:         kind,
		Children:     children,
	}
}

// policyContext builds an evaluation context with a deterministic random
// source so draw-based policies are reproducible.
func policyContext(seed int64) *Context {
	ec := newTestContext(fakeScopes{})
	ec.Rand = rand.New(rand.NewSource(seed))
	return ec
}

func TestLinearPolicy_walksChildrenInAuthoredOrder(t *testing.T) {
	a, b, c := activityRef(), activityRef(), activityRef()
	pw := testPathway(courseware.PathwayLinear, a, b, c)
	ec := policyContext(1)

	next, updated, err := linearPolicy{}.Next(context.Background(), ec, PolicyInput{
		Pathway:    pw,
		Walkable:   a,
		Completion: progress.NewCompletion(1, 0.9),
	})
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, b.ElementID, next.ElementID)

	lin, ok := updated.(progress.Linear)
	require.True(t, ok)
	assert.Equal(t, []uuid.UUID{a.ElementID}, lin.CompletedWalkables)
	assert.InDelta(t, 1.0/3.0, lin.Base().Completion.Value.Float64, 1e-9)
	assert.Equal(t, pw.ID, lin.Base().CoursewareElementID)
	assert.Equal(t, courseware.ElementPathway, lin.Base().CoursewareElementType)
}

func TestLinearPolicy_nextIsStableWithoutCompletionChange(t *testing.T) {
	a, b := activityRef(), activityRef()
	pw := testPathway(courseware.PathwayLinear, a, b)
	ec := policyContext(1)

	in := PolicyInput{Pathway: pw, Walkable: a, Completion: progress.NewCompletion(1, 0.8)}

	first, updated, err := linearPolicy{}.Next(context.Background(), ec, in)
	require.NoError(t, err)

	in.Prior = updated
	second, _, err := linearPolicy{}.Next(context.Background(), ec, in)
	require.NoError(t, err)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.ElementID, second.ElementID)
}

func TestLinearPolicy_confidenceIsMinimumAcrossChildren(t *testing.T) {
	a, b := activityRef(), activityRef()
	pw := testPathway(courseware.PathwayLinear, a, b)
	ec := policyContext(1)

	_, updated, err := linearPolicy{}.Next(context.Background(), ec, PolicyInput{
		Pathway:    pw,
		Walkable:   a,
		Completion: progress.NewCompletion(1, 0.9),
	})
	require.NoError(t, err)
	// b has never been evaluated, so it caps the pathway confidence at 0
	assert.Equal(t, 0.0, updated.Base().Completion.Confidence.Float64)

	_, updated, err = linearPolicy{}.Next(context.Background(), ec, PolicyInput{
		Pathway:    pw,
		Prior:      updated,
		Walkable:   b,
		Completion: progress.NewCompletion(1, 0.6),
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, updated.Base().Completion.Value.Float64)
	assert.InDelta(t, 0.6, updated.Base().Completion.Confidence.Float64, 1e-9)
}

func TestLinearPolicy_nearMissCompletionDoesNotAdvance(t *testing.T) {
	a, b := activityRef(), activityRef()
	pw := testPathway(courseware.PathwayLinear, a, b)
	ec := policyContext(1)

	next, updated, err := linearPolicy{}.Next(context.Background(), ec, PolicyInput{
		Pathway:    pw,
		Walkable:   a,
		Completion: progress.NewCompletion(0.999999, 1),
	})
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, a.ElementID, next.ElementID)
	assert.Empty(t, updated.(progress.Linear).CompletedWalkables)
}

func TestLinearPolicy_triggerOutsidePathwayIsStructural(t *testing.T) {
	pw := testPathway(courseware.PathwayLinear, activityRef())
	ec := policyContext(1)

	_, _, err := linearPolicy{}.Next(context.Background(), ec, PolicyInput{
		Pathway:    pw,
		Walkable:   activityRef(),
		Completion: progress.NewCompletion(1, 1),
	})
	require.Error(t, err)
	assert.True(t, core.IsStructural(err))
}

func TestLinearPolicy_rejectsForeignPriorVariant(t *testing.T) {
	a := activityRef()
	pw := testPathway(courseware.PathwayLinear, a)
	ec := policyContext(1)

	_, _, err := linearPolicy{}.Next(context.Background(), ec, PolicyInput{
		Pathway:    pw,
		Prior:      progress.Free{},
		Walkable:   a,
		Completion: progress.NewCompletion(1, 1),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(progress.KindFree))
}

func TestFreePolicy_neverNominatesAWalkable(t *testing.T) {
	a, b := activityRef(), activityRef()
	pw := testPathway(courseware.PathwayFree, a, b)
	ec := policyContext(1)

	next, updated, err := freePolicy{}.Next(context.Background(), ec, PolicyInput{
		Pathway:    pw,
		Walkable:   a,
		Completion: progress.NewCompletion(1, 0.7),
	})
	require.NoError(t, err)
	assert.Nil(t, next)

	free, ok := updated.(progress.Free)
	require.True(t, ok)
	assert.Equal(t, []uuid.UUID{a.ElementID}, free.CompletedWalkables)
	assert.InDelta(t, 0.5, free.Base().Completion.Value.Float64, 1e-9)

	next, updated, err = freePolicy{}.Next(context.Background(), ec, PolicyInput{
		Pathway:    pw,
		Prior:      updated,
		Walkable:   b,
		Completion: progress.NewCompletion(1, 0.8),
	})
	require.NoError(t, err)
	assert.Nil(t, next)
	assert.Equal(t, 1.0, updated.Base().Completion.Value.Float64)
	assert.InDelta(t, 0.7, updated.Base().Completion.Confidence.Float64, 1e-9)
}

func TestFreePolicy_triggerOutsidePathwayIsStructural(t *testing.T) {
	pw := testPathway(courseware.PathwayFree, activityRef())
	ec := policyContext(1)

	_, _, err := freePolicy{}.Next(context.Background(), ec, PolicyInput{
		Pathway:    pw,
		Walkable:   activityRef(),
		Completion: progress.NewCompletion(0.5, 0.5),
	})
	require.Error(t, err)
	assert.True(t, core.IsStructural(err))
}

func TestPolicyRegistry_coversEveryPathwayKind(t *testing.T) {
	reg := NewPolicyRegistry(0.95, nil)
	for _, kind := range courseware.AllPathwayKinds {
		assert.NotNil(t, reg[kind], "kind %s", kind)
	}
}
