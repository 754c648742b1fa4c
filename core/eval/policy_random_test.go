package eval

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/progress"
)

func TestRandomPolicy_drawIsRecordedAsInProgress(t *testing.T) {
	a, b, c := activityRef(), activityRef(), activityRef()
	pw := testPathway(courseware.PathwayRandom, a, b, c)
	ec := policyContext(1)

	next, updated, err := randomPolicy{}.Next(context.Background(), ec, PolicyInput{
		Pathway:    pw,
		Walkable:   a,
		Completion: progress.NewCompletion(0.2, 0.5),
	})
	require.NoError(t, err)
	require.NotNil(t, next)

	_, isChild := pw.Child(next.ElementID)
	assert.True(t, isChild)

	rnd, ok := updated.(progress.Random)
	require.True(t, ok)
	require.True(t, rnd.InProgressElementID.Valid)
	assert.Equal(t, next.ElementID, rnd.InProgressElementID.UUID)
	assert.Equal(t, next.ElementType, rnd.InProgressElementType)
}

func TestRandomPolicy_resumesAbandonedWalkableWithoutRedraw(t *testing.T) {
	a, b, c := activityRef(), activityRef(), activityRef()
	pw := testPathway(courseware.PathwayRandom, a, b, c)

	_, updated, err := randomPolicy{}.Next(context.Background(), policyContext(1), PolicyInput{
		Pathway:    pw,
		Walkable:   a,
		Completion: progress.NewCompletion(0.3, 0.5),
	})
	require.NoError(t, err)
	drawn := updated.(progress.Random).InProgressElementID.UUID

	// a differently seeded source would produce a different draw; the
	// recorded in-progress walkable must win regardless
	for seed := int64(2); seed < 6; seed++ {
		next, again, err := randomPolicy{}.Next(context.Background(), policyContext(seed), PolicyInput{
			Pathway:    pw,
			Prior:      updated,
			Walkable:   courseware.WalkableRef{ElementID: drawn, ElementType: courseware.ElementActivity},
			Completion: progress.NewCompletion(0.6, 0.5),
		})
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, drawn, next.ElementID, "seed %d", seed)
		assert.Equal(t, drawn, again.(progress.Random).InProgressElementID.UUID)
	}
}

func TestRandomPolicy_completedDrawLeavesThePool(t *testing.T) {
	a, b := activityRef(), activityRef()
	pw := testPathway(courseware.PathwayRandom, a, b)
	ec := policyContext(1)

	prior := progress.Random{
		InProgressElementID:   uuid.NullUUID{UUID: a.ElementID, Valid: true},
		InProgressElementType: a.ElementType,
	}
	next, updated, err := randomPolicy{}.Next(context.Background(), ec, PolicyInput{
		Pathway:    pw,
		Prior:      prior,
		Walkable:   a,
		Completion: progress.NewCompletion(1, 0.9),
	})
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, b.ElementID, next.ElementID)

	rnd := updated.(progress.Random)
	assert.Equal(t, []uuid.UUID{a.ElementID}, rnd.CompletedWalkables)
	assert.InDelta(t, 0.5, rnd.Base().Completion.Value.Float64, 1e-9)
}

func TestRandomPolicy_exhaustedPoolIsTerminal(t *testing.T) {
	a := activityRef()
	pw := testPathway(courseware.PathwayRandom, a)
	ec := policyContext(1)

	prior := progress.Random{
		InProgressElementID:   uuid.NullUUID{UUID: a.ElementID, Valid: true},
		InProgressElementType: a.ElementType,
	}
	next, updated, err := randomPolicy{}.Next(context.Background(), ec, PolicyInput{
		Pathway:    pw,
		Prior:      prior,
		Walkable:   a,
		Completion: progress.NewCompletion(1, 0.8),
	})
	require.NoError(t, err)
	assert.Nil(t, next)

	rnd := updated.(progress.Random)
	assert.Equal(t, 1.0, rnd.Base().Completion.Value.Float64)
	assert.InDelta(t, 0.8, rnd.Base().Completion.Confidence.Float64, 1e-9)
	assert.False(t, rnd.InProgressElementID.Valid)
}

func TestRandomPolicy_removedInProgressWalkableIsStructural(t *testing.T) {
	pw := testPathway(courseware.PathwayRandom, activityRef())
	ec := policyContext(1)

	prior := progress.Random{
		InProgressElementID:   uuid.NullUUID{UUID: uuid.New(), Valid: true},
		InProgressElementType: courseware.ElementActivity,
	}
	_, _, err := randomPolicy{}.Next(context.Background(), ec, PolicyInput{
		Pathway:    pw,
		Prior:      prior,
		Walkable:   pw.Children[0],
		Completion: progress.NewCompletion(1, 1),
	})
	require.Error(t, err)
	assert.True(t, core.IsStructural(err))
}
