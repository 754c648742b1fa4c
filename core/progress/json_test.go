package progress

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasahq/darasa/core/courseware"
)

func testCommon() Common {
	return Common{
		ID:                    NewID(),
		DeploymentID:          uuid.New(),
		ChangeID:              uuid.New(),
		CoursewareElementID:   uuid.New(),
		CoursewareElementType: courseware.ElementPathway,
		StudentID:             uuid.New(),
		AttemptID:             uuid.New(),
		EvaluationID:          uuid.New(),
		Completion:            NewCompletion(0.5, 0.8),
	}
}

func TestMarshal_roundTripsEveryVariant(t *testing.T) {
	childID := uuid.New()

	records := []Progress{
		General{Common: testCommon()},
		Walkable{Common: testCommon()},
		Activity{Common: testCommon()},
		Linear{
			Common: testCommon(),
			ChildCompletions: ChildCompletions{
				ChildValues:      map[uuid.UUID]float64{childID: 0.5},
				ChildConfidences: map[uuid.UUID]float64{childID: 0.9},
			},
			CompletedWalkables: []uuid.UUID{childID},
		},
		Free{Common: testCommon()},
		Random{
			Common:                testCommon(),
			InProgressElementID:   uuid.NullUUID{UUID: childID, Valid: true},
			InProgressElementType: courseware.ElementActivity,
		},
		Graph{
			Common:              testCommon(),
			CurrentWalkableID:   uuid.NullUUID{UUID: childID, Valid: true},
			CurrentWalkableType: courseware.ElementInteractive,
		},
		BKT{
			Common:              testCommon(),
			PLn:                 0.42,
			PLnMinusGivenActual: 0.37,
			PCorrect:            0.61,
		},
	}

	for _, original := range records {
		t.Run(string(original.Kind()), func(t *testing.T) {
			raw, err := Marshal(original)
			require.NoError(t, err)

			decoded, err := Unmarshal(raw)
			require.NoError(t, err)

			assert.Equal(t, original.Kind(), decoded.Kind())
			assert.Equal(t, original, decoded)
		})
	}
}

func TestUnmarshal_rejectsUnknownKind(t *testing.T) {
	_, err := Unmarshal([]byte(`{"kind":"TELEPATHY_PATHWAY","record":{}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown progress kind")
}

func TestUnmarshal_rejectsGarbage(t *testing.T) {
	_, err := Unmarshal([]byte(`not json`))
	require.Error(t, err)
}

func TestChildCompletions_recordDoesNotMutateTheReceiver(t *testing.T) {
	childA, childB := uuid.New(), uuid.New()
	first := ChildCompletions{}.Record(childA, NewCompletion(0.5, 0.6))

	second := first.Record(childB, NewCompletion(1, 0.9))

	assert.Len(t, first.ChildValues, 1)
	assert.Len(t, second.ChildValues, 2)
	assert.Equal(t, 0.5, second.ChildValues[childA])
	assert.Equal(t, 0.9, second.ChildConfidences[childB])
}

func TestHasCompleted(t *testing.T) {
	id := uuid.New()
	assert.True(t, HasCompleted([]uuid.UUID{uuid.New(), id}, id))
	assert.False(t, HasCompleted([]uuid.UUID{uuid.New()}, id))
	assert.False(t, HasCompleted(nil, id))
}
