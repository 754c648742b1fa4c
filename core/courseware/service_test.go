package courseware_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	inmemdb "github.com/darasahq/darasa/storage/database/inmem"
)

func newTestService() (*courseware.Service, *inmemdb.DB) {
	db := inmemdb.NewDB()
	return courseware.NewService(inmemdb.NewCoursewareRepository(db)), db
}

func feedbackAction() courseware.Action {
	return courseware.Action{
		Type:     courseware.ActionSendFeedback,
		Resolver: courseware.Resolver{Type: courseware.ResolverLiteral, Value: json.RawMessage(`"ok"`)},
	}
}

func createScenario(t *testing.T, svc *courseware.Service, parentID uuid.UUID, name string) courseware.Scenario {
	t.Helper()
	sc, err := svc.CreateScenario(context.Background(), courseware.NewScenario{
		ParentID:   parentID,
		ParentType: courseware.ElementInteractive,
		Lifecycle:  courseware.LifecycleOnEvaluate,
		Name:       name,
		Actions:    []courseware.Action{feedbackAction()},
	})
	require.NoError(t, err)
	return sc
}

func TestService_CreateScenario(t *testing.T) {
	svc, _ := newTestService()
	parentID := uuid.New()

	sc := createScenario(t, svc, parentID, "on correct")

	assert.NotEqual(t, uuid.Nil, sc.ID)
	assert.Equal(t, parentID, sc.ParentID)
	// authored without a condition: the scenario always fires
	assert.Equal(t, courseware.AlwaysTrue(), sc.Condition)
	assert.False(t, sc.CreatedAt.IsZero())

	got, err := svc.GetScenario(context.Background(), sc.ID)
	require.NoError(t, err)
	assert.Equal(t, sc.ID, got.ID)
	assert.Len(t, got.Actions, 1)
}

func TestService_GetScenarioNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetScenario(context.Background(), uuid.New())
	assert.ErrorIs(t, err, courseware.ErrScenarioNotFound)
}

func TestService_UpdateScenarioIsPartial(t *testing.T) {
	svc, _ := newTestService()
	sc := createScenario(t, svc, uuid.New(), "original name")
	cond := courseware.Condition{
		Type:        courseware.ConditionEvaluator,
		Comparator:  courseware.ComparatorEquals,
		OperandType: courseware.DataTypeNumber,
		LHS:         &courseware.Resolver{Type: courseware.ResolverLiteral, Value: json.RawMessage("1")},
		RHS:         json.RawMessage("1"),
	}

	updated, err := svc.UpdateScenario(context.Background(), sc.ID, courseware.UpdateScenario{
		Condition:   &cond,
		Correctness: courseware.CorrectnessCorrect,
	})
	require.NoError(t, err)

	// untouched fields survive the partial update
	assert.Equal(t, "original name", updated.Name)
	assert.Equal(t, sc.Actions, updated.Actions)
	assert.Equal(t, cond, updated.Condition)
	assert.Equal(t, courseware.CorrectnessCorrect, updated.Correctness)
}

func TestService_DeleteScenario(t *testing.T) {
	svc, _ := newTestService()
	sc := createScenario(t, svc, uuid.New(), "doomed")

	require.NoError(t, svc.DeleteScenario(context.Background(), sc.ID))

	_, err := svc.GetScenario(context.Background(), sc.ID)
	assert.ErrorIs(t, err, courseware.ErrScenarioNotFound)

	scenarios, err := svc.QueryScenarios(context.Background(), sc.ParentID, sc.Lifecycle)
	require.NoError(t, err)
	assert.Empty(t, scenarios)
}

func TestService_QueryScenariosKeepsAuthoringOrder(t *testing.T) {
	svc, _ := newTestService()
	parentID := uuid.New()

	a := createScenario(t, svc, parentID, "first")
	b := createScenario(t, svc, parentID, "second")
	c := createScenario(t, svc, parentID, "third")

	scenarios, err := svc.QueryScenarios(context.Background(), parentID, courseware.LifecycleOnEvaluate)
	require.NoError(t, err)
	require.Len(t, scenarios, 3)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, scenarioIDs(scenarios))
}

func TestService_ReorderScenarios(t *testing.T) {
	svc, _ := newTestService()
	parentID := uuid.New()

	a := createScenario(t, svc, parentID, "first")
	b := createScenario(t, svc, parentID, "second")
	c := createScenario(t, svc, parentID, "third")

	err := svc.ReorderScenarios(context.Background(), parentID, courseware.LifecycleOnEvaluate,
		[]uuid.UUID{c.ID, a.ID, b.ID})
	require.NoError(t, err)

	scenarios, err := svc.QueryScenarios(context.Background(), parentID, courseware.LifecycleOnEvaluate)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c.ID, a.ID, b.ID}, scenarioIDs(scenarios))
}

func TestService_ReorderScenariosRejectsBadPermutations(t *testing.T) {
	svc, _ := newTestService()
	parentID := uuid.New()

	a := createScenario(t, svc, parentID, "first")
	b := createScenario(t, svc, parentID, "second")

	tests := []struct {
		name string
		ids  []uuid.UUID
	}{
		{name: "missing scenario", ids: []uuid.UUID{a.ID}},
		{name: "duplicate id", ids: []uuid.UUID{a.ID, a.ID}},
		{name: "foreign id", ids: []uuid.UUID{a.ID, uuid.New()}},
		{name: "extra id", ids: []uuid.UUID{a.ID, b.ID, uuid.New()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ReorderScenarios(context.Background(), parentID, courseware.LifecycleOnEvaluate, tt.ids)
			require.Error(t, err)
			vErr, ok := errors.Cause(err).(*core.ValidationError)
			require.True(t, ok)
			assert.ErrorIs(t, vErr.Err, courseware.ErrBadReorder)
		})
	}
}

func TestService_GetPathway(t *testing.T) {
	svc, db := newTestService()
	pw := courseware.Pathway{
		ID:           uuid.New(),
		DeploymentID: uuid.New(),
		ChangeID:     uuid.New(),
		Kind:         courseware.PathwayLinear,
		Children: []courseware.WalkableRef{
			{ElementID: uuid.New(), ElementType: courseware.ElementActivity},
		},
	}
	db.SeedPathway(pw)

	got, err := svc.GetPathway(context.Background(), pw.ID, pw.ChangeID)
	require.NoError(t, err)
	assert.Equal(t, pw.Kind, got.Kind)
	assert.Len(t, got.Children, 1)

	_, err = svc.GetPathway(context.Background(), pw.ID, uuid.New())
	assert.ErrorIs(t, err, courseware.ErrNotFound)
}

func scenarioIDs(scenarios []courseware.Scenario) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(scenarios))
	for _, sc := range scenarios {
		ids = append(ids, sc.ID)
	}
	return ids
}
