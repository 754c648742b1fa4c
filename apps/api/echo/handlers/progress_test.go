package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/progress"
	inmemdb "github.com/darasahq/darasa/storage/database/inmem"
)

func seedProgress(t *testing.T, repo progress.Repository, studentID, elementID, attemptID uuid.UUID, value float64) progress.Progress {
	t.Helper()
	p := progress.Walkable{Common: progress.Common{
		ID:                    progress.NewID(),
		DeploymentID:          uuid.New(),
		ChangeID:              uuid.New(),
		CoursewareElementID:   elementID,
		CoursewareElementType: courseware.ElementInteractive,
		StudentID:             studentID,
		AttemptID:             attemptID,
		EvaluationID:          uuid.New(),
		Completion:            progress.NewCompletion(value, value),
	}}
	require.NoError(t, repo.CreateProgress(context.Background(), p))
	return p
}

func Test_progressApi_progressRetrieve(t *testing.T) {
	repo := inmemdb.NewProgressRepository(inmemdb.NewDB())
	api := &progressApi{repo: repo}
	e := echo.New()

	studentID, elementID, attemptID := uuid.New(), uuid.New(), uuid.New()
	seedProgress(t, repo, studentID, elementID, attemptID, 0.5)
	latest := seedProgress(t, repo, studentID, elementID, attemptID, 1)

	ctx, rec := newRequest(e, http.MethodGet, "/v1/progress/"+elementID.String()+"?attemptId="+attemptID.String())
	ctx.SetParamNames("elementId")
	ctx.SetParamValues(elementID.String())
	asLearner(ctx, studentID)

	require.NoError(t, api.progressRetrieve(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)

	// the response is the tagged envelope, newest record only
	var env struct {
		Kind   progress.Kind   `json:"kind"`
		Record json.RawMessage `json:"record"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, progress.KindWalkable, env.Kind)

	var record progress.Walkable
	require.NoError(t, json.Unmarshal(env.Record, &record))
	assert.Equal(t, latest.Base().ID, record.ID)
	assert.True(t, record.Completion.IsCompleted())
}

func Test_progressApi_progressRetrieveNotFound(t *testing.T) {
	api := &progressApi{repo: inmemdb.NewProgressRepository(inmemdb.NewDB())}
	e := echo.New()
	elementID := uuid.New()

	ctx, _ := newRequest(e, http.MethodGet, "/v1/progress/"+elementID.String()+"?attemptId="+uuid.New().String())
	ctx.SetParamNames("elementId")
	ctx.SetParamValues(elementID.String())
	asLearner(ctx, uuid.New())

	assert.ErrorIs(t, api.progressRetrieve(ctx), progress.ErrNotFound)
}

func Test_progressApi_progressHistory(t *testing.T) {
	repo := inmemdb.NewProgressRepository(inmemdb.NewDB())
	api := &progressApi{repo: repo}
	e := echo.New()

	studentID, elementID, attemptID := uuid.New(), uuid.New(), uuid.New()
	first := seedProgress(t, repo, studentID, elementID, attemptID, 0.25)
	second := seedProgress(t, repo, studentID, elementID, attemptID, 1)

	ctx, rec := newRequest(e, http.MethodGet, "/v1/progress/"+elementID.String()+"/history?attemptId="+attemptID.String())
	ctx.SetParamNames("elementId")
	ctx.SetParamValues(elementID.String())
	asLearner(ctx, studentID)

	require.NoError(t, api.progressHistory(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelopes []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelopes))
	require.Len(t, envelopes, 2)

	// oldest first: the append-only trail in write order
	oldest, err := progress.Unmarshal(envelopes[0])
	require.NoError(t, err)
	newest, err := progress.Unmarshal(envelopes[1])
	require.NoError(t, err)
	assert.Equal(t, first.Base().ID, oldest.Base().ID)
	assert.Equal(t, second.Base().ID, newest.Base().ID)
}

func Test_progressApi_teacherActsOnBehalfOfStudent(t *testing.T) {
	repo := inmemdb.NewProgressRepository(inmemdb.NewDB())
	api := &progressApi{repo: repo}
	e := echo.New()

	studentID, elementID, attemptID := uuid.New(), uuid.New(), uuid.New()
	seedProgress(t, repo, studentID, elementID, attemptID, 1)

	ctx, rec := newRequest(e, http.MethodGet,
		"/v1/progress/"+elementID.String()+"?attemptId="+attemptID.String()+"&studentId="+studentID.String())
	ctx.SetParamNames("elementId")
	ctx.SetParamValues(elementID.String())
	asTeacher(ctx)

	require.NoError(t, api.progressRetrieve(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_progressApi_badKeyParams(t *testing.T) {
	api := &progressApi{repo: inmemdb.NewProgressRepository(inmemdb.NewDB())}
	e := echo.New()

	// bad element id
	ctx, _ := newRequest(e, http.MethodGet, "/v1/progress/nope?attemptId="+uuid.New().String())
	ctx.SetParamNames("elementId")
	ctx.SetParamValues("nope")
	asLearner(ctx, uuid.New())
	err := api.progressRetrieve(ctx)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)

	// missing attempt id
	elementID := uuid.New()
	ctx, _ = newRequest(e, http.MethodGet, "/v1/progress/"+elementID.String())
	ctx.SetParamNames("elementId")
	ctx.SetParamValues(elementID.String())
	asLearner(ctx, uuid.New())
	err = api.progressRetrieve(ctx)
	require.Error(t, err)
	httpErr, ok = err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}
