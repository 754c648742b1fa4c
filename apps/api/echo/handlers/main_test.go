package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/darasahq/darasa/apps/api/echo/helpers"
	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
)

func newTestValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	courseware.InitValidators(validate, translator)
	return validate
}

func newRequest(e *echo.Echo, method, path string, data ...[]byte) (echo.Context, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	return ctx, rec
}

func asLearner(ctx echo.Context, studentID uuid.UUID) {
	ctx.Set("claims", helpers.Claims{StudentID: studentID, IsStudent: true})
}

func asTeacher(ctx echo.Context) {
	ctx.Set("claims", helpers.Claims{IsTeacher: true})
}

func marshalJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshalJSON() failed: %v", err)
	}
	return data
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type nopFeedback struct{}

func (nopFeedback) EmitFeedback(context.Context, uuid.UUID, uuid.UUID, json.RawMessage) error {
	return nil
}

type nopPassback struct{}

func (nopPassback) PostScore(context.Context, uuid.UUID, uuid.UUID, courseware.ElementType, float64, courseware.MutationOperator) error {
	return nil
}
