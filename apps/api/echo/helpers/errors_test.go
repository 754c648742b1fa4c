package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labstack/echo/v4"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/eval"
	"github.com/darasahq/darasa/core/progress"
	"github.com/darasahq/darasa/core/scope"
)

func TestAppHTTPErrorHandler(t *testing.T) {
	handler := AppHTTPErrorHandler(core.NewTranslator())
	e := echo.New()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "echo http error",
			err:      echo.NewHTTPError(http.StatusTeapot, "short and stout"),
			wantCode: http.StatusTeapot,
			wantBody: `{"error":"short and stout"}`,
		},
		{
			name:     "validation error",
			err:      core.NewValidationError(nil, core.FieldError{Field: "name", Error: "required"}),
			wantCode: http.StatusBadRequest,
			wantBody: `{"name":"required"}`,
		},
		{
			name:     "structural fault",
			err:      core.NewStructuralError("ddfcf1a8-0000-0000-0000-000000000000", "ACTIVITY", "walkable removed"),
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "unsupported action",
			err:      &eval.UnsupportedActionError{Type: "TELEPORT"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "scenario not found",
			err:      courseware.ErrScenarioNotFound,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "wrapped progress not found",
			err:      errors.Wrap(progress.ErrNotFound, "loading prior state"),
			wantCode: http.StatusNotFound,
		},
		{
			name:     "scope entry not found",
			err:      scope.ErrNotFound,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "plain error is a server error",
			err:      errors.New("pq: connection refused"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"Internal Server Error"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			ctx := e.NewContext(req, rec)

			handler(tt.err, ctx)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestAppHTTPErrorHandler_headRequestsGetNoBody(t *testing.T) {
	handler := AppHTTPErrorHandler(core.NewTranslator())
	e := echo.New()

	req := httptest.NewRequest(http.MethodHead, "/", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	handler(courseware.ErrNotFound, ctx)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}
