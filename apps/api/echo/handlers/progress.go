package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/darasahq/darasa/apps/api/echo/helpers"
	"github.com/darasahq/darasa/core/progress"
)

type progressApi struct {
	repo progress.Repository
}

func RegisterProgressAPI(g *echo.Group, jwt echo.MiddlewareFunc, repo progress.Repository) {
	api := progressApi{repo: repo}

	pg := g.Group("/progress", jwt)
	pg.GET("/:elementId", api.progressRetrieve)
	pg.GET("/:elementId/history", api.progressHistory)
}

func (api *progressApi) key(ctx echo.Context) (studentID, elementID, attemptID uuid.UUID, err error) {
	studentID, err = helpers.ContextStudentID(ctx)
	if err != nil {
		return
	}
	elementID, err = uuid.Parse(ctx.Param("elementId"))
	if err != nil {
		err = echo.NewHTTPError(http.StatusBadRequest, "invalid elementId")
		return
	}
	attemptID, err = uuid.Parse(ctx.QueryParam("attemptId"))
	if err != nil {
		err = echo.NewHTTPError(http.StatusBadRequest, "invalid attemptId")
	}
	return
}

func (api *progressApi) progressRetrieve(ctx echo.Context) error {
	studentID, elementID, attemptID, err := api.key(ctx)
	if err != nil {
		return err
	}
	p, err := api.repo.GetLatestProgress(ctx.Request().Context(), studentID, elementID, attemptID)
	if err != nil {
		return err
	}
	return jsonProgress(ctx, http.StatusOK, p)
}

func (api *progressApi) progressHistory(ctx echo.Context) error {
	studentID, elementID, attemptID, err := api.key(ctx)
	if err != nil {
		return err
	}
	history, err := api.repo.QueryProgressHistory(ctx.Request().Context(), studentID, elementID, attemptID)
	if err != nil {
		return err
	}
	envelopes := make([]json.RawMessage, 0, len(history))
	for _, p := range history {
		data, err := progress.Marshal(p)
		if err != nil {
			return err
		}
		envelopes = append(envelopes, data)
	}
	return ctx.JSON(http.StatusOK, envelopes)
}

// jsonProgress writes a progress record in its tagged envelope form, so the
// client can tell the variants apart.
func jsonProgress(ctx echo.Context, code int, p progress.Progress) error {
	data, err := progress.Marshal(p)
	if err != nil {
		return err
	}
	return ctx.JSONBlob(code, data)
}
