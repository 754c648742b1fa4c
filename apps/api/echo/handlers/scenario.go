package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/darasahq/darasa/apps/api/echo/helpers"
	"github.com/darasahq/darasa/core/courseware"
)

type scenarioApi struct {
	service  *courseware.Service
	validate *validator.Validate
}

func RegisterScenarioAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *courseware.Service, validate *validator.Validate) {
	api := scenarioApi{service: svc, validate: validate}

	// authoring is the teacher portal's job; learners never see these
	sg := g.Group("/scenarios", jwt, helpers.TeacherMiddleware())
	sg.POST("", api.scenarioCreate)
	sg.GET("", api.scenarioQuery)
	sg.PUT("/reorder", api.scenarioReorder)
	sg.GET("/:id", api.scenarioRetrieve)
	sg.PUT("/:id", api.scenarioUpdate)
	sg.DELETE("/:id", api.scenarioDestroy)
}

func (api *scenarioApi) scenarioCreate(ctx echo.Context) error {
	data := new(courseware.NewScenario)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	sc, err := api.service.CreateScenario(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sc)
}

func (api *scenarioApi) scenarioQuery(ctx echo.Context) error {
	parentID, err := uuid.Parse(ctx.QueryParam("parentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid parentId")
	}
	lifecycle := courseware.Lifecycle(ctx.QueryParam("lifecycle"))

	scenarios, err := api.service.QueryScenarios(ctx.Request().Context(), parentID, lifecycle)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, scenarios)
}

func (api *scenarioApi) scenarioRetrieve(ctx echo.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return helpers.ErrHTTPNotFound
	}
	sc, err := api.service.GetScenario(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sc)
}

func (api *scenarioApi) scenarioUpdate(ctx echo.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return helpers.ErrHTTPNotFound
	}
	data := new(courseware.UpdateScenario)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	sc, err := api.service.UpdateScenario(ctx.Request().Context(), id, *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sc)
}

func (api *scenarioApi) scenarioDestroy(ctx echo.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return helpers.ErrHTTPNotFound
	}
	if err := api.service.DeleteScenario(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type reorderRequest struct {
	ParentID    uuid.UUID            `json:"parentId" validate:"required"`
	Lifecycle   courseware.Lifecycle `json:"lifecycle" validate:"required,lifecycle"`
	ScenarioIDs []uuid.UUID          `json:"scenarioIds" validate:"required,min=1"`
}

func (api *scenarioApi) scenarioReorder(ctx echo.Context) error {
	data := new(reorderRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	if err := api.service.ReorderScenarios(ctx.Request().Context(), data.ParentID, data.Lifecycle, data.ScenarioIDs); err != nil {
		return err
	}
	scenarios, err := api.service.QueryScenarios(ctx.Request().Context(), data.ParentID, data.Lifecycle)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, scenarios)
}
