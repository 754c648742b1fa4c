package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/darasahq/darasa/apps/api/echo/helpers"
	"github.com/darasahq/darasa/core/courseware"
)

type pathwayApi struct {
	service *courseware.Service
}

func RegisterPathwayAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *courseware.Service) {
	api := pathwayApi{service: svc}

	pg := g.Group("/pathways", jwt)
	pg.GET("/:id", api.pathwayRetrieve)
}

func (api *pathwayApi) pathwayRetrieve(ctx echo.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return helpers.ErrHTTPNotFound
	}
	changeID, err := uuid.Parse(ctx.QueryParam("changeId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid changeId")
	}
	pw, err := api.service.GetPathway(ctx.Request().Context(), id, changeID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pw)
}
