package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/darasahq/darasa/apps/api/echo/helpers"
	"github.com/darasahq/darasa/core/eval"
)

type evaluationApi struct {
	service  *eval.Service
	validate *validator.Validate
}

func RegisterEvaluationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *eval.Service, validate *validator.Validate) {
	api := evaluationApi{service: svc, validate: validate}

	eg := g.Group("/evaluations", jwt)
	eg.POST("", api.evaluationCreate)
}

func (api *evaluationApi) evaluationCreate(ctx echo.Context) error {
	data := new(eval.Trigger)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	// learners always evaluate as themselves
	claims, err := helpers.GetContextClaims(ctx)
	if err != nil {
		return err
	}
	if !(claims.IsTeacher || claims.IsAdmin) {
		data.StudentID = claims.StudentID
	}

	if err := api.validate.Struct(data); err != nil {
		return err
	}

	result, err := api.service.Evaluate(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, result)
}
