package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/darasahq/darasa/apps/api/echo/helpers"
	realtimesvc "github.com/darasahq/darasa/services/realtime"
)

type wsApi struct {
	hub *realtimesvc.Hub
}

func RegisterRealtimeAPI(g *echo.Group, jwt echo.MiddlewareFunc, hub *realtimesvc.Hub) {
	api := wsApi{hub: hub}

	g.GET("/ws", api.connect, jwt)
}

func (api *wsApi) connect(ctx echo.Context) error {
	studentID, err := helpers.ContextStudentID(ctx)
	if err != nil {
		return err
	}
	return api.hub.Serve(ctx.Response(), ctx.Request(), studentID)
}
