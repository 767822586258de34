package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/meeting-room-reservation/internal/handler"
	"github.com/iliyamo/meeting-room-reservation/internal/middleware"
	"github.com/iliyamo/meeting-room-reservation/internal/model"
)

// RegisterEmployee registers reservation endpoints for signed-in users.
// Admins pass the role check as well; ownership is enforced by the service.
func RegisterEmployee(e *echo.Echo, r *handler.ReservationHandler, rooms *handler.RoomHandler, jwtSecret string, l Limits) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleEmployee, model.RoleAdmin),
	)
	writes := use(l.Writes)

	g.POST("/reservations", r.Create, writes...)
	g.GET("/reservations/:id", r.Get)
	g.PATCH("/reservations/:id", r.Update, writes...)
	g.POST("/reservations/:id/cancel", r.Cancel, writes...)
	g.GET("/my-reservations", r.Mine)

	g.GET("/rooms/:id", rooms.Get)
	g.GET("/rooms/:id/availability", r.Availability)
}
