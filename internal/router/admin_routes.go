package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/meeting-room-reservation/internal/handler"
	"github.com/iliyamo/meeting-room-reservation/internal/middleware"
	"github.com/iliyamo/meeting-room-reservation/internal/model"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, rooms *handler.RoomHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Reservations ----
	g.GET("/reservations", a.ListReservations)
	g.DELETE("/reservations/:id", a.DeleteReservation)

	// ---- Rooms ----
	g.GET("/rooms", rooms.ListAll)
	g.POST("/rooms", rooms.Create)
	g.PATCH("/rooms/:id", rooms.Update)
	g.DELETE("/rooms/:id", rooms.Deactivate) // deactivates; history stays readable

	// ---- Users ----
	g.GET("/users", a.ListUsers)
	g.DELETE("/users/:id", a.DeleteUser) // deletes the user's reservations too

	// ---- Statistics ----
	g.GET("/statistics", a.Statistics)
}
