package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/meeting-room-reservation/internal/config"
	"github.com/iliyamo/meeting-room-reservation/internal/handler"
	"github.com/iliyamo/meeting-room-reservation/internal/middleware"
	"github.com/iliyamo/meeting-room-reservation/internal/model"
)

// Limits carries the middleware built from the rate limit and cache
// configuration.  A nil field means the concern is switched off.
type Limits struct {
	Auth   echo.MiddlewareFunc // token bucket in front of /v1/auth
	Writes echo.MiddlewareFunc // token bucket in front of reservation writes
	Cache  echo.MiddlewareFunc // response cache for public listings
}

func use(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterRoutes registers the liveness and readiness probes.
func RegisterRoutes(e *echo.Echo, ready echo.HandlerFunc) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", ready)
	}
}

// RegisterAuth registers sign-up, login and token endpoints under /v1/auth
// and the profile endpoint under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, l Limits) {
	g := e.Group("/v1/auth", use(l.Auth)...)
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout takes either a refresh token in the body or a bearer token, so
	// it stays outside the JWT group.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleEmployee, model.RoleAdmin))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated read endpoints.  Both are served
// through the response cache.
func RegisterPublic(e *echo.Echo, r *handler.ReservationHandler, rooms *handler.RoomHandler, l Limits) {
	mws := use(l.Cache)
	e.GET(config.RoomsRoute, rooms.ListActive, mws...)
	e.GET(config.CalendarRoute, r.Public, mws...)
}
