package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/meeting-room-reservation/internal/logger"
	"github.com/iliyamo/meeting-room-reservation/internal/model"
	"github.com/iliyamo/meeting-room-reservation/internal/service"
)

// Stats is implemented by *service.StatsService.
type Stats interface {
	Summary(ctx context.Context, from, to string) (*service.Summary, error)
}

// Users is implemented by *service.UserService.
type Users interface {
	List(ctx context.Context) ([]model.User, error)
	Delete(ctx context.Context, id uint64, actor service.Actor) error
}

// AdminHandler serves the administrator reservation and user endpoints.
type AdminHandler struct {
	Reservations Reservations
	Stats        Stats
	Users        Users
	Cache        Purger
	Log          *logger.Logger
}

func NewAdminHandler(r Reservations, s Stats, u Users, cache Purger, log *logger.Logger) *AdminHandler {
	return &AdminHandler{Reservations: r, Stats: s, Users: u, Cache: cache, Log: log}
}

// ListReservations handles GET /v1/admin/reservations.  Query parameters:
// room_id, user_id, department, status, start_date, end_date, utc (day
// boundaries in UTC instead of business time), page, page_size.
func (h *AdminHandler) ListReservations(c echo.Context) error {
	f := service.AdminFilter{
		RoomID:     c.QueryParam("room_id"),
		Department: c.QueryParam("department"),
		Status:     c.QueryParam("status"),
		StartDate:  c.QueryParam("start_date"),
		EndDate:    c.QueryParam("end_date"),
	}
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid user_id")
		}
		f.UserID = id
	}
	f.UTCDays, _ = strconv.ParseBool(c.QueryParam("utc"))
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if f.PageSize > 200 {
		f.PageSize = 200
	}

	list, total, err := h.Reservations.ListAll(c.Request().Context(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": presentViews(list), "total": total})
}

// DeleteReservation handles DELETE /v1/admin/reservations/:id.
func (h *AdminHandler) DeleteReservation(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	ctx := c.Request().Context()
	if err := h.Reservations.Delete(ctx, c.Param("id"), a); err != nil {
		return fail(c, err)
	}
	purgeCache(ctx, h.Cache, h.Log)
	return c.NoContent(http.StatusNoContent)
}

// Statistics handles GET /v1/admin/statistics?start_date&end_date.
func (h *AdminHandler) Statistics(c echo.Context) error {
	from, to := c.QueryParam("start_date"), c.QueryParam("end_date")
	if from == "" || to == "" {
		return badRequest(c, "start_date and end_date are required")
	}
	sum, err := h.Stats.Summary(c.Request().Context(), from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}

// ListUsers handles GET /v1/admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return c.JSON(http.StatusOK, out)
}

// DeleteUser handles DELETE /v1/admin/users/:id.  The user's reservations
// are deleted with the account.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return badRequest(c, "invalid user id")
	}
	ctx := c.Request().Context()
	if err := h.Users.Delete(ctx, id, a); err != nil {
		return fail(c, err)
	}
	purgeCache(ctx, h.Cache, h.Log)
	return c.NoContent(http.StatusNoContent)
}
