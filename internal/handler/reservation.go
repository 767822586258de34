package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/meeting-room-reservation/internal/localtime"
	"github.com/iliyamo/meeting-room-reservation/internal/logger"
	"github.com/iliyamo/meeting-room-reservation/internal/middleware"
	"github.com/iliyamo/meeting-room-reservation/internal/model"
	"github.com/iliyamo/meeting-room-reservation/internal/service"
)

// Reservations is implemented by *service.ReservationService.
type Reservations interface {
	Create(ctx context.Context, in service.CreateInput) (*model.Reservation, error)
	Update(ctx context.Context, id string, actor service.Actor, in service.UpdateInput) (*model.Reservation, error)
	Cancel(ctx context.Context, id string, actor service.Actor, reason string) (*model.Reservation, error)
	Delete(ctx context.Context, id string, actor service.Actor) error
	Get(ctx context.Context, id string) (*model.Reservation, error)
	ListMine(ctx context.Context, userID uint64, includePast bool) ([]model.ReservationView, error)
	ListPublic(ctx context.Context, from, to string) ([]model.ReservationView, error)
	ListAll(ctx context.Context, f service.AdminFilter) ([]model.ReservationView, int64, error)
	CheckAvailability(ctx context.Context, roomID, date, start, end, excludeID string) (*service.Availability, error)
}

// Purger drops cached listings after a write.
type Purger interface {
	Purge(ctx context.Context) (int, error)
}

// ReservationHandler serves the employee-facing reservation endpoints.
type ReservationHandler struct {
	Reservations Reservations
	Cache        Purger
	Log          *logger.Logger
}

func NewReservationHandler(r Reservations, cache Purger, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{Reservations: r, Cache: cache, Log: log}
}

type createReservationReq struct {
	RoomID    string  `json:"room_id" validate:"required"`
	Title     string  `json:"title" validate:"required,max=200"`
	Purpose   *string `json:"purpose" validate:"omitempty,max=1000"`
	Date      string  `json:"date" validate:"required,date"`
	StartTime string  `json:"start_time" validate:"required,clock"`
	EndTime   string  `json:"end_time" validate:"required,clock"`
}

type updateReservationReq struct {
	RoomID    *string `json:"room_id" validate:"omitnil,min=1"`
	Title     *string `json:"title" validate:"omitempty,max=200"`
	Purpose   *string `json:"purpose" validate:"omitempty,max=1000"`
	Date      *string `json:"date" validate:"omitnil,date"`
	StartTime *string `json:"start_time" validate:"omitnil,clock"`
	EndTime   *string `json:"end_time" validate:"omitnil,clock"`
}

type cancelReq struct {
	Reason string `json:"reason" validate:"max=500"`
}

// reservationResp adds the business-local rendering of the interval.
type reservationResp struct {
	model.Reservation
	RoomName   string `json:"room_name,omitempty"`
	UserName   string `json:"user_name,omitempty"`
	Department string `json:"department,omitempty"`
	Date       string `json:"date"`
	LocalStart string `json:"local_start"`
	LocalEnd   string `json:"local_end"`
}

func present(r model.Reservation) reservationResp {
	start := localtime.FromUTC(r.StartTime)
	return reservationResp{
		Reservation: r,
		Date:        start.Date(),
		LocalStart:  start.Clock(),
		LocalEnd:    localtime.FromUTC(r.EndTime).Clock(),
	}
}

func presentViews(vs []model.ReservationView) []reservationResp {
	out := make([]reservationResp, 0, len(vs))
	for _, v := range vs {
		resp := present(v.Reservation)
		resp.RoomName, resp.UserName, resp.Department = v.RoomName, v.UserName, v.Department
		out = append(out, resp)
	}
	return out
}

// actor reads the authenticated caller set by JWTAuth.
func actor(c echo.Context) (service.Actor, bool) {
	uid, ok := middleware.UserID(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{UserID: uid, Role: middleware.Role(c)}, true
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// purgeCache drops cached listings after a write; failures only cost
// freshness.
func purgeCache(ctx context.Context, p Purger, log *logger.Logger) {
	if p == nil {
		return
	}
	if _, err := p.Purge(ctx); err != nil {
		log.Warn("cache purge failed", logger.Error(err))
	}
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, validationMessage(err))
	}
	ctx := c.Request().Context()
	res, err := h.Reservations.Create(ctx, service.CreateInput{
		RoomID: req.RoomID, UserID: a.UserID, Title: req.Title, Purpose: req.Purpose,
		Date: req.Date, StartTime: req.StartTime, EndTime: req.EndTime,
	})
	if err != nil {
		return fail(c, err)
	}
	purgeCache(ctx, h.Cache, h.Log)
	return c.JSON(http.StatusCreated, present(*res))
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	res, err := h.Reservations.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, present(*res))
}

// Update handles PATCH /v1/reservations/:id.
func (h *ReservationHandler) Update(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req updateReservationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, validationMessage(err))
	}
	ctx := c.Request().Context()
	res, err := h.Reservations.Update(ctx, c.Param("id"), a, service.UpdateInput{
		RoomID: req.RoomID, Title: req.Title, Purpose: req.Purpose,
		Date: req.Date, StartTime: req.StartTime, EndTime: req.EndTime,
	})
	if err != nil {
		return fail(c, err)
	}
	purgeCache(ctx, h.Cache, h.Log)
	return c.JSON(http.StatusOK, present(*res))
}

// Cancel handles POST /v1/reservations/:id/cancel.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	var req cancelReq
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, validationMessage(err))
	}
	ctx := c.Request().Context()
	res, err := h.Reservations.Cancel(ctx, c.Param("id"), a, req.Reason)
	if err != nil {
		return fail(c, err)
	}
	purgeCache(ctx, h.Cache, h.Log)
	return c.JSON(http.StatusOK, present(*res))
}

// Mine handles GET /v1/my-reservations[?include_past=true].
func (h *ReservationHandler) Mine(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return unauthorized(c)
	}
	includePast, _ := strconv.ParseBool(c.QueryParam("include_past"))
	list, err := h.Reservations.ListMine(c.Request().Context(), a.UserID, includePast)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, presentViews(list))
}

// Public handles GET /v1/reservations/public?start_date&end_date.  A
// missing end_date means the single start_date.
func (h *ReservationHandler) Public(c echo.Context) error {
	from := strings.TrimSpace(c.QueryParam("start_date"))
	to := strings.TrimSpace(c.QueryParam("end_date"))
	if from == "" {
		return badRequest(c, "start_date is required")
	}
	if to == "" {
		to = from
	}
	list, err := h.Reservations.ListPublic(c.Request().Context(), from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, presentViews(list))
}

// Availability handles GET /v1/rooms/:id/availability.  When the slot is
// taken the blocking reservations are listed under "conflicts".
func (h *ReservationHandler) Availability(c echo.Context) error {
	date, start, end := c.QueryParam("date"), c.QueryParam("start_time"), c.QueryParam("end_time")
	if date == "" || start == "" || end == "" {
		return badRequest(c, "date, start_time and end_time are required")
	}
	av, err := h.Reservations.CheckAvailability(c.Request().Context(), c.Param("id"), date, start, end, c.QueryParam("exclude_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_id":   c.Param("id"),
		"available": av.Available,
		"conflicts": presentViews(av.Conflicts),
	})
}
