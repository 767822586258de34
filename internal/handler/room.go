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

// Rooms is implemented by *service.RoomService.
type Rooms interface {
	ListActive(ctx context.Context, f service.RoomFilter) ([]*model.Room, error)
	ListAll(ctx context.Context) ([]*model.Room, error)
	Get(ctx context.Context, id string) (*model.Room, error)
	Create(ctx context.Context, in service.RoomInput) (*model.Room, error)
	Update(ctx context.Context, id string, in service.RoomInput) (*model.Room, error)
	Deactivate(ctx context.Context, id string) (*model.Room, error)
}

// RoomHandler serves room listings and room administration.
type RoomHandler struct {
	Rooms Rooms
	Cache Purger
	Log   *logger.Logger
}

func NewRoomHandler(r Rooms, cache Purger, log *logger.Logger) *RoomHandler {
	return &RoomHandler{Rooms: r, Cache: cache, Log: log}
}

type roomReq struct {
	Name        *string         `json:"name" validate:"omitnil,min=1,max=100"`
	Description *string         `json:"description" validate:"omitempty,max=1000"`
	Capacity    *uint32         `json:"capacity" validate:"omitnil,min=1,max=1000"`
	Location    *string         `json:"location" validate:"omitempty,max=200"`
	Amenities   map[string]bool `json:"amenities"`
	IsActive    *bool           `json:"is_active"`
}

func (r roomReq) input() service.RoomInput {
	return service.RoomInput{Name: r.Name, Description: r.Description, Capacity: r.Capacity,
		Location: r.Location, Amenities: r.Amenities, IsActive: r.IsActive}
}

// ListActive handles GET /v1/rooms?q&min_capacity.  q matches room name or
// location.
func (h *RoomHandler) ListActive(c echo.Context) error {
	f := service.RoomFilter{Query: c.QueryParam("q")}
	if v := c.QueryParam("min_capacity"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return badRequest(c, "invalid min_capacity")
		}
		f.MinCapacity = uint32(n)
	}
	rooms, err := h.Rooms.ListActive(c.Request().Context(), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rooms)
}

// ListAll handles GET /v1/admin/rooms.
func (h *RoomHandler) ListAll(c echo.Context) error {
	rooms, err := h.Rooms.ListAll(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rooms)
}

// Get handles GET /v1/rooms/:id.
func (h *RoomHandler) Get(c echo.Context) error {
	rm, err := h.Rooms.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rm)
}

// Create handles POST /v1/admin/rooms.
func (h *RoomHandler) Create(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, validationMessage(err))
	}
	if req.Name == nil || req.Capacity == nil {
		return badRequest(c, "name and capacity are required")
	}
	ctx := c.Request().Context()
	rm, err := h.Rooms.Create(ctx, req.input())
	if err != nil {
		return fail(c, err)
	}
	purgeCache(ctx, h.Cache, h.Log)
	return c.JSON(http.StatusCreated, rm)
}

// Update handles PATCH /v1/admin/rooms/:id.
func (h *RoomHandler) Update(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, validationMessage(err))
	}
	ctx := c.Request().Context()
	rm, err := h.Rooms.Update(ctx, c.Param("id"), req.input())
	if err != nil {
		return fail(c, err)
	}
	purgeCache(ctx, h.Cache, h.Log)
	return c.JSON(http.StatusOK, rm)
}

// Deactivate handles DELETE /v1/admin/rooms/:id.  The room stays readable
// with its history; it only stops accepting reservations.
func (h *RoomHandler) Deactivate(c echo.Context) error {
	ctx := c.Request().Context()
	rm, err := h.Rooms.Deactivate(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	purgeCache(ctx, h.Cache, h.Log)
	return c.JSON(http.StatusOK, rm)
}
