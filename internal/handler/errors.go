package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/meeting-room-reservation/internal/conflict"
	"github.com/iliyamo/meeting-room-reservation/internal/localtime"
	"github.com/iliyamo/meeting-room-reservation/internal/service"
)

// errorStatuses is checked in order; the first sentinel err matches decides
// the status, and the sentinel's own text is sent to the client.
var errorStatuses = []struct {
	err    error
	status int
}{
	{localtime.ErrInvalidFormat, http.StatusBadRequest},
	{conflict.ErrInvalidInterval, http.StatusBadRequest},
	{service.ErrDurationTooLong, http.StatusBadRequest},
	{service.ErrStartInPast, http.StatusBadRequest},
	{service.ErrOutsideHours, http.StatusBadRequest},
	{service.ErrSelfDelete, http.StatusBadRequest},
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrForbidden, http.StatusForbidden},
	{conflict.ErrConflictDetected, http.StatusConflict},
	{service.ErrRoomInactive, http.StatusConflict},
	{service.ErrAlreadyCancelled, http.StatusConflict},
	{service.ErrCancelWindowClosed, http.StatusConflict},
	{service.ErrAlreadyStarted, http.StatusConflict},
	{service.ErrNoChange, http.StatusConflict},
	{service.ErrNameTaken, http.StatusConflict},
}

// errorStatus maps domain errors to an HTTP status and a client message.
// Failed conflict checks and unknown errors are 500s with a generic message;
// details stay in the log.
func errorStatus(err error) (int, string) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, e.err.Error()
		}
	}
	if errors.Is(err, conflict.ErrConflictCheckFailed) {
		return http.StatusInternalServerError, "could not verify room availability, please retry"
	}
	return http.StatusInternalServerError, "internal error"
}

func fail(c echo.Context, err error) error {
	status, msg := errorStatus(err)
	return c.JSON(status, echo.Map{"error": msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
