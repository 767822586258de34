package handler

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/meeting-room-reservation/internal/logger"
	"github.com/iliyamo/meeting-room-reservation/internal/middleware"
	"github.com/iliyamo/meeting-room-reservation/internal/model"
	"github.com/iliyamo/meeting-room-reservation/internal/service"
)

var errUnexpected = errors.New("unexpected call")

type fakeReservations struct {
	create     func(service.CreateInput) (*model.Reservation, error)
	update     func(string, service.Actor, service.UpdateInput) (*model.Reservation, error)
	cancel     func(string, service.Actor, string) (*model.Reservation, error)
	del        func(string, service.Actor) error
	get        func(string) (*model.Reservation, error)
	listMine   func(uint64, bool) ([]model.ReservationView, error)
	listPublic func(string, string) ([]model.ReservationView, error)
	listAll    func(service.AdminFilter) ([]model.ReservationView, int64, error)
	check      func(roomID, date, start, end, excludeID string) (*service.Availability, error)
}

func (f *fakeReservations) Create(_ context.Context, in service.CreateInput) (*model.Reservation, error) {
	if f.create == nil {
		return nil, errUnexpected
	}
	return f.create(in)
}

func (f *fakeReservations) Update(_ context.Context, id string, a service.Actor, in service.UpdateInput) (*model.Reservation, error) {
	if f.update == nil {
		return nil, errUnexpected
	}
	return f.update(id, a, in)
}

func (f *fakeReservations) Cancel(_ context.Context, id string, a service.Actor, reason string) (*model.Reservation, error) {
	if f.cancel == nil {
		return nil, errUnexpected
	}
	return f.cancel(id, a, reason)
}

func (f *fakeReservations) Delete(_ context.Context, id string, a service.Actor) error {
	if f.del == nil {
		return errUnexpected
	}
	return f.del(id, a)
}

func (f *fakeReservations) Get(_ context.Context, id string) (*model.Reservation, error) {
	if f.get == nil {
		return nil, errUnexpected
	}
	return f.get(id)
}

func (f *fakeReservations) ListMine(_ context.Context, uid uint64, past bool) ([]model.ReservationView, error) {
	if f.listMine == nil {
		return nil, errUnexpected
	}
	return f.listMine(uid, past)
}

func (f *fakeReservations) ListPublic(_ context.Context, from, to string) ([]model.ReservationView, error) {
	if f.listPublic == nil {
		return nil, errUnexpected
	}
	return f.listPublic(from, to)
}

func (f *fakeReservations) ListAll(_ context.Context, filter service.AdminFilter) ([]model.ReservationView, int64, error) {
	if f.listAll == nil {
		return nil, 0, errUnexpected
	}
	return f.listAll(filter)
}

func (f *fakeReservations) CheckAvailability(_ context.Context, roomID, date, start, end, excludeID string) (*service.Availability, error) {
	if f.check == nil {
		return nil, errUnexpected
	}
	return f.check(roomID, date, start, end, excludeID)
}

type countingPurger struct{ calls int }

func (p *countingPurger) Purge(context.Context) (int, error) {
	p.calls++
	return 0, nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// request builds a context as JWTAuth would leave it.  uid 0 means
// anonymous.
func request(e *echo.Echo, method, target, body string, uid uint64, role string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != 0 {
		c.Set(middleware.KeyUserID, uid)
		c.Set(middleware.KeyRole, role)
	}
	return c, rec
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func nopLog() *logger.Logger { return logger.Nop() }
