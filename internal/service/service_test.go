package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/meeting-room-reservation/internal/config"
	"github.com/iliyamo/meeting-room-reservation/internal/conflict"
	"github.com/iliyamo/meeting-room-reservation/internal/logger"
	"github.com/iliyamo/meeting-room-reservation/internal/queue"
	"github.com/iliyamo/meeting-room-reservation/internal/repository"
)

var (
	roomCols = []string{"id", "name", "description", "capacity", "location", "amenities", "is_active", "created_at", "updated_at"}
	resCols  = []string{"id", "room_id", "user_id", "title", "purpose", "start_time", "end_time", "status",
		"cancellation_reason", "created_at", "updated_at"}
	viewCols = append(append([]string{}, resCols...), "room_name", "user_name", "department")

	created = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// 2025-01-10 09:00 business time.
	fixedNow = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
)

type fakeEvents struct {
	ch chan queue.ReservationEvent
}

func newFakeEvents() *fakeEvents { return &fakeEvents{ch: make(chan queue.ReservationEvent, 8)} }

func (f *fakeEvents) Publish(_ context.Context, ev queue.ReservationEvent) error {
	f.ch <- ev
	return nil
}

func (f *fakeEvents) next(t *testing.T) queue.ReservationEvent {
	t.Helper()
	select {
	case ev := <-f.ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event published")
		return queue.ReservationEvent{}
	}
}

func (f *fakeEvents) none(t *testing.T) {
	t.Helper()
	select {
	case ev := <-f.ch:
		t.Fatalf("unexpected event %s", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newReservationService(t *testing.T, policy config.Policy) (*ReservationService, sqlmock.Sqlmock, *fakeEvents) {
	t.Helper()
	db, mock := newMock(t)
	events := newFakeEvents()
	svc := NewReservationService(db, repository.NewReservationRepo(db), repository.NewRoomRepo(db),
		conflict.NewEngine(time.Second), policy, events, logger.Nop())
	svc.now = func() time.Time { return fixedNow }
	svc.newID = func() string { return "res-1" }
	return svc, mock, events
}

func roomRow(id, name string, active bool) *sqlmock.Rows {
	return sqlmock.NewRows(roomCols).AddRow(id, name, nil, int64(8), nil, []byte(`{"projector":true}`), active, created, created)
}

func resRow(id, roomID string, userID int64, start, end time.Time, status string) *sqlmock.Rows {
	return sqlmock.NewRows(resCols).AddRow(id, roomID, userID, "Weekly sync", nil, start, end, status, nil, created, created)
}

// utc builds a UTC instant on 2025-01-10.
func utc(hour, minute int) time.Time {
	return time.Date(2025, 1, 10, hour, minute, 0, 0, time.UTC)
}
