package conflict

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type booking struct {
	id        string
	roomID    string
	interval  Interval
	cancelled bool
}

// memFinder applies the same predicate the SQL finder pushes to MySQL.
type memFinder struct {
	bookings []booking
	calls    int
}

func (m *memFinder) CountOverlapping(_ context.Context, roomID string, start, end time.Time, excludeID string) (int, error) {
	m.calls++
	n := 0
	for _, b := range m.bookings {
		if b.roomID != roomID || b.cancelled || (excludeID != "" && b.id == excludeID) {
			continue
		}
		if b.interval.Start.Before(end) && b.interval.End.After(start) {
			n++
		}
	}
	return n, nil
}

func at(clock string) time.Time {
	t, err := time.Parse(time.RFC3339, "2025-01-10T"+clock+":00Z")
	if err != nil {
		panic(err)
	}
	return t
}

func span(from, to string) Interval { return Interval{Start: at(from), End: at(to)} }

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", span("09:00", "10:00"), span("09:00", "10:00"), true},
		{"partial", span("09:00", "10:00"), span("09:30", "10:30"), true},
		{"contains", span("09:00", "12:00"), span("10:00", "11:00"), true},
		{"back to back", span("09:00", "10:00"), span("10:00", "11:00"), false},
		{"disjoint", span("09:00", "10:00"), span("11:00", "12:00"), false},
		{"one minute", span("09:00", "10:01"), span("10:00", "11:00"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			assert.Equal(t, Overlaps(tt.a, tt.b), Overlaps(tt.b, tt.a), "overlap must be symmetric")
		})
	}
}

func TestOverlapsSymmetryGrid(t *testing.T) {
	base := at("08:00")
	for s1 := 0; s1 < 8; s1++ {
		for e1 := s1 + 1; e1 <= 8; e1++ {
			for s2 := 0; s2 < 8; s2++ {
				for e2 := s2 + 1; e2 <= 8; e2++ {
					a := Interval{base.Add(time.Duration(s1) * 15 * time.Minute), base.Add(time.Duration(e1) * 15 * time.Minute)}
					b := Interval{base.Add(time.Duration(s2) * 15 * time.Minute), base.Add(time.Duration(e2) * 15 * time.Minute)}
					require.Equal(t, Overlaps(a, b), Overlaps(b, a))
				}
			}
		}
	}
}

func TestHasConflict(t *testing.T) {
	existing := []booking{
		{id: "r1", roomID: "room-a", interval: span("09:00", "10:00")},
		{id: "r2", roomID: "room-a", interval: span("13:00", "14:00"), cancelled: true},
		{id: "r3", roomID: "room-b", interval: span("09:00", "10:00")},
	}
	tests := []struct {
		name      string
		candidate Candidate
		want      bool
	}{
		{"back to back after", Candidate{RoomID: "room-a", Interval: span("10:00", "11:00")}, false},
		{"back to back before", Candidate{RoomID: "room-a", Interval: span("08:00", "09:00")}, false},
		{"thirty minute overlap", Candidate{RoomID: "room-a", Interval: span("09:30", "10:30")}, true},
		{"cancelled slot is free", Candidate{RoomID: "room-a", Interval: span("13:00", "14:00")}, false},
		{"other room ignored", Candidate{RoomID: "room-c", Interval: span("09:00", "10:00")}, false},
		{"self exclusion on extend", Candidate{RoomID: "room-a", Interval: span("09:00", "10:15"), ExcludeID: "r1"}, false},
		{"exclusion of someone else", Candidate{RoomID: "room-a", Interval: span("09:00", "10:15"), ExcludeID: "r3"}, true},
	}
	e := NewEngine(time.Second)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &memFinder{bookings: existing}
			got, err := e.HasConflict(context.Background(), f, tt.candidate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, f.calls)
		})
	}
}

func TestInvalidIntervalSkipsStorage(t *testing.T) {
	e := NewEngine(time.Second)
	for _, iv := range []Interval{span("10:00", "10:00"), span("11:00", "10:00")} {
		f := &memFinder{}
		_, err := e.HasConflict(context.Background(), f, Candidate{RoomID: "room-a", Interval: iv})
		assert.ErrorIs(t, err, ErrInvalidInterval)
		assert.Zero(t, f.calls)

		err = e.Ensure(context.Background(), f, Candidate{RoomID: "room-a", Interval: iv})
		assert.ErrorIs(t, err, ErrInvalidInterval)
		assert.Zero(t, f.calls)
	}
}

func TestFailsClosed(t *testing.T) {
	e := NewEngine(time.Second)
	cause := errors.New("connection reset")
	f := FinderFunc(func(context.Context, string, time.Time, time.Time, string) (int, error) {
		return 0, cause
	})

	busy, err := e.HasConflict(context.Background(), f, Candidate{RoomID: "room-a", Interval: span("09:00", "10:00")})
	assert.False(t, busy)
	assert.ErrorIs(t, err, ErrConflictCheckFailed)
	assert.ErrorIs(t, err, cause)

	err = e.Ensure(context.Background(), f, Candidate{RoomID: "room-a", Interval: span("09:00", "10:00")})
	assert.ErrorIs(t, err, ErrConflictCheckFailed)
	assert.NotErrorIs(t, err, ErrConflictDetected)
}

func TestTimeoutIsFailure(t *testing.T) {
	e := NewEngine(20 * time.Millisecond)
	f := FinderFunc(func(ctx context.Context, _ string, _, _ time.Time, _ string) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	_, err := e.HasConflict(context.Background(), f, Candidate{RoomID: "room-a", Interval: span("09:00", "10:00")})
	assert.ErrorIs(t, err, ErrConflictCheckFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEnsure(t *testing.T) {
	e := NewEngine(0)
	f := &memFinder{bookings: []booking{{id: "r1", roomID: "room-a", interval: span("09:00", "10:00")}}}

	assert.ErrorIs(t, e.Ensure(context.Background(), f, Candidate{RoomID: "room-a", Interval: span("09:30", "10:30")}), ErrConflictDetected)
	assert.NoError(t, e.Ensure(context.Background(), f, Candidate{RoomID: "room-a", Interval: span("10:00", "11:00")}))
}

func TestFinderReceivesUTC(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)
	var gotStart time.Time
	f := FinderFunc(func(_ context.Context, _ string, start, _ time.Time, _ string) (int, error) {
		gotStart = start
		return 0, nil
	})
	iv := Interval{Start: time.Date(2025, 1, 10, 9, 0, 0, 0, kst), End: time.Date(2025, 1, 10, 10, 0, 0, 0, kst)}
	_, err := NewEngine(time.Second).HasConflict(context.Background(), f, Candidate{RoomID: "room-a", Interval: iv})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, gotStart.Location())
	assert.Equal(t, 0, gotStart.Hour())
}
