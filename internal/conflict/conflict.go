// Package conflict decides whether a room can be booked for an interval.
//
// Intervals are half-open [Start, End): a booking ending at 10:00 and another
// starting at 10:00 do not overlap.  Only confirmed reservations count, and a
// failed lookup is reported as ErrConflictCheckFailed, never as "free".
package conflict

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInterval means End is not after Start.
	ErrInvalidInterval = errors.New("end time must be after start time")
	// ErrConflictDetected means a confirmed reservation already occupies part
	// of the interval.
	ErrConflictDetected = errors.New("room is already booked for this time")
	// ErrConflictCheckFailed wraps storage failures and timeouts.
	ErrConflictCheckFailed = errors.New("conflict check failed")
)

// DefaultTimeout bounds a single lookup when Engine.Timeout is zero.
const DefaultTimeout = 3 * time.Second

// Interval is a half-open time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether End is strictly after Start.
func (i Interval) Valid() bool { return i.End.After(i.Start) }

// Overlaps reports whether a and b share any instant.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// Candidate is an interval someone wants to book.  ExcludeID is the
// reservation being edited, or empty for a new booking.
type Candidate struct {
	RoomID    string
	Interval  Interval
	ExcludeID string
}

// Finder counts confirmed reservations in roomID overlapping [start, end),
// ignoring excludeID when it is not empty.
type Finder interface {
	CountOverlapping(ctx context.Context, roomID string, start, end time.Time, excludeID string) (int, error)
}

// FinderFunc adapts a function to Finder.
type FinderFunc func(ctx context.Context, roomID string, start, end time.Time, excludeID string) (int, error)

func (f FinderFunc) CountOverlapping(ctx context.Context, roomID string, start, end time.Time, excludeID string) (int, error) {
	return f(ctx, roomID, start, end, excludeID)
}

// Engine runs conflict checks against a Finder.  It holds no state besides
// its timeout and is safe for concurrent use.
type Engine struct {
	Timeout time.Duration
}

// NewEngine returns an Engine with the given lookup timeout.
func NewEngine(timeout time.Duration) *Engine {
	return &Engine{Timeout: timeout}
}

// HasConflict reports whether c overlaps a confirmed reservation.  An invalid
// interval is rejected before f is consulted.
func (e *Engine) HasConflict(ctx context.Context, f Finder, c Candidate) (bool, error) {
	if !c.Interval.Valid() {
		return false, ErrInvalidInterval
	}
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	n, err := f.CountOverlapping(ctx, c.RoomID, c.Interval.Start.UTC(), c.Interval.End.UTC(), c.ExcludeID)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrConflictCheckFailed, err)
	}
	return n > 0, nil
}

// Ensure returns ErrConflictDetected when c overlaps a confirmed reservation.
func (e *Engine) Ensure(ctx context.Context, f Finder, c Candidate) error {
	busy, err := e.HasConflict(ctx, f, c)
	if err != nil {
		return err
	}
	if busy {
		return ErrConflictDetected
	}
	return nil
}
