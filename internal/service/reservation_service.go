package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/meeting-room-reservation/internal/config"
	"github.com/iliyamo/meeting-room-reservation/internal/conflict"
	"github.com/iliyamo/meeting-room-reservation/internal/localtime"
	"github.com/iliyamo/meeting-room-reservation/internal/logger"
	"github.com/iliyamo/meeting-room-reservation/internal/model"
	"github.com/iliyamo/meeting-room-reservation/internal/queue"
	"github.com/iliyamo/meeting-room-reservation/internal/repository"
)

// EventPublisher delivers committed reservation changes to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// maxListingSpan bounds the public calendar and statistics queries.
const maxListingSpan = 93 * 24 * time.Hour

const publishTimeout = 5 * time.Second

// ReservationService creates, edits and cancels reservations.  Every write
// runs in one transaction that locks the room row before the overlap check,
// so two overlapping writes for the same room can never both commit.
type ReservationService struct {
	db           *sql.DB
	reservations *repository.ReservationRepo
	rooms        *repository.RoomRepo
	engine       *conflict.Engine
	policy       config.Policy
	events       EventPublisher
	log          *logger.Logger

	now   func() time.Time
	newID func() string
}

// NewReservationService wires a ReservationService.  events may be nil.
func NewReservationService(db *sql.DB, reservations *repository.ReservationRepo, rooms *repository.RoomRepo,
	engine *conflict.Engine, policy config.Policy, events EventPublisher, log *logger.Logger) *ReservationService {
	return &ReservationService{
		db:           db,
		reservations: reservations,
		rooms:        rooms,
		engine:       engine,
		policy:       policy,
		events:       events,
		log:          log,
		now:          time.Now,
		newID:        func() string { return uuid.NewString() },
	}
}

// CreateInput describes a new booking in business local time.
type CreateInput struct {
	RoomID    string
	UserID    uint64
	Title     string
	Purpose   *string
	Date      string // YYYY-MM-DD
	StartTime string // HH:MM
	EndTime   string // HH:MM
}

// UpdateInput holds the fields to change; nil leaves a field as is.
type UpdateInput struct {
	RoomID    *string
	Title     *string
	Purpose   *string
	Date      *string
	StartTime *string
	EndTime   *string
}

// AdminFilter narrows the administrator listing.  StartDate and EndDate
// are business days unless UTCDays is set, in which case they are UTC days.
type AdminFilter struct {
	RoomID     string
	UserID     uint64
	Department string
	Status     string
	StartDate  string
	EndDate    string
	UTCDays    bool
	Page       int
	PageSize   int
}

// interval converts a local date and two clocks into a validated UTC range
// that starts in the future and lies inside the booking hours.
func (s *ReservationService) interval(date, start, end string) (conflict.Interval, error) {
	from, err := localtime.ToUTC(date, start)
	if err != nil {
		return conflict.Interval{}, err
	}
	to, err := localtime.ToUTC(date, end)
	if err != nil {
		return conflict.Interval{}, err
	}
	iv := conflict.Interval{Start: from, End: to}
	if !iv.Valid() {
		return conflict.Interval{}, conflict.ErrInvalidInterval
	}
	if max := s.policy.MaxDuration(); max > 0 && iv.End.Sub(iv.Start) > max {
		return conflict.Interval{}, ErrDurationTooLong
	}
	if !s.policy.WithinHours(localtime.FromUTC(iv.Start).Clock(), localtime.FromUTC(iv.End).Clock()) {
		return conflict.Interval{}, ErrOutsideHours
	}
	if !iv.Start.After(s.now()) {
		return conflict.Interval{}, ErrStartInPast
	}
	return iv, nil
}

func (s *ReservationService) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	// READ COMMITTED: the overlap count after the room lock sees every
	// writer that held the lock before us.
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Create books a room.  Input errors are returned before any storage I/O.
func (s *ReservationService) Create(ctx context.Context, in CreateInput) (*model.Reservation, error) {
	iv, err := s.interval(in.Date, in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" || in.RoomID == "" || in.UserID == 0 {
		return nil, ErrInvalidInput
	}

	res := &model.Reservation{
		ID:        s.newID(),
		RoomID:    in.RoomID,
		UserID:    in.UserID,
		Title:     title,
		Purpose:   trimmed(in.Purpose),
		StartTime: iv.Start,
		EndTime:   iv.End,
		Status:    model.StatusConfirmed,
	}
	var room *model.Room
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		if room, err = s.rooms.LockTx(ctx, tx, in.RoomID); err != nil {
			return mapRepoErr(err)
		}
		if !room.IsActive {
			return ErrRoomInactive
		}
		if err := s.engine.Ensure(ctx, s.reservations.FinderTx(tx), conflict.Candidate{RoomID: in.RoomID, Interval: iv}); err != nil {
			return err
		}
		return s.reservations.CreateTx(ctx, tx, res)
	})
	if err != nil {
		s.logFailure("create", in.RoomID, "", err)
		return nil, err
	}
	s.log.Info("reservation created", logger.Action("create"), logger.Reservation(res.ID), logger.Room(res.RoomID),
		logger.User(res.UserID), logger.Window(window(res)))
	s.publish(queue.EventCreated, res, room.Name, in.UserID)
	return res, nil
}

// Update edits a confirmed reservation in place.  The overlap re-check
// excludes the reservation itself; on any failure the row is unchanged.
func (s *ReservationService) Update(ctx context.Context, id string, actor Actor, in UpdateInput) (*model.Reservation, error) {
	var (
		res  *model.Reservation
		room *model.Room
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		cur, err := s.reservations.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return mapRepoErr(err)
		}
		if cur.UserID != actor.UserID && !actor.IsAdmin() {
			return ErrForbidden
		}
		if cur.IsCancelled() {
			return ErrAlreadyCancelled
		}
		if !actor.IsAdmin() && !cur.StartTime.After(s.now()) {
			return ErrAlreadyStarted
		}

		next := *cur
		if in.Title != nil {
			if next.Title = strings.TrimSpace(*in.Title); next.Title == "" {
				return ErrInvalidInput
			}
		}
		if in.Purpose != nil {
			next.Purpose = trimmed(in.Purpose)
		}
		if in.RoomID != nil && *in.RoomID != "" {
			next.RoomID = *in.RoomID
		}
		if in.Date != nil || in.StartTime != nil || in.EndTime != nil {
			start, end := localtime.FromUTC(cur.StartTime), localtime.FromUTC(cur.EndTime)
			iv, err := s.interval(pick(in.Date, start.Date()), pick(in.StartTime, start.Clock()), pick(in.EndTime, end.Clock()))
			if err != nil {
				return err
			}
			next.StartTime, next.EndTime = iv.Start, iv.End
		}

		if sameReservation(cur, &next) {
			return ErrNoChange
		}

		if room, err = s.rooms.LockTx(ctx, tx, next.RoomID); err != nil {
			return mapRepoErr(err)
		}
		if next.RoomID != cur.RoomID && !room.IsActive {
			return ErrRoomInactive
		}
		candidate := conflict.Candidate{
			RoomID:    next.RoomID,
			Interval:  conflict.Interval{Start: next.StartTime, End: next.EndTime},
			ExcludeID: cur.ID,
		}
		if err := s.engine.Ensure(ctx, s.reservations.FinderTx(tx), candidate); err != nil {
			return err
		}
		if err := s.reservations.UpdateTx(ctx, tx, &next); err != nil {
			return mapRepoErr(err)
		}
		res = &next
		return nil
	})
	if err != nil {
		s.logFailure("update", "", id, err)
		return nil, err
	}
	s.log.Info("reservation updated", logger.Action("update"), logger.Reservation(res.ID), logger.Room(res.RoomID),
		logger.User(actor.UserID), logger.Window(window(res)))
	s.publish(queue.EventUpdated, res, room.Name, actor.UserID)
	return res, nil
}

// Cancel moves a reservation to cancelled, freeing its slot.  Cancelling a
// cancelled reservation returns it unchanged.  Non-admins cannot cancel a
// reservation that starts within the policy cutoff or has already started.
func (s *ReservationService) Cancel(ctx context.Context, id string, actor Actor, reason string) (*model.Reservation, error) {
	var (
		res     *model.Reservation
		changed bool
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		cur, err := s.reservations.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return mapRepoErr(err)
		}
		if cur.UserID != actor.UserID && !actor.IsAdmin() {
			return ErrForbidden
		}
		if cur.IsCancelled() {
			res = cur
			return nil
		}
		if !actor.IsAdmin() && s.now().After(cur.StartTime.Add(-s.policy.CancelCutoff())) {
			return ErrCancelWindowClosed
		}
		if res, err = s.reservations.CancelTx(ctx, tx, id, trimmed(&reason)); err != nil {
			return mapRepoErr(err)
		}
		changed = true
		return nil
	})
	if err != nil {
		s.logFailure("cancel", "", id, err)
		return nil, err
	}
	if changed {
		fields := []logger.Field{logger.Action("cancel"), logger.Reservation(res.ID), logger.Room(res.RoomID), logger.User(actor.UserID)}
		if res.CancellationReason != nil {
			fields = append(fields, logger.Reason(*res.CancellationReason))
		}
		s.log.Info("reservation cancelled", fields...)
		s.publish(queue.EventCancelled, res, "", actor.UserID)
	}
	return res, nil
}

// Delete hard-deletes a reservation.  Administrators only.
func (s *ReservationService) Delete(ctx context.Context, id string, actor Actor) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	cur, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return mapRepoErr(err)
	}
	if err := s.reservations.Delete(ctx, id); err != nil {
		s.logFailure("delete", cur.RoomID, id, err)
		return mapRepoErr(err)
	}
	s.log.Info("reservation deleted", logger.Action("delete"), logger.Reservation(id), logger.Room(cur.RoomID), logger.User(actor.UserID))
	s.publish(queue.EventDeleted, cur, "", actor.UserID)
	return nil
}

// Get returns one reservation in any status.
func (s *ReservationService) Get(ctx context.Context, id string) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return res, nil
}

// ListMine returns the caller's confirmed reservations.  Past ones are
// included only when includePast is set.
func (s *ReservationService) ListMine(ctx context.Context, userID uint64, includePast bool) ([]model.ReservationView, error) {
	since := s.now()
	if includePast {
		since = time.Time{}
	}
	return s.reservations.ListByUser(ctx, userID, since)
}

// ListPublic returns confirmed reservations overlapping the business days
// from..to inclusive.
func (s *ReservationService) ListPublic(ctx context.Context, from, to string) ([]model.ReservationView, error) {
	start, end, err := localtime.DayRange(from, to)
	if err != nil {
		return nil, err
	}
	if end.Sub(start) > maxListingSpan {
		return nil, fmt.Errorf("%w: date range too large", ErrInvalidInput)
	}
	return s.reservations.ListInRange(ctx, start, end)
}

// ListAll is the administrator listing with filters and pagination.
func (s *ReservationService) ListAll(ctx context.Context, f AdminFilter) ([]model.ReservationView, int64, error) {
	q := repository.ReservationSearchQuery{
		RoomID:     f.RoomID,
		UserID:     f.UserID,
		Department: f.Department,
		Status:     f.Status,
		Page:       f.Page,
		PageSize:   f.PageSize,
	}
	if f.StartDate != "" || f.EndDate != "" {
		from, to := pick(&f.StartDate, f.EndDate), pick(&f.EndDate, f.StartDate)
		var err error
		if f.UTCDays {
			if q.From, err = localtime.NormalizeDateForQuery(from, false); err != nil {
				return nil, 0, err
			}
			if q.To, err = localtime.NormalizeDateForQuery(to, true); err != nil {
				return nil, 0, err
			}
		} else {
			start, end, err := localtime.DayRange(from, to)
			if err != nil {
				return nil, 0, err
			}
			q.From, q.To = start, end.Add(-time.Millisecond)
		}
	}
	return s.reservations.Search(ctx, q)
}

// Availability answers a pre-flight check.  Conflicts lists the confirmed
// reservations that block the slot; it is empty when Available.
type Availability struct {
	Available bool
	Conflicts []model.ReservationView
}

// CheckAvailability is the user-facing pre-flight check.  It reads outside
// any transaction; the authoritative check runs again inside Create/Update.
func (s *ReservationService) CheckAvailability(ctx context.Context, roomID, date, start, end, excludeID string) (*Availability, error) {
	iv, err := s.interval(date, start, end)
	if err != nil {
		return nil, err
	}
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !room.IsActive {
		return nil, ErrRoomInactive
	}
	busy, err := s.engine.HasConflict(ctx, s.reservations.Finder(), conflict.Candidate{RoomID: roomID, Interval: iv, ExcludeID: excludeID})
	if err != nil {
		s.logFailure("availability", roomID, excludeID, err)
		return nil, err
	}
	out := &Availability{Available: !busy, Conflicts: []model.ReservationView{}}
	if !busy {
		return out, nil
	}
	if out.Conflicts, err = s.reservations.ListOverlapping(ctx, roomID, iv.Start, iv.End, excludeID); err != nil {
		err = fmt.Errorf("%w: %w", conflict.ErrConflictCheckFailed, err)
		s.logFailure("availability", roomID, excludeID, err)
		return nil, err
	}
	return out, nil
}

// publish sends the event in the background after commit.  Broker
// failures never fail the request.
func (s *ReservationService) publish(kind string, res *model.Reservation, roomName string, actorID uint64) {
	if s.events == nil {
		return
	}
	ev := queue.NewReservationEvent(kind, res, roomName, actorID, s.now())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		_ = s.events.Publish(ctx, ev) // publisher logs its own failures
	}()
}

// logFailure logs storage failures at error level and expected business
// rejections at debug level.
func (s *ReservationService) logFailure(action, roomID, id string, err error) {
	fields := []logger.Field{logger.Action(action), logger.Error(err)}
	if roomID != "" {
		fields = append(fields, logger.Room(roomID))
	}
	if id != "" {
		fields = append(fields, logger.Reservation(id))
	}
	if isExpected(err) {
		s.log.Debug("reservation rejected", fields...)
		return
	}
	s.log.Error("reservation write failed", fields...)
}

func isExpected(err error) bool {
	for _, target := range []error{
		conflict.ErrConflictDetected, conflict.ErrInvalidInterval, localtime.ErrInvalidFormat,
		ErrNotFound, ErrForbidden, ErrInvalidInput, ErrRoomInactive, ErrAlreadyCancelled,
		ErrCancelWindowClosed, ErrDurationTooLong, ErrNoChange, ErrStartInPast, ErrOutsideHours,
		ErrAlreadyStarted,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func window(r *model.Reservation) string {
	return localtime.Format(r.StartTime, "2006-01-02 15:04") + "-" + localtime.Format(r.EndTime, "15:04")
}

func sameReservation(a, b *model.Reservation) bool {
	return a.RoomID == b.RoomID && a.Title == b.Title && equalPtr(a.Purpose, b.Purpose) &&
		a.StartTime.Equal(b.StartTime) && a.EndTime.Equal(b.EndTime)
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func pick(p *string, fallback string) string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return fallback
	}
	return strings.TrimSpace(*p)
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
