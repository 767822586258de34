package repository

import (
    "context"
    "database/sql"
    "fmt"
    "strings"
    "time"

    "github.com/iliyamo/meeting-room-reservation/internal/conflict"
    "github.com/iliyamo/meeting-room-reservation/internal/model"
)

// ReservationRepo provides persistence for room reservations.  All
// timestamps are stored and returned in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying sql.DB so the service layer can begin
// transactions spanning the room lock and the reservation write.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, room_id, user_id, title, purpose, start_time, end_time, status, cancellation_reason, created_at, updated_at`

func scanReservation(s rowScanner) (*model.Reservation, error) {
    var (
        res             model.Reservation
        purpose, reason sql.NullString
    )
    if err := s.Scan(&res.ID, &res.RoomID, &res.UserID, &res.Title, &purpose, &res.StartTime, &res.EndTime,
        &res.Status, &reason, &res.CreatedAt, &res.UpdatedAt); err != nil {
        return nil, err
    }
    res.Purpose = stringPtr(purpose)
    res.CancellationReason = stringPtr(reason)
    res.StartTime = res.StartTime.UTC()
    res.EndTime = res.EndTime.UTC()
    return &res, nil
}

func getReservation(ctx context.Context, q querier, query string, args ...any) (*model.Reservation, error) {
    res, err := scanReservation(q.QueryRowContext(ctx, query, args...))
    if err != nil {
        return nil, notFound(err, ErrReservationNotFound)
    }
    return res, nil
}

// CreateTx inserts a confirmed reservation within the caller's transaction
// and reads it back so defaults are populated.  The caller assigns ID.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    const q = `INSERT INTO reservations (id, room_id, user_id, title, purpose, start_time, end_time, status)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    if _, err := tx.ExecContext(ctx, q, res.ID, res.RoomID, res.UserID, res.Title, nullString(res.Purpose),
        res.StartTime.UTC(), res.EndTime.UTC(), model.StatusConfirmed); err != nil {
        return err
    }
    fresh, err := getReservation(ctx, tx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, res.ID)
    if err != nil {
        return err
    }
    *res = *fresh
    return nil
}

// GetByID retrieves a reservation in any status.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
    return getReservation(ctx, r.db, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
}

// GetForUpdateTx reads a reservation and locks its row until tx ends.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*model.Reservation, error) {
    return getReservation(ctx, tx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ? FOR UPDATE`, id)
}

// UpdateTx rewrites room, title, purpose and interval of a confirmed
// reservation, then reloads it into res.
func (r *ReservationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    const q = `UPDATE reservations
               SET room_id = ?, title = ?, purpose = ?, start_time = ?, end_time = ?, updated_at = CURRENT_TIMESTAMP(3)
               WHERE id = ? AND status = 'confirmed'`
    out, err := tx.ExecContext(ctx, q, res.RoomID, res.Title, nullString(res.Purpose), res.StartTime.UTC(), res.EndTime.UTC(), res.ID)
    if err != nil {
        return err
    }
    if n, _ := out.RowsAffected(); n == 0 {
        return ErrReservationNotFound
    }
    fresh, err := getReservation(ctx, tx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, res.ID)
    if err != nil {
        return err
    }
    *res = *fresh
    return nil
}

// CancelTx moves a confirmed reservation to cancelled.  A nil reason
// leaves cancellation_reason NULL.
func (r *ReservationRepo) CancelTx(ctx context.Context, tx *sql.Tx, id string, reason *string) (*model.Reservation, error) {
    const q = `UPDATE reservations
               SET status = 'cancelled', cancellation_reason = ?, updated_at = CURRENT_TIMESTAMP(3)
               WHERE id = ? AND status = 'confirmed'`
    out, err := tx.ExecContext(ctx, q, nullString(reason), id)
    if err != nil {
        return nil, err
    }
    if n, _ := out.RowsAffected(); n == 0 {
        return nil, ErrReservationNotFound
    }
    return getReservation(ctx, tx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
}

// Delete removes a reservation row outright.  Used only by administrators.
func (r *ReservationRepo) Delete(ctx context.Context, id string) error {
    out, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, _ := out.RowsAffected(); n == 0 {
        return ErrReservationNotFound
    }
    return nil
}

// overlapWhere builds the half-open overlap predicate for one room against
// confirmed reservations.  alias prefixes every column ("" or "r.").
func overlapWhere(alias, roomID string, start, end time.Time, excludeID string) (string, []any) {
    var b strings.Builder
    fmt.Fprintf(&b, `%[1]sroom_id = ? AND %[1]sstatus = 'confirmed' AND %[1]sstart_time < ? AND %[1]send_time > ?`, alias)
    args := []any{roomID, end.UTC(), start.UTC()}
    if excludeID != "" {
        fmt.Fprintf(&b, ` AND %sid <> ?`, alias)
        args = append(args, excludeID)
    }
    return b.String(), args
}

// overlapFinder pushes the overlap predicate to MySQL.
type overlapFinder struct {
    q querier
}

func (f overlapFinder) CountOverlapping(ctx context.Context, roomID string, start, end time.Time, excludeID string) (int, error) {
    where, args := overlapWhere("", roomID, start, end, excludeID)
    var n int
    if err := f.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations
               WHERE `+where, args...).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}

// Finder returns a conflict.Finder reading outside of any transaction.  It
// backs the user-facing availability pre-check.
func (r *ReservationRepo) Finder() conflict.Finder { return overlapFinder{q: r.db} }

// FinderTx returns a conflict.Finder that reads inside tx, after the room
// lock, so the count reflects every committed writer for that room.
func (r *ReservationRepo) FinderTx(tx *sql.Tx) conflict.Finder { return overlapFinder{q: tx} }

const viewSelect = `SELECT r.id, r.room_id, r.user_id, r.title, r.purpose, r.start_time, r.end_time, r.status,
               r.cancellation_reason, r.created_at, r.updated_at, rm.name, u.name, u.department
        FROM reservations r
        JOIN rooms rm ON rm.id = r.room_id
        JOIN users u  ON u.id = r.user_id`

func scanView(s rowScanner) (model.ReservationView, error) {
    var (
        v               model.ReservationView
        purpose, reason sql.NullString
    )
    err := s.Scan(&v.ID, &v.RoomID, &v.UserID, &v.Title, &purpose, &v.StartTime, &v.EndTime, &v.Status,
        &reason, &v.CreatedAt, &v.UpdatedAt, &v.RoomName, &v.UserName, &v.Department)
    if err != nil {
        return v, err
    }
    v.Purpose = stringPtr(purpose)
    v.CancellationReason = stringPtr(reason)
    v.StartTime = v.StartTime.UTC()
    v.EndTime = v.EndTime.UTC()
    return v, nil
}

func (r *ReservationRepo) listViews(ctx context.Context, q string, args ...any) ([]model.ReservationView, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    out := []model.ReservationView{}
    for rows.Next() {
        v, err := scanView(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, v)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// ListInRange returns confirmed reservations overlapping [start, end)
// ordered by start time.  Backs the shared calendar.
func (r *ReservationRepo) ListInRange(ctx context.Context, start, end time.Time) ([]model.ReservationView, error) {
    return r.listViews(ctx, viewSelect+`
        WHERE r.status = 'confirmed' AND r.start_time < ? AND r.end_time > ?
        ORDER BY r.start_time, rm.name`, end.UTC(), start.UTC())
}

// ListOverlapping returns the confirmed reservations of roomID that overlap
// [start, end), ordered by start time.  It uses the same predicate as the
// conflict count.
func (r *ReservationRepo) ListOverlapping(ctx context.Context, roomID string, start, end time.Time, excludeID string) ([]model.ReservationView, error) {
    where, args := overlapWhere("r.", roomID, start, end, excludeID)
    return r.listViews(ctx, viewSelect+`
        WHERE `+where+`
        ORDER BY r.start_time`, args...)
}

// ListByUser returns a user's confirmed reservations ending after since.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, since time.Time) ([]model.ReservationView, error) {
    return r.listViews(ctx, viewSelect+`
        WHERE r.user_id = ? AND r.status = 'confirmed' AND r.end_time > ?
        ORDER BY r.start_time`, userID, since.UTC())
}

// StatRow is the projection the statistics summary aggregates.
type StatRow struct {
    RoomID     string
    RoomName   string
    Department string
    StartTime  time.Time
    EndTime    time.Time
}

// ListForStats returns confirmed reservations starting in [start, end).
func (r *ReservationRepo) ListForStats(ctx context.Context, start, end time.Time) ([]StatRow, error) {
    const q = `SELECT r.room_id, rm.name, u.department, r.start_time, r.end_time
        FROM reservations r
        JOIN rooms rm ON rm.id = r.room_id
        JOIN users u  ON u.id = r.user_id
        WHERE r.status = 'confirmed' AND r.start_time >= ? AND r.start_time < ?`
    rows, err := r.db.QueryContext(ctx, q, start.UTC(), end.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []StatRow
    for rows.Next() {
        var s StatRow
        if err := rows.Scan(&s.RoomID, &s.RoomName, &s.Department, &s.StartTime, &s.EndTime); err != nil {
            return nil, err
        }
        s.StartTime = s.StartTime.UTC()
        s.EndTime = s.EndTime.UTC()
        out = append(out, s)
    }
    return out, rows.Err()
}
