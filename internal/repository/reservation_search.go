package repository

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/meeting-room-reservation/internal/model"
)

// ReservationSearchQuery defines filters & pagination for the admin
// reservation listing.  Zero values disable a filter.  From and To bound
// start_time inclusively.
type ReservationSearchQuery struct {
	RoomID     string
	UserID     uint64
	Department string
	Status     string
	From       time.Time
	To         time.Time
	Page       int
	PageSize   int
}

// Search returns one page of reservations, newest first, plus the total
// number of matches.
func (r *ReservationRepo) Search(ctx context.Context, q ReservationSearchQuery) ([]model.ReservationView, int64, error) {
	where := []string{}
	args := []any{}

	if q.RoomID != "" {
		where = append(where, "r.room_id = ?")
		args = append(args, q.RoomID)
	}
	if q.UserID != 0 {
		where = append(where, "r.user_id = ?")
		args = append(args, q.UserID)
	}
	if q.Department != "" {
		where = append(where, "LOWER(u.department) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Department)+"%")
	}
	switch strings.ToLower(q.Status) {
	case model.StatusConfirmed, model.StatusCancelled:
		where = append(where, "r.status = ?")
		args = append(args, strings.ToLower(q.Status))
	}
	if !q.From.IsZero() {
		where = append(where, "r.start_time >= ?")
		args = append(args, q.From.UTC())
	}
	if !q.To.IsZero() {
		where = append(where, "r.start_time <= ?")
		args = append(args, q.To.UTC())
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM reservations r
		JOIN rooms rm ON rm.id = r.room_id
		JOIN users u  ON u.id = r.user_id
		WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.PageSize <= 0 {
		q.PageSize = 50
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	offset := (q.Page - 1) * q.PageSize

	dataSQL := viewSelect + `
		WHERE ` + cond + `
		ORDER BY r.start_time DESC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), q.PageSize, offset)

	out, err := r.listViews(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
